package deriv

import (
	"context"
	"fmt"

	"candle-bot/internal/interfaces"
	"candle-bot/internal/logger"
	"candle-bot/internal/types"

	"github.com/shopspring/decimal"
)

var _ interfaces.Broker = (*Client)(nil)

// CandleCloseTime returns the end of the most recently closed bucket of
// granularity seconds before unix time now.
func CandleCloseTime(now, granularity int64) int64 {
	return floorDiv(now, granularity)*granularity - granularity
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// ContractType maps a direction to the binary option contract that profits from it.
func ContractType(dir types.Direction) string {
	if dir == types.Rise {
		return "CALL"
	}
	return "PUT"
}

// LatestCandle fetches the last fully closed candle of symbol.
func (c *Client) LatestCandle(ctx context.Context, symbol string, granularity int64) (types.Candle, error) {
	if granularity <= 0 {
		return types.Candle{}, fmt.Errorf("granularity must be positive, got %d", granularity)
	}

	var resp CandlesResponse
	err := c.call(ctx, &TicksHistoryRequest{
		TicksHistory:    symbol,
		AdjustStartTime: 1,
		Count:           1,
		End:             CandleCloseTime(c.now().Unix(), granularity),
		Granularity:     granularity,
		Style:           "candles",
	}, &resp)
	if err != nil {
		return types.Candle{}, err
	}
	if len(resp.Candles) == 0 {
		return types.Candle{}, ErrNoCandles
	}

	wc := resp.Candles[0]
	return types.NewCandle(
		wc.Epoch,
		wc.Open.InexactFloat64(),
		wc.High.InexactFloat64(),
		wc.Low.InexactFloat64(),
		wc.Close.InexactFloat64(),
	), nil
}

// PlaceTrade prices a contract for dir and buys it at the quoted price.
// Nothing is bought when the proposal step fails.
func (c *Client) PlaceTrade(ctx context.Context, symbol string, dir types.Direction, stake decimal.Decimal, durationMin int) (types.Trade, error) {
	contractType := ContractType(dir)

	var prop ProposalResponse
	err := c.call(ctx, &ProposalRequest{
		Proposal:     1,
		Amount:       amount(stake),
		Basis:        "stake",
		ContractType: contractType,
		Currency:     c.p.Currency,
		Duration:     durationMin,
		DurationUnit: "m",
		Symbol:       symbol,
	}, &prop)
	if err != nil {
		return types.Trade{}, fmt.Errorf("proposal: %w", err)
	}
	if prop.Proposal == nil || prop.Proposal.ID == "" {
		return types.Trade{}, ErrNoProposal
	}

	logger.Info(ctx, "Proposal received",
		"contract_type", contractType,
		"symbol", symbol,
		"stake", stake.String(),
		"duration_min", durationMin,
		"ask_price", prop.Proposal.AskPrice.String(),
		"payout", prop.Proposal.Payout.String(),
	)

	price := prop.Proposal.AskPrice
	if !price.IsPositive() {
		price = stake
	}

	var buy BuyResponse
	err = c.call(ctx, &BuyRequest{
		Buy:   prop.Proposal.ID,
		Price: amount(price),
	}, &buy)
	if err != nil {
		return types.Trade{}, fmt.Errorf("buy: %w", err)
	}
	if buy.Buy == nil {
		return types.Trade{}, ErrNoConfirmation
	}

	return types.Trade{
		ContractID:   buy.Buy.ContractID,
		PurchaseTime: buy.Buy.PurchaseTime,
		BuyPrice:     buy.Buy.BuyPrice,
		Payout:       buy.Buy.Payout,
		Longcode:     buy.Buy.Longcode,
	}, nil
}

func (c *Client) Balance(ctx context.Context) (types.Balance, error) {
	var resp BalanceResponse
	if err := c.call(ctx, &BalanceRequest{Balance: 1}, &resp); err != nil {
		return types.Balance{}, err
	}
	if resp.Balance == nil {
		return types.Balance{}, fmt.Errorf("deriv: empty balance response")
	}
	return types.Balance{
		Balance:  resp.Balance.Balance,
		Currency: resp.Balance.Currency,
	}, nil
}
