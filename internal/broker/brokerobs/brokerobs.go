package brokerobs

import (
	"context"
	"fmt"

	"candle-bot/internal/interfaces"
	"candle-bot/internal/logger"
	"candle-bot/internal/trace"
	"candle-bot/internal/types"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
)

// observableBroker wraps a Broker with observability (logging & tracing)
type observableBroker struct {
	broker interfaces.Broker
}

// Compile-time interface check
var _ interfaces.Broker = (*observableBroker)(nil)

// Wrap wraps a broker with observability middleware
func Wrap(broker interfaces.Broker) interfaces.Broker {
	return &observableBroker{
		broker: broker,
	}
}

// Connect opens and authorizes the broker session
func (ob *observableBroker) Connect(ctx context.Context) error {
	ctx, span := trace.StartSpan(ctx, "broker.Connect")
	defer span.End()

	logger.InfoSkip(ctx, 1, "Connecting to broker")

	if err := ob.broker.Connect(ctx); err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to connect broker", err)
		return fmt.Errorf("broker connect failed: %w", err)
	}

	logger.InfoSkip(ctx, 1, "Broker connected")
	return nil
}

// LatestCandle fetches the last closed candle with observability
func (ob *observableBroker) LatestCandle(ctx context.Context, symbol string, granularity int64) (types.Candle, error) {
	ctx, span := trace.StartSpan(ctx, "broker.LatestCandle")
	defer span.End()
	trace.Annotate(ctx, attribute.String("symbol", symbol), attribute.Int64("granularity", granularity))

	logger.DebugSkip(ctx, 1, "Fetching latest closed candle", "symbol", symbol, "granularity", granularity)

	candle, err := ob.broker.LatestCandle(ctx, symbol, granularity)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch candle", err, "symbol", symbol, "granularity", granularity)
		return types.Candle{}, err
	}

	logger.DebugSkip(ctx, 1, "Candle fetched successfully",
		"symbol", symbol,
		"epoch", candle.Epoch,
		"direction", candle.Direction,
	)
	return candle, nil
}

// PlaceTrade buys a contract with observability
func (ob *observableBroker) PlaceTrade(ctx context.Context, symbol string, dir types.Direction, stake decimal.Decimal, durationMin int) (types.Trade, error) {
	ctx, span := trace.StartSpan(ctx, "broker.PlaceTrade")
	defer span.End()
	trace.Annotate(ctx,
		attribute.String("symbol", symbol),
		attribute.String("direction", string(dir)),
		attribute.String("stake", stake.String()),
	)

	logger.InfoSkip(ctx, 1, "Placing trade",
		"symbol", symbol,
		"direction", dir,
		"stake", stake.String(),
		"duration_min", durationMin,
	)

	trade, err := ob.broker.PlaceTrade(ctx, symbol, dir, stake, durationMin)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to place trade", err,
			"symbol", symbol,
			"direction", dir,
		)
		return types.Trade{}, err
	}

	trace.Annotate(ctx, attribute.Int64("contract_id", trade.ContractID))
	logger.InfoSkip(ctx, 1, "Trade placed successfully",
		"symbol", symbol,
		"contract_id", trade.ContractID,
		"buy_price", trade.BuyPrice.String(),
	)
	return trade, nil
}

// Balance reads the account balance with observability
func (ob *observableBroker) Balance(ctx context.Context) (types.Balance, error) {
	ctx, span := trace.StartSpan(ctx, "broker.Balance")
	defer span.End()

	bal, err := ob.broker.Balance(ctx)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch balance", err)
		return types.Balance{}, err
	}

	logger.DebugSkip(ctx, 1, "Balance fetched", "balance", bal.Balance.String(), "currency", bal.Currency)
	return bal, nil
}

// Close shuts down the broker connection with observability
func (ob *observableBroker) Close() error {
	ctx, span := trace.StartSpan(context.Background(), "broker.Close")
	defer span.End()

	logger.InfoSkip(ctx, 1, "Closing broker connection")
	if err := ob.broker.Close(); err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to close broker", err)
		return err
	}
	logger.InfoSkip(ctx, 1, "Broker closed")
	return nil
}
