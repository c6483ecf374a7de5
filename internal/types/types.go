package types

import (
	"time"

	"github.com/shopspring/decimal"
)

type Direction string

const (
	Rise Direction = "RISE"
	Fall Direction = "FALL"
)

// DirectionOf classifies a candle body. A flat candle counts as FALL.
func DirectionOf(open, close float64) Direction {
	if close > open {
		return Rise
	}
	return Fall
}

type Candle struct {
	Epoch     int64     `json:"epoch"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Direction Direction `json:"direction"`
	Timestamp time.Time `json:"timestamp"`
}

// NewCandle builds a candle and derives its direction.
func NewCandle(epoch int64, open, high, low, close float64) Candle {
	return Candle{
		Epoch:     epoch,
		Open:      open,
		High:      high,
		Low:       low,
		Close:     close,
		Direction: DirectionOf(open, close),
		Timestamp: time.Unix(epoch, 0).UTC(),
	}
}

type Trade struct {
	ContractID   int64           `json:"contractId"`
	PurchaseTime int64           `json:"purchaseTime"`
	BuyPrice     decimal.Decimal `json:"buyPrice"`
	Payout       decimal.Decimal `json:"payout"`
	Longcode     string          `json:"longcode"`
}

// TradeRecord is a trade as remembered by the stats surface.
type TradeRecord struct {
	Trade
	Direction Direction `json:"direction"`
	Timestamp time.Time `json:"timestamp"`
}

type Balance struct {
	Balance  decimal.Decimal `json:"balance"`
	Currency string          `json:"currency"`
}

type Decision struct {
	Direction Direction `json:"direction"`
	Reason    string    `json:"reason"`
}

type CycleResult struct {
	CycleID    string   `json:"cycleId"`
	Symbol     string   `json:"symbol"`
	Candle     Candle   `json:"candle"`
	Decision   Decision `json:"decision"`
	Trade      Trade    `json:"trade"`
	Balance    Balance  `json:"balance"`
	FetchMs    int64    `json:"fetchMs"`
	TradeMs    int64    `json:"tradeMs"`
	TotalMs    int64    `json:"totalMs"`
	OverheadMs int64    `json:"overheadMs"`
}
