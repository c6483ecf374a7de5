package interfaces

import (
	"context"

	"candle-bot/internal/types"

	"github.com/shopspring/decimal"
)

type Broker interface {
	Connect(ctx context.Context) error
	LatestCandle(ctx context.Context, symbol string, granularity int64) (types.Candle, error)
	PlaceTrade(ctx context.Context, symbol string, dir types.Direction, stake decimal.Decimal, durationMin int) (types.Trade, error)
	Balance(ctx context.Context) (types.Balance, error)
	Close() error
}
