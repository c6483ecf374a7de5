package interfaces

import (
	"context"

	"candle-bot/internal/types"
)

type Decider interface {
	Decide(ctx context.Context, symbol string, latest types.Candle) (types.Decision, error)
}
