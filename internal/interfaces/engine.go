package interfaces

import (
	"context"

	"candle-bot/internal/types"
)

type Engine interface {
	RunCycle(ctx context.Context) (*types.CycleResult, error)
}
