package engineobs

import (
	"context"
	"time"

	"candle-bot/internal/interfaces"
	"candle-bot/internal/logger"
	"candle-bot/internal/trace"
	"candle-bot/internal/types"
)

type observableEngine struct {
	engine interfaces.Engine
}

var _ interfaces.Engine = (*observableEngine)(nil)

func Wrap(eng interfaces.Engine) interfaces.Engine {
	return &observableEngine{engine: eng}
}

func (oe *observableEngine) RunCycle(ctx context.Context) (*types.CycleResult, error) {
	ctx, span := trace.StartSpan(ctx, "engine.RunCycle")
	defer span.End()

	start := time.Now()
	logger.InfoSkip(ctx, 1, "Starting trading cycle")

	result, err := oe.engine.RunCycle(ctx)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Trading cycle failed", err,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}

	logger.InfoSkip(ctx, 1, "Trading cycle completed",
		"cycle_id", result.CycleID,
		"symbol", result.Symbol,
		"direction", result.Decision.Direction,
		"reason", result.Decision.Reason,
		"contract_id", result.Trade.ContractID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}
