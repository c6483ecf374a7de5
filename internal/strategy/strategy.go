// Package strategy holds the direction deciders the engine can trade with.
package strategy

import (
	"context"
	"fmt"

	"candle-bot/internal/interfaces"
	"candle-bot/internal/logger"
	"candle-bot/internal/types"
)

const (
	NameFollow  = "follow"
	NameReverse = "reverse"
)

// Follow trades in the direction of the last closed candle.
type Follow struct{}

func (Follow) Decide(ctx context.Context, symbol string, latest types.Candle) (types.Decision, error) {
	d := types.Decision{
		Direction: latest.Direction,
		Reason:    "following previous candle",
	}
	logger.Decision(ctx, symbol, string(d.Direction), d.Reason, "candle_epoch", latest.Epoch)
	return d, nil
}

// Reverse bets that the last closed candle's move will not continue.
type Reverse struct{}

func (Reverse) Decide(ctx context.Context, symbol string, latest types.Candle) (types.Decision, error) {
	dir := types.Rise
	if latest.Direction == types.Rise {
		dir = types.Fall
	}
	d := types.Decision{
		Direction: dir,
		Reason:    "reversing previous candle",
	}
	logger.Decision(ctx, symbol, string(d.Direction), d.Reason, "candle_epoch", latest.Epoch)
	return d, nil
}

// New returns the decider registered under name.
func New(name string) (interfaces.Decider, error) {
	switch name {
	case NameFollow, "":
		return Follow{}, nil
	case NameReverse:
		return Reverse{}, nil
	default:
		return nil, fmt.Errorf("unknown strategy %q", name)
	}
}
