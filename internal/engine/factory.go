package engine

import (
	"candle-bot/internal/interfaces"
	"candle-bot/internal/store"
)

func New(cfg *store.Config, brk interfaces.Broker, d interfaces.Decider, stats *Stats) *Engine {
	return newEngine(cfg, brk, d, stats)
}
