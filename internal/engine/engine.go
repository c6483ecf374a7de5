package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"candle-bot/internal/broker/deriv"
	"candle-bot/internal/interfaces"
	"candle-bot/internal/logger"
	"candle-bot/internal/metrics"
	"candle-bot/internal/store"
	"candle-bot/internal/types"

	"github.com/google/uuid"
)

// ErrStopped is returned once an authorization failure has stopped the bot.
var ErrStopped = errors.New("engine stopped")

type Engine struct {
	cfg     *store.Config
	brk     interfaces.Broker
	decider interfaces.Decider
	stats   *Stats

	// Serializes cycles so a manual trigger never overlaps a scheduled one.
	mu      sync.Mutex
	stopped atomic.Bool
}

var _ interfaces.Engine = (*Engine)(nil)

func newEngine(cfg *store.Config, brk interfaces.Broker, d interfaces.Decider, stats *Stats) *Engine {
	return &Engine{cfg: cfg, brk: brk, decider: d, stats: stats}
}

// RunCycle fetches the last closed candle, decides a direction, buys a
// contract in that direction and refreshes the balance. Any failure is
// counted; an authorization failure also stops the engine for good.
func (e *Engine) RunCycle(ctx context.Context) (*types.CycleResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.stopped.Load() {
		return nil, ErrStopped
	}

	res, err := e.runCycle(ctx)
	if err != nil {
		e.stats.recordFailure()
		metrics.CyclesTotal.WithLabelValues("failure").Inc()

		if deriv.IsAuthError(err) {
			logger.ErrorWithErr(ctx, "Authorization failed, stopping bot. Check your API token.", err)
			e.Stop(ctx)
			return nil, fmt.Errorf("%w: %w", ErrStopped, err)
		}
		return nil, err
	}

	metrics.CyclesTotal.WithLabelValues("success").Inc()
	return res, nil
}

func (e *Engine) runCycle(ctx context.Context) (*types.CycleResult, error) {
	symbol := e.cfg.Trading.Symbol
	res := &types.CycleResult{CycleID: uuid.NewString(), Symbol: symbol}
	ctx = withCycleID(ctx, res.CycleID)
	start := time.Now()

	// Step 1: latest closed candle
	op := logger.StartOperation(ctx, "cycle.fetch_candle", "symbol", symbol)
	candle, err := e.brk.LatestCandle(op.GetContext(), symbol, int64(e.cfg.Trading.Timeframe))
	if err != nil {
		op.EndWithError(err, "cycle_id", res.CycleID)
		return nil, fmt.Errorf("fetch candle: %w", err)
	}
	fetchDur := op.End("direction", string(candle.Direction))
	metrics.StepDuration.WithLabelValues("fetch").Observe(fetchDur.Seconds())
	e.stats.recordCandle(candle)
	res.Candle = candle
	res.FetchMs = fetchDur.Milliseconds()

	logger.Info(ctx, "Candle fetched",
		"cycle_id", res.CycleID,
		"time", candle.Timestamp.Format(time.RFC3339),
		"open", candle.Open,
		"high", candle.High,
		"low", candle.Low,
		"close", candle.Close,
		"direction", candle.Direction,
		"duration_ms", res.FetchMs,
	)

	// Step 2: direction
	decision, err := e.decider.Decide(ctx, symbol, candle)
	if err != nil {
		return nil, fmt.Errorf("decide: %w", err)
	}
	res.Decision = decision

	// Step 3: buy
	op = logger.StartOperation(ctx, "cycle.place_trade", "symbol", symbol, "direction", string(decision.Direction))
	trade, err := e.brk.PlaceTrade(op.GetContext(), symbol, decision.Direction, e.cfg.Trading.Stake, e.cfg.Trading.DurationMin)
	if err != nil {
		op.EndWithError(err, "cycle_id", res.CycleID)
		return nil, fmt.Errorf("place trade: %w", err)
	}
	tradeDur := op.End("contract_id", trade.ContractID)
	metrics.StepDuration.WithLabelValues("trade").Observe(tradeDur.Seconds())
	metrics.TradesTotal.WithLabelValues(string(decision.Direction)).Inc()
	e.stats.recordTrade(types.TradeRecord{Trade: trade, Direction: decision.Direction, Timestamp: time.Now().UTC()})
	res.Trade = trade
	res.TradeMs = tradeDur.Milliseconds()

	logger.Trade(ctx, symbol, string(decision.Direction), trade.ContractID, trade.BuyPrice.String(), trade.Payout.String(),
		"cycle_id", res.CycleID,
		"longcode", trade.Longcode,
		"duration_ms", res.TradeMs,
	)

	total := time.Since(start)
	res.TotalMs = total.Milliseconds()
	res.OverheadMs = res.TotalMs - res.FetchMs - res.TradeMs
	logger.Info(ctx, "Total execution time",
		"cycle_id", res.CycleID,
		"total_ms", res.TotalMs,
		"fetch_ms", res.FetchMs,
		"trade_ms", res.TradeMs,
		"overhead_ms", res.OverheadMs,
	)

	// Step 4: balance
	bal, err := e.brk.Balance(ctx)
	if err != nil {
		return nil, fmt.Errorf("refresh balance: %w", err)
	}
	e.stats.recordBalance(bal)
	res.Balance = bal
	logger.Info(ctx, "Current balance", "cycle_id", res.CycleID, "balance", bal.Balance.String(), "currency", bal.Currency)

	return res, nil
}

// CheckBalance reads and records the balance outside a cycle.
func (e *Engine) CheckBalance(ctx context.Context) (types.Balance, error) {
	bal, err := e.brk.Balance(ctx)
	if err != nil {
		return types.Balance{}, err
	}
	e.stats.recordBalance(bal)
	logger.Info(ctx, "Account balance", "balance", bal.Balance.String(), "currency", bal.Currency)
	return bal, nil
}

// Stop halts the engine and closes the broker. Later cycles fail with ErrStopped.
func (e *Engine) Stop(ctx context.Context) {
	if !e.stopped.CompareAndSwap(false, true) {
		return
	}
	logger.Warn(ctx, "Stopping bot")
	e.stats.setState(StateStopped)
	if err := e.brk.Close(); err != nil {
		logger.ErrorWithErr(ctx, "Failed to close broker", err)
	}
}

func (e *Engine) Stopped() bool {
	return e.stopped.Load()
}

type cycleIDKey struct{}

func withCycleID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, cycleIDKey{}, id)
}

// CycleID returns the id of the cycle running under ctx, if any.
func CycleID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(cycleIDKey{}).(string)
	return id, ok
}
