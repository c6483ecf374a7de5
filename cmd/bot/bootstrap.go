package main

import (
	"context"
	"fmt"
	"os"

	"candle-bot/internal/broker/brokerobs"
	"candle-bot/internal/broker/deriv"
	"candle-bot/internal/engine"
	"candle-bot/internal/engine/engineobs"
	"candle-bot/internal/interfaces"
	"candle-bot/internal/logger"
	"candle-bot/internal/status"
	"candle-bot/internal/store"
	"candle-bot/internal/strategy"
	"candle-bot/internal/trace"

	"github.com/joho/godotenv"
)

// initializeSystem loads .env and sets up logging and tracing.
func initializeSystem() error {
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := trace.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}
	return nil
}

func loadConfig(ctx context.Context) (*store.Config, error) {
	cfg, err := store.LoadConfig("config.yaml")
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err)
		return nil, err
	}
	return cfg, nil
}

// initializeBroker creates the Deriv client wrapped with observability.
func initializeBroker(ctx context.Context, cfg *store.Config) interfaces.Broker {
	client := deriv.NewClient(deriv.Params{
		AppID:          cfg.Deriv.AppID,
		APIToken:       cfg.Deriv.APIToken,
		Endpoint:       cfg.Deriv.Endpoint,
		Currency:       cfg.Trading.Currency,
		RequestTimeout: cfg.RequestTimeout(),
	})

	logger.Info(ctx, "Deriv client configured",
		"endpoint", cfg.Deriv.Endpoint,
		"app_id", cfg.Deriv.AppID,
		"request_timeout", cfg.RequestTimeout().String(),
	)
	return brokerobs.Wrap(client)
}

func initializeDecider(ctx context.Context, cfg *store.Config) (interfaces.Decider, error) {
	d, err := strategy.New(cfg.Trading.Strategy)
	if err != nil {
		return nil, err
	}
	logger.Info(ctx, "Strategy selected", "strategy", cfg.Trading.Strategy)
	return d, nil
}

// initializeEngine returns the concrete engine (for Stop and CheckBalance)
// and its observable wrapper (for the scheduler and status server).
func initializeEngine(cfg *store.Config, brk interfaces.Broker, d interfaces.Decider, stats *engine.Stats) (*engine.Engine, interfaces.Engine) {
	eng := engine.New(cfg, brk, d, stats)
	return eng, engineobs.Wrap(eng)
}

func initializeStatusServer(cfg *store.Config, eng interfaces.Engine, stats *engine.Stats) *status.Server {
	return status.New(":"+cfg.Server.Port, eng, stats, status.PageInfo{
		Symbol:    cfg.Trading.Symbol,
		Timeframe: cfg.Trading.Timeframe,
		Stake:     cfg.Trading.Stake.String(),
		Duration:  cfg.Trading.DurationMin,
		Strategy:  cfg.Trading.Strategy,
	})
}

func logStartup(ctx context.Context, cfg *store.Config) {
	logger.Info(ctx, "Candle bot starting",
		"symbol", cfg.Trading.Symbol,
		"timeframe_s", cfg.Trading.Timeframe,
		"stake", cfg.Trading.Stake.String(),
		"currency", cfg.Trading.Currency,
		"duration_min", cfg.Trading.DurationMin,
		"strategy", cfg.Trading.Strategy,
		"port", cfg.Server.Port,
	)
}
