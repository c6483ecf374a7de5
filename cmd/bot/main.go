package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"candle-bot/internal/engine"
	"candle-bot/internal/logger"
	"candle-bot/internal/store"
	"candle-bot/internal/trace"
)

func main() {
	os.Exit(run())
}

func run() int {
	if err := initializeSystem(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize system: %v\n", err)
		return 1
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := loadConfig(ctx)
	if err != nil {
		if errors.Is(err, store.ErrMissingToken) {
			logger.Error(ctx, "DERIV_API_TOKEN is required. Set it in the environment or .env file.")
		}
		return 1
	}
	logStartup(ctx, cfg)

	stats := engine.NewStats(time.Now())
	brk := initializeBroker(ctx, cfg)

	decider, err := initializeDecider(ctx, cfg)
	if err != nil {
		logger.ErrorWithErr(ctx, "Invalid strategy", err)
		return 1
	}

	eng, observed := initializeEngine(cfg, brk, decider, stats)
	srv := initializeStatusServer(cfg, observed, stats)

	go func() {
		if err := srv.Start(); err != nil {
			logger.ErrorWithErr(ctx, "Status server failed", err)
		}
	}()

	if err := brk.Connect(ctx); err != nil {
		logger.ErrorWithErr(ctx, "Failed to connect to Deriv", err)
		shutdown(srv)
		return 1
	}

	if _, err := eng.CheckBalance(ctx); err != nil {
		logger.Warn(ctx, "Could not read starting balance", "error", err.Error())
	}

	sched := engine.NewScheduler(observed, stats, cfg.Period())
	done := make(chan error, 1)
	go func() { done <- sched.Run(ctx) }()

	logger.Info(ctx, "Bot started")

	if err := <-done; err != nil {
		// Stopped after an authorization failure. The status server stays up
		// so the stopped state is visible until the process is signalled.
		logger.ErrorWithErr(ctx, "Scheduler stopped, waiting for shutdown signal", err)
		<-ctx.Done()
	}

	logger.Info(context.Background(), "Shutting down...")
	eng.Stop(context.Background())
	shutdown(srv)
	return 0
}

type shutdowner interface {
	Shutdown(ctx context.Context) error
}

func shutdown(srv shutdowner) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.ErrorWithErr(ctx, "Status server shutdown failed", err)
	}
	if err := trace.Shutdown(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to shutdown tracer: %v\n", err)
	}
}
