// Package main is the entry point for the hypertune strategy optimizer.
// It searches a trading strategy's parameter space against historical
// candle data, minimizing a configurable loss over backtest results.
//
// The run follows a fixed sequence:
// 1. Loads configuration from environment variables (.env supported)
// 2. Initializes structured logging
// 3. Loads and preprocesses the historical dataset once
// 4. Builds the parameter space from the enabled sub-spaces
// 5. Evaluates the budget frame by frame across parallel workers
// 6. Persists the trial checkpoint and reports the best result
//
// Interrupting the process (SIGINT/SIGTERM) stops dispatching new
// evaluations, lets in-flight backtests finish, and still persists
// everything evaluated so far.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/quantflow/hypertune/internal/config"
	"github.com/quantflow/hypertune/internal/hyperopt"
	"github.com/quantflow/hypertune/internal/strategy"
	"github.com/quantflow/hypertune/pkg/logger"
)

func main() {
	// Load configuration first to get log level.
	cfg, err := config.Load()
	if err != nil {
		// Use fallback logger if config fails so the error is still
		// reported through the normal logging path.
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: true,
	})

	log.Info().Msg("Starting hypertune")

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	// A signal cancels the context; the run loop drains in-flight
	// evaluations and checkpoints before returning.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	strat := strategy.NewDefaultStrategy()
	h := hyperopt.New(cfg, strat, log)

	if err := h.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("Hyperopt run failed")
	}

	os.Exit(0)
}
