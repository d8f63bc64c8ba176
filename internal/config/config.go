// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/shirou/gopsutil/v3/cpu"

	"github.com/quantflow/hypertune/internal/utils"
)

// Config holds the run configuration for a hyperopt session.
type Config struct {
	DataDir  string // Base directory for checkpoints and databases (always absolute)
	LogLevel string

	// Search budget and scheduling
	Epochs    int      // Total evaluation budget
	Spaces    []string // Enabled search spaces (buy, sell, roi, stoploss, all)
	FrameSize int      // Evaluations per frame (default 100)
	Jobs      int      // Parallel workers (default: logical core count)
	Seed      int64    // Optimizer RNG seed (0 uses the built-in default)

	// Historical data
	HistoryDBPath    string
	Pair             string
	TimeframeMinutes int
	TimerangeFrom    int64 // Unix seconds, 0 = open-ended
	TimerangeTo      int64

	// Simulation
	StakeAmount   float64
	StakeCurrency string
	Fee           float64

	// Defaults applied when the matching space is not searched
	DefaultStoploss float64
	UseSellSignal   bool
}

// TrialsPath returns the trial checkpoint location under DataDir.
func (c *Config) TrialsPath() string {
	return filepath.Join(c.DataDir, "hyperopt_results.msgpack")
}

// Load reads configuration from environment variables (.env supported).
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("HYPERTUNE_DATA_DIR", "data")
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:  absDataDir,
		LogLevel: getEnv("LOG_LEVEL", "info"),

		Epochs:    getEnvAsInt("HYPEROPT_EPOCHS", 100),
		Spaces:    utils.ParseCSV(getEnv("HYPEROPT_SPACES", "all")),
		FrameSize: getEnvAsInt("HYPEROPT_FRAME_SIZE", 100),
		Jobs:      getEnvAsInt("HYPEROPT_JOBS", 0),
		Seed:      int64(getEnvAsInt("HYPEROPT_SEED", 0)),

		HistoryDBPath:    getEnv("HISTORY_DB_PATH", filepath.Join(absDataDir, "history.db")),
		Pair:             getEnv("PAIR", "BTC/USDT"),
		TimeframeMinutes: getEnvAsInt("TIMEFRAME_MINUTES", 5),
		TimerangeFrom:    int64(getEnvAsInt("TIMERANGE_FROM", 0)),
		TimerangeTo:      int64(getEnvAsInt("TIMERANGE_TO", 0)),

		StakeAmount:   getEnvAsFloat("STAKE_AMOUNT", 1000),
		StakeCurrency: getEnv("STAKE_CURRENCY", "USDT"),
		Fee:           getEnvAsFloat("FEE", 0.001),

		DefaultStoploss: getEnvAsFloat("DEFAULT_STOPLOSS", -0.10),
		UseSellSignal:   getEnvAsBool("USE_SELL_SIGNAL", false),
	}

	if cfg.Jobs <= 0 {
		cfg.Jobs = detectCores()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration describes a runnable session.
func (c *Config) Validate() error {
	if c.Epochs < 1 {
		return fmt.Errorf("HYPEROPT_EPOCHS must be at least 1, got %d", c.Epochs)
	}
	if c.FrameSize < 1 {
		return fmt.Errorf("HYPEROPT_FRAME_SIZE must be at least 1, got %d", c.FrameSize)
	}
	if c.TimeframeMinutes < 1 {
		return fmt.Errorf("TIMEFRAME_MINUTES must be at least 1, got %d", c.TimeframeMinutes)
	}
	if c.DefaultStoploss >= 0 {
		return fmt.Errorf("DEFAULT_STOPLOSS must be negative, got %f", c.DefaultStoploss)
	}
	return nil
}

// detectCores returns the logical CPU count, falling back to 1.
func detectCores() int {
	count, err := cpu.Counts(true)
	if err != nil || count < 1 {
		return 1
	}
	return count
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
