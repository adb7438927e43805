package config

import (
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"time"
)

// Config holds the environment-supplied defaults for the CLIs. Flags override
// these values before the session is reconciled.
type Config struct {
	Metric           string
	TimestampPattern string
	Timezone         string
	Epoch            time.Duration
	Policy           string
	Workers          int
	OutDir           string
	StorePath        string
	LogLevel         string
}

// Load reads configuration from environment variables. It falls back to
// default values if variables are not set or invalid.
func Load() *Config {
	return &Config{
		Metric:           getEnv("ACTINORM_METRIC", "PIM"),
		TimestampPattern: getEnv("ACTINORM_TIMESTAMP_PATTERN", ""),
		Timezone:         getEnv("ACTINORM_TIMEZONE", "UTC"),
		Epoch:            getEnvAsDuration("ACTINORM_EPOCH", 0),
		Policy:           getEnv("ACTINORM_TOLERANCE_POLICY", "fill-missing"),
		Workers:          getEnvAsInt("ACTINORM_WORKERS", runtime.NumCPU()),
		OutDir:           getEnv("ACTINORM_OUT_DIR", "out"),
		StorePath:        getEnv("ACTINORM_STORE", ""),
		LogLevel:         getEnv("ACTINORM_LOG_LEVEL", "info"),
	}
}

// getEnv retrieves a string environment variable or returns a fallback value.
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// getEnvAsInt retrieves an int environment variable or returns a fallback value.
func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		slog.Warn("invalid integer in environment, using fallback", "key", key, "value", valueStr, "fallback", fallback)
		return fallback
	}
	return value
}

// getEnvAsDuration accepts Go duration strings plus bare integers, which
// device documentation usually quotes as epoch seconds.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}

	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	if secs, err := strconv.Atoi(valueStr); err == nil {
		return time.Duration(secs) * time.Second
	}
	slog.Warn("invalid duration in environment, using fallback", "key", key, "value", valueStr, "fallback", fallback)
	return fallback
}
