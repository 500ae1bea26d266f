package simulation

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

const (
	// DefaultInterval is the pause between ticks.
	DefaultInterval = 3 * time.Second
	intervalEnvKey  = "SEND_INTERVAL"
)

// IntervalFromEnv reads the environment variable and falls back to the default interval.
func IntervalFromEnv(logger *slog.Logger) time.Duration {
	return IntervalFromString(logger, os.Getenv(intervalEnvKey))
}

// IntervalFromString parses a duration string with sensible fallback. Bare
// integers are taken as seconds.
func IntervalFromString(logger *slog.Logger, raw string) time.Duration {
	if raw == "" {
		return DefaultInterval
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		raw = strconv.Itoa(secs) + "s"
	}
	dur, err := time.ParseDuration(raw)
	if err != nil {
		logger.Warn("invalid interval, using default", "key", intervalEnvKey, "value", raw, "err", err, "default", DefaultInterval)
		return DefaultInterval
	}
	if dur <= 0 {
		logger.Warn("non-positive interval, using default", "key", intervalEnvKey, "value", raw, "default", DefaultInterval)
		return DefaultInterval
	}
	return dur
}
