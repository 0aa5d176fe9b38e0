package worker

import (
	"fmt"
	"log/slog"
	"time"

	"microsubd/internal/pkg/config"
)

// SchedulerConfig holds the configuration for the Tier Scheduler daemon
// (C6): its cron tick schedule, timezone, per-tick fetch concurrency, the
// per-feed fetch deadline, and the health-check port.
//
// Configuration sources:
//   - Environment variables (loaded via LoadConfigFromEnv)
//   - Default values (provided by DefaultConfig)
type SchedulerConfig struct {
	// TickSchedule is the cron expression driving scheduler ticks.
	// Default: "@every 1m" (spec.md §5).
	TickSchedule string

	// Timezone is the IANA timezone name the cron driver runs in.
	// Default: "UTC".
	Timezone string

	// FetchConcurrency bounds how many Processor invocations a single tick
	// fans out concurrently (spec.md §5's BATCH_CONCURRENCY).
	// Range: 1-50. Default: 5.
	FetchConcurrency int

	// FetchTimeout is the per-feed fetch deadline (spec.md §5).
	// Must be positive. Default: 30s.
	FetchTimeout time.Duration

	// HealthPort is the port number for the health check HTTP server.
	// Range: 1024-65535. Default: 9091.
	HealthPort int
}

// DefaultConfig returns a SchedulerConfig with spec.md-mandated defaults.
func DefaultConfig() SchedulerConfig {
	return SchedulerConfig{
		TickSchedule:     "@every 1m",
		Timezone:         "UTC",
		FetchConcurrency: 5,
		FetchTimeout:     30 * time.Second,
		HealthPort:       9091,
	}
}

// Validate checks if the configuration values are valid, collecting all
// failures rather than stopping at the first.
func (c *SchedulerConfig) Validate() error {
	var errors []error

	if err := config.ValidateCronSchedule(c.TickSchedule); err != nil {
		errors = append(errors, fmt.Errorf("tick schedule: %w", err))
	}
	if err := config.ValidateTimezone(c.Timezone); err != nil {
		errors = append(errors, fmt.Errorf("timezone: %w", err))
	}
	if err := config.ValidateIntRange(c.FetchConcurrency, 1, 50); err != nil {
		errors = append(errors, fmt.Errorf("fetch concurrency: %w", err))
	}
	if err := config.ValidatePositiveDuration(c.FetchTimeout); err != nil {
		errors = append(errors, fmt.Errorf("fetch timeout: %w", err))
	}
	if err := config.ValidateIntRange(c.HealthPort, 1024, 65535); err != nil {
		errors = append(errors, fmt.Errorf("health port: %w", err))
	}

	if len(errors) > 0 {
		return fmt.Errorf("validation failed: %v", errors)
	}
	return nil
}

// LoadConfigFromEnv loads scheduler configuration from environment variables
// with validation and automatic fallback to default values on failure
// (fail-open: this function never returns an error).
//
// Environment variables:
//   - SCHEDULER_TICK_SCHEDULE: cron expression (default: "@every 1m")
//   - SCHEDULER_TIMEZONE: IANA timezone name (default: "UTC")
//   - SCHEDULER_FETCH_CONCURRENCY: integer 1-50 (default: 5)
//   - SCHEDULER_FETCH_TIMEOUT: duration string, e.g. "30s" (default: 30s)
//   - SCHEDULER_HEALTH_PORT: integer 1024-65535 (default: 9091)
func LoadConfigFromEnv(logger *slog.Logger, metrics *WorkerMetrics) (*SchedulerConfig, error) {
	cfg := DefaultConfig()
	fallbackApplied := false

	result := config.LoadEnvWithFallback("SCHEDULER_TICK_SCHEDULE", cfg.TickSchedule, config.ValidateCronSchedule)
	cfg.TickSchedule = result.Value.(string)
	if result.FallbackApplied {
		fallbackApplied = true
		metrics.RecordValidationError("tick_schedule")
		metrics.RecordFallback("tick_schedule", "default")
		for _, warning := range result.Warnings {
			logger.Warn("Configuration fallback applied", slog.String("field", "TickSchedule"), slog.String("warning", warning))
		}
	}

	result = config.LoadEnvWithFallback("SCHEDULER_TIMEZONE", cfg.Timezone, config.ValidateTimezone)
	cfg.Timezone = result.Value.(string)
	if result.FallbackApplied {
		fallbackApplied = true
		metrics.RecordValidationError("timezone")
		metrics.RecordFallback("timezone", "default")
		for _, warning := range result.Warnings {
			logger.Warn("Configuration fallback applied", slog.String("field", "Timezone"), slog.String("warning", warning))
		}
	}

	result = config.LoadEnvInt("SCHEDULER_FETCH_CONCURRENCY", cfg.FetchConcurrency, func(v int) error {
		return config.ValidateIntRange(v, 1, 50)
	})
	cfg.FetchConcurrency = result.Value.(int)
	if result.FallbackApplied {
		fallbackApplied = true
		metrics.RecordValidationError("fetch_concurrency")
		metrics.RecordFallback("fetch_concurrency", "default")
		for _, warning := range result.Warnings {
			logger.Warn("Configuration fallback applied", slog.String("field", "FetchConcurrency"), slog.String("warning", warning))
		}
	}

	result = config.LoadEnvDuration("SCHEDULER_FETCH_TIMEOUT", cfg.FetchTimeout, func(d time.Duration) error {
		return config.ValidateDuration(d, 1*time.Second, 5*time.Minute)
	})
	cfg.FetchTimeout = result.Value.(time.Duration)
	if result.FallbackApplied {
		fallbackApplied = true
		metrics.RecordValidationError("fetch_timeout")
		metrics.RecordFallback("fetch_timeout", "default")
		for _, warning := range result.Warnings {
			logger.Warn("Configuration fallback applied", slog.String("field", "FetchTimeout"), slog.String("warning", warning))
		}
	}

	result = config.LoadEnvInt("SCHEDULER_HEALTH_PORT", cfg.HealthPort, func(v int) error {
		return config.ValidateIntRange(v, 1024, 65535)
	})
	cfg.HealthPort = result.Value.(int)
	if result.FallbackApplied {
		fallbackApplied = true
		metrics.RecordValidationError("health_port")
		metrics.RecordFallback("health_port", "default")
		for _, warning := range result.Warnings {
			logger.Warn("Configuration fallback applied", slog.String("field", "HealthPort"), slog.String("warning", warning))
		}
	}

	metrics.SetFallbackActive("", fallbackApplied)
	metrics.RecordLoadTimestamp()

	return &cfg, nil
}
