package worker

import (
	"bytes"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.TickSchedule != "@every 1m" {
		t.Errorf("Expected TickSchedule '@every 1m', got '%s'", config.TickSchedule)
	}
	if config.Timezone != "UTC" {
		t.Errorf("Expected Timezone 'UTC', got '%s'", config.Timezone)
	}
	if config.FetchConcurrency != 5 {
		t.Errorf("Expected FetchConcurrency 5, got %d", config.FetchConcurrency)
	}
	if config.FetchTimeout != 30*time.Second {
		t.Errorf("Expected FetchTimeout 30s, got %v", config.FetchTimeout)
	}
	if config.HealthPort != 9091 {
		t.Errorf("Expected HealthPort 9091, got %d", config.HealthPort)
	}
}

func TestDefaultConfig_Immutability(t *testing.T) {
	config1 := DefaultConfig()
	config2 := DefaultConfig()

	config1.TickSchedule = "@every 5m"
	config1.FetchConcurrency = 20

	if config2.TickSchedule != "@every 1m" {
		t.Error("DefaultConfig() should return independent copies")
	}
	if config2.FetchConcurrency != 5 {
		t.Error("DefaultConfig() should return independent copies")
	}
}

func TestSchedulerConfig_StructFields(t *testing.T) {
	config := SchedulerConfig{
		TickSchedule:     "@every 2m",
		Timezone:         "UTC",
		FetchConcurrency: 8,
		FetchTimeout:     15 * time.Second,
		HealthPort:       8080,
	}

	if config.TickSchedule != "@every 2m" {
		t.Errorf("TickSchedule field not set correctly: %s", config.TickSchedule)
	}
	if config.FetchConcurrency != 8 {
		t.Errorf("FetchConcurrency field not set correctly: %d", config.FetchConcurrency)
	}
	if config.FetchTimeout != 15*time.Second {
		t.Errorf("FetchTimeout field not set correctly: %v", config.FetchTimeout)
	}
	if config.HealthPort != 8080 {
		t.Errorf("HealthPort field not set correctly: %d", config.HealthPort)
	}
}

func TestSchedulerConfig_ZeroValue(t *testing.T) {
	var config SchedulerConfig

	if config.TickSchedule != "" {
		t.Errorf("Expected empty TickSchedule, got '%s'", config.TickSchedule)
	}
	if config.FetchConcurrency != 0 {
		t.Errorf("Expected FetchConcurrency 0, got %d", config.FetchConcurrency)
	}
	if config.FetchTimeout != 0 {
		t.Errorf("Expected FetchTimeout 0, got %v", config.FetchTimeout)
	}
}

func TestSchedulerConfig_Validate_ValidConfig(t *testing.T) {
	config := DefaultConfig()
	if err := config.Validate(); err != nil {
		t.Errorf("Expected default config to be valid, got error: %v", err)
	}
}

func TestSchedulerConfig_Validate_InvalidTickSchedule(t *testing.T) {
	config := DefaultConfig()
	config.TickSchedule = "invalid cron"

	err := config.Validate()
	if err == nil {
		t.Fatal("Expected validation error for invalid cron schedule")
	}
	if !strings.Contains(err.Error(), "tick schedule") {
		t.Errorf("Expected error to mention tick schedule, got: %v", err)
	}
}

func TestSchedulerConfig_Validate_EmptyTickSchedule(t *testing.T) {
	config := DefaultConfig()
	config.TickSchedule = ""

	if err := config.Validate(); err == nil {
		t.Error("Expected validation error for empty tick schedule")
	}
}

func TestSchedulerConfig_Validate_InvalidTimezone(t *testing.T) {
	config := DefaultConfig()
	config.Timezone = "Invalid/Zone"

	if err := config.Validate(); err == nil {
		t.Error("Expected validation error for invalid timezone")
	}
}

func TestSchedulerConfig_Validate_EmptyTimezone(t *testing.T) {
	config := DefaultConfig()
	config.Timezone = ""

	if err := config.Validate(); err == nil {
		t.Error("Expected validation error for empty timezone")
	}
}

func TestSchedulerConfig_Validate_FetchConcurrencyTooLow(t *testing.T) {
	config := DefaultConfig()
	config.FetchConcurrency = 0

	if err := config.Validate(); err == nil {
		t.Error("Expected validation error for FetchConcurrency = 0")
	}
}

func TestSchedulerConfig_Validate_FetchConcurrencyTooHigh(t *testing.T) {
	config := DefaultConfig()
	config.FetchConcurrency = 51

	if err := config.Validate(); err == nil {
		t.Error("Expected validation error for FetchConcurrency = 51")
	}
}

func TestSchedulerConfig_Validate_FetchConcurrencyBoundary(t *testing.T) {
	tests := []struct {
		name  string
		value int
		valid bool
	}{
		{"Min valid (1)", 1, true},
		{"Max valid (50)", 50, true},
		{"Below min (0)", 0, false},
		{"Above max (51)", 51, false},
		{"Negative", -1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			config.FetchConcurrency = tt.value

			err := config.Validate()
			if tt.valid && err != nil {
				t.Errorf("Expected valid FetchConcurrency %d, got error: %v", tt.value, err)
			}
			if !tt.valid && err == nil {
				t.Errorf("Expected validation error for FetchConcurrency %d", tt.value)
			}
		})
	}
}

func TestSchedulerConfig_Validate_FetchTimeoutZero(t *testing.T) {
	config := DefaultConfig()
	config.FetchTimeout = 0

	if err := config.Validate(); err == nil {
		t.Error("Expected validation error for FetchTimeout = 0")
	}
}

func TestSchedulerConfig_Validate_FetchTimeoutNegative(t *testing.T) {
	config := DefaultConfig()
	config.FetchTimeout = -1 * time.Second

	if err := config.Validate(); err == nil {
		t.Error("Expected validation error for negative FetchTimeout")
	}
}

func TestSchedulerConfig_Validate_FetchTimeoutValid(t *testing.T) {
	tests := []struct {
		name     string
		duration time.Duration
	}{
		{"1 second", 1 * time.Second},
		{"10 seconds", 10 * time.Second},
		{"1 minute", 1 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			config.FetchTimeout = tt.duration

			if err := config.Validate(); err != nil {
				t.Errorf("Expected %v to be valid, got error: %v", tt.duration, err)
			}
		})
	}
}

func TestSchedulerConfig_Validate_HealthPortTooLow(t *testing.T) {
	config := DefaultConfig()
	config.HealthPort = 100

	if err := config.Validate(); err == nil {
		t.Error("Expected validation error for HealthPort = 100")
	}
}

func TestSchedulerConfig_Validate_HealthPortTooHigh(t *testing.T) {
	config := DefaultConfig()
	config.HealthPort = 70000

	if err := config.Validate(); err == nil {
		t.Error("Expected validation error for HealthPort = 70000")
	}
}

func TestSchedulerConfig_Validate_HealthPortBoundary(t *testing.T) {
	tests := []struct {
		name  string
		port  int
		valid bool
	}{
		{"Min valid (1024)", 1024, true},
		{"Max valid (65535)", 65535, true},
		{"Below min (1023)", 1023, false},
		{"Above max (65536)", 65536, false},
		{"Zero", 0, false},
		{"Negative", -1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			config.HealthPort = tt.port

			err := config.Validate()
			if tt.valid && err != nil {
				t.Errorf("Expected valid port %d, got error: %v", tt.port, err)
			}
			if !tt.valid && err == nil {
				t.Errorf("Expected validation error for port %d", tt.port)
			}
		})
	}
}

func TestSchedulerConfig_Validate_MultipleErrors(t *testing.T) {
	config := SchedulerConfig{
		TickSchedule:     "invalid",
		Timezone:         "Invalid/Zone",
		FetchConcurrency: 0,
		FetchTimeout:     0,
		HealthPort:       100,
	}

	err := config.Validate()
	if err == nil {
		t.Fatal("Expected validation errors for multiple invalid fields")
	}
	if err.Error() == "" {
		t.Error("Error message should not be empty")
	}
}

// globalTestMetrics is a shared metrics instance for tests to avoid
// repeated Prometheus registration.
var globalTestMetrics = NewWorkerMetrics()

func setEnv(t *testing.T, key, value string) {
	t.Helper()
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("failed to set env var %s: %v", key, err)
	}
}

func unsetEnv(t *testing.T, key string) {
	t.Helper()
	if err := os.Unsetenv(key); err != nil {
		t.Fatalf("failed to unset env var %s: %v", key, err)
	}
}

func TestLoadConfigFromEnv_AllEnvVarsValid(t *testing.T) {
	setEnv(t, "SCHEDULER_TICK_SCHEDULE", "@every 2m")
	setEnv(t, "SCHEDULER_TIMEZONE", "UTC")
	setEnv(t, "SCHEDULER_FETCH_CONCURRENCY", "20")
	setEnv(t, "SCHEDULER_FETCH_TIMEOUT", "45s")
	setEnv(t, "SCHEDULER_HEALTH_PORT", "8080")
	defer func() {
		unsetEnv(t, "SCHEDULER_TICK_SCHEDULE")
		unsetEnv(t, "SCHEDULER_TIMEZONE")
		unsetEnv(t, "SCHEDULER_FETCH_CONCURRENCY")
		unsetEnv(t, "SCHEDULER_FETCH_TIMEOUT")
		unsetEnv(t, "SCHEDULER_HEALTH_PORT")
	}()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	config, err := LoadConfigFromEnv(logger, globalTestMetrics)
	if err != nil {
		t.Fatalf("LoadConfigFromEnv should never return an error (fail-open), got: %v", err)
	}
	if config.TickSchedule != "@every 2m" {
		t.Errorf("Expected TickSchedule '@every 2m', got '%s'", config.TickSchedule)
	}
	if config.FetchConcurrency != 20 {
		t.Errorf("Expected FetchConcurrency 20, got %d", config.FetchConcurrency)
	}
	if config.FetchTimeout != 45*time.Second {
		t.Errorf("Expected FetchTimeout 45s, got %v", config.FetchTimeout)
	}
	if config.HealthPort != 8080 {
		t.Errorf("Expected HealthPort 8080, got %d", config.HealthPort)
	}
}

func TestLoadConfigFromEnv_MissingEnvVars(t *testing.T) {
	unsetEnv(t, "SCHEDULER_TICK_SCHEDULE")
	unsetEnv(t, "SCHEDULER_TIMEZONE")
	unsetEnv(t, "SCHEDULER_FETCH_CONCURRENCY")
	unsetEnv(t, "SCHEDULER_FETCH_TIMEOUT")
	unsetEnv(t, "SCHEDULER_HEALTH_PORT")

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	config, err := LoadConfigFromEnv(logger, globalTestMetrics)
	if err != nil {
		t.Fatalf("LoadConfigFromEnv should never return an error, got: %v", err)
	}

	defaults := DefaultConfig()
	if *config != defaults {
		t.Errorf("Expected defaults when no env vars set, got %+v", config)
	}
}

func TestLoadConfigFromEnv_InvalidTickSchedule(t *testing.T) {
	setEnv(t, "SCHEDULER_TICK_SCHEDULE", "invalid cron")
	defer unsetEnv(t, "SCHEDULER_TICK_SCHEDULE")

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	config, err := LoadConfigFromEnv(logger, globalTestMetrics)
	if err != nil {
		t.Fatalf("LoadConfigFromEnv should never return an error, got: %v", err)
	}
	if config.TickSchedule != "@every 1m" {
		t.Errorf("Expected fallback to default TickSchedule, got '%s'", config.TickSchedule)
	}
}

func TestLoadConfigFromEnv_InvalidTimezone(t *testing.T) {
	setEnv(t, "SCHEDULER_TIMEZONE", "Invalid/Timezone")
	defer unsetEnv(t, "SCHEDULER_TIMEZONE")

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	config, err := LoadConfigFromEnv(logger, globalTestMetrics)
	if err != nil {
		t.Fatalf("LoadConfigFromEnv should never return an error, got: %v", err)
	}
	if config.Timezone != "UTC" {
		t.Errorf("Expected fallback to default Timezone, got '%s'", config.Timezone)
	}
}

func TestLoadConfigFromEnv_InvalidFetchConcurrency(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"zero", "0"},
		{"too high", "500"},
		{"not a number", "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setEnv(t, "SCHEDULER_FETCH_CONCURRENCY", tt.value)
			defer unsetEnv(t, "SCHEDULER_FETCH_CONCURRENCY")

			var buf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&buf, nil))

			config, err := LoadConfigFromEnv(logger, globalTestMetrics)
			if err != nil {
				t.Fatalf("LoadConfigFromEnv should never return an error, got: %v", err)
			}
			if config.FetchConcurrency != 5 {
				t.Errorf("Expected fallback to default FetchConcurrency, got %d", config.FetchConcurrency)
			}
		})
	}
}

func TestLoadConfigFromEnv_InvalidFetchTimeout(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"zero", "0s"},
		{"too long", "1h"},
		{"not a duration", "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setEnv(t, "SCHEDULER_FETCH_TIMEOUT", tt.value)
			defer unsetEnv(t, "SCHEDULER_FETCH_TIMEOUT")

			var buf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&buf, nil))

			config, err := LoadConfigFromEnv(logger, globalTestMetrics)
			if err != nil {
				t.Fatalf("LoadConfigFromEnv should never return an error, got: %v", err)
			}
			if config.FetchTimeout != 30*time.Second {
				t.Errorf("Expected fallback to default FetchTimeout, got %v", config.FetchTimeout)
			}
		})
	}
}

func TestLoadConfigFromEnv_InvalidHealthPort(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"too low", "100"},
		{"too high", "99999"},
		{"not a number", "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setEnv(t, "SCHEDULER_HEALTH_PORT", tt.value)
			defer unsetEnv(t, "SCHEDULER_HEALTH_PORT")

			var buf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&buf, nil))

			config, err := LoadConfigFromEnv(logger, globalTestMetrics)
			if err != nil {
				t.Fatalf("LoadConfigFromEnv should never return an error, got: %v", err)
			}
			if config.HealthPort != 9091 {
				t.Errorf("Expected fallback to default HealthPort, got %d", config.HealthPort)
			}
		})
	}
}

func TestLoadConfigFromEnv_MultipleInvalidFields(t *testing.T) {
	setEnv(t, "SCHEDULER_TICK_SCHEDULE", "invalid")
	setEnv(t, "SCHEDULER_TIMEZONE", "Invalid/Zone")
	setEnv(t, "SCHEDULER_FETCH_CONCURRENCY", "0")
	setEnv(t, "SCHEDULER_FETCH_TIMEOUT", "invalid")
	setEnv(t, "SCHEDULER_HEALTH_PORT", "100")
	defer func() {
		unsetEnv(t, "SCHEDULER_TICK_SCHEDULE")
		unsetEnv(t, "SCHEDULER_TIMEZONE")
		unsetEnv(t, "SCHEDULER_FETCH_CONCURRENCY")
		unsetEnv(t, "SCHEDULER_FETCH_TIMEOUT")
		unsetEnv(t, "SCHEDULER_HEALTH_PORT")
	}()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	config, err := LoadConfigFromEnv(logger, globalTestMetrics)
	if err != nil {
		t.Fatalf("LoadConfigFromEnv should never return an error, got: %v", err)
	}

	defaults := DefaultConfig()
	if *config != defaults {
		t.Errorf("Expected all fields to fall back to defaults, got %+v", config)
	}
}

func TestLoadConfigFromEnv_PartiallyValid(t *testing.T) {
	setEnv(t, "SCHEDULER_TICK_SCHEDULE", "@every 3m") // Valid
	setEnv(t, "SCHEDULER_TIMEZONE", "Invalid/Zone")   // Invalid
	setEnv(t, "SCHEDULER_FETCH_CONCURRENCY", "12")    // Valid
	setEnv(t, "SCHEDULER_FETCH_TIMEOUT", "invalid")   // Invalid
	setEnv(t, "SCHEDULER_HEALTH_PORT", "8080")        // Valid
	defer func() {
		unsetEnv(t, "SCHEDULER_TICK_SCHEDULE")
		unsetEnv(t, "SCHEDULER_TIMEZONE")
		unsetEnv(t, "SCHEDULER_FETCH_CONCURRENCY")
		unsetEnv(t, "SCHEDULER_FETCH_TIMEOUT")
		unsetEnv(t, "SCHEDULER_HEALTH_PORT")
	}()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	config, err := LoadConfigFromEnv(logger, globalTestMetrics)
	if err != nil {
		t.Fatalf("LoadConfigFromEnv should never return an error, got: %v", err)
	}
	if config.TickSchedule != "@every 3m" {
		t.Errorf("Expected valid TickSchedule to be kept, got '%s'", config.TickSchedule)
	}
	if config.Timezone != "UTC" {
		t.Errorf("Expected invalid Timezone to fall back to default, got '%s'", config.Timezone)
	}
	if config.FetchConcurrency != 12 {
		t.Errorf("Expected valid FetchConcurrency to be kept, got %d", config.FetchConcurrency)
	}
	if config.FetchTimeout != 30*time.Second {
		t.Errorf("Expected invalid FetchTimeout to fall back to default, got %v", config.FetchTimeout)
	}
	if config.HealthPort != 8080 {
		t.Errorf("Expected valid HealthPort to be kept, got %d", config.HealthPort)
	}
}
