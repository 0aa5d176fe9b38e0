// Package fetcher performs SSRF-safe conditional-GET HTTP fetches of feed
// and webmention-source URLs, wrapped in the shared circuit breaker and
// retry-with-backoff helpers (spec.md §4.1).
package fetcher

import (
	"time"

	"microsubd/internal/pkg/config"
)

// Config holds fetch behavior shared by the tier scheduler's feed fetches
// and the webmention verifier's source fetches.
type Config struct {
	Timeout        time.Duration
	MaxBodySize    int64
	MaxRedirects   int
	DenyPrivateIPs bool
	UserAgent      string
}

// DefaultConfig returns production-ready defaults.
func DefaultConfig() Config {
	return Config{
		Timeout:        15 * time.Second,
		MaxBodySize:    5 * 1024 * 1024,
		MaxRedirects:   5,
		DenyPrivateIPs: true,
		UserAgent:      "microsubd/1.0 (+https://github.com/microsubd)",
	}
}

// LoadConfigFromEnv loads Config from the environment, fail-open per the
// teacher's pkg/config loader: an invalid value logs a warning and falls
// back to the default rather than aborting startup.
func LoadConfigFromEnv(warn func(string)) Config {
	cfg := DefaultConfig()

	emit := func(r config.ConfigLoadResult) {
		if warn != nil {
			for _, w := range r.Warnings {
				warn(w)
			}
		}
	}

	timeoutRes := config.LoadEnvDuration("FETCH_TIMEOUT", cfg.Timeout, config.ValidatePositiveDuration)
	emit(timeoutRes)
	cfg.Timeout = timeoutRes.Value.(time.Duration)

	redirectsRes := config.LoadEnvInt("FETCH_MAX_REDIRECTS", cfg.MaxRedirects, func(v int) error {
		return config.ValidateIntRange(v, 0, 10)
	})
	emit(redirectsRes)
	cfg.MaxRedirects = redirectsRes.Value.(int)

	denyRes := config.LoadEnvBool("FETCH_DENY_PRIVATE_IPS", cfg.DenyPrivateIPs)
	emit(denyRes)
	cfg.DenyPrivateIPs = denyRes.Value.(bool)

	bodyMBRes := config.LoadEnvInt("FETCH_MAX_BODY_SIZE_MB", int(cfg.MaxBodySize/(1024*1024)), func(v int) error {
		return config.ValidateIntRange(v, 1, 100)
	})
	emit(bodyMBRes)
	cfg.MaxBodySize = int64(bodyMBRes.Value.(int)) * 1024 * 1024

	return cfg
}
