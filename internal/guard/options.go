package guard

import (
	"log/slog"
	"time"

	"clubportal/internal/platform/metrics"
)

const (
	// DefaultFallback is where denied callers are sent.
	DefaultFallback = "/"
	// DefaultCheckTimeout bounds one role check.
	DefaultCheckTimeout = 5 * time.Second
)

type config struct {
	fallback string
	timeout  time.Duration
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// Option configures a Guard or the RequireRole middleware.
type Option func(*config)

// WithFallback sets the redirect target for denied decisions. Empty keeps "/".
func WithFallback(route string) Option {
	return func(c *config) {
		if route != "" {
			c.fallback = route
		}
	}
}

// WithTimeout bounds each role check. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *config) {
		c.metrics = m
	}
}

func newConfig(opts []Option) config {
	c := config{
		fallback: DefaultFallback,
		timeout:  DefaultCheckTimeout,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&c)
		}
	}
	return c
}
