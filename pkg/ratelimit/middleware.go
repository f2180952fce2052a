package ratelimit

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"
	"github.com/nexrate/nexrate-verify/pkg/device"
)

// Config holds the rate limiting configuration for the HTTP layer.
type Config struct {
	// Per-IP limit applied to every request
	PerIPEnabled    bool
	PerIPCapacity   int
	PerIPRefillRate float64

	// Tighter per-IP limits for specific endpoints, keyed "METHOD /path".
	// The code-issuing and code-checking endpoints get these so a single
	// device cannot hammer them while staying under the general per-IP limit.
	EndpointLimits map[string]EndpointLimit

	// How long to keep idle buckets in memory
	BucketTTL time.Duration
}

// EndpointLimit defines the limit for one endpoint.
type EndpointLimit struct {
	Capacity   int
	RefillRate float64
}

// DefaultConfig returns the stock configuration: 60 requests per minute per
// IP, 10 per minute for device checks (each may send an email), 15 per
// minute for code submissions.
func DefaultConfig() *Config {
	return &Config{
		PerIPEnabled:    true,
		PerIPCapacity:   60,
		PerIPRefillRate: 1.0,

		EndpointLimits: map[string]EndpointLimit{
			"POST /api/device/check": {Capacity: 10, RefillRate: 10.0 / 60.0},
			"POST /api/verify/code":  {Capacity: 15, RefillRate: 15.0 / 60.0},
		},

		BucketTTL: time.Hour,
	}
}

// Middleware applies per-IP and per-endpoint token-bucket limits.
type Middleware struct {
	config           *Config
	ipLimiter        *Limiter
	endpointLimiters map[string]*Limiter
}

// NewMiddleware creates rate limiting middleware from config; nil config
// uses DefaultConfig.
func NewMiddleware(config *Config) *Middleware {
	if config == nil {
		config = DefaultConfig()
	}

	m := &Middleware{
		config:           config,
		endpointLimiters: make(map[string]*Limiter),
	}

	if config.PerIPEnabled {
		m.ipLimiter = NewLimiter(config.PerIPCapacity, config.PerIPRefillRate, config.BucketTTL)
	}
	for endpoint, limit := range config.EndpointLimits {
		m.endpointLimiters[endpoint] = NewLimiter(limit.Capacity, limit.RefillRate, config.BucketTTL)
	}

	return m
}

// Handler returns the rate limiting http middleware.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := device.ClientIP(r)

		if m.ipLimiter != nil && !m.ipLimiter.Allow(ip) {
			m.rejected(w, r, ip, "ip")
			return
		}

		endpointKey := r.Method + " " + r.URL.Path
		if limiter, ok := m.endpointLimiters[endpointKey]; ok {
			if !limiter.Allow(ip) {
				m.rejected(w, r, ip, "endpoint")
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

func (m *Middleware) rejected(w http.ResponseWriter, r *http.Request, ip, limitType string) {
	slog.Warn("Rate limit exceeded",
		"type", limitType,
		"ip", ip,
		"method", r.Method,
		"path", r.URL.Path,
	)

	w.Header().Set("Retry-After", "60")
	render.Status(r, http.StatusTooManyRequests)
	render.JSON(w, r, map[string]string{
		"error": "Too many requests. Please try again later.",
	})
}
