package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLimiter_BurstThenDeny(t *testing.T) {
	l := NewLimiter(3, 0.0, 0)

	assert.True(t, l.Allow("a"))
	assert.True(t, l.Allow("a"))
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))

	// Other keys are independent
	assert.True(t, l.Allow("b"))
}

func TestLimiter_Refill(t *testing.T) {
	// 100 tokens/s so the refill is observable without a long sleep
	l := NewLimiter(1, 100.0, 0)

	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))

	time.Sleep(30 * time.Millisecond)
	assert.True(t, l.Allow("a"))
}

func TestLimiter_Reset(t *testing.T) {
	l := NewLimiter(1, 0.0, 0)

	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))

	l.Reset("a")
	assert.True(t, l.Allow("a"))
}

func TestLimiter_ActiveKeys(t *testing.T) {
	l := NewLimiter(1, 0.0, 0)
	l.Allow("a")
	l.Allow("b")
	assert.Equal(t, 2, l.ActiveKeys())
}

func TestPerMinute(t *testing.T) {
	l := PerMinute(5, 0)
	for i := 0; i < 5; i++ {
		assert.True(t, l.Allow("a"))
	}
	assert.False(t, l.Allow("a"))
}

func TestMiddleware_PerIP(t *testing.T) {
	m := NewMiddleware(&Config{
		PerIPEnabled:    true,
		PerIPCapacity:   2,
		PerIPRefillRate: 0.0,
	})

	handler := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func(ip string) int {
		req := httptest.NewRequest("GET", "/anything", nil)
		req.Header.Set("X-Forwarded-For", ip)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, do("10.0.0.1"))
	assert.Equal(t, http.StatusOK, do("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, do("10.0.0.1"))

	// A different IP still has its full allowance
	assert.Equal(t, http.StatusOK, do("10.0.0.2"))
}

func TestMiddleware_EndpointLimit(t *testing.T) {
	m := NewMiddleware(&Config{
		EndpointLimits: map[string]EndpointLimit{
			"POST /api/device/check": {Capacity: 1, RefillRate: 0.0},
		},
	})

	handler := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func(method, path string) int {
		req := httptest.NewRequest(method, path, nil)
		req.Header.Set("X-Forwarded-For", "10.0.0.1")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, do("POST", "/api/device/check"))
	assert.Equal(t, http.StatusTooManyRequests, do("POST", "/api/device/check"))

	// Unlisted endpoints are not limited by this config
	assert.Equal(t, http.StatusOK, do("POST", "/api/verify/code"))
}
