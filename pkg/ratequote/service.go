package ratequote

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// DefaultQuoteTTL is how long a fetched quote is served from cache.
const DefaultQuoteTTL = 60 * time.Second

// RateQuoteService serves rate quotes through a TTL cache, only hitting the
// upstream provider on a miss.
type RateQuoteService struct {
	fetcher Fetcher
	cache   *Cache
}

// Option configures a RateQuoteService
type Option func(*options)

type options struct {
	ttl time.Duration
}

// WithQuoteTTL overrides the cache TTL.
func WithQuoteTTL(ttl time.Duration) Option {
	return func(o *options) {
		o.ttl = ttl
	}
}

// NewRateQuoteService creates a quote service backed by fetcher.
func NewRateQuoteService(fetcher Fetcher, opts ...Option) *RateQuoteService {
	o := options{ttl: DefaultQuoteTTL}
	for _, opt := range opts {
		opt(&o)
	}
	return &RateQuoteService{
		fetcher: fetcher,
		cache:   NewCache(o.ttl),
	}
}

// GetQuote returns the quote for symbols against vsCurrency, serving from
// cache when fresh. The returned bool reports a cache hit.
func (s *RateQuoteService) GetQuote(ctx context.Context, symbols []string, vsCurrency string) (Quote, bool, error) {
	key := CacheKey(symbols, vsCurrency)

	if q, ok := s.cache.Get(key); ok {
		return q, true, nil
	}

	rates, err := s.fetcher.Fetch(ctx, symbols, vsCurrency)
	if err != nil {
		return Quote{}, false, fmt.Errorf("failed to fetch quote: %w", err)
	}

	q := Quote{Rates: rates, FetchedAt: time.Now().UTC()}
	s.cache.Put(key, q)
	slog.Debug("Cached rate quote", "key", key, "symbols", len(rates))
	return q, false, nil
}
