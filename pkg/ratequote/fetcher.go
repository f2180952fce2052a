package ratequote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Fetcher retrieves current rates for a set of symbols quoted against one
// currency.
type Fetcher interface {
	Fetch(ctx context.Context, symbols []string, vsCurrency string) (map[string]float64, error)
}

// HTTPFetcher fetches rates from a simple-price style endpoint:
// GET {baseURL}/simple/price?ids=bitcoin,ethereum&vs_currencies=usd
// returning {"bitcoin":{"usd":67000.12},...}.
type HTTPFetcher struct {
	baseURL string
	client  *http.Client
}

// NewHTTPFetcher creates a fetcher against baseURL.
func NewHTTPFetcher(baseURL string) *HTTPFetcher {
	return &HTTPFetcher{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Fetch implements Fetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context, symbols []string, vsCurrency string) (map[string]float64, error) {
	q := url.Values{}
	q.Set("ids", strings.Join(symbols, ","))
	q.Set("vs_currencies", vsCurrency)

	reqURL := f.baseURL + "/simple/price?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build rate request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch rates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rate provider returned status %d", resp.StatusCode)
	}

	var payload map[string]map[string]float64
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode rate response: %w", err)
	}

	rates := make(map[string]float64, len(payload))
	vs := strings.ToLower(vsCurrency)
	for symbol, quotes := range payload {
		if rate, ok := quotes[vs]; ok {
			rates[symbol] = rate
		}
	}
	return rates, nil
}
