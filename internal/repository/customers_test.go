package repository

import (
	"strings"
	"testing"
	"time"
)

func TestCachedCustomers_CacheKeyHidesAPIKey(t *testing.T) {
	r := NewCachedCustomers(nil, nil, time.Minute)
	apiKey := "0123456789abcdef0123456789abcdef"

	key := r.cacheKey(apiKey)
	if !strings.HasPrefix(key, "smsbroker:apikey:") {
		t.Fatalf("unexpected prefix in %q", key)
	}
	if strings.Contains(key, apiKey) {
		t.Fatalf("raw api key leaked into cache key %q", key)
	}
	// sha256 hex
	if got := len(strings.TrimPrefix(key, "smsbroker:apikey:")); got != 64 {
		t.Fatalf("expected 64 hex chars, got %d", got)
	}
	if key != r.cacheKey(apiKey) {
		t.Fatalf("cache key must be stable")
	}
	if key == r.cacheKey(apiKey+"x") {
		t.Fatalf("different keys must not collide")
	}
}
