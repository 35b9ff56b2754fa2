package ratesource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	stateKeyPrefix = "ratesource:state:"
	lastKeySuffix  = ":last"
)

// CachedClient is a cache-aside decorator over a rate source client. Fresh
// lookups are cached with a short TTL; the last successful lookup is also
// kept without expiry so a transport failure can fall back to it instead of
// aborting the whole entity.
type CachedClient struct {
	inner Client
	redis *redis.Client
	ttl   time.Duration
}

func NewCachedClient(inner Client, rdb *redis.Client, ttl time.Duration) *CachedClient {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedClient{inner: inner, redis: rdb, ttl: ttl}
}

func stateKey(marketID string) string {
	return stateKeyPrefix + strings.ToLower(strings.TrimSpace(marketID))
}

func (c *CachedClient) GetMarketState(ctx context.Context, marketID string) (*MarketState, error) {
	key := stateKey(marketID)

	if raw, err := c.redis.Get(ctx, key).Result(); err == nil {
		state := &MarketState{}
		if err := json.Unmarshal([]byte(raw), state); err == nil {
			return state, nil
		}
	}

	state, err := c.inner.GetMarketState(ctx, marketID)
	if err != nil {
		if errors.Is(err, ErrMarketNotFound) {
			return nil, err
		}
		// Transport failure: fall back to the last known state if any.
		if raw, lastErr := c.redis.Get(ctx, key+lastKeySuffix).Result(); lastErr == nil {
			stale := &MarketState{}
			if umErr := json.Unmarshal([]byte(raw), stale); umErr == nil {
				return stale, nil
			}
		}
		return nil, fmt.Errorf("rate source lookup for %s: %w", marketID, err)
	}

	if payload, err := json.Marshal(state); err == nil {
		_ = c.redis.Set(ctx, key, payload, c.ttl).Err()
		_ = c.redis.Set(ctx, key+lastKeySuffix, payload, 0).Err()
	}
	return state, nil
}

func (c *CachedClient) GetBorrowerPositions(ctx context.Context, marketID string) ([]BorrowerPosition, error) {
	// Position listings feed the syncer, which always wants live data.
	return c.inner.GetBorrowerPositions(ctx, marketID)
}
