package ratesource

import (
	"github.com/ItsAdel/morpho-apr/internal/config"
	"github.com/redis/go-redis/v9"
)

func NewFromConfig(cfg config.Config) (Client, error) {
	httpClient, err := NewHTTPClient(cfg.RateSourceBaseURL, cfg.RateSourceTimeout)
	if err != nil {
		return nil, err
	}
	if cfg.RedisURL == "" {
		return httpClient, nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	return NewCachedClient(httpClient, redis.NewClient(opts), cfg.RateCacheTTL), nil
}
