package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/hostbill/internal/config"
)

const keyOrderClient = "order:place:client:%s"

// OrderLimiter throttles order placement per client address. A nil limiter
// (rate limiting disabled) allows everything.
type OrderLimiter struct {
	enabled bool

	bucket *TokenBucket
	rate   float64
	burst  int
}

func NewOrderLimiter(cfg config.Config) (*OrderLimiter, error) {
	limitCfg := cfg.RateLimit
	if !limitCfg.Enabled {
		return nil, nil
	}

	addr := strings.TrimSpace(limitCfg.RedisAddr)
	if addr == "" {
		return nil, errors.New("rate limit redis addr is required")
	}
	if limitCfg.OrderRate <= 0 || limitCfg.OrderBurst <= 0 {
		return nil, errors.New("order rate limit must be positive")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(limitCfg.RedisPassword),
		DB:       limitCfg.RedisDB,
	})

	return &OrderLimiter{
		enabled: true,
		bucket:  NewTokenBucket(client),
		rate:    limitCfg.OrderRate,
		burst:   limitCfg.OrderBurst,
	}, nil
}

func (l *OrderLimiter) Enabled() bool {
	return l != nil && l.enabled
}

func (l *OrderLimiter) Allow(ctx context.Context, clientKey string) (*Result, error) {
	if !l.Enabled() {
		return &Result{Allowed: true}, nil
	}
	key := fmt.Sprintf(keyOrderClient, strings.TrimSpace(clientKey))
	return l.bucket.Allow(ctx, key, l.rate, l.burst)
}
