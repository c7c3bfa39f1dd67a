package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-relay/internal/persistence"
)

// redisTypingThrottle implements TypingThrottle with a SET NX keyed per
// ticket direction. Redis being down must not break the relay, so any error
// allows the indicator through.
type redisTypingThrottle struct {
	redis  *persistence.Redis
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisTypingThrottle creates the throttle.
func NewRedisTypingThrottle(r *persistence.Redis, ttl time.Duration, logger *zap.Logger) TypingThrottle {
	return &redisTypingThrottle{redis: r, ttl: ttl, logger: logger}
}

func (t *redisTypingThrottle) Allow(ctx context.Context, key string) bool {
	if t.redis == nil || t.redis.Client == nil {
		return true
	}
	ok, err := t.redis.Client.SetNX(ctx, "typing:"+key, 1, t.ttl).Result()
	if err != nil {
		t.logger.Debug("typing throttle unavailable", zap.Error(err))
		return true
	}
	return ok
}
