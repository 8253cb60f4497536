package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrTooManyAttempts = errors.New("too many attempts")

type RateLimiter interface {
	CheckLogin(ctx context.Context, email string) error
	CheckRegister(ctx context.Context, email string) error
	ResetAttempts(ctx context.Context, email, operation string) error
}

type RedisRateLimiter struct {
	redis *redis.Client
}

func NewRedisRateLimiter(redis *redis.Client) *RedisRateLimiter {
	return &RedisRateLimiter{
		redis: redis,
	}
}

func (r *RedisRateLimiter) CheckLogin(ctx context.Context, email string) error {
	return r.check(ctx, "login", email, 5, 15*time.Minute)
}

func (r *RedisRateLimiter) CheckRegister(ctx context.Context, email string) error {
	return r.check(ctx, "register", email, 3, time.Hour)
}

func (r *RedisRateLimiter) check(ctx context.Context, operation, email string, limit int64, window time.Duration) error {
	key := fmt.Sprintf("%s_attempts:%s", operation, email)

	count, err := r.redis.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("failed to count %s attempts: %w", operation, err)
	}

	if count == 1 {
		r.redis.Expire(ctx, key, window)
	}

	if count > limit {
		return ErrTooManyAttempts
	}

	return nil
}

func (r *RedisRateLimiter) ResetAttempts(ctx context.Context, email, operation string) error {
	key := fmt.Sprintf("%s_attempts:%s", operation, email)
	return r.redis.Del(ctx, key).Err()
}

// NoopRateLimiter never limits. It backs local setups without Redis.
type NoopRateLimiter struct{}

func (NoopRateLimiter) CheckLogin(context.Context, string) error            { return nil }
func (NoopRateLimiter) CheckRegister(context.Context, string) error         { return nil }
func (NoopRateLimiter) ResetAttempts(context.Context, string, string) error { return nil }
