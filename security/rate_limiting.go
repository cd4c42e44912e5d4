package security

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRateLimited is returned when a scanner exceeds its window budget.
var ErrRateLimited = errors.New("rate limit exceeded")

// ScanLimiter is a redis fixed-window limiter keyed by scanner
// identity. It keeps a misbehaving or looping scanner device from
// hammering the check-in path; legitimate scan rates sit far below the
// default budget.
type ScanLimiter struct {
	redis  *redis.Client
	limit  int
	window time.Duration
}

func NewScanLimiter(redisClient *redis.Client, limit int, window time.Duration) *ScanLimiter {
	if limit <= 0 {
		limit = 30
	}
	if window <= 0 {
		window = time.Minute
	}
	return &ScanLimiter{redis: redisClient, limit: limit, window: window}
}

// Allow counts one request against the scanner's window. Redis being
// unreachable fails open: rate limiting is protection, not a
// correctness dependency.
func (l *ScanLimiter) Allow(ctx context.Context, scannerID string) error {
	key := fmt.Sprintf("ratelimit:scan:%s", scannerID)

	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return nil
	}
	if count == 1 {
		l.redis.Expire(ctx, key, l.window)
	}
	if count > int64(l.limit) {
		return ErrRateLimited
	}
	return nil
}
