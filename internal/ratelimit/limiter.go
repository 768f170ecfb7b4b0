package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aaravmahajanofficial/textile-storefront/internal/api/middleware"
	"github.com/aaravmahajanofficial/textile-storefront/internal/config"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const loginAttemptsPrefix = "login_attempts"

// LoginLimiter counts login attempts per account in a sliding window.
type LoginLimiter interface {
	// Returns isAllowed, attempts left, seconds to wait, error
	CheckLoginRateLimit(ctx context.Context, username string) (bool, int, int, error)
}

type redisLimiter struct {
	client *redis.Client
	cfg    config.RateLimit
	now    func() time.Time
	// member names one attempt; attempts in the same second must not collide
	member func(now time.Time) string
}

func NewRedisLimiter(client *redis.Client, cfg config.RateLimit) LoginLimiter {
	return &redisLimiter{client: client, cfg: cfg, now: time.Now, member: attemptMember}
}

func attemptMember(now time.Time) string {
	return fmt.Sprintf("%d-%s", now.UnixNano(), uuid.NewString())
}

func (r *redisLimiter) CheckLoginRateLimit(ctx context.Context, username string) (bool, int, int, error) {

	logger := middleware.LoggerFromContext(ctx)

	key := fmt.Sprintf("%s:%s", loginAttemptsPrefix, username)

	at := r.now()
	now := at.Unix()
	window := int64(r.cfg.WindowSize.Seconds())

	// only attempts after windowStart are counted
	windowStart := now - window

	pipe := r.client.Pipeline()

	pipe.ZRemRangeByScore(ctx, key, "0", fmt.Sprintf("%d", windowStart))
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(now), Member: r.member(at)})
	count := pipe.ZCard(ctx, key)
	pipe.Expire(ctx, key, r.cfg.WindowSize)

	if _, err := pipe.Exec(ctx); err != nil {
		logger.Error("Redis pipeline execution failed for rate limit", slog.String("key", key), slog.Any("error", err))
		return false, 0, 0, fmt.Errorf("redis pipeline error for rate limit check: %w", err)
	}

	attempts := count.Val()
	remaining := r.cfg.MaxAttempts - attempts

	if attempts > r.cfg.MaxAttempts {

		scores, err := r.client.ZRangeArgsWithScores(ctx, redis.ZRangeArgs{
			Key: key, Start: 0, Stop: 0,
		}).Result()

		if err != nil || len(scores) == 0 {
			logger.Error("Failed to get oldest attempt time for rate limit", slog.String("key", key), slog.Any("error", err))
			return false, 0, int(window), fmt.Errorf("failed to get oldest attempt time: %w", err)
		}

		oldest := int64(scores[0].Score)
		retryAfter := max(oldest+window-now, 1)

		logger.Warn("Rate limit exceeded for user", slog.String("username", username), slog.Int64("attempts", attempts))
		return false, 0, int(retryAfter), nil
	}

	logger.Debug("Rate limit check passed", slog.String("username", username), slog.Int64("attempts", attempts), slog.Int64("remaining", remaining))
	return true, int(remaining), 0, nil
}

// memoryLimiter keeps the same sliding window in process, for single-node
// deployments without Redis.
type memoryLimiter struct {
	cfg config.RateLimit
	now func() time.Time

	mu        sync.Mutex
	attempts  map[string][]int64
	lastSweep int64
}

func NewMemoryLimiter(cfg config.RateLimit) LoginLimiter {
	return &memoryLimiter{cfg: cfg, now: time.Now, attempts: make(map[string][]int64)}
}

func (m *memoryLimiter) CheckLoginRateLimit(ctx context.Context, username string) (bool, int, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now().Unix()
	window := int64(m.cfg.WindowSize.Seconds())
	windowStart := now - window

	if now-m.lastSweep >= window {
		m.sweep(windowStart)
		m.lastSweep = now
	}

	kept := m.attempts[username][:0]
	for _, ts := range m.attempts[username] {
		if ts > windowStart {
			kept = append(kept, ts)
		}
	}
	kept = append(kept, now)
	m.attempts[username] = kept

	attempts := int64(len(kept))

	if attempts > m.cfg.MaxAttempts {
		middleware.LoggerFromContext(ctx).Warn("Rate limit exceeded for user", slog.String("username", username), slog.Int64("attempts", attempts))
		return false, 0, int(max(kept[0]+window-now, 1)), nil
	}

	return true, int(m.cfg.MaxAttempts - attempts), 0, nil
}

// sweep forgets usernames whose newest attempt left the window.
func (m *memoryLimiter) sweep(windowStart int64) {
	for username, attempts := range m.attempts {
		if len(attempts) == 0 || attempts[len(attempts)-1] <= windowStart {
			delete(m.attempts, username)
		}
	}
}
