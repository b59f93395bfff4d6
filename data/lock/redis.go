package lock

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/KotFed0t/stockpicking_tracker/utils"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrNotHeld = errors.New("lock is not held")

// releaseScript deletes the key only if it still holds our token.
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`

// RedisLock is a single-holder lock with expiry, used to keep pipeline runs from overlapping.
type RedisLock struct {
	redis    *redis.Client
	ttl      time.Duration
	newToken func() string
}

func NewRedisLock(redisClient *redis.Client, ttl time.Duration) *RedisLock {
	return &RedisLock{redis: redisClient, ttl: ttl, newToken: uuid.NewString}
}

// Acquire returns ok=false when someone else holds the key.
func (l *RedisLock) Acquire(ctx context.Context, key string) (token string, ok bool, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	token = l.newToken()

	ok, err = l.redis.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		slog.Error("failed on redis.SetNX", slog.String("rqID", rqID), slog.String("key", key), slog.String("err", err.Error()))
		return "", false, err
	}
	if !ok {
		slog.Info("lock is held by another run", slog.String("rqID", rqID), slog.String("key", key))
		return "", false, nil
	}

	slog.Debug("lock acquired", slog.String("rqID", rqID), slog.String("key", key))
	return token, true, nil
}

func (l *RedisLock) Release(ctx context.Context, key, token string) error {
	rqID := utils.GetRequestIDFromCtx(ctx)

	deleted, err := l.redis.Eval(ctx, releaseScript, []string{key}, token).Int64()
	if err != nil {
		slog.Error("failed on redis.Eval", slog.String("rqID", rqID), slog.String("key", key), slog.String("err", err.Error()))
		return err
	}
	if deleted == 0 {
		slog.Warn("lock expired before release", slog.String("rqID", rqID), slog.String("key", key))
		return ErrNotHeld
	}

	slog.Debug("lock released", slog.String("rqID", rqID), slog.String("key", key))
	return nil
}

// Noop always grants the lock. Used when Redis is disabled.
type Noop struct{}

func (Noop) Acquire(context.Context, string) (string, bool, error) { return "", true, nil }

func (Noop) Release(context.Context, string, string) error { return nil }
