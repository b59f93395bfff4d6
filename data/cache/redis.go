package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/KotFed0t/stockpicking_tracker/config"
	"github.com/KotFed0t/stockpicking_tracker/internal/date"
	"github.com/KotFed0t/stockpicking_tracker/internal/model"
	"github.com/KotFed0t/stockpicking_tracker/utils"
	"github.com/redis/go-redis/v9"
)

// RedisCache keeps fetched daily series keyed by symbol and window.
type RedisCache struct {
	redis *redis.Client
	cfg   *config.Config
}

func NewRedisCache(redisClient *redis.Client, cfg *config.Config) *RedisCache {
	return &RedisCache{redis: redisClient, cfg: cfg}
}

func seriesKey(symbol string, from, to date.Date) string {
	return fmt.Sprintf("chart:%s:%s:%s", symbol, from, to)
}

func (r *RedisCache) SetSeries(ctx context.Context, symbol string, from, to date.Date, points []model.PricePoint) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	key := seriesKey(symbol, from, to)
	slog.Debug("SetSeries start", slog.String("rqID", rqID), slog.String("key", key))

	seriesJson, err := json.Marshal(points)
	if err != nil {
		slog.Error("can't marshall series in SetSeries", slog.String("rqID", rqID), slog.String("err", err.Error()), slog.String("key", key))
		return errors.New("can't marshall series")
	}

	err = r.redis.Set(ctx, key, seriesJson, r.cfg.Cache.SeriesExpiration).Err()
	if err != nil {
		slog.Error("failed on redis.Set", slog.String("rqID", rqID), slog.String("err", err.Error()), slog.String("key", key))
		return err
	}

	slog.Debug("SetSeries completed", slog.String("rqID", rqID), slog.String("key", key))

	return nil
}

// GetSeries returns ErrMiss when nothing is cached for the window.
func (r *RedisCache) GetSeries(ctx context.Context, symbol string, from, to date.Date) ([]model.PricePoint, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	key := seriesKey(symbol, from, to)
	slog.Debug("GetSeries start", slog.String("rqID", rqID), slog.String("key", key))

	res, err := r.redis.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		slog.Error("failed on redis.Get", slog.String("rqID", rqID), slog.String("err", err.Error()), slog.String("key", key))
		return nil, err
	}

	var points []model.PricePoint
	err = json.Unmarshal([]byte(res), &points)
	if err != nil {
		slog.Error(
			"can't unmarshall series in GetSeries",
			slog.String("rqID", rqID),
			slog.String("err", err.Error()),
			slog.String("key", key),
		)
		return nil, errors.New("can't unmarshall series")
	}

	slog.Debug("GetSeries finished", slog.String("rqID", rqID), slog.Int("points", len(points)))

	return points, nil
}

// Noop is used when Redis is disabled: every read misses and writes are dropped.
type Noop struct{}

func (Noop) SetSeries(context.Context, string, date.Date, date.Date, []model.PricePoint) error {
	return nil
}

func (Noop) GetSeries(context.Context, string, date.Date, date.Date) ([]model.PricePoint, error) {
	return nil, ErrMiss
}
