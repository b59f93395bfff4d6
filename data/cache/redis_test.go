package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/KotFed0t/stockpicking_tracker/config"
	"github.com/KotFed0t/stockpicking_tracker/internal/date"
	"github.com/KotFed0t/stockpicking_tracker/internal/model"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	from = date.MustParse("2025-03-01")
	to   = date.MustParse("2025-03-05")
)

func newCache(t *testing.T) (*RedisCache, redismock.ClientMock) {
	t.Helper()
	db, mock := redismock.NewClientMock()
	cfg := &config.Config{Cache: config.Cache{SeriesExpiration: time.Hour}}
	return NewRedisCache(db, cfg), mock
}

func TestSetAndGetSeries(t *testing.T) {
	c, mock := newCache(t)
	points := []model.PricePoint{{Date: from, Close: 10.5}, {Date: to, Close: 11}}
	raw, err := json.Marshal(points)
	require.NoError(t, err)

	mock.ExpectSet("chart:0700.HK:2025-03-01:2025-03-05", raw, time.Hour).SetVal("OK")
	require.NoError(t, c.SetSeries(context.Background(), "0700.HK", from, to, points))

	mock.ExpectGet("chart:0700.HK:2025-03-01:2025-03-05").SetVal(string(raw))
	got, err := c.GetSeries(context.Background(), "0700.HK", from, to)
	require.NoError(t, err)
	assert.Equal(t, points, got)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetSeriesMiss(t *testing.T) {
	c, mock := newCache(t)

	mock.ExpectGet("chart:NVDA:2025-03-01:2025-03-05").RedisNil()
	_, err := c.GetSeries(context.Background(), "NVDA", from, to)
	assert.ErrorIs(t, err, ErrMiss)

	_, err = Noop{}.GetSeries(context.Background(), "NVDA", from, to)
	assert.ErrorIs(t, err, ErrMiss)
}

func TestGetSeriesCorrupted(t *testing.T) {
	c, mock := newCache(t)

	mock.ExpectGet("chart:NVDA:2025-03-01:2025-03-05").SetVal("{not json")
	_, err := c.GetSeries(context.Background(), "NVDA", from, to)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrMiss)
}
