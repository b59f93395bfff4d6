package lock

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const key = "stockpicking:pipeline:lock"

func newLock(t *testing.T) (*RedisLock, redismock.ClientMock) {
	t.Helper()
	db, mock := redismock.NewClientMock()
	l := NewRedisLock(db, time.Minute)
	l.newToken = func() string { return "token-1" }
	return l, mock
}

func TestAcquireAndRelease(t *testing.T) {
	l, mock := newLock(t)

	mock.ExpectSetNX(key, "token-1", time.Minute).SetVal(true)
	token, ok, err := l.Acquire(context.Background(), key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "token-1", token)

	mock.ExpectEval(releaseScript, []string{key}, "token-1").SetVal(int64(1))
	require.NoError(t, l.Release(context.Background(), key, token))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAcquireHeldElsewhere(t *testing.T) {
	l, mock := newLock(t)

	mock.ExpectSetNX(key, "token-1", time.Minute).SetVal(false)
	token, ok, err := l.Acquire(context.Background(), key)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, token)
}

func TestReleaseExpired(t *testing.T) {
	l, mock := newLock(t)

	mock.ExpectEval(releaseScript, []string{key}, "token-1").SetVal(int64(0))
	assert.ErrorIs(t, l.Release(context.Background(), key, "token-1"), ErrNotHeld)
}
