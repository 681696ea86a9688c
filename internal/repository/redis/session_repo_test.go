package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestSessionLifecycle(t *testing.T) {
	mr, client := newTestClient(t)
	repo := &SessionRepository{RDB: client}
	ctx := context.Background()

	require.NoError(t, repo.Add(ctx, "u1", "jti-a", time.Hour))
	require.NoError(t, repo.Add(ctx, "u1", "jti-b", time.Hour))

	ok, err := repo.Exists(ctx, "u1", "jti-a")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, repo.Revoke(ctx, "u1", "jti-a"))
	ok, err = repo.Exists(ctx, "u1", "jti-a")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.Exists(ctx, "u1", "jti-b")
	require.NoError(t, err)
	assert.True(t, ok, "revoking one device keeps the others")

	mr.FastForward(2 * time.Hour)
	ok, err = repo.Exists(ctx, "u1", "jti-b")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRevokeAllKeepsCurrent(t *testing.T) {
	_, client := newTestClient(t)
	repo := &SessionRepository{RDB: client}
	ctx := context.Background()

	for _, jti := range []string{"a", "b", "c"} {
		require.NoError(t, repo.Add(ctx, "u1", jti, time.Hour))
	}
	require.NoError(t, repo.Add(ctx, "u2", "a", time.Hour))

	require.NoError(t, repo.RevokeAll(ctx, "u1", "b"))

	for jti, want := range map[string]bool{"a": false, "b": true, "c": false} {
		ok, err := repo.Exists(ctx, "u1", jti)
		require.NoError(t, err)
		assert.Equal(t, want, ok, jti)
	}
	ok, err := repo.Exists(ctx, "u2", "a")
	require.NoError(t, err)
	assert.True(t, ok, "other users are untouched")
}

func TestSessionRedisDown(t *testing.T) {
	mr, client := newTestClient(t)
	repo := &SessionRepository{RDB: client}
	mr.Close()

	_, err := repo.Exists(context.Background(), "u1", "a")
	assert.ErrorIs(t, err, ErrRedisUnavailable)
}

func TestDistLock(t *testing.T) {
	mr, client := newTestClient(t)
	lock := &DistLock{RDB: client}
	ctx := context.Background()

	ok, err := lock.Acquire(ctx, "outbox:relay", "owner-1", time.Second)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = lock.Acquire(ctx, "outbox:relay", "owner-2", time.Second)
	require.NoError(t, err)
	assert.False(t, ok)

	// 非持有者释放无效
	require.NoError(t, lock.Release(ctx, "outbox:relay", "owner-2"))
	assert.True(t, mr.Exists("lock:outbox:relay"))

	require.NoError(t, lock.Release(ctx, "outbox:relay", "owner-1"))
	assert.False(t, mr.Exists("lock:outbox:relay"))

	ok, err = lock.Acquire(ctx, "outbox:relay", "owner-2", time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
	mr.FastForward(2 * time.Second)
	assert.False(t, mr.Exists("lock:outbox:relay"))
}
