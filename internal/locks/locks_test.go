package locks

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"card-catalog/internal/common/errors"
	"card-catalog/internal/common/logging"
	"card-catalog/internal/redis"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func setup(t *testing.T) (*Manager, *miniredis.Miniredis) {
	t.Helper()
	s := miniredis.RunT(t)

	client, err := redis.NewClient(&redis.Config{Address: s.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	m, err := NewManager(client, logging.NopLogger())
	require.NoError(t, err)
	return m, s
}

func TestNewManager_RequiresClient(t *testing.T) {
	_, err := NewManager(nil, nil)
	assert.True(t, errors.IsType(err, errors.ErrTypeConfig))
}

func TestAcquireRelease(t *testing.T) {
	m, s := setup(t)
	ctx := context.Background()

	lock, err := m.Acquire(ctx, "ingest", 30*time.Second)
	require.NoError(t, err)
	assert.Equal(t, "ingest", lock.Key())
	assert.True(t, lock.Held())
	assert.True(t, s.Exists(KeyPrefix+"ingest"))

	require.NoError(t, lock.Release(ctx))
	assert.False(t, lock.Held())
	assert.False(t, s.Exists(KeyPrefix+"ingest"))

	assert.NoError(t, lock.Release(ctx), "second release is a no-op")
}

func TestAcquire_Contended(t *testing.T) {
	m, _ := setup(t)
	ctx := context.Background()

	first, err := m.Acquire(ctx, "ingest", 30*time.Second)
	require.NoError(t, err)

	second, err := m.Acquire(ctx, "ingest", 30*time.Second)
	require.Error(t, err)
	assert.Nil(t, second)
	assert.Equal(t, CodeLockHeld, errors.CodeOf(err))

	require.NoError(t, first.Release(ctx))

	third, err := m.Acquire(ctx, "ingest", 30*time.Second)
	require.NoError(t, err)
	require.NoError(t, third.Release(ctx))
}

func TestAcquire_DistinctKeys(t *testing.T) {
	m, _ := setup(t)
	ctx := context.Background()

	a, err := m.Acquire(ctx, "a", time.Minute)
	require.NoError(t, err)
	b, err := m.Acquire(ctx, "b", time.Minute)
	require.NoError(t, err)

	require.NoError(t, a.Release(ctx))
	require.NoError(t, b.Release(ctx))
}

func TestAcquire_EmptyKey(t *testing.T) {
	m, _ := setup(t)
	_, err := m.Acquire(context.Background(), "", time.Second)
	assert.True(t, errors.IsType(err, errors.ErrTypeValidation))
}

func TestLock_Renewed(t *testing.T) {
	m, s := setup(t)
	ctx := context.Background()

	lock, err := m.Acquire(ctx, "ingest", 300*time.Millisecond)
	require.NoError(t, err)

	// miniredis only ages keys on FastForward, so burn most of the TTL and
	// wait for a renewal to push it back up.
	s.FastForward(200 * time.Millisecond)
	assert.Eventually(t, func() bool {
		return s.TTL(KeyPrefix+"ingest") > 150*time.Millisecond
	}, time.Second, 20*time.Millisecond)
	assert.True(t, lock.Held())

	require.NoError(t, lock.Release(ctx))
}

func TestAcquire_RedisDown(t *testing.T) {
	m, s := setup(t)
	s.Close()

	_, err := m.Acquire(context.Background(), "ingest", time.Second)
	require.Error(t, err)
	assert.Equal(t, CodeLockUnavailable, errors.CodeOf(err))
	assert.True(t, errors.IsType(err, errors.ErrTypeConnection))
}

func TestLock_LostWhenKeyRemoved(t *testing.T) {
	m, s := setup(t)
	ctx := context.Background()

	lock, err := m.Acquire(ctx, "ingest", 300*time.Millisecond)
	require.NoError(t, err)

	select {
	case <-lock.Lost():
		t.Fatal("lock reported lost while still owned")
	default:
	}

	s.Del(KeyPrefix + "ingest")

	select {
	case <-lock.Lost():
	case <-time.After(2 * time.Second):
		t.Fatal("lock loss was not signalled")
	}
	assert.False(t, lock.Held())
	assert.NoError(t, lock.Release(ctx))
}
