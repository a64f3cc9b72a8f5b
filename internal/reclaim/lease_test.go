package reclaim_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/phrazzld/wordclaim/internal/mocks"
	"github.com/phrazzld/wordclaim/internal/reclaim"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const leaseKey = "wordclaim:reclaim:lease"

func TestRedisLease_SingleHolderPerTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = client.Close() }()

	ctx := context.Background()
	first := reclaim.NewRedisLease(client, leaseKey)
	second := reclaim.NewRedisLease(client, leaseKey)
	assert.NotEqual(t, first.Owner(), second.Owner())

	held, err := first.Acquire(ctx, 54*time.Second)
	require.NoError(t, err)
	assert.True(t, held)

	held, err = second.Acquire(ctx, 54*time.Second)
	require.NoError(t, err)
	assert.False(t, held)

	owner, err := mr.Get(leaseKey)
	require.NoError(t, err)
	assert.Equal(t, first.Owner(), owner)

	mr.FastForward(55 * time.Second)

	held, err = second.Acquire(ctx, 54*time.Second)
	require.NoError(t, err)
	assert.True(t, held)
}

func TestRedisLease_ServerDown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer func() { _ = client.Close() }()
	mr.Close()

	_, err := reclaim.NewRedisLease(client, leaseKey).Acquire(context.Background(), time.Second)
	assert.Error(t, err)
}

func TestRedisLease_OnlyOneReplicaSweeps(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = client.Close() }()

	words := mocks.NewMemoryWordStore("AMOR")
	words.ForceClaim(0, "U1", now.Add(-time.Hour))

	replicas := make([]*reclaim.Scheduler, 3)
	for i := range replicas {
		replicas[i] = reclaim.NewScheduler(words, reclaim.Config{Interval: time.Minute, Now: fixedNow}, nil)
		replicas[i].SetLease(reclaim.NewRedisLease(client, leaseKey))
	}

	for _, s := range replicas {
		_, err := s.RunOnce(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, 1, words.Calls(mocks.OpReclaimStale))
}

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := reclaim.NewRedisClient(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	assert.NoError(t, client.Close())

	_, err = reclaim.NewRedisClient(context.Background(), "not-a-url")
	assert.Error(t, err)
}

func TestNewRedisLease_NilClientPanics(t *testing.T) {
	assert.Panics(t, func() {
		reclaim.NewRedisLease(nil, leaseKey)
	})
}
