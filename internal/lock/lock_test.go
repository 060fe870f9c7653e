package redlock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func newTestClient(t *testing.T) (redis.UniversalClient, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("an error '%s' occurred when starting miniredis", err)
	}
	t.Cleanup(mr.Close)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()}), mr
}

func TestLockAndUnlock(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	locker := NewLocker(client, "listing:lst_1", "holder-a")
	assert.NoError(t, locker.Lock(ctx, time.Minute))

	// A second holder cannot take the same key
	other := NewLocker(client, "listing:lst_1", "holder-b")
	assert.Error(t, other.Lock(ctx, time.Minute))

	assert.NoError(t, locker.Unlock(ctx))
	assert.NoError(t, other.Lock(ctx, time.Minute))
}

func TestUnlockWrongHolder(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	locker := NewLocker(client, "listing:lst_2", "holder-a")
	assert.NoError(t, locker.Lock(ctx, time.Minute))

	imposter := NewLocker(client, "listing:lst_2", "holder-b")
	assert.Error(t, imposter.Unlock(ctx))
}

func TestExtendLock(t *testing.T) {
	client, mr := newTestClient(t)
	ctx := context.Background()

	locker := NewLocker(client, "listing:lst_3", "holder-a")
	assert.NoError(t, locker.Lock(ctx, time.Second))
	assert.NoError(t, locker.ExtendLock(ctx, time.Minute))

	mr.FastForward(2 * time.Second)
	// Still held because the TTL was extended
	other := NewLocker(client, "listing:lst_3", "holder-b")
	assert.Error(t, other.Lock(ctx, time.Minute))
}
