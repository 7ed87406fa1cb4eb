package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/hirehub/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGuard(t *testing.T, burst int) (*PaymentGuard, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cfg := config.Config{Redis: config.RedisConfig{
		Enabled:               true,
		LockTTL:               200 * time.Millisecond,
		CheckoutRatePerMinute: 1,
		CheckoutBurst:         burst,
	}}
	return NewPaymentGuard(cfg, client), mr
}

func TestDisabledGuardAllowsEverything(t *testing.T) {
	guard := NewPaymentGuard(config.Config{}, nil)
	assert.False(t, guard.Enabled())
	assert.NoError(t, guard.AllowCheckout(context.Background(), "1"))

	release, err := guard.LockOrder(context.Background(), "plan-pro-1")
	require.NoError(t, err)
	release()
}

func TestAllowCheckoutExhaustsBurst(t *testing.T) {
	guard, _ := newTestGuard(t, 2)
	ctx := context.Background()

	require.NoError(t, guard.AllowCheckout(ctx, "42"))
	require.NoError(t, guard.AllowCheckout(ctx, "42"))
	err := guard.AllowCheckout(ctx, "42")
	assert.True(t, errors.Is(err, ErrRateLimited), "got %v", err)

	// other employers keep their own budget
	assert.NoError(t, guard.AllowCheckout(ctx, "43"))
}

func TestLockOrderSerializes(t *testing.T) {
	guard, mr := newTestGuard(t, 1)
	ctx := context.Background()

	release, err := guard.LockOrder(ctx, "plan-pro-1")
	require.NoError(t, err)
	assert.True(t, mr.Exists("webhook:order:lock:plan-pro-1"))

	_, ok, err := guard.locker.TryLock(ctx, "webhook:order:lock:plan-pro-1", time.Second)
	require.NoError(t, err)
	assert.False(t, ok, "second holder must not acquire the lock")

	release()
	assert.False(t, mr.Exists("webhook:order:lock:plan-pro-1"))
}

func TestLockOrderTimesOut(t *testing.T) {
	guard, _ := newTestGuard(t, 1)
	ctx := context.Background()

	_, err := guard.LockOrder(ctx, "plan-pro-2")
	require.NoError(t, err)

	// miniredis does not expire keys on its own, so the holder never goes away
	_, err = guard.LockOrder(ctx, "plan-pro-2")
	assert.ErrorIs(t, err, ErrLockTimeout)
}

func TestReleaseIgnoresForeignToken(t *testing.T) {
	guard, mr := newTestGuard(t, 1)
	ctx := context.Background()

	token, ok, err := guard.locker.TryLock(ctx, "k", time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, guard.locker.Release(ctx, "k", "not-the-owner"))
	assert.True(t, mr.Exists("k"))
	require.NoError(t, guard.locker.Release(ctx, "k", token))
	assert.False(t, mr.Exists("k"))
}
