package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBudgetTake(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	budget := NewBudget(client)
	ctx := context.Background()

	first, err := budget.Take(ctx, "checkout:employer:1", 1, 2)
	require.NoError(t, err)
	assert.True(t, first.Allowed)
	assert.Equal(t, 1, first.Remaining)

	second, err := budget.Take(ctx, "checkout:employer:1", 1, 2)
	require.NoError(t, err)
	assert.True(t, second.Allowed)
	assert.Equal(t, 0, second.Remaining)

	third, err := budget.Take(ctx, "checkout:employer:1", 1, 2)
	require.NoError(t, err)
	assert.False(t, third.Allowed)
	assert.Greater(t, third.RetryAfter, time.Duration(0))
	assert.LessOrEqual(t, third.RetryAfter, time.Minute)
}

func TestBudgetRejectsBadParameters(t *testing.T) {
	var nilBudget *Budget
	_, err := nilBudget.Take(context.Background(), "k", 1, 1)
	assert.Error(t, err)

	mr := miniredis.RunT(t)
	budget := NewBudget(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	_, err = budget.Take(context.Background(), "", 1, 1)
	assert.Error(t, err)
	_, err = budget.Take(context.Background(), "k", 0, 1)
	assert.Error(t, err)
}
