package service

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/smallbiznis/hirehub/internal/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderIDFormat(t *testing.T) {
	fc := clock.NewFakeClock(time.UnixMilli(1700000000000))
	gen := NewOrderIDGenerator(fc, "")

	assert.Equal(t, "plan-pro-monthly-1700000000000", gen.Next("pro-monthly"))
}

func TestOrderIDStrictlyIncreasingUnderFrozenClock(t *testing.T) {
	fc := clock.NewFakeClock(time.UnixMilli(1700000000000))
	gen := NewOrderIDGenerator(fc, "plan")

	first := gen.Next("pro")
	second := gen.Next("pro")
	assert.Equal(t, "plan-pro-1700000000000", first)
	assert.Equal(t, "plan-pro-1700000000001", second)

	// clock moving backwards never reuses a stamp
	fc.Set(time.UnixMilli(1699999999000))
	assert.Equal(t, "plan-pro-1700000000002", gen.Next("pro"))
}

func TestOrderIDLengthBound(t *testing.T) {
	fc := clock.NewFakeClock(time.UnixMilli(1700000000000))
	gen := NewOrderIDGenerator(fc, "a-very-long-order-prefix-for-tests")

	id := gen.Next(strings.Repeat("enterprise-", 10))
	assert.LessOrEqual(t, len(id), maxOrderIDLen)

	parts := strings.Split(id, "-")
	assert.Equal(t, "1700000000000", parts[len(parts)-1])
}

func TestOrderIDConcurrentUnique(t *testing.T) {
	fc := clock.NewFakeClock(time.UnixMilli(1700000000000))
	gen := NewOrderIDGenerator(fc, "plan")

	const n = 200
	ids := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids <- gen.Next("pro")
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[string]struct{}{}
	for id := range ids {
		_, dup := seen[id]
		require.False(t, dup, id)
		seen[id] = struct{}{}
	}
	assert.Len(t, seen, n)
}
