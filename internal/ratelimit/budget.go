package ratelimit

import (
	"context"
	"errors"
	"math"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// budgetScript implements GCRA: the key holds the theoretical arrival time
// (ms) of the next request. A request is admitted when it does not run more
// than burst emission intervals ahead of the server clock.
const budgetScript = `
local emission = tonumber(ARGV[1])
local burst = tonumber(ARGV[2])

local clock = redis.call("TIME")
local now = clock[1] * 1000 + math.floor(clock[2] / 1000)

local tat = tonumber(redis.call("GET", KEYS[1]))
if tat == nil or tat < now then
  tat = now
end

local nextTat = tat + emission
local allowAt = nextTat - emission * burst
if now < allowAt then
  return {0, 0, allowAt - now}
end

redis.call("SET", KEYS[1], nextTat, "PX", math.ceil(nextTat - now))
return {1, math.floor((emission * burst - (nextTat - now)) / emission), 0}
`

type Budget struct {
	client *redis.Client
	script *redis.Script
}

type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

func NewBudget(client *redis.Client) *Budget {
	if client == nil {
		return nil
	}
	return &Budget{
		client: client,
		script: redis.NewScript(budgetScript),
	}
}

// Take spends one unit from key's budget, refilled at perMinute units per minute up to burst.
func (b *Budget) Take(ctx context.Context, key string, perMinute float64, burst int) (Decision, error) {
	if b == nil || b.client == nil {
		return Decision{}, errors.New("budget not configured")
	}
	if key == "" || perMinute <= 0 || burst <= 0 {
		return Decision{}, errors.New("invalid budget parameters")
	}

	emission := int64(math.Ceil(float64(time.Minute/time.Millisecond) / perMinute))
	res, err := b.script.Run(ctx, b.client, []string{key}, emission, burst).Int64Slice()
	if err != nil {
		return Decision{}, err
	}
	if len(res) != 3 {
		return Decision{}, errors.New("unexpected budget script reply")
	}

	return Decision{
		Allowed:    res[0] == 1,
		Remaining:  int(res[1]),
		RetryAfter: time.Duration(res[2]) * time.Millisecond,
	}, nil
}
