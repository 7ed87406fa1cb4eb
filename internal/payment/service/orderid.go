package service

import (
	"strconv"
	"strings"
	"sync"

	"github.com/gosimple/slug"
	"github.com/smallbiznis/hirehub/internal/clock"
)

const (
	maxOrderIDLen    = 50
	maxOrderPlanLen  = 28
	defaultOrderPref = "plan"
)

// OrderIDGenerator builds "{prefix}-{plan}-{unixMillis}" ids. The millisecond
// component is strictly increasing within the process.
type OrderIDGenerator struct {
	mu     sync.Mutex
	clock  clock.Clock
	prefix string
	last   int64
}

func NewOrderIDGenerator(c clock.Clock, prefix string) *OrderIDGenerator {
	prefix = slug.Make(strings.TrimSpace(prefix))
	if prefix == "" {
		prefix = defaultOrderPref
	}
	return &OrderIDGenerator{clock: c, prefix: prefix}
}

func (g *OrderIDGenerator) Next(planKey string) string {
	g.mu.Lock()
	ms := g.clock.Now().UnixMilli()
	if ms <= g.last {
		ms = g.last + 1
	}
	g.last = ms
	g.mu.Unlock()

	stamp := strconv.FormatInt(ms, 10)
	plan := slug.Make(planKey)
	if plan == "" {
		plan = "plan"
	}
	if len(plan) > maxOrderPlanLen {
		plan = strings.Trim(plan[:maxOrderPlanLen], "-")
	}

	prefix := g.prefix
	if room := maxOrderIDLen - len(plan) - len(stamp) - 2; len(prefix) > room {
		prefix = strings.Trim(prefix[:room], "-")
	}
	return prefix + "-" + plan + "-" + stamp
}
