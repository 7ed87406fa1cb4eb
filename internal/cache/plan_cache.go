package cache

import (
	"strings"
	"time"

	plandomain "github.com/smallbiznis/hirehub/internal/plan/domain"
)

const (
	defaultPlanTTL  = 5 * time.Minute
	defaultPlanSize = 256
)

// PlanCache stores catalog lookups by id, by slug and the active listing.
type PlanCache interface {
	GetPlan(key string) (plandomain.Plan, bool)
	SetPlan(plan plandomain.Plan)
	GetActive() ([]plandomain.Plan, bool)
	SetActive(plans []plandomain.Plan)
	Purge()
}

type planCache struct {
	plans  Cache[string, plandomain.Plan]
	active Cache[string, []plandomain.Plan]
}

func NewPlanCache() PlanCache {
	return NewPlanCacheWithTTL(defaultPlanTTL)
}

func NewPlanCacheWithTTL(ttl time.Duration) PlanCache {
	return &planCache{
		plans:  NewLRU[string, plandomain.Plan](defaultPlanSize, ttl),
		active: NewLRU[string, []plandomain.Plan](1, ttl),
	}
}

func (c *planCache) GetPlan(key string) (plandomain.Plan, bool) {
	return c.plans.Get(normalizeKey(key))
}

func (c *planCache) SetPlan(plan plandomain.Plan) {
	c.plans.Set(plan.ID.String(), plan)
	c.plans.Set(normalizeKey(plan.Slug), plan)
}

func (c *planCache) GetActive() ([]plandomain.Plan, bool) {
	return c.active.Get("active")
}

func (c *planCache) SetActive(plans []plandomain.Plan) {
	c.active.Set("active", plans)
}

func (c *planCache) Purge() {
	c.plans.Purge()
	c.active.Purge()
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
