package cache

import (
	"testing"
	"time"

	plandomain "github.com/smallbiznis/hirehub/internal/plan/domain"
	"github.com/stretchr/testify/assert"
)

func TestPlanCacheLookupByIDAndSlug(t *testing.T) {
	c := NewPlanCache()
	plan := plandomain.Plan{ID: 42, Slug: "pro-monthly", Amount: 299000}
	c.SetPlan(plan)

	got, ok := c.GetPlan("42")
	assert.True(t, ok)
	assert.Equal(t, plan, got)

	got, ok = c.GetPlan(" Pro-Monthly ")
	assert.True(t, ok)
	assert.Equal(t, plan.ID, got.ID)

	c.Purge()
	_, ok = c.GetPlan("42")
	assert.False(t, ok)
}

func TestPlanCacheExpires(t *testing.T) {
	c := NewPlanCacheWithTTL(20 * time.Millisecond)
	c.SetActive([]plandomain.Plan{{ID: 1}})

	_, ok := c.GetActive()
	assert.True(t, ok)

	assert.Eventually(t, func() bool {
		_, ok := c.GetActive()
		return !ok
	}, time.Second, 10*time.Millisecond)
}
