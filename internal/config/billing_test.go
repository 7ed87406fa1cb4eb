package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateBillingConfig(t *testing.T) {
	assert.NoError(t, ValidateBillingConfig(DefaultBillingConfig()))

	cases := map[string]PlanSeed{
		"empty slug":     {Slug: "", Currency: "IDR", Interval: "month"},
		"negative":       {Slug: "x", Amount: -1, Currency: "IDR", Interval: "month"},
		"bad interval":   {Slug: "x", Currency: "IDR", Interval: "week"},
		"negative trial": {Slug: "x", Currency: "IDR", Interval: "month", TrialDays: -3},
		"no currency":    {Slug: "x", Interval: "year"},
	}
	for name, seed := range cases {
		t.Run(name, func(t *testing.T) {
			err := ValidateBillingConfig(BillingConfig{Plans: []PlanSeed{seed}})
			assert.Error(t, err)
		})
	}

	dup := BillingConfig{Plans: []PlanSeed{
		{Slug: "a", Currency: "IDR", Interval: "month"},
		{Slug: "a", Currency: "IDR", Interval: "month"},
	}}
	assert.Error(t, ValidateBillingConfig(dup))
}

func TestBillingConfigHolderSet(t *testing.T) {
	holder := NewStaticBillingConfigHolder(DefaultBillingConfig())
	assert.False(t, holder.Get().Webhook.RankGuard)

	cfg := holder.Get()
	cfg.Webhook.RankGuard = true
	holder.Set(cfg)
	assert.True(t, holder.Get().Webhook.RankGuard)
}
