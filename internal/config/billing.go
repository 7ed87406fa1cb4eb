package config

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// BillingConfig is the hot-reloadable part of the configuration, read from billing.yml.
type BillingConfig struct {
	Plans   []PlanSeed    `mapstructure:"plans"`
	Webhook WebhookConfig `mapstructure:"webhook"`
}

// PlanSeed describes a catalog entry that is upserted at startup.
type PlanSeed struct {
	Slug      string `mapstructure:"slug"`
	Name      string `mapstructure:"name"`
	Amount    int64  `mapstructure:"amount"`
	Currency  string `mapstructure:"currency"`
	Interval  string `mapstructure:"interval"`
	Active    bool   `mapstructure:"active"`
	TrialDays int    `mapstructure:"trialDays"`
}

type WebhookConfig struct {
	// RankGuard skips notifications that would move a payment to a lower ranked status.
	RankGuard bool `mapstructure:"rankGuard"`
}

func DefaultBillingConfig() BillingConfig {
	return BillingConfig{
		Plans: []PlanSeed{
			{Slug: "starter", Name: "Starter", Amount: 0, Currency: "IDR", Interval: "month", Active: true},
			{Slug: "trial-pro", Name: "Pro Trial", Amount: 299000, Currency: "IDR", Interval: "month", Active: true, TrialDays: 14},
			{Slug: "pro-monthly", Name: "Pro Monthly", Amount: 299000, Currency: "IDR", Interval: "month", Active: true},
			{Slug: "pro-yearly", Name: "Pro Yearly", Amount: 2990000, Currency: "IDR", Interval: "year", Active: true},
		},
	}
}

type BillingConfigHolder struct {
	current atomic.Value // holds BillingConfig
}

// NewStaticBillingConfigHolder returns a holder that never reloads.
func NewStaticBillingConfigHolder(cfg BillingConfig) *BillingConfigHolder {
	holder := &BillingConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func NewBillingConfigHolder(log *zap.Logger) (*BillingConfigHolder, error) {
	log = log.Named("config.billing")
	v := viper.New()

	v.SetConfigName("billing")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/hirehub/config") // Volume-mounted config
	v.AddConfigPath("/etc/hirehub")            // System config
	v.AddConfigPath(".")                       // Current directory (dev mode)

	v.SetEnvPrefix("HIREHUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultBillingConfig()
	v.SetDefault("billing.webhook.rankGuard", false)

	watch := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		watch = false
	}

	var cfg BillingConfig
	if err := v.UnmarshalKey("billing", &cfg); err != nil {
		return nil, err
	}
	if len(cfg.Plans) == 0 {
		cfg.Plans = defaults.Plans
	}
	if err := ValidateBillingConfig(cfg); err != nil {
		return nil, err
	}

	holder := NewStaticBillingConfigHolder(cfg)
	if !watch {
		log.Info("billing.yml not found, using defaults")
		return holder, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated BillingConfig
		if err := v.UnmarshalKey("billing", &updated); err != nil {
			log.Warn("reload failed", zap.Error(err))
			return
		}
		if len(updated.Plans) == 0 {
			updated.Plans = defaults.Plans
		}
		if err := ValidateBillingConfig(updated); err != nil {
			log.Warn("invalid config ignored", zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("reloaded", zap.String("file", e.Name), zap.Bool("rank_guard", updated.Webhook.RankGuard))
	})

	return holder, nil
}

func (h *BillingConfigHolder) Get() BillingConfig {
	return h.current.Load().(BillingConfig)
}

// Set replaces the current configuration.
func (h *BillingConfigHolder) Set(cfg BillingConfig) {
	h.current.Store(cfg)
}

func ValidateBillingConfig(cfg BillingConfig) error {
	seen := make(map[string]struct{}, len(cfg.Plans))
	for i, p := range cfg.Plans {
		slug := strings.TrimSpace(p.Slug)
		if slug == "" {
			return fmt.Errorf("billing.plans[%d].slug cannot be empty", i)
		}
		if _, ok := seen[slug]; ok {
			return fmt.Errorf("billing.plans[%d].slug %q is duplicated", i, slug)
		}
		seen[slug] = struct{}{}
		if p.Amount < 0 {
			return fmt.Errorf("billing.plans[%d].amount cannot be negative", i)
		}
		if p.TrialDays < 0 {
			return fmt.Errorf("billing.plans[%d].trialDays cannot be negative", i)
		}
		switch p.Interval {
		case "month", "year":
		default:
			return fmt.Errorf("billing.plans[%d].interval must be month or year", i)
		}
		if strings.TrimSpace(p.Currency) == "" {
			return errors.New("billing.plans currency cannot be empty")
		}
	}
	return nil
}
