package scheduler

import (
	"strings"
	"time"

	"github.com/smallbiznis/hirehub/internal/config"
)

// Config controls which jobs run and how long each run may take.
type Config struct {
	SweepEnabled  bool
	SweepSchedule string
	SweepTimeout  time.Duration
}

func DefaultConfig() Config {
	return Config{
		SweepEnabled:  true,
		SweepSchedule: "@every 15m",
		SweepTimeout:  2 * time.Minute,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if strings.TrimSpace(c.SweepSchedule) == "" {
		c.SweepSchedule = defaults.SweepSchedule
	}
	if c.SweepTimeout <= 0 {
		c.SweepTimeout = defaults.SweepTimeout
	}
	return c
}

func ProvideConfig(cfg config.Config) Config {
	return Config{
		SweepEnabled:  cfg.Sweeper.Enabled,
		SweepSchedule: cfg.Sweeper.Schedule,
	}.withDefaults()
}
