package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/hirehub/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	keyCheckoutEmployer = "checkout:employer:%s"
	keyWebhookOrderLock = "webhook:order:lock:%s"
)

var ErrRateLimited = errors.New("rate_limited")

// PaymentGuard throttles checkout attempts and serializes webhook processing per order.
// A nil or disabled guard allows everything.
type PaymentGuard struct {
	enabled bool

	budget *Budget
	locker *Locker

	checkoutRate  float64
	checkoutBurst int
	lockTTL       time.Duration
}

func NewRedisClient(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) (*redis.Client, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}
	addr := strings.TrimSpace(cfg.Redis.Addr)
	if addr == "" {
		return nil, errors.New("redis addr is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if lc != nil {
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				if err := client.Ping(ctx).Err(); err != nil {
					log.Warn("redis unreachable, payment guard degraded", zap.String("addr", addr), zap.Error(err))
				}
				return nil
			},
			OnStop: func(context.Context) error {
				return client.Close()
			},
		})
	}
	return client, nil
}

func NewPaymentGuard(cfg config.Config, client *redis.Client) *PaymentGuard {
	if client == nil {
		return &PaymentGuard{}
	}
	lockTTL := cfg.Redis.LockTTL
	if lockTTL <= 0 {
		lockTTL = 10 * time.Second
	}
	return &PaymentGuard{
		enabled:       true,
		budget:        NewBudget(client),
		locker:        NewLocker(client),
		checkoutRate:  cfg.Redis.CheckoutRatePerMinute,
		checkoutBurst: cfg.Redis.CheckoutBurst,
		lockTTL:       lockTTL,
	}
}

func (g *PaymentGuard) Enabled() bool {
	return g != nil && g.enabled
}

// AllowCheckout returns ErrRateLimited when the employer exceeded its checkout budget.
func (g *PaymentGuard) AllowCheckout(ctx context.Context, employerID string) error {
	employerID = strings.TrimSpace(employerID)
	if !g.Enabled() || g.checkoutRate <= 0 || g.checkoutBurst <= 0 || employerID == "" {
		return nil
	}
	res, err := g.budget.Take(ctx, fmt.Sprintf(keyCheckoutEmployer, employerID), g.checkoutRate, g.checkoutBurst)
	if err != nil {
		// fail open: redis trouble must not block payments
		return nil
	}
	if !res.Allowed {
		return fmt.Errorf("%w: retry after %s", ErrRateLimited, res.RetryAfter.Round(time.Second))
	}
	return nil
}

// LockOrder blocks until the per-order lock is held and returns its release func.
func (g *PaymentGuard) LockOrder(ctx context.Context, orderID string) (func(), error) {
	if !g.Enabled() {
		return func() {}, nil
	}
	key := fmt.Sprintf(keyWebhookOrderLock, strings.TrimSpace(orderID))
	token, err := g.locker.Acquire(ctx, key, g.lockTTL, g.lockTTL)
	if err != nil {
		return func() {}, err
	}
	return func() {
		_ = g.locker.Release(context.WithoutCancel(ctx), key, token)
	}, nil
}
