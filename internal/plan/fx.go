package plan

import (
	"context"

	"github.com/smallbiznis/hirehub/internal/cache"
	"github.com/smallbiznis/hirehub/internal/config"
	"github.com/smallbiznis/hirehub/internal/plan/domain"
	"github.com/smallbiznis/hirehub/internal/plan/repository"
	"github.com/smallbiznis/hirehub/internal/plan/service"
	"go.uber.org/fx"
)

var Module = fx.Module("plan.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(cache.NewPlanCache),
	fx.Provide(service.NewService),
	fx.Invoke(registerSeed),
)

func registerSeed(lc fx.Lifecycle, svc domain.Service, holder *config.BillingConfigHolder) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return svc.Seed(ctx, holder.Get().Plans)
		},
	})
}
