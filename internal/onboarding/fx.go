package onboarding

import (
	"github.com/smallbiznis/hirehub/internal/onboarding/service"
	"go.uber.org/fx"
)

var Module = fx.Module("onboarding.service",
	fx.Provide(service.NewService),
)
