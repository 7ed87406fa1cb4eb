package verification

import (
	"github.com/smallbiznis/hirehub/internal/verification/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("verification.repository",
	fx.Provide(repository.NewRepository),
)
