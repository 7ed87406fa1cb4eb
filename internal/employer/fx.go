package employer

import (
	"github.com/smallbiznis/hirehub/internal/employer/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("employer.repository",
	fx.Provide(repository.NewRepository),
)
