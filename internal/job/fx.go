package job

import (
	"github.com/smallbiznis/hirehub/internal/job/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("job.repository",
	fx.Provide(repository.NewRepository),
)
