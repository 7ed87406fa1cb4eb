package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/hirehub/internal/clock"
	"github.com/smallbiznis/hirehub/internal/config"
	"github.com/smallbiznis/hirehub/internal/migration"
	"github.com/smallbiznis/hirehub/internal/observability"
	"github.com/smallbiznis/hirehub/internal/scheduler"
	"github.com/smallbiznis/hirehub/internal/server"
	"github.com/smallbiznis/hirehub/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		// HTTP surface and the domains behind it
		server.Module,

		// Background jobs
		scheduler.Module,
	)
	app.Run()
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.NodeID)
}
