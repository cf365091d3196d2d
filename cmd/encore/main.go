package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/stagecast/encore/internal/clock"
	"github.com/stagecast/encore/internal/config"
	"github.com/stagecast/encore/internal/migration"
	"github.com/stagecast/encore/internal/observability"
	"github.com/stagecast/encore/internal/server"
	"github.com/stagecast/encore/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
