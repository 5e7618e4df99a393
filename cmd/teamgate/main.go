package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/teamgate/internal/config"
	"github.com/smallbiznis/teamgate/internal/logger"
	"github.com/smallbiznis/teamgate/internal/migration"
	"github.com/smallbiznis/teamgate/internal/server"
	"github.com/smallbiznis/teamgate/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,

		// HTTP surface; pulls in the organization and invite domains.
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
