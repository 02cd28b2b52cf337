package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/hostbill/internal/clock"
	"github.com/smallbiznis/hostbill/internal/logger"
	"github.com/smallbiznis/hostbill/internal/migration"
	"github.com/smallbiznis/hostbill/internal/server"
	"github.com/smallbiznis/hostbill/pkg/db"
	"github.com/smallbiznis/hostbill/pkg/telemetry"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		fx.Provide(registerSnowflake),
		logger.Module,
		db.Module,
		clock.Module,
		telemetry.Module,
		migration.Module,
		server.Module,
	)
	app.Run()
}

func registerSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
