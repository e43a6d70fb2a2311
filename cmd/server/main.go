package main

import (
	"github.com/scivar-kg/backend/internal/server"
	"github.com/scivar-kg/backend/internal/util"
	"github.com/scivar-kg/backend/pkg/logger"
	"github.com/scivar-kg/backend/pkg/logger/console"
)

func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	server.Init()
}
