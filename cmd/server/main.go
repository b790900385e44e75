package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/prisonkeeper/internal/logging"
	"github.com/dmitrijs2005/prisonkeeper/internal/server"
	"github.com/dmitrijs2005/prisonkeeper/internal/server/config"
)

func main() {
	ctx := context.Background()

	cfg, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.NewJSONLogger(os.Stdout, cfg.Environment)

	app, err := server.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}

	if err := app.Run(ctx); err != nil {
		os.Exit(1)
	}
}
