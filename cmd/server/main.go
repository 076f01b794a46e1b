package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Black-And-White-Club/stride-league/app"
	"github.com/Black-And-White-Club/stride-league/config"
	"github.com/Black-And-White-Club/stride-league/internal/observability"
	"github.com/Black-And-White-Club/stride-league/internal/observability/attr"
)

func main() {
	configFile := flag.String("config", "config.yaml", "Path to the configuration file")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	obs := observability.Init(config.ToObsConfig(cfg))
	logger := obs.Logger
	logger.Info("Starting stride-league")

	application := &app.App{}
	if err := application.Initialize(ctx, cfg, obs); err != nil {
		logger.Error("Failed to initialize application", attr.Error(err))
		if closeErr := application.Close(); closeErr != nil {
			logger.Error("Cleanup after failed init", attr.Error(closeErr))
		}
		os.Exit(1)
	}

	runErr := application.Run(ctx)
	if runErr != nil {
		logger.Error("Application stopped with error", attr.Error(runErr))
	}

	if err := application.Close(); err != nil {
		logger.Error("Error during shutdown", attr.Error(err))
	}

	if runErr != nil {
		os.Exit(1)
	}
	logger.Info("stride-league stopped")
}
