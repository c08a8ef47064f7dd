// Package main is the entry point for the City Guide server.
// City Guide is a directory of restaurants, nightlife and services.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/prn-tf/cityguide/internal/app"
	"github.com/prn-tf/cityguide/internal/config"
	"github.com/prn-tf/cityguide/internal/logging"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	configPath := pflag.StringP("config", "c", "", "path to config file")
	pflag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger, err := logging.New(cfg.Logging, os.Stderr)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to configure logging")
	}
	log.Logger = logger

	logger.Info().
		Str("version", Version).
		Str("build_time", BuildTime).
		Str("git_commit", GitCommit).
		Str("driver", cfg.Database.Driver).
		Msg("Starting City Guide server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize server")
	}

	if err := a.Run(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Server stopped with error")
	}
	logger.Info().Msg("Server stopped")
}
