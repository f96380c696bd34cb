package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pricewatch/hardgamers-watcher/config"
	"github.com/pricewatch/hardgamers-watcher/logger"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()
	log := logger.Default

	// Load and validate configuration
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	args := os.Args[1:]
	if len(args) == 0 {
		printUsage(os.Stderr)
		os.Exit(2)
	}

	// Set up context cancelled on SIGINT / SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := newApp(ctx, cfg, os.Stdout)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize application")
	}
	defer app.Close()

	log.Debug().
		Str("environment", cfg.Environment).
		Str("command", args[0]).
		Msg("Starting application")

	if err := app.Run(ctx, args); err != nil {
		if errors.Is(err, errUsage) {
			printUsage(os.Stderr)
			os.Exit(2)
		}
		if errors.Is(err, context.Canceled) {
			log.Info().Msg("Shutting down gracefully...")
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		app.Close()
		os.Exit(1)
	}
}
