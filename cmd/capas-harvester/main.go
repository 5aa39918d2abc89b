package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joaobzao/capas-harvester/internal/app"
	"github.com/joaobzao/capas-harvester/internal/config"
	"github.com/joaobzao/capas-harvester/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "capas-harvester: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := app.Build(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.Pipeline.Run(ctx)
	if err != nil {
		log.ErrorObj("harvest failed", "run_error", map[string]any{"error": err.Error()})
		return err
	}

	fmt.Printf("wrote %d covers to %s\n", res.Covers, res.Artifacts.Capas)
	return nil
}
