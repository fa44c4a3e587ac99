package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/indigoair/indigo/config"
	"github.com/indigoair/indigo/internal/bootstrap"
	"github.com/indigoair/indigo/internal/logging"
	"github.com/spf13/pflag"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	defaultPath := os.Getenv("CONFIG_PATH")
	if defaultPath == "" {
		defaultPath = "config.yaml"
	}
	cfgPath := pflag.StringP("config", "c", defaultPath, "path to the YAML config file")
	pflag.Parse()

	cfg, err := config.LoadConfig(*cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(cfg.Log, os.Stdout)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.NewApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	logger.Info("starting api", "storage", cfg.Storage.Driver, "holds", cfg.Storage.Holds, "kafka", cfg.Kafka.Enabled(), "amqp", cfg.AMQP.Enabled())
	if err := bootstrap.Run(ctx, app); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
