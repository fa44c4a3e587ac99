package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/indigoair/indigo/config"
	"github.com/indigoair/indigo/internal/bootstrap"
	"github.com/indigoair/indigo/internal/email"
	"github.com/indigoair/indigo/internal/kafka"
	"github.com/indigoair/indigo/internal/logging"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// The worker sends passenger notifications from the Kafka events topic and,
// when holds live in Redis, sweeps holds whose owning instance went away.
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
	if !cfg.Kafka.Enabled() && cfg.Storage.Holds != config.DriverRedis {
		return errors.New("worker needs kafka.brokers or storage.holds=redis")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	if cfg.Kafka.Enabled() {
		consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.EventsTopic, logger)
		defer consumer.Close()
		sender := email.NewSender(logger)
		g.Go(func() error {
			logger.Info("consuming events", "topic", cfg.Kafka.EventsTopic, "group_id", cfg.Kafka.GroupID)
			return consumer.Consume(gctx, sender.Send)
		})
	}

	if cfg.Storage.Holds == config.DriverRedis {
		app, err := bootstrap.NewApp(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer app.Close()
		g.Go(func() error {
			logger.Info("sweeping stale holds", "interval", cfg.Worker.SweepInterval)
			return app.Bookings.RunSweeper(gctx, cfg.Worker.SweepInterval)
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("worker stopped: %w", err)
	}
	return nil
}
