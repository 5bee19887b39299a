package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/St1cky1/task-tracker/internal/config"
	"github.com/St1cky1/task-tracker/internal/infrastructure/client"
	"github.com/St1cky1/task-tracker/internal/infrastructure/logger"
	"github.com/St1cky1/task-tracker/internal/repository"
	"github.com/St1cky1/task-tracker/internal/worker"
	"github.com/sirupsen/logrus"
)

// auditworker drains the audit queue into the audit_log table.
func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	if err := run(cfg, log); err != nil {
		log.WithError(err).Error("audit worker exited")
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *logrus.Logger) error {
	if cfg.RabbitMQ.URL == "" {
		return errors.New("RABBITMQ_URL is required for the audit worker")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := client.NewPostgresClient(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer db.Close()

	rabbitMQ, err := client.NewRabbitMQClient(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue, log)
	if err != nil {
		return fmt.Errorf("connect to rabbitmq: %w", err)
	}
	defer rabbitMQ.Close()

	auditWorker := worker.NewAuditWorker(rabbitMQ, repository.NewAuditRepository(db.Pool), log)
	return auditWorker.Start(ctx)
}
