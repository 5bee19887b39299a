package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/St1cky1/task-tracker/internal/api"
	"github.com/St1cky1/task-tracker/internal/api/middleware"
	"github.com/St1cky1/task-tracker/internal/config"
	"github.com/St1cky1/task-tracker/internal/infrastructure/auth"
	"github.com/St1cky1/task-tracker/internal/infrastructure/client"
	"github.com/St1cky1/task-tracker/internal/infrastructure/logger"
	"github.com/St1cky1/task-tracker/internal/repository"
	"github.com/St1cky1/task-tracker/internal/usecase"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/sirupsen/logrus"
)

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
		log.WithError(err).Error("server exited")
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Запускаем миграции
	if err := runMigrations(cfg.MigrationsPath, cfg.Database.URL()); err != nil {
		return err
	}

	// Подключаемся к БД
	db, err := client.NewPostgresClient(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer db.Close()
	log.Info("connected to postgres")

	userRepo := repository.NewUserRepository(db.Pool)
	projectRepo := repository.NewProjectRepository(db.Pool)
	taskRepo := repository.NewTaskRepository(db.Pool)
	commentRepo := repository.NewCommentRepository(db.Pool)
	auditRepo := repository.NewAuditRepository(db.Pool)

	var publisher usecase.AuditPublisher = client.Noop{Log: log, Name: "rabbitmq"}
	if cfg.RabbitMQ.URL != "" {
		rabbitMQ, err := client.NewRabbitMQClient(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue, log)
		if err != nil {
			log.WithError(err).Warn("rabbitmq unavailable, audit publishing disabled")
		} else {
			defer rabbitMQ.Close()
			publisher = rabbitMQ
		}
	}

	var notifier usecase.Notifier = client.Noop{Log: log, Name: "telegram"}
	if cfg.Telegram.BotToken != "" {
		telegram, err := client.NewTelegramNotifier(cfg.Telegram.BotToken)
		if err != nil {
			log.WithError(err).Warn("telegram unavailable, notifications disabled")
		} else {
			notifier = telegram
		}
	}

	var images usecase.ImageStore = client.Noop{Log: log, Name: "azblob"}
	if cfg.Azure.Enabled() {
		store, err := client.NewBlobImageStore(cfg.Azure)
		if err != nil {
			log.WithError(err).Warn("blob storage unavailable, project images disabled")
		} else {
			images = store
		}
	}

	var index usecase.ProjectIndex = client.Noop{Log: log, Name: "meilisearch"}
	if cfg.Meilisearch.Host != "" {
		index = client.NewProjectIndex(cfg.Meilisearch.Host, cfg.Meilisearch.APIKey, cfg.Meilisearch.Index)
	}

	var cache middleware.ResponseStore
	if cfg.Redis.Addr != "" {
		rc, err := client.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.WithError(err).Warn("redis unavailable, shared response cache disabled")
		} else {
			defer rc.Close()
			cache = client.NewResponseCache(rc, "task-tracker:responses:")
		}
	}

	services := api.Services{
		Projects: usecase.NewProjectService(projectRepo, taskRepo, userRepo, images, index, publisher, log),
		Tasks:    usecase.NewTaskService(taskRepo, projectRepo, userRepo, commentRepo, auditRepo, notifier, publisher, log),
		Comments: usecase.NewCommentService(commentRepo, taskRepo, userRepo, publisher, log),
		Users:    usecase.NewUserService(userRepo, log),
	}

	router := api.NewRouter(services, api.RouterConfig{
		Tokens:   auth.NewJWTManager(cfg.Auth.JWTSecretKey),
		DB:       db,
		Cache:    cache,
		LoginURL: cfg.LoginURL,
		Log:      log,
	})

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("http server started")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}
	return waitForShutdown(server, log)
}

func waitForShutdown(server *http.Server, log *logrus.Logger) error {
	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	log.Info("server stopped")
	return nil
}

func runMigrations(source, dbURL string) error {
	m, err := migrate.New(source, dbURL)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}
