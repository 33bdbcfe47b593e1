package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/mchatman/bankaccounts/internal/config"
	"github.com/mchatman/bankaccounts/internal/db"
	"github.com/mchatman/bankaccounts/internal/logging"
	"github.com/mchatman/bankaccounts/internal/migrate"
)

type App struct {
	router http.Handler
	config *config.Config
	db     *db.Client
	logger *zap.Logger
}

func New(cfg *config.Config, client *db.Client, logger *zap.Logger) *App {
	app := &App{
		config: cfg,
		db:     client,
		logger: logger,
	}

	app.loadRoutes()

	return app
}

func (a *App) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", a.config.Port),
		Handler:      a.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)

	go func() {
		a.logger.Info("starting server", zap.Int("port", a.config.Port), zap.String("database", a.config.Database))
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case err := <-serverErr:
		return err
	case <-stop:
		a.logger.Info("shutdown signal received")
	case <-ctx.Done():
		a.logger.Info("context cancelled")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		if closeErr := server.Close(); closeErr != nil {
			return errors.Join(err, closeErr)
		}
		return err
	}

	a.logger.Info("server exited gracefully")
	return nil
}

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.IsDevelopment())
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}

	if err := run(context.Background(), cfg, logger); err != nil {
		logger.Error("service stopped with error", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
	_ = logger.Sync()
}

// run owns the database client for the lifetime of the server so it is
// always disconnected on the way out.
func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	client, err := db.Connect(ctx, cfg.MongoURI, cfg.Database, cfg.ConnectTimeout)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Close(closeCtx); err != nil {
			logger.Error("failed to close database connection", zap.Error(err))
			return
		}
		logger.Info("database connection closed")
	}()

	if cfg.RunMigrations {
		if err := migrate.RunMigrations(ctx, cfg.MongoURI, cfg.Database, client.Database(), logger); err != nil {
			// Don't fail startup - migrations might already be applied
			logger.Warn("failed to run migrations", zap.Error(err))
		}
	}

	return New(cfg, client, logger).Start(ctx)
}
