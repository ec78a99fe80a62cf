// Package server assembles the Guardget backend: database, Redis, object
// storage, the service layer and the public REST endpoint. It owns startup
// migrations and graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"

	"github.com/guardget/guardget/internal/logging"
	"github.com/guardget/guardget/internal/server/config"
	"github.com/guardget/guardget/internal/server/http"
	"github.com/guardget/guardget/internal/server/otp"
	"github.com/guardget/guardget/internal/server/payments"
	"github.com/guardget/guardget/internal/server/repositories/repomanager"
	"github.com/guardget/guardget/internal/server/services"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	rm     repomanager.RepositoryManager
	redis  *redis.Client
	server *http.Server
}

func NewApp(cfg *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout)

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	otpStore := otp.NewRedisStore(redisClient)

	storage := services.NewObjectStorage(cfg)
	provider := payments.NewHTTPProvider(cfg.CheckoutBaseURL, cfg.CheckoutSecretKey)
	notifier := services.NewLogNotifier(logger)

	srv := http.NewServer(cfg, logger,
		services.NewUserService(db, rm, cfg, otpStore, notifier),
		services.NewDeviceService(db, rm, cfg, storage),
		services.NewTransferService(db, rm, cfg),
		services.NewSubscriptionService(db, rm, cfg, provider),
		services.NewReceiptService(db, rm, storage),
		services.NewAdminService(db, rm),
	)

	return &App{config: cfg, logger: logger, db: db, rm: rm, redis: redisClient, server: srv}, nil
}

func (app *App) migrate(ctx context.Context) error {
	return app.rm.RunMigrations(ctx, app.db)
}

// Run starts the HTTP endpoint and blocks until SIGINT/SIGTERM, then drains
// in-flight requests before closing the database and Redis connections.
func (app *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.migrate(ctx); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	httpServer := &nethttp.Server{
		Addr:    app.config.EndpointAddrHTTP,
		Handler: app.server.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		app.logger.Info(ctx, "http server listening", "addr", app.config.EndpointAddrHTTP)
		if err := httpServer.ListenAndServe(); err != nil && err != nethttp.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	app.logger.Info(context.Background(), "shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		app.logger.Error(shutdownCtx, "http shutdown", "error", err)
	}

	if err := app.redis.Close(); err != nil {
		app.logger.Error(context.Background(), "closing redis", "error", err)
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error(context.Background(), "closing db", "error", err)
	}
	return nil
}
