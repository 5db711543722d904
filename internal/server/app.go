// Package server assembles and runs the TaskVault backend: Postgres
// storage, object storage for attachments, the Redis snapshot cache, the
// change-notification hub and the HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrijs2005/taskvault/internal/logging"
	"github.com/dmitrijs2005/taskvault/internal/models"
	"github.com/dmitrijs2005/taskvault/internal/server/blob"
	"github.com/dmitrijs2005/taskvault/internal/server/cache"
	"github.com/dmitrijs2005/taskvault/internal/server/config"
	"github.com/dmitrijs2005/taskvault/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/taskvault/internal/server/services"
	"github.com/dmitrijs2005/taskvault/internal/server/watch"
	"github.com/dmitrijs2005/taskvault/internal/server/web"
	"golang.org/x/sync/errgroup"
)

type App struct {
	config *config.Config
	logger logging.Logger
}

func NewApp(cfg *config.Config, logger logging.Logger) *App {
	return &App{config: cfg, logger: logger}
}

// Run starts the server and blocks until SIGINT/SIGTERM or a fatal error.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := repomanager.Connect(ctx, a.config.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("error connecting to database: %w", err)
	}
	defer db.Close()

	manager := repomanager.NewPostgresRepositoryManager()
	if err := manager.RunMigrations(ctx, db); err != nil {
		return fmt.Errorf("error running migrations: %w", err)
	}
	a.logger.Info(ctx, "database ready")

	blobs := blob.NewS3Store(a.config)

	var snapshots services.SnapshotCache
	if a.config.RedisAddr != "" {
		rc := cache.New(a.config.RedisAddr, a.config.SnapshotCacheTTL, a.logger)
		defer rc.Close()
		snapshots = rc
	}

	userService := services.NewUserService(db, manager, a.config)
	taskService := services.NewTaskService(db, manager, blobs, snapshots, a.logger)

	hub := watch.NewHub(a.config.DatabaseDSN, func(ctx context.Context, userID string) ([]models.Task, error) {
		return manager.Tasks(db).SelectByOwner(ctx, userID)
	}, a.logger)

	handler := web.NewHandler(userService, taskService, hub, []byte(a.config.SecretKey), a.logger)
	srv := &http.Server{
		Addr:    a.config.EndpointAddrHTTP,
		Handler: handler.Router(),
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := hub.Run(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		a.logger.Info(ctx, "http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		a.logger.Info(context.Background(), "shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
