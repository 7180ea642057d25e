// Command api runs the CRM webhook ingestion server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"candidate_pipeline_backend/internal/adapters/crm"
	"candidate_pipeline_backend/internal/events"
	apphttp "candidate_pipeline_backend/internal/http"
	"candidate_pipeline_backend/internal/http/router"
	"candidate_pipeline_backend/internal/ingestion"
	"candidate_pipeline_backend/platform/config"
	"candidate_pipeline_backend/platform/db"
	"candidate_pipeline_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := logger.New(cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := withRetry(ctx, log, "migrations", func() error {
		return db.RunMigrations(ctx, cfg, "migrations")
	}); err != nil {
		log.Error("migrations failed", "error", err)
		os.Exit(1)
	}

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database pool", func() error {
		var poolErr error
		pool, poolErr = db.NewPool(ctx, cfg)
		return poolErr
	}); err != nil {
		log.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	bus := events.NewInMemoryBus(log)

	if cfg.IsCRMAPIEnabled() {
		crm.NewClient(cfg, log).RegisterHandlers(bus)
		log.Info("crm api adapter enabled")
	} else {
		log.Info("crm api adapter disabled, terminal closes will not clear assignees")
	}

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: bus,
		Modules: []apphttp.Module{
			ingestion.NewModule(pool, bus, log, cfg),
		},
	}

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info("server starting", "addr", cfg.HTTPAddr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

// withRetry retries startup steps that race the database container coming up.
func withRetry(ctx context.Context, log *logger.Logger, name string, fn func() error) error {
	const attempts = 5
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		log.Warn("startup step failed, retrying",
			"step", name,
			"attempt", attempt,
			"error", err,
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * time.Second):
		}
	}
	return err
}
