package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/workflicks/backoffice/internal/app"
	"github.com/workflicks/backoffice/internal/audit"
	"github.com/workflicks/backoffice/internal/auth"
	"github.com/workflicks/backoffice/internal/companies"
	"github.com/workflicks/backoffice/internal/content"
	"github.com/workflicks/backoffice/internal/dashboard"
	"github.com/workflicks/backoffice/internal/listings"
	"github.com/workflicks/backoffice/internal/platform/cache"
	"github.com/workflicks/backoffice/internal/platform/db"
	"github.com/workflicks/backoffice/internal/rbac"
	"github.com/workflicks/backoffice/internal/settings"
	"github.com/workflicks/backoffice/internal/store"
	"github.com/workflicks/backoffice/internal/users"
	"github.com/workflicks/backoffice/internal/webhooks"
	"github.com/workflicks/backoffice/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	docs := store.NewPostgres(pool)
	if err := docs.EnsureSchema(ctx); err != nil {
		logger.Error("ensure schema", slog.Any("error", err))
		os.Exit(1)
	}

	queue, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init queue client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := queue.Close(); err != nil {
			logger.Warn("queue close", slog.Any("error", err))
		}
	}()

	recorder := audit.NewRecorder(docs, logger)
	registry := rbac.NewRegistry(docs)
	provider := auth.NewProvider(cfg.TokenSecret, cfg.TokenTTL, redisClient, docs, logger)
	guard := auth.NewGuard(provider)
	permissions := rbac.NewService(docs, registry, provider, queue, recorder, logger)

	listingSvc := listings.NewService(docs, recorder, queue, logger)
	companySvc := companies.NewService(docs, recorder)
	userSvc := users.NewService(docs, registry, provider, recorder, logger)
	contentSvc := content.NewService(docs, recorder)
	dashboardSvc := dashboard.NewService(docs, recorder)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		Pool:             pool,
		Redis:            redisClient,
		AuthHandler:      auth.NewHandler(logger, provider, registry, docs),
		SettingsHandler:  settings.NewHandler(logger, guard, registry, permissions, recorder),
		ListingsHandler:  listings.NewHandler(logger, guard, listingSvc),
		CompaniesHandler: companies.NewHandler(logger, guard, companySvc),
		UsersHandler:     users.NewHandler(logger, guard, userSvc),
		ContentHandler:   content.NewHandler(logger, guard, contentSvc),
		DashboardHandler: dashboard.NewHandler(logger, guard, dashboardSvc),
		WebhooksHandler:  webhooks.NewHandler(logger),
		JobHandler:       jobs.NewHandler(inspector, logger),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", cfg.AppAddr), slog.String("env", cfg.AppEnv))
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown", slog.Any("error", err))
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server run", slog.Any("error", err))
			os.Exit(1)
		}
	}
}
