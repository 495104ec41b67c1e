package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/workflicks/backoffice/internal/auth"
	"github.com/workflicks/backoffice/internal/companies"
	"github.com/workflicks/backoffice/internal/content"
	"github.com/workflicks/backoffice/internal/dashboard"
	"github.com/workflicks/backoffice/internal/listings"
	"github.com/workflicks/backoffice/internal/settings"
	"github.com/workflicks/backoffice/internal/users"
	"github.com/workflicks/backoffice/internal/webhooks"
	"github.com/workflicks/backoffice/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger *slog.Logger
	Config *Config
	Pool   *pgxpool.Pool
	Redis  *redis.Client

	AuthHandler      *auth.Handler
	SettingsHandler  *settings.Handler
	ListingsHandler  *listings.Handler
	CompaniesHandler *companies.Handler
	UsersHandler     *users.Handler
	ContentHandler   *content.Handler
	DashboardHandler *dashboard.Handler
	WebhooksHandler  *webhooks.Handler
	JobHandler       *jobs.Handler
}

// NewRouter constructs the chi.Router with application defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if params.Pool != nil {
			if err := params.Pool.Ping(ctx); err != nil {
				params.Logger.Warn("healthz postgres", slog.Any("error", err))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"status":"degraded"}`))
				return
			}
		}
		if params.Redis != nil {
			if err := params.Redis.Ping(ctx).Err(); err != nil {
				params.Logger.Warn("healthz redis", slog.Any("error", err))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"status":"degraded"}`))
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)
	r.Route("/settings", params.SettingsHandler.MountRoutes)
	r.Route("/jobs", params.ListingsHandler.MountRoutes)
	r.Route("/companies", params.CompaniesHandler.MountRoutes)
	r.Route("/users", params.UsersHandler.MountRoutes)
	r.Route("/content", params.ContentHandler.MountRoutes)
	r.Route("/dashboard", params.DashboardHandler.MountRoutes)
	r.Route("/webhooks", params.WebhooksHandler.MountRoutes)
	if params.JobHandler != nil {
		r.Route("/queue", params.JobHandler.MountRoutes)
	}

	return r
}
