package dashboard

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/workflicks/backoffice/internal/auth"
	"github.com/workflicks/backoffice/internal/platform/httpx"
	"github.com/workflicks/backoffice/internal/rbac"
)

// Handler serves the dashboard metrics endpoint.
type Handler struct {
	logger  *slog.Logger
	guard   *auth.Guard
	service *Service
}

// NewHandler builds the dashboard Handler.
func NewHandler(logger *slog.Logger, guard *auth.Guard, service *Service) *Handler {
	return &Handler{logger: logger, guard: guard, service: service}
}

// MountRoutes registers dashboard routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequirePermission(rbac.PermViewAnalytics))
		r.Get("/metrics", h.metrics)
	})
}

func (h *Handler) metrics(w http.ResponseWriter, r *http.Request) {
	metrics, err := h.service.Metrics(r.Context())
	if err != nil {
		h.logger.Error("dashboard metrics", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, metrics)
}
