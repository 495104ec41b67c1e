// Package settings exposes the role/permission table and the permission
// mutation endpoint.
package settings

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/workflicks/backoffice/internal/audit"
	"github.com/workflicks/backoffice/internal/auth"
	"github.com/workflicks/backoffice/internal/platform/httpx"
	"github.com/workflicks/backoffice/internal/rbac"
)

type permissionForm struct {
	Role       string `json:"role" validate:"required"`
	Permission string `json:"permission" validate:"required"`
	Enabled    bool   `json:"enabled"`
}

type auditRow struct {
	ID        string    `json:"id"`
	Actor     string    `json:"actor"`
	Action    string    `json:"action"`
	CreatedAt time.Time `json:"createdAt"`
}

// Handler serves the settings surface.
type Handler struct {
	logger    *slog.Logger
	guard     *auth.Guard
	registry  *rbac.Registry
	service   *rbac.Service
	audit     *audit.Recorder
	validator *validator.Validate
}

// NewHandler builds the settings Handler.
func NewHandler(logger *slog.Logger, guard *auth.Guard, registry *rbac.Registry, service *rbac.Service, recorder *audit.Recorder) *Handler {
	return &Handler{logger: logger, guard: guard, registry: registry, service: service, audit: recorder, validator: validator.New()}
}

// MountRoutes registers settings routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequirePermission(rbac.PermManageSettings))
		r.Get("/", h.getSettings)
		r.Post("/permissions", h.setPermission)
	})
}

func (h *Handler) getSettings(w http.ResponseWriter, r *http.Request) {
	roles, err := h.registry.RoleTable(r.Context())
	if err != nil {
		h.logger.Error("load role table", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	entries, err := h.audit.Recent(r.Context(), 10)
	if err != nil {
		h.logger.Error("load audit log", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	rows := make([]auditRow, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, auditRow{
			ID:        entry.ID,
			Actor:     entry.Actor(),
			Action:    entry.Summary,
			CreatedAt: entry.CreatedAt,
		})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"roles":    roles,
		"auditLog": rows,
	})
}

func (h *Handler) setPermission(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())

	var form permissionForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "Malformed JSON body.")
		return
	}
	if err := h.validator.Struct(form); err != nil {
		httpx.ValidationProblem(w, httpx.Issues(err))
		return
	}

	result, err := h.service.SetPermission(r.Context(),
		rbac.Role(form.Role), rbac.Permission(form.Permission), form.Enabled, identity.Actor())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}
