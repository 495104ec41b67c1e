package listings

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/workflicks/backoffice/internal/auth"
	"github.com/workflicks/backoffice/internal/platform/httpx"
	"github.com/workflicks/backoffice/internal/rbac"
)

// Handler serves the job posting endpoints.
type Handler struct {
	logger    *slog.Logger
	guard     *auth.Guard
	service   *Service
	validator *validator.Validate
}

// NewHandler builds the listings Handler.
func NewHandler(logger *slog.Logger, guard *auth.Guard, service *Service) *Handler {
	return &Handler{logger: logger, guard: guard, service: service, validator: validator.New()}
}

// MountRoutes registers job routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequirePermission(rbac.PermManageJobs))
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/{id}", h.show)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.archive)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	jobs, companies, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list jobs", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"jobs":      jobs,
		"companies": companies,
	})
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	job, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, job)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())

	var form JobForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "Malformed JSON body.")
		return
	}
	if err := h.validator.Struct(form); err != nil {
		httpx.ValidationProblem(w, httpx.Issues(err))
		return
	}

	job, err := h.service.Create(r.Context(), form, identity.UID, actorLabel(identity))
	if err != nil {
		h.logger.Error("create job", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"id": job.ID})
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())

	var form JobForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "Malformed JSON body.")
		return
	}
	if err := h.validator.Struct(form); err != nil {
		httpx.ValidationProblem(w, httpx.Issues(err))
		return
	}

	job, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), form, actorLabel(identity))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"id": job.ID})
}

func (h *Handler) archive(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())

	id := chi.URLParam(r, "id")
	if err := h.service.Archive(r.Context(), id, actorLabel(identity)); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"id": id})
}

func actorLabel(identity auth.Identity) string {
	if identity.Email != "" {
		return identity.Email
	}
	return identity.UID
}
