package companies

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/workflicks/backoffice/internal/auth"
	"github.com/workflicks/backoffice/internal/platform/httpx"
	"github.com/workflicks/backoffice/internal/rbac"
)

// Handler serves the company endpoints.
type Handler struct {
	logger    *slog.Logger
	guard     *auth.Guard
	service   *Service
	validator *validator.Validate
}

// NewHandler builds the companies Handler.
func NewHandler(logger *slog.Logger, guard *auth.Guard, service *Service) *Handler {
	return &Handler{logger: logger, guard: guard, service: service, validator: validator.New()}
}

// MountRoutes registers company routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequirePermission(rbac.PermManageCompanies))
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/{id}", h.show)
		r.Put("/{id}", h.update)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list companies", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"companies": result})
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	company, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, company)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())

	var form CompanyForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "Malformed JSON body.")
		return
	}
	if err := h.validator.Struct(form); err != nil {
		httpx.ValidationProblem(w, httpx.Issues(err))
		return
	}

	company, err := h.service.Create(r.Context(), form, label(identity))
	if err != nil {
		h.logger.Error("create company", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"id": company.ID})
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())

	var form CompanyForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "Malformed JSON body.")
		return
	}
	if err := h.validator.Struct(form); err != nil {
		httpx.ValidationProblem(w, httpx.Issues(err))
		return
	}

	company, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), form, label(identity))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"id": company.ID})
}

func label(identity auth.Identity) string {
	if identity.Email != "" {
		return identity.Email
	}
	return identity.UID
}
