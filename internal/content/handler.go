package content

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/workflicks/backoffice/internal/auth"
	"github.com/workflicks/backoffice/internal/platform/httpx"
	"github.com/workflicks/backoffice/internal/rbac"
)

// Handler serves CMS content endpoints.
type Handler struct {
	logger    *slog.Logger
	guard     *auth.Guard
	service   *Service
	validator *validator.Validate
}

// NewHandler builds the content Handler.
func NewHandler(logger *slog.Logger, guard *auth.Guard, service *Service) *Handler {
	v := validator.New()
	_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugPattern.MatchString(fl.Field().String())
	})
	return &Handler{logger: logger, guard: guard, service: service, validator: v}
}

// MountRoutes registers content routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequirePermission(rbac.PermManageContent))
		r.Get("/", h.list)
		r.Post("/", h.upsert)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list content", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"content": items})
}

func (h *Handler) upsert(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())

	var form ItemForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "Malformed JSON body.")
		return
	}
	form.Slug = FoldSlug(form.Slug)
	if err := h.validator.Struct(form); err != nil {
		httpx.ValidationProblem(w, httpx.Issues(err))
		return
	}

	item, err := h.service.Upsert(r.Context(), form, label(identity))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"slug": item.Slug})
}

func label(identity auth.Identity) string {
	if identity.Email != "" {
		return identity.Email
	}
	return identity.UID
}
