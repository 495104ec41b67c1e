package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/workflicks/backoffice/internal/platform/httpx"
	"github.com/workflicks/backoffice/internal/rbac"
	"github.com/workflicks/backoffice/internal/store"
)

const usersCollection = "users"

type loginForm struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Handler serves sign-in and token refresh.
type Handler struct {
	logger    *slog.Logger
	provider  *Provider
	registry  *rbac.Registry
	store     store.Store
	validator *validator.Validate
}

// NewHandler builds the auth Handler.
func NewHandler(logger *slog.Logger, provider *Provider, registry *rbac.Registry, st store.Store) *Handler {
	return &Handler{logger: logger, provider: provider, registry: registry, store: st, validator: validator.New()}
}

// MountRoutes registers auth routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/login", h.handleLogin)
	r.Post("/refresh", h.handleRefresh)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var form loginForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "Malformed JSON body.")
		return
	}
	if err := h.validator.Struct(form); err != nil {
		httpx.ValidationProblem(w, httpx.Issues(err))
		return
	}

	uid, err := h.provider.Authenticate(r.Context(), form.Email, form.Password)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	token, identity, err := h.mint(r, uid)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	if err := h.store.Set(r.Context(), usersCollection, uid,
		map[string]any{"lastLoginAt": time.Now().UTC().Format(time.RFC3339Nano)}, true); err != nil {
		h.logger.Warn("record last login", slog.String("uid", uid), slog.Any("error", err))
	}

	httpx.JSON(w, http.StatusOK, map[string]any{
		"token": token,
		"uid":   identity.UID,
		"role":  identity.Role,
	})
}

// handleRefresh is the manual force-refresh operation: it accepts any
// signed, unexpired token and re-mints one with the current effective
// permissions and claims version.
func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	bearer, ok := bearerToken(r)
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthenticated)
		return
	}
	claims, err := h.provider.VerifyForRefresh(r.Context(), bearer)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	token, identity, err := h.mint(r, claims.Subject)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"token": token,
		"uid":   identity.UID,
		"role":  identity.Role,
	})
}

func (h *Handler) mint(r *http.Request, uid string) (string, Identity, error) {
	doc, err := h.store.Get(r.Context(), usersCollection, uid)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", Identity{}, httpx.ErrUnauthenticated
		}
		return "", Identity{}, err
	}
	if disabled, _ := doc.Fields["disabled"].(bool); disabled {
		return "", Identity{}, httpx.ErrForbidden
	}
	email, _ := doc.Fields["email"].(string)
	roleName, _ := doc.Fields["role"].(string)
	role := rbac.Role(roleName)

	perms, err := h.registry.EffectivePermissions(r.Context(), role)
	if err != nil {
		return "", Identity{}, err
	}
	token, err := h.provider.MintToken(r.Context(), uid, email, role, perms)
	if err != nil {
		return "", Identity{}, err
	}
	return token, Identity{UID: uid, Email: email, Role: role}, nil
}
