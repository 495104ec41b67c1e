// Package webhooks receives third-party callbacks.
package webhooks

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/workflicks/backoffice/internal/platform/httpx"
)

// Handler acknowledges payment-provider webhooks. Payment processing itself
// is out of scope; the endpoint only logs and acknowledges.
type Handler struct {
	logger *slog.Logger
}

// NewHandler builds the webhooks Handler.
func NewHandler(logger *slog.Logger) *Handler {
	return &Handler{logger: logger}
}

// MountRoutes registers webhook routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/stripe", h.stripe)
}

func (h *Handler) stripe(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "Unreadable body.")
		return
	}
	h.logger.Info("received stripe webhook", slog.Int("bytes", len(body)))
	httpx.JSON(w, http.StatusOK, map[string]bool{"received": true})
}
