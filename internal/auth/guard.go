package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/workflicks/backoffice/internal/platform/httpx"
	"github.com/workflicks/backoffice/internal/rbac"
)

type identityContextKey struct{}

// ContextWithIdentity stores the authenticated identity in context.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFromContext extracts the identity placed by the guard middleware.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(Identity)
	return id, ok
}

// Guard performs request authorization against token-embedded claims.
// It never touches the document store: the permission set checked here is
// the one minted into the token, a deliberate latency/staleness tradeoff.
type Guard struct {
	provider *Provider
}

// NewGuard constructs a Guard.
func NewGuard(provider *Provider) *Guard {
	return &Guard{provider: provider}
}

// Authorize verifies the bearer credential and checks that its embedded
// permission set covers every required permission.
func (g *Guard) Authorize(r *http.Request, required ...rbac.Permission) (Identity, error) {
	bearer, ok := bearerToken(r)
	if !ok {
		return Identity{}, fmt.Errorf("auth: missing bearer token: %w", httpx.ErrUnauthenticated)
	}
	claims, err := g.provider.VerifyToken(r.Context(), bearer)
	if err != nil {
		return Identity{}, err
	}
	granted := rbac.FromStrings(claims.Permissions)
	for _, perm := range required {
		if !rbac.HasPermission(granted, perm) {
			return Identity{}, fmt.Errorf("auth: missing permission %s: %w", perm, httpx.ErrForbidden)
		}
	}
	return Identity{UID: claims.Subject, Email: claims.Email, Role: rbac.Role(claims.Role)}, nil
}

// RequirePermission returns middleware that authorizes the request and
// stashes the caller identity in the request context.
func (g *Guard) RequirePermission(perms ...rbac.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := g.Authorize(r, perms...)
			if err != nil {
				httpx.RespondError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithIdentity(r.Context(), identity)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	token = strings.TrimSpace(token)
	if !found || token == "" {
		return "", false
	}
	return token, true
}
