package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"reflect"

	"github.com/hibiken/asynq"

	"github.com/workflicks/backoffice/internal/rbac"
	"github.com/workflicks/backoffice/internal/store"
)

const usersCollection = "users"

// ClaimsSyncer reconciles one user's cached permissions and issued token
// claims with the committed role override. The handler is idempotent: a
// retry after any partial failure converges on the same state.
type ClaimsSyncer struct {
	store    store.Store
	registry *rbac.Registry
	issuer   rbac.ClaimsIssuer
	logger   *slog.Logger
}

// NewClaimsSyncer constructs a ClaimsSyncer.
func NewClaimsSyncer(st store.Store, registry *rbac.Registry, issuer rbac.ClaimsIssuer, logger *slog.Logger) *ClaimsSyncer {
	return &ClaimsSyncer{store: st, registry: registry, issuer: issuer, logger: logger}
}

// Handle processes TaskTypeClaimsSync tasks.
func (s *ClaimsSyncer) Handle(ctx context.Context, t *asynq.Task) error {
	var payload ClaimsSyncPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	doc, err := s.store.Get(ctx, usersCollection, payload.UID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.logger.Warn("claims sync: user missing", slog.String("uid", payload.UID))
			return asynq.SkipRetry
		}
		return err
	}

	roleName, _ := doc.Fields["role"].(string)
	perms, err := s.registry.EffectivePermissions(ctx, rbac.Role(roleName))
	if err != nil {
		s.logger.Warn("claims sync: unresolvable role", slog.String("uid", payload.UID), slog.String("role", roleName))
		return asynq.SkipRetry
	}

	if cachedPermissions(doc) == nil || !reflect.DeepEqual(cachedPermissions(doc), rbac.Strings(perms)) {
		update := map[string]any{"permissions": rbac.Strings(perms)}
		if err := s.store.Set(ctx, usersCollection, payload.UID, update, true); err != nil {
			return err
		}
	}

	return s.issuer.SetClaims(ctx, payload.UID, rbac.Role(roleName), perms)
}

func cachedPermissions(doc store.Document) []string {
	raw, ok := doc.Fields["permissions"].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
