package rbac

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/workflicks/backoffice/internal/platform/httpx"
	"github.com/workflicks/backoffice/internal/store"
)

const usersCollection = "users"

// Actor identifies the caller for audit summaries.
type Actor struct {
	UID   string
	Email string
}

// Label returns the actor's email, falling back to the uid.
func (a Actor) Label() string {
	if a.Email != "" {
		return a.Email
	}
	return a.UID
}

// ClaimsIssuer invalidates a user's issued token claims so the next refresh
// carries the new permission set.
type ClaimsIssuer interface {
	SetClaims(ctx context.Context, uid string, role Role, perms []Permission) error
}

// Propagator enqueues durable per-user claim-sync work.
type Propagator interface {
	EnqueueClaimsSync(ctx context.Context, uid string) error
}

// Recorder appends audit entries.
type Recorder interface {
	Record(ctx context.Context, typ, summary string)
}

// Service applies permission mutations: override write plus propagation to
// every user holding the role.
type Service struct {
	store      store.Store
	registry   *Registry
	issuer     ClaimsIssuer
	propagator Propagator
	audit      Recorder
	logger     *slog.Logger
}

// NewService constructs the mutation service.
func NewService(st store.Store, registry *Registry, issuer ClaimsIssuer, propagator Propagator, audit Recorder, logger *slog.Logger) *Service {
	return &Service{store: st, registry: registry, issuer: issuer, propagator: propagator, audit: audit, logger: logger}
}

// MutationResult reports the new effective set and any users whose token
// claims could not be refreshed yet. Pending uids are retried by the durable
// claim-sync queue; they are never silently dropped.
type MutationResult struct {
	Role        Role         `json:"role"`
	Permissions []Permission `json:"permissions"`
	Pending     []string     `json:"pending,omitempty"`
}

// SetPermission enables or disables one permission for a role.
//
// The override document and the cached permission sets of every user holding
// the role commit in a single store transaction, so a concurrent
// EffectivePermissions read never observes a torn pairing and no user is
// left stale after a successful return. Token reissue happens after commit
// via the claims issuer plus a durable claim-sync task per user.
func (s *Service) SetPermission(ctx context.Context, role Role, permission Permission, enabled bool, actor Actor) (MutationResult, error) {
	if !IsRole(string(role)) {
		return MutationResult{}, fmt.Errorf("rbac: role %q: %w", role, httpx.ErrUnknownRole)
	}
	if role == RoleSuperAdmin {
		return MutationResult{}, fmt.Errorf("rbac: super admin permissions cannot be modified: %w", httpx.ErrForbidden)
	}
	if !IsPermission(string(permission)) {
		return MutationResult{}, fmt.Errorf("rbac: permission %q: %w", permission, httpx.ErrUnknownPermission)
	}

	var (
		updated []Permission
		uids    []string
	)
	err := s.store.RunTransaction(ctx, func(ctx context.Context, tx store.Store) error {
		overrides, err := s.registry.overrides(ctx, tx)
		if err != nil {
			return err
		}
		current, ok := overrides[role]
		if !ok {
			current = DefaultPermissions(role)
		}

		next := make([]Permission, 0, len(current)+1)
		for _, p := range current {
			if p != permission {
				next = append(next, p)
			}
		}
		if enabled {
			next = append(next, permission)
		}
		updated = sortCatalog(next)

		// Merge only this role's entry; other roles' overrides, committed
		// concurrently or not, survive untouched.
		if err := tx.Set(ctx, configCollection, rbacDocID,
			map[string]any{string(role): Strings(updated)}, true); err != nil {
			return err
		}

		holders, err := tx.Query(ctx, usersCollection,
			[]store.Filter{{Field: "role", Op: "==", Value: string(role)}},
			store.Order{}, 0)
		if err != nil {
			return err
		}
		uids = uids[:0]
		writes := make([]store.Write, 0, len(holders))
		for _, doc := range holders {
			uids = append(uids, doc.ID)
			writes = append(writes, store.Write{
				Collection: usersCollection,
				ID:         doc.ID,
				Fields:     map[string]any{"permissions": Strings(updated)},
				Merge:      true,
			})
		}
		return tx.BatchWrite(ctx, writes)
	})
	if err != nil {
		return MutationResult{}, err
	}

	result := MutationResult{Role: role, Permissions: updated}
	for _, uid := range uids {
		if err := s.issuer.SetClaims(ctx, uid, role, updated); err != nil {
			s.logger.Warn("set claims", slog.String("uid", uid), slog.Any("error", err))
			result.Pending = append(result.Pending, uid)
		}
		if err := s.propagator.EnqueueClaimsSync(ctx, uid); err != nil {
			s.logger.Warn("enqueue claims sync", slog.String("uid", uid), slog.Any("error", err))
			if !contains(result.Pending, uid) {
				result.Pending = append(result.Pending, uid)
			}
		}
	}

	verb := "granted"
	if !enabled {
		verb = "revoked"
	}
	s.audit.Record(ctx, "settings.permission",
		fmt.Sprintf("%s %s %s for %s", actor.Label(), verb, permission, role))

	return result, nil
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
