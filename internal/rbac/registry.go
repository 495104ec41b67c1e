package rbac

import (
	"context"
	"errors"
	"fmt"

	"github.com/workflicks/backoffice/internal/platform/httpx"
	"github.com/workflicks/backoffice/internal/store"
)

// Override document location: one document per deployment. Each role's
// override list lives under its own top-level field, so a mutation writes
// exactly one key and a shallow merge of concurrent commits for different
// roles keeps every other role's entry untouched.
const (
	configCollection = "config"
	rbacDocID        = "rbac"
)

// Registry resolves effective permissions from the persisted override
// document, falling back to the compiled defaults. It never caches across
// requests; the override is process-wide shared state owned by the store.
type Registry struct {
	store store.Store
}

// NewRegistry constructs a Registry backed by the document store.
func NewRegistry(st store.Store) *Registry {
	return &Registry{store: st}
}

// RoleRow pairs a role with its resolved permission set for presentation.
type RoleRow struct {
	Role        Role         `json:"role"`
	Permissions []Permission `json:"permissions"`
}

// EffectivePermissions returns the override set for the role when one is
// persisted, otherwise the compiled default. Pure read; no side effects.
func (r *Registry) EffectivePermissions(ctx context.Context, role Role) ([]Permission, error) {
	if !IsRole(string(role)) {
		return nil, fmt.Errorf("rbac: role %q: %w", role, httpx.ErrUnknownRole)
	}
	overrides, err := r.overrides(ctx, r.store)
	if err != nil {
		return nil, err
	}
	if perms, ok := overrides[role]; ok {
		return perms, nil
	}
	return sortCatalog(DefaultPermissions(role)), nil
}

// RoleTable resolves every role for the settings screen.
func (r *Registry) RoleTable(ctx context.Context) ([]RoleRow, error) {
	overrides, err := r.overrides(ctx, r.store)
	if err != nil {
		return nil, err
	}
	rows := make([]RoleRow, 0, len(Roles()))
	for _, role := range Roles() {
		perms, ok := overrides[role]
		if !ok {
			perms = sortCatalog(DefaultPermissions(role))
		}
		rows = append(rows, RoleRow{Role: role, Permissions: perms})
	}
	return rows, nil
}

// overrides loads the rbac config document through the given store view so
// the mutation service can reuse it inside a transaction.
func (r *Registry) overrides(ctx context.Context, st store.Store) (map[Role][]Permission, error) {
	doc, err := st.Get(ctx, configCollection, rbacDocID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return map[Role][]Permission{}, nil
		}
		return nil, fmt.Errorf("rbac: load overrides: %w", err)
	}
	return decodeOverrides(doc), nil
}

func decodeOverrides(doc store.Document) map[Role][]Permission {
	out := map[Role][]Permission{}
	for name, raw := range doc.Fields {
		if !IsRole(name) {
			continue
		}
		values, ok := raw.([]any)
		if !ok {
			continue
		}
		names := make([]string, 0, len(values))
		for _, v := range values {
			if s, ok := v.(string); ok {
				names = append(names, s)
			}
		}
		out[Role(name)] = FromStrings(names)
	}
	return out
}
