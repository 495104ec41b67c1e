package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/workflicks/backoffice/internal/platform/httpx"
	"github.com/workflicks/backoffice/internal/rbac"
	"github.com/workflicks/backoffice/internal/store"
)

const (
	usersCollection     = "users"
	companiesCollection = "companies"
	listLimit           = 100
)

// IdentityProvider is the identity-provider collaborator surface this
// vertical needs.
type IdentityProvider interface {
	CreateUser(ctx context.Context, email, displayName string) (string, error)
	LookupUserByEmail(ctx context.Context, email string) (string, error)
	UpdateDisplayName(ctx context.Context, uid, displayName string) error
	SetClaims(ctx context.Context, uid string, role rbac.Role, perms []rbac.Permission) error
}

// Recorder appends audit entries.
type Recorder interface {
	Record(ctx context.Context, typ, summary string)
}

// Service implements user management.
type Service struct {
	store    store.Store
	registry *rbac.Registry
	provider IdentityProvider
	audit    Recorder
	logger   *slog.Logger
}

// NewService constructs the users Service.
func NewService(st store.Store, registry *rbac.Registry, provider IdentityProvider, audit Recorder, logger *slog.Logger) *Service {
	return &Service{store: st, registry: registry, provider: provider, audit: audit, logger: logger}
}

// List returns the newest users plus the company picker options.
func (s *Service) List(ctx context.Context) ([]AppUser, []CompanyOption, error) {
	userDocs, err := s.store.Query(ctx, usersCollection, nil, store.Order{Field: "createdAt", Desc: true}, listLimit)
	if err != nil {
		return nil, nil, err
	}
	users := make([]AppUser, 0, len(userDocs))
	for _, doc := range userDocs {
		user, err := decodeUser(doc)
		if err != nil {
			return nil, nil, err
		}
		users = append(users, user)
	}

	companyDocs, err := s.store.Query(ctx, companiesCollection, nil, store.Order{Field: "name"}, listLimit)
	if err != nil {
		return nil, nil, err
	}
	options := make([]CompanyOption, 0, len(companyDocs))
	for _, doc := range companyDocs {
		name, _ := doc.Fields["name"].(string)
		if name == "" {
			name = "Unknown"
		}
		options = append(options, CompanyOption{ID: doc.ID, Name: name})
	}
	return users, options, nil
}

// Invite creates or reuses an identity for the email, assigns the role with
// its resolved effective permissions, and upserts the user document.
func (s *Service) Invite(ctx context.Context, form InviteForm, actorLabel string) (string, error) {
	role := rbac.Role(form.Role)
	perms, err := s.registry.EffectivePermissions(ctx, role)
	if err != nil {
		return "", err
	}

	uid, err := s.provider.LookupUserByEmail(ctx, form.Email)
	switch {
	case errors.Is(err, store.ErrNotFound):
		uid, err = s.provider.CreateUser(ctx, form.Email, form.DisplayName)
		if err != nil {
			return "", err
		}
	case err != nil:
		return "", err
	default:
		if err := s.provider.UpdateDisplayName(ctx, uid, form.DisplayName); err != nil {
			return "", err
		}
	}

	if err := s.provider.SetClaims(ctx, uid, role, perms); err != nil {
		return "", err
	}

	fields := map[string]any{
		"email":       form.Email,
		"displayName": form.DisplayName,
		"role":        string(role),
		"permissions": rbac.Strings(perms),
		"disabled":    false,
	}
	if form.CompanyID != "" {
		fields["companyId"] = form.CompanyID
	}
	if err := s.store.Set(ctx, usersCollection, uid, fields, true); err != nil {
		return "", err
	}

	s.audit.Record(ctx, "user.invited", fmt.Sprintf("%s invited %s as %s", actorLabel, form.Email, role))
	return uid, nil
}

// Update applies a partial update. A role change re-resolves the cached
// permission set and invalidates issued token claims.
func (s *Service) Update(ctx context.Context, uid string, form UpdateForm, actorLabel string) (AppUser, error) {
	doc, err := s.store.Get(ctx, usersCollection, uid)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return AppUser{}, httpx.ErrNotFound
		}
		return AppUser{}, err
	}
	user, err := decodeUser(doc)
	if err != nil {
		return AppUser{}, err
	}

	fields := map[string]any{}
	claimsChanged := false
	if form.DisplayName != nil {
		fields["displayName"] = *form.DisplayName
	}
	if form.CompanyID != nil {
		fields["companyId"] = *form.CompanyID
	}
	if form.Disabled != nil {
		fields["disabled"] = *form.Disabled
		claimsChanged = claimsChanged || *form.Disabled != user.Disabled
	}
	role := rbac.Role(user.Role)
	if form.Role != nil && *form.Role != user.Role {
		role = rbac.Role(*form.Role)
		perms, err := s.registry.EffectivePermissions(ctx, role)
		if err != nil {
			return AppUser{}, err
		}
		fields["role"] = string(role)
		fields["permissions"] = rbac.Strings(perms)
		claimsChanged = true
	}
	if len(fields) == 0 {
		return user, nil
	}

	if err := s.store.Set(ctx, usersCollection, uid, fields, true); err != nil {
		return AppUser{}, err
	}
	if claimsChanged {
		perms, err := s.registry.EffectivePermissions(ctx, role)
		if err != nil {
			return AppUser{}, err
		}
		if err := s.provider.SetClaims(ctx, uid, role, perms); err != nil {
			s.logger.Warn("invalidate claims", slog.String("uid", uid), slog.Any("error", err))
		}
	}

	s.audit.Record(ctx, "user.updated", fmt.Sprintf("%s updated user %s", actorLabel, user.Email))

	updated, err := s.store.Get(ctx, usersCollection, uid)
	if err != nil {
		return AppUser{}, err
	}
	return decodeUser(updated)
}

func decodeUser(doc store.Document) (AppUser, error) {
	var user AppUser
	if err := store.Decode(doc, &user.UserRecord); err != nil {
		return AppUser{}, err
	}
	user.ID = doc.ID
	user.CreatedAt = doc.CreatedAt
	user.UpdatedAt = doc.UpdatedAt
	return user, nil
}
