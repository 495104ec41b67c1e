package users

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workflicks/backoffice/internal/platform/httpx"
	"github.com/workflicks/backoffice/internal/rbac"
	"github.com/workflicks/backoffice/internal/store"
	"github.com/workflicks/backoffice/internal/store/storetest"
)

type fakeProvider struct {
	accounts     map[string]string // email -> uid
	nextUID      string
	claimsBumped []string
	renamed      map[string]string
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{accounts: map[string]string{}, nextUID: "new-uid", renamed: map[string]string{}}
}

func (f *fakeProvider) CreateUser(ctx context.Context, email, displayName string) (string, error) {
	f.accounts[email] = f.nextUID
	return f.nextUID, nil
}

func (f *fakeProvider) LookupUserByEmail(ctx context.Context, email string) (string, error) {
	uid, ok := f.accounts[email]
	if !ok {
		return "", store.ErrNotFound
	}
	return uid, nil
}

func (f *fakeProvider) UpdateDisplayName(ctx context.Context, uid, displayName string) error {
	f.renamed[uid] = displayName
	return nil
}

func (f *fakeProvider) SetClaims(ctx context.Context, uid string, role rbac.Role, perms []rbac.Permission) error {
	f.claimsBumped = append(f.claimsBumped, uid)
	return nil
}

type stubRecorder struct {
	summaries []string
}

func (s *stubRecorder) Record(ctx context.Context, typ, summary string) {
	s.summaries = append(s.summaries, summary)
}

type usersEnv struct {
	store    *storetest.Store
	provider *fakeProvider
	recorder *stubRecorder
	service  *Service
}

func newUsersEnv() *usersEnv {
	st := storetest.New()
	provider := newFakeProvider()
	recorder := &stubRecorder{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &usersEnv{
		store:    st,
		provider: provider,
		recorder: recorder,
		service:  NewService(st, rbac.NewRegistry(st), provider, recorder, logger),
	}
}

func TestInviteCreatesAccountAndUserDoc(t *testing.T) {
	env := newUsersEnv()
	ctx := context.Background()

	uid, err := env.service.Invite(ctx, InviteForm{
		Email:       "new@workflicks.in",
		DisplayName: "New Hire",
		Role:        "recruiter",
		CompanyID:   "c1",
	}, "boss@workflicks.in")
	require.NoError(t, err)
	assert.Equal(t, "new-uid", uid)

	doc, err := env.store.Get(ctx, "users", uid)
	require.NoError(t, err)
	user, err := decodeUser(doc)
	require.NoError(t, err)
	assert.Equal(t, "new@workflicks.in", user.Email)
	assert.Equal(t, "recruiter", user.Role)
	assert.Equal(t, []string{"manageJobs"}, user.Permissions)
	assert.Equal(t, "c1", user.CompanyID)
	assert.False(t, user.Disabled)

	assert.Equal(t, []string{uid}, env.provider.claimsBumped)
	assert.Contains(t, env.recorder.summaries, "boss@workflicks.in invited new@workflicks.in as recruiter")
}

func TestInviteReusesExistingAccount(t *testing.T) {
	env := newUsersEnv()
	env.provider.accounts["old@workflicks.in"] = "u-old"
	ctx := context.Background()

	uid, err := env.service.Invite(ctx, InviteForm{
		Email:       "old@workflicks.in",
		DisplayName: "Old Friend",
		Role:        "admin",
	}, "boss@workflicks.in")
	require.NoError(t, err)
	assert.Equal(t, "u-old", uid)
	assert.Equal(t, "Old Friend", env.provider.renamed["u-old"])
}

func TestInviteUnknownRole(t *testing.T) {
	env := newUsersEnv()

	_, err := env.service.Invite(context.Background(), InviteForm{
		Email:       "new@workflicks.in",
		DisplayName: "New Hire",
		Role:        "wizard",
	}, "boss@workflicks.in")
	require.ErrorIs(t, err, httpx.ErrUnknownRole)
}

func TestUpdateRoleChangeResyncsPermissions(t *testing.T) {
	env := newUsersEnv()
	ctx := context.Background()
	env.store.Seed("users", "u1", map[string]any{
		"email":       "one@workflicks.in",
		"displayName": "One",
		"role":        "recruiter",
		"permissions": []any{"manageJobs"},
		"disabled":    false,
	})

	role := "contentEditor"
	user, err := env.service.Update(ctx, "u1", UpdateForm{Role: &role}, "boss@workflicks.in")
	require.NoError(t, err)

	assert.Equal(t, "contentEditor", user.Role)
	assert.Equal(t, []string{"manageContent"}, user.Permissions)
	assert.Equal(t, []string{"u1"}, env.provider.claimsBumped)
	assert.Contains(t, env.recorder.summaries, "boss@workflicks.in updated user one@workflicks.in")
}

func TestUpdateDisableInvalidatesClaims(t *testing.T) {
	env := newUsersEnv()
	ctx := context.Background()
	env.store.Seed("users", "u1", map[string]any{
		"email":    "one@workflicks.in",
		"role":     "recruiter",
		"disabled": false,
	})

	disabled := true
	user, err := env.service.Update(ctx, "u1", UpdateForm{Disabled: &disabled}, "boss@workflicks.in")
	require.NoError(t, err)
	assert.True(t, user.Disabled)
	assert.Equal(t, []string{"u1"}, env.provider.claimsBumped)
}

func TestUpdateDisplayNameOnlyLeavesClaimsAlone(t *testing.T) {
	env := newUsersEnv()
	ctx := context.Background()
	env.store.Seed("users", "u1", map[string]any{
		"email": "one@workflicks.in",
		"role":  "recruiter",
	})

	name := "Renamed"
	user, err := env.service.Update(ctx, "u1", UpdateForm{DisplayName: &name}, "boss@workflicks.in")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", user.DisplayName)
	assert.Empty(t, env.provider.claimsBumped)
}

func TestUpdateEmptyFormIsNoop(t *testing.T) {
	env := newUsersEnv()
	ctx := context.Background()
	env.store.Seed("users", "u1", map[string]any{
		"email": "one@workflicks.in",
		"role":  "recruiter",
	})

	_, err := env.service.Update(ctx, "u1", UpdateForm{}, "boss@workflicks.in")
	require.NoError(t, err)
	assert.Empty(t, env.recorder.summaries)
}

func TestUpdateMissingUser(t *testing.T) {
	env := newUsersEnv()
	name := "Ghost"
	_, err := env.service.Update(context.Background(), "ghost", UpdateForm{DisplayName: &name}, "boss")
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestListReturnsCompanyOptions(t *testing.T) {
	env := newUsersEnv()
	env.store.Seed("users", "u1", map[string]any{"email": "one@workflicks.in", "role": "recruiter"})
	env.store.Seed("companies", "c2", map[string]any{"name": "Zen Labs"})
	env.store.Seed("companies", "c1", map[string]any{"name": "Acme Robotics"})

	users, options, err := env.service.List(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 1)
	require.Len(t, options, 2)
	assert.Equal(t, "Acme Robotics", options[0].Name)
	assert.Equal(t, "Zen Labs", options[1].Name)
}
