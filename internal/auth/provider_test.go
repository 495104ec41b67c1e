package auth

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/workflicks/backoffice/internal/platform/httpx"
	"github.com/workflicks/backoffice/internal/rbac"
	"github.com/workflicks/backoffice/internal/store/storetest"
)

func newTestProvider(t *testing.T, ttl time.Duration) (*Provider, *storetest.Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	st := storetest.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewProvider("test-secret", ttl, rdb, st, logger), st, mr
}

func TestMintAndVerifyToken(t *testing.T) {
	provider, _, _ := newTestProvider(t, time.Hour)
	ctx := context.Background()

	token, err := provider.MintToken(ctx, "u1", "one@workflicks.in", rbac.RoleAdmin, rbac.DefaultPermissions(rbac.RoleAdmin))
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := provider.VerifyToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.Subject)
	assert.Equal(t, "one@workflicks.in", claims.Email)
	assert.Equal(t, "admin", claims.Role)
	assert.Contains(t, claims.Permissions, "manageJobs")
	assert.Equal(t, int64(0), claims.Ver)
}

func TestVerifyRejectsStaleToken(t *testing.T) {
	provider, _, _ := newTestProvider(t, time.Hour)
	ctx := context.Background()

	token, err := provider.MintToken(ctx, "u1", "one@workflicks.in", rbac.RoleRecruiter, rbac.DefaultPermissions(rbac.RoleRecruiter))
	require.NoError(t, err)

	require.NoError(t, provider.SetClaims(ctx, "u1", rbac.RoleRecruiter, nil))

	_, err = provider.VerifyToken(ctx, token)
	require.ErrorIs(t, err, httpx.ErrUnauthenticated)

	// The refresh path accepts the stale token so it can be replaced.
	claims, err := provider.VerifyForRefresh(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.Subject)

	// A token minted after the bump verifies again.
	fresh, err := provider.MintToken(ctx, "u1", "one@workflicks.in", rbac.RoleRecruiter, rbac.DefaultPermissions(rbac.RoleRecruiter))
	require.NoError(t, err)
	_, err = provider.VerifyToken(ctx, fresh)
	require.NoError(t, err)
}

func TestVerifyFailsClosedWhenVersionStoreIsDown(t *testing.T) {
	provider, _, mr := newTestProvider(t, time.Hour)
	ctx := context.Background()

	token, err := provider.MintToken(ctx, "u1", "one@workflicks.in", rbac.RoleRecruiter, nil)
	require.NoError(t, err)

	mr.Close()

	_, err = provider.VerifyToken(ctx, token)
	require.ErrorIs(t, err, httpx.ErrUnauthenticated)
}

func TestVerifyRejectsMalformedAndForgedTokens(t *testing.T) {
	provider, _, _ := newTestProvider(t, time.Hour)
	ctx := context.Background()

	_, err := provider.VerifyToken(ctx, "not-a-token")
	require.ErrorIs(t, err, httpx.ErrUnauthenticated)

	forger, _, _ := newTestProvider(t, time.Hour)
	forger.secret = []byte("other-secret")
	forged, err := forger.MintToken(ctx, "u1", "one@workflicks.in", rbac.RoleSuperAdmin, rbac.DefaultPermissions(rbac.RoleSuperAdmin))
	require.NoError(t, err)

	_, err = provider.VerifyToken(ctx, forged)
	require.ErrorIs(t, err, httpx.ErrUnauthenticated)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	provider, _, _ := newTestProvider(t, -time.Minute)
	ctx := context.Background()

	token, err := provider.MintToken(ctx, "u1", "one@workflicks.in", rbac.RoleRecruiter, nil)
	require.NoError(t, err)

	_, err = provider.VerifyToken(ctx, token)
	require.ErrorIs(t, err, httpx.ErrUnauthenticated)
}

func TestAuthenticate(t *testing.T) {
	provider, st, _ := newTestProvider(t, time.Hour)
	ctx := context.Background()

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret-pass"), bcrypt.MinCost)
	require.NoError(t, err)
	st.Seed("credentials", "u1", map[string]any{
		"email":        "one@workflicks.in",
		"passwordHash": string(hash),
	})

	uid, err := provider.Authenticate(ctx, "one@workflicks.in", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, "u1", uid)

	_, err = provider.Authenticate(ctx, "one@workflicks.in", "wrong")
	require.ErrorIs(t, err, httpx.ErrUnauthenticated)

	_, err = provider.Authenticate(ctx, "nobody@workflicks.in", "s3cret-pass")
	require.ErrorIs(t, err, httpx.ErrUnauthenticated)
}

func TestCreateUserAndLookup(t *testing.T) {
	provider, _, _ := newTestProvider(t, time.Hour)
	ctx := context.Background()

	uid, err := provider.CreateUser(ctx, "new@workflicks.in", "New Hire")
	require.NoError(t, err)
	require.NotEmpty(t, uid)

	found, err := provider.LookupUserByEmail(ctx, "new@workflicks.in")
	require.NoError(t, err)
	assert.Equal(t, uid, found)
}
