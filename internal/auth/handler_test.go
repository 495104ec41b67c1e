package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/workflicks/backoffice/internal/rbac"
	"github.com/workflicks/backoffice/internal/store/storetest"
)

type authEnv struct {
	store    *storetest.Store
	provider *Provider
	router   chi.Router
}

func newAuthEnv(t *testing.T) *authEnv {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	st := storetest.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	provider := NewProvider("test-secret", time.Hour, rdb, st, logger)
	registry := rbac.NewRegistry(st)

	router := chi.NewRouter()
	router.Route("/auth", NewHandler(logger, provider, registry, st).MountRoutes)
	return &authEnv{store: st, provider: provider, router: router}
}

func (e *authEnv) seedAccount(t *testing.T, uid, email, password, role string, disabled bool) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	e.store.Seed("credentials", uid, map[string]any{
		"email":        email,
		"passwordHash": string(hash),
	})
	e.store.Seed("users", uid, map[string]any{
		"email":    email,
		"role":     role,
		"disabled": disabled,
	})
}

func (e *authEnv) post(t *testing.T, path string, body any, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	r := httptest.NewRequest(http.MethodPost, path, &buf)
	r.Header.Set("Content-Type", "application/json")
	for k, vals := range header {
		for _, v := range vals {
			r.Header.Add(k, v)
		}
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, r)
	return rec
}

func TestLoginMintsTokenWithEffectivePermissions(t *testing.T) {
	env := newAuthEnv(t)
	env.seedAccount(t, "u1", "rec@workflicks.in", "hunter22", "recruiter", false)

	rec := env.post(t, "/auth/login", map[string]string{
		"email": "rec@workflicks.in", "password": "hunter22",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Token string `json:"token"`
		UID   string `json:"uid"`
		Role  string `json:"role"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "u1", body.UID)
	assert.Equal(t, "recruiter", body.Role)

	claims, err := env.provider.VerifyToken(context.Background(), body.Token)
	require.NoError(t, err)
	assert.Equal(t, []string{"manageJobs"}, claims.Permissions)

	// Login stamps the user document.
	doc, err := env.store.Get(context.Background(), "users", "u1")
	require.NoError(t, err)
	assert.Contains(t, doc.Fields, "lastLoginAt")
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	env := newAuthEnv(t)
	env.seedAccount(t, "u1", "rec@workflicks.in", "hunter22", "recruiter", false)

	rec := env.post(t, "/auth/login", map[string]string{
		"email": "rec@workflicks.in", "password": "wrong",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginRejectsDisabledAccount(t *testing.T) {
	env := newAuthEnv(t)
	env.seedAccount(t, "u1", "rec@workflicks.in", "hunter22", "recruiter", true)

	rec := env.post(t, "/auth/login", map[string]string{
		"email": "rec@workflicks.in", "password": "hunter22",
	}, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestLoginValidatesPayload(t *testing.T) {
	env := newAuthEnv(t)

	rec := env.post(t, "/auth/login", map[string]string{"email": "not-an-email"}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestRefreshReplacesStaleToken(t *testing.T) {
	env := newAuthEnv(t)
	env.seedAccount(t, "u1", "rec@workflicks.in", "hunter22", "recruiter", false)
	ctx := context.Background()

	stale, err := env.provider.MintToken(ctx, "u1", "rec@workflicks.in",
		rbac.RoleRecruiter, rbac.DefaultPermissions(rbac.RoleRecruiter))
	require.NoError(t, err)

	// A permission change bumps the claims version; the stale token stops
	// verifying but stays refreshable.
	require.NoError(t, env.provider.SetClaims(ctx, "u1", rbac.RoleRecruiter, nil))
	_, err = env.provider.VerifyToken(ctx, stale)
	require.Error(t, err)

	header := http.Header{}
	header.Set("Authorization", "Bearer "+stale)
	rec := env.post(t, "/auth/refresh", nil, header)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	_, err = env.provider.VerifyToken(ctx, body.Token)
	require.NoError(t, err)
}

func TestRefreshRequiresToken(t *testing.T) {
	env := newAuthEnv(t)
	rec := env.post(t, "/auth/refresh", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
