package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/workflicks/backoffice/internal/platform/httpx"
	"github.com/workflicks/backoffice/internal/rbac"
	"github.com/workflicks/backoffice/internal/store"
)

const (
	credentialsCollection = "credentials"
	claimsVersionPrefix   = "claims:ver:"
	tokenIssuer           = "workflicks-backoffice"
)

// Provider is the identity-provider collaborator: it mints and verifies
// identity tokens, manages per-user claims versions, and owns the
// credential records behind sign-in.
type Provider struct {
	secret []byte
	ttl    time.Duration
	redis  *redis.Client
	store  store.Store
	logger *slog.Logger
}

// NewProvider constructs a Provider.
func NewProvider(secret string, ttl time.Duration, rdb *redis.Client, st store.Store, logger *slog.Logger) *Provider {
	return &Provider{secret: []byte(secret), ttl: ttl, redis: rdb, store: st, logger: logger}
}

// MintToken issues a signed identity token carrying the resolved permission
// set and the user's current claims version.
func (p *Provider) MintToken(ctx context.Context, uid, email string, role rbac.Role, perms []rbac.Permission) (string, error) {
	ver, err := p.claimsVersion(ctx, uid)
	if err != nil {
		return "", err
	}
	now := time.Now()
	claims := Claims{
		Email:       email,
		Role:        string(role),
		Permissions: rbac.Strings(perms),
		Ver:         ver,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uid,
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(p.secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}

// VerifyToken validates signature and expiry, then rejects tokens minted
// before the user's latest claims-version bump. A claims-store failure fails
// closed.
func (p *Provider) VerifyToken(ctx context.Context, bearer string) (Claims, error) {
	claims, err := p.parse(bearer)
	if err != nil {
		return Claims{}, err
	}
	current, err := p.claimsVersion(ctx, claims.Subject)
	if err != nil {
		return Claims{}, fmt.Errorf("auth: claims version unavailable: %w", httpx.ErrUnauthenticated)
	}
	if claims.Ver < current {
		return Claims{}, fmt.Errorf("auth: stale claims, refresh required: %w", httpx.ErrUnauthenticated)
	}
	return claims, nil
}

// VerifyForRefresh validates signature and expiry only. A token with a stale
// claims version is still acceptable here: refresh is the operation that
// replaces it.
func (p *Provider) VerifyForRefresh(ctx context.Context, bearer string) (Claims, error) {
	return p.parse(bearer)
}

func (p *Provider) parse(bearer string) (Claims, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(bearer, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return p.secret, nil
	})
	if err != nil || !token.Valid {
		return Claims{}, fmt.Errorf("auth: invalid token: %w", httpx.ErrUnauthenticated)
	}
	if claims.Subject == "" {
		return Claims{}, fmt.Errorf("auth: token missing subject: %w", httpx.ErrUnauthenticated)
	}
	return claims, nil
}

// SetClaims bumps the user's claims version, invalidating every previously
// minted token. Implements rbac.ClaimsIssuer.
func (p *Provider) SetClaims(ctx context.Context, uid string, role rbac.Role, perms []rbac.Permission) error {
	if err := p.redis.Incr(ctx, claimsVersionPrefix+uid).Err(); err != nil {
		return fmt.Errorf("auth: bump claims version: %w", err)
	}
	return nil
}

func (p *Provider) claimsVersion(ctx context.Context, uid string) (int64, error) {
	ver, err := p.redis.Get(ctx, claimsVersionPrefix+uid).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, err
	}
	return ver, nil
}

// CreateUser registers a credential record with a random password and
// returns the new uid.
func (p *Provider) CreateUser(ctx context.Context, email, displayName string) (string, error) {
	uid := uuid.NewString()
	password := randomPassword()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("auth: hash password: %w", err)
	}
	fields := map[string]any{
		"email":        email,
		"displayName":  displayName,
		"passwordHash": string(hash),
	}
	if err := p.store.Set(ctx, credentialsCollection, uid, fields, false); err != nil {
		return "", err
	}
	return uid, nil
}

// LookupUserByEmail resolves a uid from a credential record. Returns
// store.ErrNotFound when no account exists.
func (p *Provider) LookupUserByEmail(ctx context.Context, email string) (string, error) {
	docs, err := p.store.Query(ctx, credentialsCollection,
		[]store.Filter{{Field: "email", Op: "==", Value: email}},
		store.Order{}, 1)
	if err != nil {
		return "", err
	}
	if len(docs) == 0 {
		return "", store.ErrNotFound
	}
	return docs[0].ID, nil
}

// Authenticate checks email/password credentials and returns the uid.
func (p *Provider) Authenticate(ctx context.Context, email, password string) (string, error) {
	uid, err := p.LookupUserByEmail(ctx, email)
	if err != nil {
		return "", fmt.Errorf("auth: %w", httpx.ErrUnauthenticated)
	}
	doc, err := p.store.Get(ctx, credentialsCollection, uid)
	if err != nil {
		return "", fmt.Errorf("auth: %w", httpx.ErrUnauthenticated)
	}
	hash, _ := doc.Fields["passwordHash"].(string)
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return "", fmt.Errorf("auth: %w", httpx.ErrUnauthenticated)
	}
	return uid, nil
}

// UpdateDisplayName refreshes the credential record for an existing account.
func (p *Provider) UpdateDisplayName(ctx context.Context, uid, displayName string) error {
	return p.store.Set(ctx, credentialsCollection, uid, map[string]any{"displayName": displayName}, true)
}

func randomPassword() string {
	buf := make([]byte, 12)
	if _, err := rand.Read(buf); err != nil {
		return uuid.NewString()
	}
	return base64.StdEncoding.EncodeToString(buf)
}
