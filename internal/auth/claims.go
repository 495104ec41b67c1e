// Package auth verifies caller identity and enforces permission checks.
package auth

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/workflicks/backoffice/internal/rbac"
)

// Claims are the facts embedded in a signed identity token at mint time.
// Permission checks read these claims, not the registry; staleness is
// bounded by the claims version check in VerifyToken.
type Claims struct {
	Email       string   `json:"email"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
	Ver         int64    `json:"ver"`
	jwt.RegisteredClaims
}

// Identity describes the authenticated caller for audit summaries and
// ownership checks.
type Identity struct {
	UID   string
	Email string
	Role  rbac.Role
}

// Actor converts the identity for the rbac mutation service.
func (id Identity) Actor() rbac.Actor {
	return rbac.Actor{UID: id.UID, Email: id.Email}
}
