// Package authz resolves the caller's identity and capability from an
// inbound request. Absence or rejection of credentials yields an
// unauthenticated context, never an error: access decisions belong to the
// handlers consuming the context.
package authz

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleCustomer Role = "customer"
)

type Context struct {
	Authenticated bool
	Subject       string
	Email         string
	Role          Role
}

func (c Context) IsAdmin() bool {
	return c.Authenticated && c.Role == RoleAdmin
}

// IsStaff reports admin-or-manager capability, the bar for the admin listing
// path and for unredacted record visibility.
func (c Context) IsStaff() bool {
	return c.Authenticated && (c.Role == RoleAdmin || c.Role == RoleManager)
}

type Resolver struct {
	secret []byte
}

func NewResolver(secret string) *Resolver {
	return &Resolver{secret: []byte(secret)}
}

// Resolve extracts and verifies the bearer token, if any.
func (r *Resolver) Resolve(req *http.Request) Context {
	header := req.Header.Get("Authorization")
	if header == "" {
		return Context{}
	}

	raw, found := strings.CutPrefix(header, "Bearer ")
	if !found {
		return Context{}
	}

	token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return r.secret, nil
	})
	if err != nil || !token.Valid {
		return Context{}
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Context{}
	}

	ctx := Context{Authenticated: true}
	if sub, subErr := claims.GetSubject(); subErr == nil {
		ctx.Subject = sub
	}
	if email, emailOk := claims["email"].(string); emailOk {
		ctx.Email = email
	}
	if role, roleOk := claims["role"].(string); roleOk {
		ctx.Role = Role(role)
	}
	return ctx
}

// Sign mints a token for the given identity. Used by operational tooling and
// tests; the service itself only verifies.
func (r *Resolver) Sign(subject, email string, role Role, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   subject,
		"email": email,
		"role":  string(role),
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	})

	signed, err := token.SignedString(r.secret)
	if err != nil {
		return "", fmt.Errorf("authz.Sign: %w", err)
	}
	return signed, nil
}
