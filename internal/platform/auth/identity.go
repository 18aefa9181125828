// Package auth fronts the hosted authentication provider: password sign-in,
// server session tokens, bearer token verification and revocation.
package auth

import (
	"context"
	"strings"
)

// RoleAdmin grants access to the admin panel and API.
const RoleAdmin = "admin"

// Method records how an identity was established.
type Method string

const (
	MethodSession   Method = "session"
	MethodBearer    Method = "bearer"
	MethodAccessKey Method = "access_key"
)

// Identity is the authenticated principal attached to a request.
type Identity struct {
	UID    string
	Email  string
	Roles  []string
	Method Method
}

// HasRole reports whether the identity carries role (case-insensitive).
func (i *Identity) HasRole(role string) bool {
	if i == nil {
		return false
	}
	role = normaliseRole(role)
	for _, r := range i.Roles {
		if normaliseRole(r) == role {
			return true
		}
	}
	return false
}

type contextKey struct{}

// WithIdentity stores identity on ctx.
func WithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, identity)
}

// IdentityFromContext returns the identity stored by WithIdentity.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	if ctx == nil {
		return nil, false
	}
	identity, ok := ctx.Value(contextKey{}).(*Identity)
	if !ok || identity == nil {
		return nil, false
	}
	return identity, true
}

func normaliseRole(role string) string {
	return strings.ToLower(strings.TrimSpace(role))
}
