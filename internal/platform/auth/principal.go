// Package auth verifies bearer tokens issued by the external auth system and
// enforces the role policy on API routes.
package auth

import (
	"context"
	"slices"
)

// Role is the caller's organisation role.
type Role string

const (
	RoleOwner   Role = "owner"
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleStaff   Role = "staff"
)

// ParseRole validates a role claim.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleOwner, RoleAdmin, RoleManager, RoleStaff:
		return Role(s), true
	}
	return "", false
}

// Principal is the authenticated caller.
type Principal struct {
	UserID string   `json:"userId"`
	OrgID  string   `json:"orgId,omitempty"`
	Role   Role     `json:"role"`
	Brands []string `json:"brands,omitempty"`
}

// AnonymousPrincipal is injected for every request when auth is disabled.
func AnonymousPrincipal() *Principal {
	return &Principal{UserID: "anonymous", Role: RoleOwner}
}

// HasRole reports whether the principal holds any of roles.
func (p *Principal) HasRole(roles ...Role) bool {
	return p != nil && slices.Contains(roles, p.Role)
}

// IsAdmin reports whether the principal may manage endpoints, brands and audit logs.
func (p *Principal) IsAdmin() bool {
	return p.HasRole(RoleOwner, RoleAdmin)
}

// CanAccessBrand reports whether the principal may execute workflows for brand.
// Admins and principals without a brands claim are unrestricted; brand-agnostic
// requests are always allowed.
func (p *Principal) CanAccessBrand(brand *string) bool {
	if p == nil {
		return false
	}
	if brand == nil || p.IsAdmin() || len(p.Brands) == 0 {
		return true
	}
	return slices.Contains(p.Brands, *brand)
}

type principalKey struct{}

// WithPrincipal stores p in ctx.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the authenticated principal, or nil.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey{}).(*Principal)
	return p
}
