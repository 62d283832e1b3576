package guard

import (
	"fmt"
	"slices"
	"time"

	"adminconsole/client"
	"adminconsole/internal/session"
	v1 "adminconsole/pkg/api/v1"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the one normalized view of a session token, whatever role
// shape the backend put into it.
type Claims struct {
	Subject     string
	ExpiresAt   time.Time
	Role        string
	Roles       []string
	Authorities []string
}

type tokenClaims struct {
	Role        v1.RoleList `json:"role"`
	Roles       v1.RoleList `json:"roles"`
	Authorities v1.RoleList `json:"authorities"`
	jwt.RegisteredClaims
}

// Decode reads the claims of token without verifying its signature. The
// backend still verifies every call; this is only for routing decisions.
func Decode(token string) (*Claims, error) {
	var raw tokenClaims
	if _, _, err := jwt.NewParser().ParseUnverified(session.StripBearer(token), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", client.ErrTokenDecode, err)
	}

	c := &Claims{
		Subject:     raw.Subject,
		Role:        raw.Role.First(),
		Roles:       raw.Roles,
		Authorities: raw.Authorities,
	}
	if raw.ExpiresAt != nil {
		c.ExpiresAt = raw.ExpiresAt.Time
	}
	return c, nil
}

// Expired reports whether exp is in the past. A token without exp is
// left to the backend to reject.
func (c *Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

func (c *Claims) HasRoleInfo() bool {
	return c.Role != "" || len(c.Roles) > 0 || len(c.Authorities) > 0
}

// ResolvedRole picks role, then roles[0], then authorities[0].
func (c *Claims) ResolvedRole() string {
	switch {
	case c.Role != "":
		return c.Role
	case len(c.Roles) > 0:
		return c.Roles[0]
	case len(c.Authorities) > 0:
		return c.Authorities[0]
	}
	return ""
}

func (c *Claims) HasRole(role string) bool {
	if role == "" {
		return false
	}
	return c.ResolvedRole() == role ||
		slices.Contains(c.Roles, role) ||
		slices.Contains(c.Authorities, role)
}

// WithPrincipal returns a copy whose role information comes from p.
func (c *Claims) WithPrincipal(p *v1.Principal) *Claims {
	out := *c
	out.Role = p.Role.First()
	out.Roles = p.Roles
	out.Authorities = p.Authorities
	if out.Subject == "" {
		out.Subject = p.Username
	}
	return &out
}
