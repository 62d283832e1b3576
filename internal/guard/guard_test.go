package guard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"adminconsole/client"
	"adminconsole/internal/backendtest"
	"adminconsole/internal/session"
	v1 "adminconsole/pkg/api/v1"
	"adminconsole/pkg/constraints"
	"adminconsole/pkg/logger"

	"github.com/golang-jwt/jwt/v5"
)

func init() {
	logger.InitLogger("test")
}

type mockPrincipals struct {
	calls     int
	principal *v1.Principal
	err       error
}

func (m *mockPrincipals) Me(ctx context.Context) (*v1.Principal, error) {
	m.calls++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return m.principal, m.err
}

func newGuard(token string, principals *mockPrincipals) (*Guard, *session.Context) {
	sess := session.New(context.Background(), nil, nil)
	if token != "" {
		sess.Login(context.Background(), token)
	}
	if principals == nil {
		principals = &mockPrincipals{err: errors.New("unexpected /user/me call")}
	}
	return New(DefaultConfig(), sess, principals, nil), sess
}

func mint(role string, ttl time.Duration) string {
	return backendtest.Mint(backendtest.Claims{Role: role}, ttl)
}

func TestCheck_NoToken(t *testing.T) {
	tests := []struct {
		path     string
		allow    bool
		redirect string
	}{
		{"/", false, constraints.PathSignIn},
		{"/products", false, constraints.PathSignIn},
		{"/admin/audit-logs", false, constraints.PathSignIn},
		{"/signin", true, ""},
		{"/terms", true, ""},
		{"/privacy/", true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			g, _ := newGuard("", nil)
			d := g.Check(context.Background(), tt.path)
			if d.State != StateNoToken {
				t.Errorf("state = %s, want %s", d.State, StateNoToken)
			}
			if d.Allow != tt.allow || d.Redirect != tt.redirect {
				t.Errorf("decision = %+v", d)
			}
			if !tt.allow && !d.Replace {
				t.Error("redirect to sign-in must replace history")
			}
		})
	}
}

func TestCheck_ExpiredTokenNeedsNoNetwork(t *testing.T) {
	principals := &mockPrincipals{}
	g, sess := newGuard(mint(constraints.RoleAdmin, -time.Minute), principals)

	d := g.Check(context.Background(), "/admin/audit-logs")
	if d.State != StateExpired || d.Redirect != constraints.PathSignIn || !d.Replace {
		t.Errorf("decision = %+v", d)
	}
	if principals.calls != 0 {
		t.Errorf("/user/me calls = %d, want 0", principals.calls)
	}
	if sess.Token() != "" {
		t.Error("expired token should be cleared")
	}
	sig := sess.Signal()
	if !sig.Shown || sig.Reason != constraints.ReasonSessionExpired {
		t.Errorf("signal = %+v", sig)
	}
}

func TestCheck_UndecodableTokenIsExpired(t *testing.T) {
	g, sess := newGuard("not-a-jwt", nil)

	d := g.Check(context.Background(), "/products")
	if d.State != StateExpired || d.Redirect != constraints.PathSignIn {
		t.Errorf("decision = %+v", d)
	}
	if sess.Token() != "" || !sess.Signal().Shown {
		t.Error("undecodable token should force a logout")
	}
}

func TestCheck_ExpiredTokenOnPublicPage(t *testing.T) {
	g, sess := newGuard(mint("USER", -time.Minute), nil)

	d := g.Check(context.Background(), constraints.PathSignIn)
	if !d.Allow || d.State != StateExpired {
		t.Errorf("decision = %+v, want the sign-in page to render", d)
	}
	if sess.Token() != "" {
		t.Error("token should be cleared")
	}
}

func TestCheck_NonAdminOnAdminRoute(t *testing.T) {
	token := mint("USER", time.Hour)
	g, sess := newGuard(token, nil)

	d := g.Check(context.Background(), "/admin/audit-logs")
	if d.State != StateUnauthorized || d.Redirect != constraints.PathHome {
		t.Errorf("decision = %+v", d)
	}
	if d.Notice != constraints.NoticeAccessDenied {
		t.Errorf("notice = %q", d.Notice)
	}
	if sess.Token() != token || sess.Signal().Shown {
		t.Error("access denied must keep the session")
	}
}

func TestCheck_AdminOnAdminRoute(t *testing.T) {
	g, _ := newGuard(mint(constraints.RoleAdmin, time.Hour), nil)

	d := g.Check(context.Background(), "/admin/audit-logs")
	if !d.Allow || d.State != StateValid {
		t.Errorf("decision = %+v", d)
	}
	if d.Claims == nil || d.Claims.ResolvedRole() != constraints.RoleAdmin {
		t.Errorf("claims = %+v", d.Claims)
	}
}

func TestCheck_AdminPrefixBoundary(t *testing.T) {
	g, _ := newGuard(mint("USER", time.Hour), nil)

	if d := g.Check(context.Background(), "/administrators"); !d.Allow {
		t.Errorf("/administrators is not under /admin: %+v", d)
	}
	if d := g.Check(context.Background(), "/admin"); d.Allow {
		t.Errorf("/admin itself is admin-only: %+v", d)
	}
}

func TestCheck_ValidSessionLeavesSignIn(t *testing.T) {
	g, _ := newGuard(mint("USER", time.Hour), nil)

	d := g.Check(context.Background(), constraints.PathSignIn)
	if d.Allow || d.Redirect != constraints.PathHome || d.State != StateValid {
		t.Errorf("decision = %+v", d)
	}
	if d := g.Check(context.Background(), "/products?pageNumber=2"); !d.Allow {
		t.Errorf("decision = %+v", d)
	}
}

func TestCheck_RoleFromPrincipal(t *testing.T) {
	tests := []struct {
		name      string
		principal *v1.Principal
		err       error
		state     State
	}{
		{
			name:      "admin authority",
			principal: &v1.Principal{Authorities: v1.RoleList{constraints.RoleAdmin}},
			state:     StateValid,
		},
		{
			name:      "plain user",
			principal: &v1.Principal{Role: v1.RoleList{"USER"}},
			state:     StateUnauthorized,
		},
		{
			name:  "lookup failure",
			err:   &client.Error{Kind: client.ErrUnauthorized, Status: 401},
			state: StateExpired,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			principals := &mockPrincipals{principal: tt.principal, err: tt.err}
			g, _ := newGuard(mint("", time.Hour), principals)

			d := g.Check(context.Background(), "/admin/audit-logs")
			if d.State != tt.state {
				t.Errorf("state = %s, want %s", d.State, tt.state)
			}
			if principals.calls != 1 {
				t.Errorf("/user/me calls = %d, want 1", principals.calls)
			}
		})
	}
}

func TestCheck_TokenRefreshedDuringCheck(t *testing.T) {
	stale := mint("USER", -time.Minute)
	fresh := mint("USER", time.Hour)
	g, sess := newGuard(stale, nil)

	// The refreshed token lands after the guard read the stale one.
	var once sync.Once
	g.now = func() time.Time {
		once.Do(func() { sess.SetToken(context.Background(), fresh) })
		return time.Now()
	}

	d := g.Check(context.Background(), "/products")
	if !d.Allow || d.State != StateValid {
		t.Errorf("decision = %+v, want the refreshed token to be checked", d)
	}
	if sess.Token() != fresh {
		t.Error("guard must not clear a token it never inspected")
	}
	if sess.Signal().Shown {
		t.Errorf("signal = %+v, want no expiry prompt", sess.Signal())
	}
}

func TestCheck_AbortedNavigation(t *testing.T) {
	principals := &mockPrincipals{principal: &v1.Principal{}}
	g, sess := newGuard(mint("", time.Hour), principals)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d := g.Check(ctx, "/admin/audit-logs")
	if d.Allow || d.Redirect != "" || d.State != StateUnchecked {
		t.Errorf("decision = %+v, want an aborted navigation", d)
	}
	if sess.Token() == "" {
		t.Error("an aborted navigation must not expire the session")
	}
}

func TestClaims_RolePrecedence(t *testing.T) {
	tests := []struct {
		name     string
		claims   Claims
		resolved string
		admin    bool
	}{
		{"role wins", Claims{Role: "USER", Roles: []string{"ADMIN"}, Authorities: []string{"OPS"}}, "USER", true},
		{"roles before authorities", Claims{Roles: []string{"OPS", "ADMIN"}, Authorities: []string{"USER"}}, "OPS", true},
		{"authorities last", Claims{Authorities: []string{"USER", "ADMIN"}}, "USER", true},
		{"singular admin", Claims{Role: "ADMIN"}, "ADMIN", true},
		{"no admin anywhere", Claims{Role: "USER", Roles: []string{"OPS"}}, "USER", false},
		{"no roles", Claims{}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.claims.ResolvedRole(); got != tt.resolved {
				t.Errorf("ResolvedRole() = %q, want %q", got, tt.resolved)
			}
			if got := tt.claims.HasRole(constraints.RoleAdmin); got != tt.admin {
				t.Errorf("HasRole(ADMIN) = %v, want %v", got, tt.admin)
			}
		})
	}
}

func TestDecode_ClaimShapes(t *testing.T) {
	sign := func(claims jwt.MapClaims) string {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("k"))
		if err != nil {
			t.Fatal(err)
		}
		return token
	}
	exp := time.Now().Add(time.Hour).Unix()

	tests := []struct {
		name   string
		token  string
		role   string
		expiry bool
	}{
		{
			name:   "scalar role",
			token:  sign(jwt.MapClaims{"role": "ADMIN", "exp": exp}),
			role:   "ADMIN",
			expiry: true,
		},
		{
			name:  "roles list",
			token: sign(jwt.MapClaims{"roles": []string{"OPS", "ADMIN"}}),
			role:  "OPS",
		},
		{
			name:   "spring authorities",
			token:  sign(jwt.MapClaims{"authorities": []map[string]string{{"authority": "ADMIN"}}, "exp": exp}),
			role:   "ADMIN",
			expiry: true,
		},
		{
			name:   "bearer prefix",
			token:  "Bearer " + sign(jwt.MapClaims{"role": "USER", "exp": exp}),
			role:   "USER",
			expiry: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Decode(tt.token)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if c.ResolvedRole() != tt.role {
				t.Errorf("role = %q, want %q", c.ResolvedRole(), tt.role)
			}
			if c.ExpiresAt.IsZero() == tt.expiry {
				t.Errorf("ExpiresAt = %v, expiry expected %v", c.ExpiresAt, tt.expiry)
			}
			if c.Expired(time.Now()) {
				t.Error("token should not be expired")
			}
		})
	}

	if _, err := Decode("a.b"); !errors.Is(err, client.ErrTokenDecode) {
		t.Errorf("Decode(malformed) error = %v, want ErrTokenDecode", err)
	}
}
