package guard

import (
	"context"
	"strings"
	"time"

	"adminconsole/internal/metrics"
	"adminconsole/internal/session"
	v1 "adminconsole/pkg/api/v1"
	"adminconsole/pkg/constraints"
	"adminconsole/pkg/logger"

	"go.uber.org/zap"
)

type State string

const (
	StateNoToken      State = "no_token"
	StateUnchecked    State = "token_present_unchecked"
	StateValid        State = "valid"
	StateExpired      State = "expired"
	StateUnauthorized State = "unauthorized"
)

// Decision is the outcome of one navigation. Either Allow is set, or
// Redirect names where to go instead. A decision with neither aborts the
// navigation.
type Decision struct {
	State    State
	Allow    bool
	Redirect string
	// Replace asks for the protected entry to be replaced in history.
	Replace bool
	Notice  string
	Claims  *Claims
}

// PrincipalSource answers /user/me. *client.Client implements it.
type PrincipalSource interface {
	Me(ctx context.Context) (*v1.Principal, error)
}

type Config struct {
	PublicRoutes  []string
	AdminPrefixes []string
	AdminRole     string
	SignInPath    string
	HomePath      string
}

func DefaultConfig() Config {
	return Config{
		PublicRoutes:  []string{constraints.PathSignIn, constraints.PathTerms, constraints.PathPrivacy},
		AdminPrefixes: []string{constraints.PathAdmin},
		AdminRole:     constraints.RoleAdmin,
		SignInPath:    constraints.PathSignIn,
		HomePath:      constraints.PathHome,
	}
}

type Guard struct {
	cfg        Config
	session    *session.Context
	principals PrincipalSource
	observer   metrics.SessionObserver
	now        func() time.Time
}

func New(cfg Config, sess *session.Context, principals PrincipalSource, observer metrics.SessionObserver) *Guard {
	def := DefaultConfig()
	if cfg.SignInPath == "" {
		cfg.SignInPath = def.SignInPath
	}
	if cfg.HomePath == "" {
		cfg.HomePath = def.HomePath
	}
	if cfg.AdminRole == "" {
		cfg.AdminRole = def.AdminRole
	}
	if observer == nil {
		observer = metrics.Nop{}
	}
	return &Guard{
		cfg:        cfg,
		session:    sess,
		principals: principals,
		observer:   observer,
		now:        time.Now,
	}
}

// Check decides whether the navigation to path may proceed. It never
// refreshes the token; a token it cannot trust counts as expired.
func (g *Guard) Check(ctx context.Context, path string) Decision {
	path = normalizePath(path)
	// A token written while the check ran (a refresh landing) is checked
	// afresh rather than cleared unseen. If it keeps changing the
	// navigation is aborted.
	var d Decision
	settled := false
	for attempt := 0; attempt < maxChecks && !settled; attempt++ {
		d, settled = g.check(ctx, path)
	}
	if !settled {
		d = Decision{State: StateUnchecked}
	}
	g.observer.RecordGuardDecision(string(d.State))
	return d
}

const maxChecks = 3

// check reports settled=false when the token it judged expired was
// replaced before it could be cleared.
func (g *Guard) check(ctx context.Context, path string) (Decision, bool) {
	token := g.session.Token()
	if token == "" {
		if g.isPublic(path) {
			return Decision{State: StateNoToken, Allow: true}, true
		}
		return Decision{State: StateNoToken, Redirect: g.cfg.SignInPath, Replace: true}, true
	}

	claims, err := Decode(token)
	if err != nil {
		logger.Warn("session token could not be decoded", zap.Error(err))
		return g.expire(ctx, path, token)
	}
	if claims.Expired(g.now()) {
		return g.expire(ctx, path, token)
	}

	if g.requiresAdmin(path) {
		if !claims.HasRoleInfo() && g.principals != nil {
			p, err := g.principals.Me(ctx)
			if ctx.Err() != nil {
				// Navigation abandoned; nothing is known about the token.
				return Decision{State: StateUnchecked}, true
			}
			if err != nil {
				logger.Warn("principal lookup failed", zap.Error(err))
				return g.expire(ctx, path, token)
			}
			claims = claims.WithPrincipal(p)
		}
		if !claims.HasRole(g.cfg.AdminRole) {
			logger.Info("access denied",
				zap.String("path", path),
				zap.String("role", claims.ResolvedRole()))
			return Decision{
				State:    StateUnauthorized,
				Redirect: g.cfg.HomePath,
				Replace:  true,
				Notice:   constraints.NoticeAccessDenied,
				Claims:   claims,
			}, true
		}
	}

	if path == g.cfg.SignInPath {
		return Decision{State: StateValid, Redirect: g.cfg.HomePath, Replace: true, Claims: claims}, true
	}
	return Decision{State: StateValid, Allow: true, Claims: claims}, true
}

// expire forces a logout of token. Public pages still render; anything
// else goes to sign-in.
func (g *Guard) expire(ctx context.Context, path, token string) (Decision, bool) {
	if !g.session.ExpireIf(ctx, token, "guard", constraints.ReasonSessionExpired) {
		logger.Debug("session token replaced during navigation check", zap.String("path", path))
		return Decision{}, false
	}
	d := Decision{State: StateExpired, Notice: constraints.ReasonSessionExpired}
	if g.isPublic(path) {
		d.Allow = true
		return d, true
	}
	d.Redirect = g.cfg.SignInPath
	d.Replace = true
	return d, true
}

func (g *Guard) isPublic(path string) bool {
	for _, p := range g.cfg.PublicRoutes {
		if path == normalizePath(p) {
			return true
		}
	}
	return false
}

func (g *Guard) requiresAdmin(path string) bool {
	for _, prefix := range g.cfg.AdminPrefixes {
		prefix = normalizePath(prefix)
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}

func normalizePath(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if path == "" {
		return "/"
	}
	if trimmed := strings.TrimRight(path, "/"); trimmed != "" {
		return trimmed
	}
	return "/"
}
