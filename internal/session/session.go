package session

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"adminconsole/internal/metrics"
	v1 "adminconsole/pkg/api/v1"
	"adminconsole/pkg/constraints"
	"adminconsole/pkg/logger"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const refreshKey = "refresh"

// Signal is the "please log in again" state the console shows.
type Signal struct {
	Shown  bool   `json:"shown"`
	Reason string `json:"reason,omitempty"`
}

// Listener is told about every session change with the event type from
// pkg/api/v1 and an optional reason.
type Listener func(eventType, reason string)

// RefreshFunc performs one refresh call and returns the new token, or ""
// when the backend did not issue one. It must not write the session;
// Refresh commits the outcome.
type RefreshFunc func(ctx context.Context) string

// Context owns the session token, the expiry signal and the refresh
// handle. The client, the guard and the auth service share one Context and
// never touch the token any other way.
type Context struct {
	store    TokenStore
	observer metrics.SessionObserver

	// writeMu serializes writers, store I/O included, so the stored token
	// and the persisted one change in the same order.
	writeMu sync.Mutex

	mu     sync.RWMutex
	token  string
	signal Signal
	// gen moves on every login, logout, expiry and direct SetToken. A
	// refresh only commits if gen is unchanged since it started.
	gen uint64

	refresh   singleflight.Group
	refreshes atomic.Int64

	listenMu  sync.RWMutex
	listeners []Listener
}

// New restores a persisted token from store, if any.
func New(ctx context.Context, store TokenStore, observer metrics.SessionObserver) *Context {
	if store == nil {
		store = NewMemoryStore()
	}
	if observer == nil {
		observer = metrics.Nop{}
	}
	s := &Context{
		store:    store,
		observer: observer,
	}

	token, err := store.Load(ctx)
	if err != nil {
		logger.Warn("failed to restore session token", zap.Error(err))
		return s
	}
	s.token = token
	return s
}

func (s *Context) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Context) generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gen
}

// SetToken replaces the token outright. Any refresh in flight will not
// overwrite it.
func (s *Context) SetToken(ctx context.Context, token string) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.mu.Lock()
	s.token = token
	s.gen++
	s.mu.Unlock()
	s.save(ctx, token)
}

func (s *Context) save(ctx context.Context, token string) {
	if err := s.store.Save(context.WithoutCancel(ctx), token); err != nil {
		logger.Warn("failed to persist session token", zap.Error(err))
	}
}

func (s *Context) remove(ctx context.Context) {
	if err := s.store.Delete(context.WithoutCancel(ctx)); err != nil {
		logger.Warn("failed to delete session token", zap.Error(err))
	}
}

// ClearToken drops the token without showing the expiry prompt, as an
// explicit logout does.
func (s *Context) ClearToken(ctx context.Context) {
	s.writeMu.Lock()
	s.mu.Lock()
	s.token = ""
	s.gen++
	s.mu.Unlock()
	s.remove(ctx)
	s.writeMu.Unlock()

	s.notify(v1.EventLogout, "")
}

// Login stores a freshly issued token and hides the expiry prompt.
func (s *Context) Login(ctx context.Context, token string) {
	s.writeMu.Lock()
	s.mu.Lock()
	s.token = token
	s.signal = Signal{}
	s.gen++
	s.mu.Unlock()
	s.save(ctx, token)
	s.writeMu.Unlock()

	s.notify(v1.EventLogin, "")
}

// Expire clears the token and shows the expiry prompt with reason.
func (s *Context) Expire(ctx context.Context, source, reason string) {
	s.expireWhen(ctx, source, reason, func() bool { return true })
}

// ExpireIf expires the session only if the stored token is still observed.
// A token written since observed was read is left alone. It reports
// whether the session was expired.
func (s *Context) ExpireIf(ctx context.Context, observed, source, reason string) bool {
	return s.expireWhen(ctx, source, reason, func() bool { return s.token == observed })
}

func (s *Context) expireAt(ctx context.Context, gen uint64, source, reason string) bool {
	return s.expireWhen(ctx, source, reason, func() bool { return s.gen == gen })
}

// expireWhen runs cond under the write lock.
func (s *Context) expireWhen(ctx context.Context, source, reason string, cond func() bool) bool {
	s.writeMu.Lock()
	s.mu.Lock()
	if !cond() {
		s.mu.Unlock()
		s.writeMu.Unlock()
		logger.Debug("session changed, expiry skipped", zap.String("source", source))
		return false
	}
	s.token = ""
	s.signal = Signal{Shown: true, Reason: reason}
	s.gen++
	s.mu.Unlock()
	s.remove(ctx)
	s.writeMu.Unlock()

	s.notify(v1.EventExpired, reason)
	s.observer.RecordExpiry(source)
	logger.Info("session expired", zap.String("source", source), zap.String("reason", reason))
	return true
}

// commitRefresh stores token unless the session moved on since gen.
func (s *Context) commitRefresh(ctx context.Context, gen uint64, token string) bool {
	s.writeMu.Lock()
	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		s.writeMu.Unlock()
		return false
	}
	s.token = token
	s.mu.Unlock()
	s.save(ctx, token)
	s.writeMu.Unlock()
	return true
}

func (s *Context) Signal() Signal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.signal
}

// Refresh joins the refresh in flight or starts one with fn. Every caller
// that joins the same flight gets the same token. The flight runs detached
// from ctx: a caller whose ctx ends stops waiting and gets ctx.Err(), while
// the refresh itself still settles for everyone else.
//
// The outcome applies only to the session the flight started in. A new
// token is stored and a failure expires the session, unless a login,
// logout or expiry happened meanwhile; then the result is dropped and ""
// is returned.
func (s *Context) Refresh(ctx context.Context, fn RefreshFunc) (string, error) {
	detached := context.WithoutCancel(ctx)
	ch := s.refresh.DoChan(refreshKey, func() (any, error) {
		gen := s.generation()
		s.refreshes.Add(1)
		token := fn(detached)
		if token == "" {
			s.observer.RecordRefresh("failed")
			s.expireAt(detached, gen, "client", constraints.ReasonSessionExpired)
			return "", nil
		}
		if !s.commitRefresh(detached, gen, token) {
			s.observer.RecordRefresh("discarded")
			logger.Info("refreshed token discarded, session changed during refresh")
			return "", nil
		}
		s.observer.RecordRefresh("success")
		s.notify(v1.EventRefresh, "")
		return token, nil
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		token, _ := res.Val.(string)
		return token, nil
	}
}

// Refreshes reports how many refresh flights this session has started.
func (s *Context) Refreshes() int64 {
	return s.refreshes.Load()
}

// OnEvent registers l for every later session change. Listeners run
// synchronously and must not block.
func (s *Context) OnEvent(l Listener) {
	s.listenMu.Lock()
	s.listeners = append(s.listeners, l)
	s.listenMu.Unlock()
}

func (s *Context) notify(eventType, reason string) {
	s.listenMu.RLock()
	defer s.listenMu.RUnlock()
	for _, l := range s.listeners {
		l(eventType, reason)
	}
}

func StripBearer(token string) string {
	token = strings.TrimSpace(token)
	if len(token) >= 7 && strings.EqualFold(token[:7], "Bearer ") {
		return strings.TrimSpace(token[7:])
	}
	return token
}
