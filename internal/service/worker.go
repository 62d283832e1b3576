package service

import (
	"context"
	"time"

	"adminconsole/internal/guard"
	"adminconsole/internal/session"
	"adminconsole/pkg/constraints"
	"adminconsole/pkg/logger"

	"go.uber.org/zap"
)

// ExpiryWatcher expires the session as soon as the stored token's exp
// passes, so open tabs see the prompt without navigating first.
type ExpiryWatcher struct {
	session  *session.Context
	interval time.Duration
}

func NewExpiryWatcher(sess *session.Context, interval time.Duration) *ExpiryWatcher {
	return &ExpiryWatcher{
		session:  sess,
		interval: interval,
	}
}

func (w *ExpiryWatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	logger.Info("expiry watcher started", zap.Duration("interval", w.interval))

	for {
		select {
		case <-ctx.Done():
			logger.Info("expiry watcher stopped")
			return
		case <-ticker.C:
			w.check(ctx)
		}
	}
}

// check reports whether it expired the session.
func (w *ExpiryWatcher) check(ctx context.Context) bool {
	token := w.session.Token()
	if token == "" {
		return false
	}
	claims, err := guard.Decode(token)
	if err != nil {
		logger.Debug("stored token is not decodable, leaving it to the guard", zap.Error(err))
		return false
	}
	if !claims.Expired(timeNow()) {
		return false
	}
	return w.session.ExpireIf(ctx, token, "watcher", constraints.ReasonSessionExpired)
}
