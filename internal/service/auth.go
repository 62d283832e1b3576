package service

import (
	"context"
	"errors"
	"strings"

	"adminconsole/internal/guard"
	"adminconsole/internal/session"
	v1 "adminconsole/pkg/api/v1"
	"adminconsole/pkg/logger"

	"go.uber.org/zap"
)

var (
	ErrMissingCredentials = errors.New("username and password are required")
	ErrNotAuthenticated   = errors.New("not authenticated")
)

// Backend is the slice of the authenticated client AuthService drives.
type Backend interface {
	SignIn(ctx context.Context, username, password string) (string, error)
	SignOut(ctx context.Context) error
	Me(ctx context.Context) (*v1.Principal, error)
}

type AuthService struct {
	backend Backend
	session *session.Context
}

func NewAuthService(backend Backend, sess *session.Context) *AuthService {
	return &AuthService{
		backend: backend,
		session: sess,
	}
}

// Login signs in against the backend and stores the access token.
// On failure the session is left untouched.
func (s *AuthService) Login(ctx context.Context, req v1.LoginRequest) (string, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		return "", ErrMissingCredentials
	}

	token, err := s.backend.SignIn(ctx, username, req.Password)
	if err != nil {
		logger.Warn("sign-in failed", zap.String("username", username), zap.Error(err))
		return "", err
	}
	s.session.Login(ctx, token)
	logger.Info("operator signed in", zap.String("username", username))
	return token, nil
}

// Logout always clears the local token, even if the backend call fails.
func (s *AuthService) Logout(ctx context.Context) {
	if s.session.Token() != "" {
		if err := s.backend.SignOut(ctx); err != nil {
			logger.Warn("backend logout failed", zap.Error(err))
		}
	}
	s.session.ClearToken(ctx)
}

// CurrentClaims decodes the stored token without any network call. It
// fails when there is no token or it has expired.
func (s *AuthService) CurrentClaims() (*guard.Claims, error) {
	token := s.session.Token()
	if token == "" {
		return nil, ErrNotAuthenticated
	}
	claims, err := guard.Decode(token)
	if err != nil {
		return nil, err
	}
	if claims.Expired(timeNow()) {
		return nil, ErrNotAuthenticated
	}
	return claims, nil
}

func (s *AuthService) Me(ctx context.Context) (*v1.Principal, error) {
	return s.backend.Me(ctx)
}
