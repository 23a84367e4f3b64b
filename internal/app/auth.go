package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/neomorfeo/merchantdesk/internal/domain"
)

// TokenCodec turns session ids into bearer tokens and back.
type TokenCodec interface {
	Issue(sessionID string) (string, error)
	Parse(token string) (string, error)
}

// SessionListener is told when a login session ends or changes identity.
type SessionListener interface {
	EndSession(sessionID string)
}

// Session is an authenticated login session.
type Session struct {
	ID    string
	Token string
	User  domain.User
}

// AuthService owns the login session lifecycle: login, resolve, role switch
// and logout. It is the only writer of the session store.
type AuthService struct {
	store     domain.SessionStore
	tokens    TokenCodec
	listeners []SessionListener
	logger    *zap.Logger
}

// NewAuthService creates an AuthService.
func NewAuthService(store domain.SessionStore, tokens TokenCodec, logger *zap.Logger, listeners ...SessionListener) *AuthService {
	return &AuthService{store: store, tokens: tokens, listeners: listeners, logger: logger}
}

// Login starts a session for the demo user of role.
func (s *AuthService) Login(ctx context.Context, role domain.Role) (Session, error) {
	if _, err := domain.ParseRole(string(role)); err != nil {
		return Session{}, err
	}

	id := generateID()
	user := domain.UserForRole(role)
	if err := s.store.Save(ctx, id, user); err != nil {
		return Session{}, fmt.Errorf("saving session: %w", err)
	}

	token, err := s.tokens.Issue(id)
	if err != nil {
		return Session{}, fmt.Errorf("issuing token: %w", err)
	}

	s.logger.Info("login", zap.String("user", user.ID), zap.String("role", string(role)))
	return Session{ID: id, Token: token, User: user}, nil
}

// Resolve returns the session behind token. Invalid tokens and unknown
// sessions both yield domain.ErrUnauthenticated.
func (s *AuthService) Resolve(ctx context.Context, token string) (Session, error) {
	id, err := s.tokens.Parse(token)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", domain.ErrUnauthenticated, err)
	}

	user, err := s.store.Load(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			s.notify(id)
			return Session{}, domain.ErrUnauthenticated
		}
		return Session{}, fmt.Errorf("loading session: %w", err)
	}
	return Session{ID: id, Token: token, User: user}, nil
}

// SwitchRole replaces the session's user with the demo user of role.
// Work held for the previous identity is discarded.
func (s *AuthService) SwitchRole(ctx context.Context, token string, role domain.Role) (Session, error) {
	if _, err := domain.ParseRole(string(role)); err != nil {
		return Session{}, err
	}

	sess, err := s.Resolve(ctx, token)
	if err != nil {
		return Session{}, err
	}

	sess.User = domain.UserForRole(role)
	if err := s.store.Save(ctx, sess.ID, sess.User); err != nil {
		return Session{}, fmt.Errorf("saving session: %w", err)
	}
	s.notify(sess.ID)

	s.logger.Info("role switched", zap.String("user", sess.User.ID), zap.String("role", string(role)))
	return sess, nil
}

// Logout ends the session. Logging out twice is not an error.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	id, err := s.tokens.Parse(token)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUnauthenticated, err)
	}

	if err := s.store.Delete(ctx, id); err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
		return fmt.Errorf("deleting session: %w", err)
	}
	s.notify(id)

	s.logger.Info("logout")
	return nil
}

func (s *AuthService) notify(sessionID string) {
	for _, l := range s.listeners {
		l.EndSession(sessionID)
	}
}
