package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/neomorfeo/merchantdesk/internal/adapter/backend"
	"github.com/neomorfeo/merchantdesk/internal/adapter/local"
	"github.com/neomorfeo/merchantdesk/internal/adapter/otel"
	"github.com/neomorfeo/merchantdesk/internal/adapter/redis"
	"github.com/neomorfeo/merchantdesk/internal/adapter/sqlite"
	"github.com/neomorfeo/merchantdesk/internal/adapter/token"
	"github.com/neomorfeo/merchantdesk/internal/app"
	"github.com/neomorfeo/merchantdesk/internal/config"
	"github.com/neomorfeo/merchantdesk/internal/domain"
)

// newBackend returns the onboarding backend selected by cfg, wrapped in
// tracing. In local mode the demo records are seeded into an empty database.
func newBackend(ctx context.Context, cfg *config.Config, db *sql.DB, transitions domain.TransitionValidator, logger *zap.Logger) (domain.Backend, error) {
	switch cfg.Backend.Mode {
	case "remote":
		client := backend.New(backend.Options{
			BaseURL:   cfg.Backend.URL,
			Timeout:   cfg.Backend.Timeout,
			RateLimit: cfg.Backend.RateLimit,
			Burst:     cfg.Backend.Burst,
		})
		logger.Info("using remote backend", zap.String("url", cfg.Backend.URL))
		return otel.NewTracingBackend(client), nil

	case "local":
		b := local.New(sqlite.NewApplicationRepository(db), sqlite.NewAgentRepository(db), transitions)
		if cfg.Seed.Demo {
			n, err := b.Seed(ctx)
			if err != nil {
				return nil, fmt.Errorf("seeding demo data: %w", err)
			}
			if n > 0 {
				logger.Info("seeded demo applications", zap.Int("count", n))
			}
		}
		return otel.NewTracingBackend(b), nil
	}
	return nil, fmt.Errorf("unknown backend mode %q", cfg.Backend.Mode)
}

// sessionStore is the configured session store plus what it needs on exit.
type sessionStore struct {
	domain.SessionStore
	purge func(context.Context) (int64, error)
	close func() error
}

func newSessionStore(ctx context.Context, cfg *config.Config, db *sql.DB) (*sessionStore, error) {
	switch cfg.Session.Store {
	case "redis":
		client, err := redis.NewClient(ctx, redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, fmt.Errorf("connecting to redis: %w", err)
		}
		return &sessionStore{
			SessionStore: otel.NewTracingSessionStore(redis.NewSessionStore(client, cfg.Token.TTL)),
			close:        client.Close,
		}, nil

	case "sqlite":
		store := sqlite.NewSessionStore(db, cfg.Token.TTL)
		return &sessionStore{
			SessionStore: otel.NewTracingSessionStore(store),
			purge:        store.Purge,
			close:        func() error { return nil },
		}, nil
	}
	return nil, fmt.Errorf("unknown session store %q", cfg.Session.Store)
}

// housekeeping runs every interval until ctx ends. It deletes expired SQLite
// sessions (Redis expires keys on its own) and closes wizards idle for longer
// than the session ttl.
func housekeeping(ctx context.Context, s *sessionStore, wizards *app.WizardService, ttl, interval time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			purgeSessions(ctx, s, logger)
			if n := wizards.Sweep(now.Add(-ttl)); n > 0 {
				logger.Info("closed idle wizards", zap.Int("count", n))
			}
		}
	}
}

func purgeSessions(ctx context.Context, s *sessionStore, logger *zap.Logger) {
	if s.purge == nil {
		return
	}
	n, err := s.purge(ctx)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			logger.Warn("purging sessions", zap.Error(err))
		}
		return
	}
	if n > 0 {
		logger.Debug("purged expired sessions", zap.Int64("count", n))
	}
}

func openDatabase(path string) (*sql.DB, error) {
	db, err := otel.OpenDB(path)
	if err != nil {
		return nil, err
	}
	if err := sqlite.Migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}
	return db, nil
}

func newTokenCodec(cfg *config.Config) *token.Codec {
	return token.NewCodec(cfg.Token.Secret, cfg.Token.TTL)
}
