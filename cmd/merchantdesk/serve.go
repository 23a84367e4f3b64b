package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/neomorfeo/merchantdesk/internal/adapter/fsm"
	handler "github.com/neomorfeo/merchantdesk/internal/adapter/http"
	"github.com/neomorfeo/merchantdesk/internal/adapter/otel"
	"github.com/neomorfeo/merchantdesk/internal/adapter/river"
	"github.com/neomorfeo/merchantdesk/internal/adapter/rules"
	"github.com/neomorfeo/merchantdesk/internal/app"
	"github.com/neomorfeo/merchantdesk/internal/config"
	"github.com/neomorfeo/merchantdesk/internal/logging"
	"github.com/neomorfeo/merchantdesk/internal/preview"
	"github.com/neomorfeo/merchantdesk/internal/wizard"
)

const sessionPurgeInterval = 10 * time.Minute

func newServeCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the onboarding API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg)
		},
	}
}

// run starts the API and blocks until ctx is cancelled, then shuts down
// gracefully.
func run(ctx context.Context, cfg *config.Config) error {
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	// --- Observability ---
	providers, err := otel.Setup(ctx, otel.Config{
		ServiceName:    cfg.Otel.ServiceName,
		ServiceVersion: cfg.Otel.ServiceVersion,
		Environment:    cfg.Otel.Environment,
		Exporter:       cfg.Otel.Exporter,
		Insecure:       cfg.Otel.Insecure,
	})
	if err != nil {
		return fmt.Errorf("otel setup: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			logger.Warn("otel shutdown", zap.Error(err))
		}
	}()

	// --- Adapters (out) ---
	db, err := openDatabase(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()

	riverClient, err := river.Setup(ctx, db, logger)
	if err != nil {
		return fmt.Errorf("river setup: %w", err)
	}
	if err := riverClient.Start(ctx); err != nil {
		return fmt.Errorf("starting river: %w", err)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := riverClient.Stop(stopCtx); err != nil {
			logger.Warn("river stop", zap.Error(err))
		}
	}()

	publisher, err := otel.NewTracingPublisher(river.NewPublisher(riverClient))
	if err != nil {
		return fmt.Errorf("publisher: %w", err)
	}

	transitions := fsm.New()
	backend, err := newBackend(ctx, cfg, db, transitions, logger)
	if err != nil {
		return err
	}

	sessions, err := newSessionStore(ctx, cfg, db)
	if err != nil {
		return err
	}
	defer sessions.close() //nolint:errcheck

	// --- Application ---
	validator := rules.New()
	previews := preview.NewRegistry()
	wizards := app.NewWizardService(wizard.Deps{
		Backend:     backend,
		Transitions: transitions,
		Rules:       validator,
		Previews:    previews,
	}, publisher, logger.Named("wizard"))
	auth := app.NewAuthService(sessions, newTokenCodec(cfg), logger.Named("auth"), wizards)
	go housekeeping(ctx, sessions, wizards, cfg.Token.TTL, sessionPurgeInterval, logger)

	// --- Adapters (in) ---
	router := handler.NewRouter(handler.Services{
		Auth:         auth,
		Wizards:      wizards,
		Applications: app.NewApplicationService(backend, validator),
		Review:       app.NewReviewService(backend, transitions, publisher, logger.Named("review")),
		Previews:     previews,
	}, handler.Options{
		Name:    cfg.Otel.ServiceName,
		Version: version,
		Logger:  logger.Named("http"),
		Metrics: providers.MetricsHandler,
	})

	// --- Server ---
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("merchantdesk listening",
			zap.String("addr", srv.Addr),
			zap.String("docs", "http://localhost:"+cfg.Port+"/docs"),
			zap.String("backend", cfg.Backend.Mode),
			zap.String("sessions", cfg.Session.Store),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("stopped", zap.Int("open_wizards", wizards.Active()))
	return nil
}
