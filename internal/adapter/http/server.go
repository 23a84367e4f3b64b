// Package http exposes the onboarding services as a JSON API built on huma
// and chi.
package http

import (
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/riandyrn/otelchi"
	"go.uber.org/zap"

	"github.com/neomorfeo/merchantdesk/internal/app"
	"github.com/neomorfeo/merchantdesk/internal/preview"
)

// Services are the application services behind the API.
type Services struct {
	Auth         *app.AuthService
	Wizards      *app.WizardService
	Applications *app.ApplicationService
	Review       *app.ReviewService
	Previews     *preview.Registry
}

// Options configures NewRouter.
type Options struct {
	Name    string
	Version string
	Logger  *zap.Logger
	// Metrics serves /metrics when set.
	Metrics http.Handler
	Now     func() time.Time
}

// Register adds every API route to api.
func Register(api huma.API, svc Services, now func() time.Time) {
	if now == nil {
		now = time.Now
	}
	registerSession(api, svc.Auth)
	registerWizard(api, svc.Wizards)
	registerApplications(api, svc.Applications, svc.Review, svc.Wizards, svc.Previews)
	registerReview(api, svc.Review)
	registerMonitor(api, svc.Applications, now)
}

// NewRouter builds the chi router with tracing, request logging, panic
// recovery and bearer authentication in front of the API.
func NewRouter(svc Services, opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(otelchi.Middleware(opts.Name, otelchi.WithChiRoutes(router)))
	router.Use(requestLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(Authenticate(svc.Auth))

	if opts.Metrics != nil {
		router.Method(http.MethodGet, "/metrics", opts.Metrics)
	}

	api := humachi.New(router, huma.DefaultConfig(opts.Name, opts.Version))
	Register(api, svc, opts.Now)
	return router
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", status),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			}
			if status >= http.StatusInternalServerError {
				logger.Error("request", fields...)
				return
			}
			logger.Info("request", fields...)
		})
	}
}
