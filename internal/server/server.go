// Package server hosts one questionnaire over HTTP with gin. Every browser
// gets its own engine session keyed by a cookie. Answers arrive as plain form
// posts and every post redirects back to the active screen, so the page
// parameter in the address bar always names what is shown.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	theme "github.com/goliatone/go-theme"

	formflow "github.com/goliatone/go-formflow"
	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/render"
	"github.com/goliatone/go-formflow/pkg/storage"
	"github.com/goliatone/go-formflow/pkg/validation"
)

// Routes served by the host.
const (
	PathForm       = "/form"
	PathConsent    = "/form/consent"
	PathResponses  = "/form/responses"
	PathSubmission = "/form/submission"
	PathHealth     = "/healthz"
	PathAssets     = "/assets"
)

// Server serves a single form configuration.
type Server struct {
	cfg       model.FormConfig
	store     storage.Store
	validator *validation.Engine
	renderers *render.Registry
	renderer  string
	themes    theme.ThemeSelector
	themeName string
	variant   string
	logger    *zap.Logger
	tracing   trace.TracerProvider
	tracer    trace.Tracer
	service   string

	cookieName   string
	cookieMaxAge time.Duration
	secure       bool
	sessionTTL   time.Duration
	maxUpload    int64

	health   []namedCheck
	onSubmit func(model.Submission)
	now      func() time.Time
	newID    func() string
	baseCtx  context.Context

	sessions *sessionRegistry
	router   *gin.Engine
}

// New validates cfg and builds the router. Without WithStore answers are only
// kept in memory.
func New(cfg model.FormConfig, opts ...Option) (*Server, error) {
	if err := model.Validate(cfg); err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}

	s := &Server{
		cfg:          cfg,
		logger:       zap.NewNop(),
		service:      "formflow",
		cookieName:   "formflow_session",
		cookieMaxAge: 7 * 24 * time.Hour,
		sessionTTL:   2 * time.Hour,
		maxUpload:    32 << 20,
		now:          time.Now,
		newID:        func() string { return uuid.NewString() },
		baseCtx:      context.Background(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	if s.store == nil {
		s.store = storage.NewMemory()
	}
	if s.validator == nil {
		s.validator = validation.New(cfg)
	}
	if s.renderers == nil {
		registry, err := formflow.DefaultRenderers()
		if err != nil {
			return nil, fmt.Errorf("server: %w", err)
		}
		s.renderers = registry
	}
	if _, err := s.renderers.Get(s.renderer); err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}
	if s.tracing == nil {
		s.tracing = noop.NewTracerProvider()
	}
	s.tracer = s.tracing.Tracer("github.com/goliatone/go-formflow/internal/server")

	for _, issue := range s.validator.Issues() {
		s.logger.Warn("server: configuration issue",
			zap.String("form", cfg.Slug),
			zap.String("path", issue.Path),
			zap.String("message", issue.Message),
		)
	}

	s.sessions = newSessionRegistry()
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(s.service, otelgin.WithTracerProvider(s.tracing)))
	r.Use(RequestLogger(s.logger))

	r.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, PathForm)
	})
	r.GET(PathHealth, s.healthCheck)
	r.StaticFS(PathAssets, http.FS(formflow.AssetsFS()))

	form := r.Group(PathForm)
	{
		form.GET("", s.showForm)
		form.POST("", s.postForm)
		form.POST("/consent", s.postConsent)
		form.GET("/responses", s.responses)
		form.GET("/submission", s.submission)
	}
	return r
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server: listening", zap.String("addr", addr), zap.String("form", s.cfg.Slug))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server: shutdown: %w", err)
		}
		s.sessions.closeAll()
		return nil
	}
}
