package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nao1215/seoprobe/internal/pipeline"
)

// Server defaults.
const (
	// DefaultAuditTimeout bounds one request's audit or discovery.
	DefaultAuditTimeout = 2 * time.Minute

	// DefaultMaxSample caps the sample query parameter.
	DefaultMaxSample = 100

	// DefaultMaxLimit caps the limit query parameter.
	DefaultMaxLimit = 50000

	// DefaultShutdownTimeout bounds graceful shutdown.
	DefaultShutdownTimeout = 10 * time.Second
)

// ProberFactory builds the prober used for one request. It receives the
// requested URL so per-site headers can be applied.
type ProberFactory func(rawURL string) (pipeline.Prober, error)

// Server serves the audit engine over HTTP.
// Every request builds its own prober and pipeline; nothing is shared
// between requests except configuration.
type Server struct {
	factory         ProberFactory
	logger          *slog.Logger
	auditTimeout    time.Duration
	shutdownTimeout time.Duration
	maxSample       int
	maxLimit        int
	maxFiles        int
	pipelineOpts    []pipeline.DefaultPipelineOption
	engine          *gin.Engine
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger used for request logs.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithAuditTimeout sets the deadline applied to each request's audit.
// Zero disables it.
func WithAuditTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d >= 0 {
			s.auditTimeout = d
		}
	}
}

// WithShutdownTimeout sets how long ListenAndServe waits for in-flight
// requests when its context ends.
func WithShutdownTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.shutdownTimeout = d
		}
	}
}

// WithMaxSample caps the sample query parameter of /api/touchpoints.
func WithMaxSample(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxSample = n
		}
	}
}

// WithMaxLimit caps the limit query parameter of /api/sitemaps.
func WithMaxLimit(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxLimit = n
		}
	}
}

// WithSitemapMaxFiles caps the sitemap documents fetched by
// /api/sitemaps. Zero selects the sitemap package default.
func WithSitemapMaxFiles(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxFiles = n
		}
	}
}

// WithPipelineOptions sets the options used to build each request's
// touchpoints pipeline.
func WithPipelineOptions(opts ...pipeline.DefaultPipelineOption) Option {
	return func(s *Server) {
		s.pipelineOpts = append(s.pipelineOpts, opts...)
	}
}

// New creates a Server. The gin engine runs in release mode unless the
// caller changed the mode beforehand.
func New(factory ProberFactory, opts ...Option) *Server {
	s := &Server{
		factory:         factory,
		logger:          slog.Default(),
		auditTimeout:    DefaultAuditTimeout,
		shutdownTimeout: DefaultShutdownTimeout,
		maxSample:       DefaultMaxSample,
		maxLimit:        DefaultMaxLimit,
	}
	for _, opt := range opts {
		opt(s)
	}

	if gin.Mode() == gin.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(recoveryMiddleware(s.logger), requestIDMiddleware(), loggerMiddleware(s.logger))
	s.setupRoutes(engine)
	s.engine = engine

	return s
}

func (s *Server) setupRoutes(router *gin.Engine) {
	router.GET("/healthz", s.health)

	api := router.Group("/api")
	{
		api.GET("/sitemaps", s.sitemaps)
		api.GET("/touchpoints", s.touchpoints)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, newErrorEnvelope(CodeNotFound, "no route for "+c.Request.URL.Path))
	})
}

// Handler returns the HTTP handler serving all routes.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// ListenAndServe serves on addr until ctx ends, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "address", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server error: %w", err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	// ctx is already done; shutdown needs its own deadline.
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	s.logger.Info("HTTP server stopped")
	return nil
}

// requestContext applies the audit deadline to the request's context.
func (s *Server) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	if s.auditTimeout > 0 {
		return context.WithTimeout(c.Request.Context(), s.auditTimeout)
	}
	return context.WithCancel(c.Request.Context())
}
