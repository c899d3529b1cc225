// Package server exposes HGVS parsing and formatting over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/inodb/vibe-hgvs/internal/convert"
	"github.com/inodb/vibe-hgvs/internal/hgvs"
)

// Options configures formatting defaults and request limits.
type Options struct {
	MaxAlleleLength int
	Justify         bool
	RateLimit       float64 // requests per second; 0 disables limiting
	Burst           int
	Debug           bool
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{MaxAlleleLength: hgvs.DefaultMaxAlleleLength, Justify: true, Burst: 20}
}

// Server is the HTTP front end.
type Server struct {
	lookup  hgvs.TranscriptLookup
	seq     hgvs.SequenceSource
	conv    *convert.Converter
	opts    Options
	logger  *zap.Logger
	router  *gin.Engine
	limiter *rate.Limiter
	started time.Time
}

// New creates a server resolving transcripts through lookup. seq may be
// nil, in which case names are not justified and count-only deletions
// cannot be resolved.
func New(lookup hgvs.TranscriptLookup, seq hgvs.SequenceSource, opts Options) *Server {
	if opts.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		lookup:  lookup,
		seq:     seq,
		opts:    opts,
		logger:  zap.NewNop(),
		router:  gin.New(),
		started: time.Now(),
	}
	if opts.RateLimit > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	s.router.Use(gin.Recovery())
	s.router.Use(requestIDMiddleware())
	s.router.Use(s.loggingMiddleware())
	s.setupRoutes()
	return s
}

// SetLogger sets the request and error logger.
func (s *Server) SetLogger(l *zap.Logger) {
	s.logger = l
}

// SetConverter enables the overlap endpoint, which names a variant on
// every transcript it touches.
func (s *Server) SetConverter(c *convert.Converter) {
	s.conv = c
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	v1 := s.router.Group("/api/v1", s.rateLimitMiddleware())
	{
		v1.GET("/parse", s.handleParse)
		v1.GET("/format", s.handleFormat)
		v1.GET("/convert", s.handleConvert)
	}
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
