// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes exploration, classification, gap analysis,
// summaries, paper lookup and abstract reconstruction over a JSON HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pdiddy/research-intel/internal/explore"
	"github.com/pdiddy/research-intel/internal/logging"
	"github.com/pdiddy/research-intel/internal/metrics"
	"github.com/pdiddy/research-intel/pkg/types"
)

// RequestIDHeader carries the per-request correlation id.
const RequestIDHeader = "X-Request-ID"

// Explorer answers exploration queries.
type Explorer interface {
	Explore(ctx context.Context, query string, opts explore.Options) (types.ExploreResult, error)
}

// Classifier assigns one record to a branch.
type Classifier interface {
	Classify(ctx context.Context, r types.Record, branches []types.Branch) (types.ClassificationResult, error)
}

// GapAnalyzer runs the research gap pipeline for one record.
type GapAnalyzer interface {
	Analyze(ctx context.Context, base types.Record) (types.GapReport, error)
}

// Summarizer digests papers.
type Summarizer interface {
	Summarize(ctx context.Context, r types.Record) (types.Summary, error)
	SummarizeAll(ctx context.Context, records []types.Record) ([]types.Summary, error)
}

// PaperLookup fetches one paper by id.
type PaperLookup interface {
	Get(ctx context.Context, id string) (types.Record, error)
}

// ReportSaver persists finished gap reports.
type ReportSaver interface {
	Save(ctx context.Context, report types.GapReport) (string, error)
}

// Deps are the services behind the routes. A nil service disables its
// route with 503.
type Deps struct {
	Explorer   Explorer
	Classifier Classifier
	Gaps       GapAnalyzer
	Summarizer Summarizer
	Papers     PaperLookup
	Archive    ReportSaver

	// Branches is the taxonomy used when a request names none.
	Branches []types.Branch

	Metrics *metrics.Metrics
	Log     logging.Logger
}

// Server is the HTTP API.
type Server struct {
	cfg    types.ServerConfig
	deps   Deps
	log    logging.Logger
	engine *gin.Engine
}

// New builds the route tree.
func New(cfg types.ServerConfig, deps Deps) *Server {
	s := &Server{
		cfg:  cfg,
		deps: deps,
		log:  logging.OrNop(deps.Log).Named("server"),
	}

	r := gin.New()
	r.Use(gin.Recovery(), s.requestID(), s.observe())

	r.GET("/healthz", s.health)
	r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))

	api := r.Group("/api/v1")
	api.POST("/explore", s.explore)
	api.POST("/classify", s.classify)
	api.POST("/gaps", s.gaps)
	api.POST("/summarize", s.summarize)
	api.GET("/papers/*id", s.paper)
	api.POST("/abstract", s.abstract)

	s.engine = r
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	addr := s.cfg.Addr
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info("listening", logging.String("addr", addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving %s: %w", addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.log.Info("stopped")
	return nil
}

// --- middleware ---

func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func (s *Server) observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		elapsed := time.Since(start)
		s.deps.Metrics.ObserveHTTP(c.Request.Method, route, strconv.Itoa(status), elapsed)

		fields := []logging.Field{
			logging.String("method", c.Request.Method),
			logging.String("route", route),
			logging.Int("status", status),
			logging.Duration("elapsed", elapsed),
			logging.String("request_id", c.GetString("request_id")),
		}
		switch {
		case status >= 500:
			s.log.Error("request", fields...)
		case status >= 400:
			s.log.Warn("request", fields...)
		default:
			s.log.Debug("request", fields...)
		}
	}
}

// --- responses ---

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func writeError(c *gin.Context, status int, err error) {
	c.AbortWithStatusJSON(status, ErrorResponse{
		Code:      http.StatusText(status),
		Message:   err.Error(),
		RequestID: c.GetString("request_id"),
	})
}

// statusFor maps caller contract violations to 400, unknown papers to
// 404 and expired deadlines to 504. Anything else is internal.
func statusFor(err error) int {
	switch {
	case errors.Is(err, types.ErrEmptyQuery),
		errors.Is(err, types.ErrNoBranches),
		errors.Is(err, types.ErrInvalidRecord):
		return http.StatusBadRequest
	case errors.Is(err, types.ErrPaperNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return 499
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(c *gin.Context, op string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.log.Error(op+" failed", logging.Err(err), logging.String("request_id", c.GetString("request_id")))
		writeError(c, status, errors.New("internal server error"))
		return
	}
	writeError(c, status, err)
}

var errUnavailable = errors.New("service not configured")
