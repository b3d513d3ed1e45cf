package ui

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"rmvc/app"
	"rmvc/domain/core"
	"rmvc/domain/dataset"
	"rmvc/domain/run"
	apperrors "rmvc/internal/errors"
	"rmvc/ui/middleware"
)

// Options configure the API server
type Options struct {
	Orientation      dataset.Orientation
	MinCriterionSize int
	Precision        int
	Sheet            string
	AcceptMarkers    bool
	MalformedWarnAt  float64
	HistoryLimit     int
	MaxUploadBytes   int64
}

// Server exposes the analysis pipeline and the session history over HTTP
type Server struct {
	router  *gin.Engine
	service *app.AnalysisService
	options Options
	logger  *slog.Logger

	// history is append-only; issues and dropped keys are kept per run
	mu      sync.RWMutex
	history *run.History
	issues  map[core.RunID][]dataset.CellIssue
	dropped map[core.RunID][]string
}

// NewServer creates a new API server instance
func NewServer(service *app.AnalysisService, options Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		router:  gin.New(),
		service: service,
		options: options,
		logger:  logger,
		history: run.NewHistory(options.HistoryLimit),
		issues:  make(map[core.RunID][]dataset.CellIssue),
		dropped: make(map[core.RunID][]string),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures Gin middleware
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(middleware.RequestLogger(s.logger))
	if s.options.MaxUploadBytes > 0 {
		s.router.Use(middleware.LimitBody(s.options.MaxUploadBytes))
	}
}

// setupRoutes configures the application routes
func (s *Server) setupRoutes() {
	s.router.GET("/healthz", s.handleHealth)

	api := s.router.Group("/api")
	api.GET("/example", s.handleExample)
	api.POST("/analyses", s.handleCreateAnalysis)
	api.GET("/analyses", s.handleListAnalyses)
	api.GET("/analyses/:id", s.handleGetAnalysis)
	api.POST("/analyses/:id/iterate", s.handleIterate)
	api.GET("/analyses/:id/matrix.csv", s.handleMatrixCSV)
	api.GET("/analyses/:id/candidates/:candidate", s.handleCandidate)
	api.GET("/analyses/:id/ranking.csv", s.handleRankingCSV)
	api.GET("/analyses/:id/criteria.csv", s.handleCriteriaCSV)
	api.GET("/analyses/:id/workbook.xlsx", s.handleWorkbook)
	api.GET("/analyses/:id/report", s.handleReport)

	s.router.NoRoute(func(c *gin.Context) {
		s.respondError(c, apperrors.NotFound("route "+c.Request.URL.Path))
	})
}

// Handler returns the router, for tests and custom listeners.
func (s *Server) Handler() http.Handler { return s.router }

// Start serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{Addr: addr, Handler: s.router, ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting RMVC API", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down RMVC API")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) record(id string) (*run.Record, []dataset.CellIssue, []string, error) {
	runID, err := core.ParseRunID(id)
	if err != nil {
		return nil, nil, nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, err := s.history.Get(runID)
	if err != nil {
		return nil, nil, nil, err
	}
	return rec, s.issues[runID], s.dropped[runID], nil
}

func (s *Server) append(rec *run.Record, issues []dataset.CellIssue, dropped []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.history.Append(rec); err != nil {
		return err
	}
	if len(issues) > 0 {
		s.issues[rec.ID] = issues
	}
	if len(dropped) > 0 {
		s.dropped[rec.ID] = dropped
	}
	return nil
}
