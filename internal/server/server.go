// Package server exposes the prediction pipeline over HTTP.
package server

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ppiankov/wildlens/internal/classify"
	"github.com/ppiankov/wildlens/internal/logging"
	"github.com/ppiankov/wildlens/internal/model"
	"github.com/ppiankov/wildlens/internal/telemetry"
)

const shutdownTimeout = 10 * time.Second

//go:embed static/index.html
var indexHTML []byte

// Service is the part of the pipeline the HTTP layer depends on
type Service interface {
	Predict(ctx context.Context, image []byte) (*model.Prediction, error)
	LookupFacts(ctx context.Context, label string) model.FactsResult
	Classifier() classify.Classifier
}

// Server is the HTTP backend with lifecycle management
type Server struct {
	router  *gin.Engine
	server  *http.Server
	service Service
	metrics *telemetry.Metrics
	log     logging.Logger
	config  model.ServerConfig
}

// NewServer builds the router and applies middleware. metrics may be nil.
// The gin mode is left to the caller.
func NewServer(cfg model.ServerConfig, service Service, log logging.Logger, metrics *telemetry.Metrics) *Server {
	if log == nil {
		log = logging.NewNop()
	}

	router := gin.New()
	router.MaxMultipartMemory = cfg.MaxUploadBytes
	router.Use(RecoveryMiddleware(log))
	router.Use(RequestIDMiddleware(log))
	router.Use(LoggerMiddleware(log))
	if metrics != nil {
		router.Use(MetricsMiddleware(metrics))
	}

	s := &Server{
		router:  router,
		service: service,
		metrics: metrics,
		log:     log,
		config:  cfg,
	}
	s.routes()

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return s
}

func (s *Server) routes() {
	s.router.GET("/", s.handleIndex)
	s.router.POST("/predict", s.handlePredict)
	s.router.GET("/health", s.handleHealth)
	if s.metrics != nil {
		s.router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	v1 := s.router.Group("/api/v1")
	v1.GET("/facts", s.handleFacts)
}

// Router returns the gin engine
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Run serves until ctx is cancelled or SIGINT/SIGTERM arrives, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("Starting HTTP server",
			logging.String("address", s.server.Addr),
			logging.String("classifier", s.service.Classifier().Name()),
		)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server error: %w", err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.log.Info("Shutting down HTTP server", logging.Duration("timeout", shutdownTimeout))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	s.log.Info("HTTP server stopped")
	return nil
}
