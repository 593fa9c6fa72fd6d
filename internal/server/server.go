// Package server exposes link verification to the calling agent graph over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ppiankov/linkvet/internal/logging"
	"github.com/ppiankov/linkvet/internal/model"
)

const shutdownTimeout = 15 * time.Second

// Server is the linkvet HTTP node
type Server struct {
	server *http.Server
	logger logging.Logger
}

// New creates a Server with the standard middleware and the node's routes
func New(cfg model.ServerConfig, verifier Verifier, log logging.Logger) *Server {
	if log == nil {
		log = logging.NewNop()
	}

	router := NewRouter(verifier, NewMetrics(), log, cfg.RequestTimeout)

	return &Server{
		server: &http.Server{
			Addr:         cfg.Addr,
			Handler:      router,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		logger: log,
	}
}

// NewRouter builds the gin engine; split out so handlers can be tested without a listener
func NewRouter(verifier Verifier, metrics *Metrics, log logging.Logger, requestTimeout time.Duration) *gin.Engine {
	router := gin.New()

	// Recovery runs inside RunID so panics are logged with the run id
	router.Use(RunIDMiddleware(log))
	router.Use(RecoveryMiddleware(log))
	router.Use(LoggerMiddleware(log))

	NewHandler(verifier, metrics, log, requestTimeout).Register(router)

	return router
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", logging.String("address", s.server.Addr))
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server error: %w", err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down HTTP server")
	}

	// The serving context is already done; shutdown needs its own deadline
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	s.logger.Info("HTTP server stopped gracefully")
	return nil
}
