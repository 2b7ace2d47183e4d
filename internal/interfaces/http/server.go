// Package http assembles the gin engine and owns the HTTP server lifecycle.
package http

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/openappeals/casework/internal/config"
	"github.com/openappeals/casework/internal/infrastructure/monitoring/logging"
	"github.com/openappeals/casework/internal/infrastructure/monitoring/prometheus"
	"github.com/openappeals/casework/internal/interfaces/http/handlers"
	"github.com/openappeals/casework/internal/interfaces/http/middleware"
)

// RouteRegistrar mounts a handler's routes on the versioned API group.
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Server wraps the gin engine and the underlying http.Server.
type Server struct {
	engine *gin.Engine
	srv    *http.Server
	cfg    config.ServerConfig
	logger logging.Logger
}

// NewServer builds the engine, installs the middleware chain and mounts the
// probe, metrics and API routes.
func NewServer(
	cfg config.ServerConfig,
	log logging.Logger,
	metrics *prometheus.Metrics,
	health *handlers.HealthHandler,
	registrars ...RouteRegistrar,
) *Server {
	gin.SetMode(ginMode(cfg.Mode))
	engine := gin.New()
	engine.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.Logging(log),
		middleware.Metrics(metrics),
	)

	health.RegisterRoutes(engine)
	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(
		metrics.Registry(), promhttp.HandlerOpts{})))

	v1 := engine.Group("/api/v1")
	for _, r := range registrars {
		r.RegisterRoutes(v1)
	}

	return &Server{
		engine: engine,
		srv: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      engine,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		cfg:    cfg,
		logger: log.Named("server"),
	}
}

// Engine exposes the router for tests.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Run serves until the listener fails or Shutdown is called.
func (s *Server) Run() error {
	s.logger.Info("http server listening", logging.String("addr", s.srv.Addr))
	if err := s.srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests within the configured timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.cfg.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
		defer cancel()
	}
	s.logger.Info("http server shutting down")
	return s.srv.Shutdown(ctx)
}

func ginMode(mode string) string {
	switch mode {
	case gin.DebugMode, gin.TestMode:
		return mode
	default:
		return gin.ReleaseMode
	}
}
