// internal/interfaces/http/server.go
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/pharmacy-storefront/internal/config"
	"github.com/your-org/pharmacy-storefront/internal/interfaces/http/middleware"
	"github.com/your-org/pharmacy-storefront/internal/interfaces/http/routes"
)

// HealthCheck reports whether one backing dependency is reachable
type HealthCheck func(ctx context.Context) error

// Options carries everything the API server mounts
type Options struct {
	Handlers      routes.Handlers
	Authenticator middleware.Authenticator
	// RateLimiter is optional; without it requests are not throttled
	RateLimiter middleware.RateLimiter
	Checks      map[string]HealthCheck
}

// Server represents the HTTP server
type Server struct {
	config     *config.Config
	log        logrus.FieldLogger
	gin        *gin.Engine
	httpServer *http.Server
	checks     map[string]HealthCheck
	startedAt  time.Time
}

// NewServer builds the engine with middleware and routes
func NewServer(cfg *config.Config, log logrus.FieldLogger, opts Options) *Server {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		config:    cfg,
		log:       log,
		gin:       routes.NewEngine(),
		checks:    opts.Checks,
		startedAt: time.Now(),
	}

	s.setupMiddleware(opts.RateLimiter)
	s.setupRoutes(opts)

	s.httpServer = &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      s.gin,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	return s
}

// Handler exposes the engine, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.gin
}

// Start blocks serving HTTP until the server is stopped
func (s *Server) Start() error {
	s.log.WithField("port", s.config.Server.Port).Info("HTTP server starting")

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	s.log.Info("shutting down HTTP server")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}
	return nil
}

func (s *Server) setupMiddleware(limiter middleware.RateLimiter) {
	s.gin.Use(gin.Recovery())
	s.gin.Use(middleware.RequestID())
	s.gin.Use(middleware.Logger(s.log))
	s.gin.Use(middleware.CORS(s.config.Security))
	s.gin.Use(middleware.SecurityHeaders(s.config.App.Name))
	if limiter != nil {
		s.gin.Use(middleware.RateLimit(s.config.Security.RateLimitPerMinute, limiter, s.log))
	}
	s.gin.Use(middleware.RequestSizeLimit(10 << 20))
	s.gin.Use(middleware.Timeout(s.config.Server.RequestTimeout))
}

func (s *Server) setupRoutes(opts Options) {
	s.gin.GET("/health", s.healthCheck)
	s.gin.GET("/ready", s.readinessCheck)

	api := s.gin.Group("/api")
	routes.SetupRoutes(api, opts.Handlers, opts.Authenticator)
}

// healthCheck pings every registered dependency
func (s *Server) healthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			s.log.WithError(err).WithField("dependency", name).Warn("health check failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  name + " ping failed",
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":      "healthy",
		"timestamp":   time.Now().UTC(),
		"version":     s.config.App.Version,
		"environment": s.config.App.Environment,
	})
}

func (s *Server) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ready",
		"timestamp": time.Now().UTC(),
		"uptime":    time.Since(s.startedAt).Round(time.Second).String(),
	})
}
