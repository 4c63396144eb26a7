package storefront

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/pharmacy-storefront/internal/config"
	"github.com/your-org/pharmacy-storefront/internal/interfaces/http/middleware"
	"github.com/your-org/pharmacy-storefront/internal/storefront/session"
)

// Server is the storefront HTTP server
type Server struct {
	config     *config.Config
	log        logrus.FieldLogger
	registry   *session.Registry
	gin        *gin.Engine
	httpServer *http.Server
}

// NewServer builds the storefront engine over a session registry
func NewServer(cfg *config.Config, log logrus.FieldLogger, registry *session.Registry) *Server {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		config:   cfg,
		log:      log,
		registry: registry,
		gin:      gin.New(),
	}
	// Product ids may contain "/": route on the escaped path.
	s.gin.UseRawPath = true
	s.gin.UnescapePathValues = true

	s.gin.Use(gin.Recovery())
	s.gin.Use(middleware.RequestID())
	s.gin.Use(middleware.Logger(log))
	s.gin.Use(middleware.SecurityHeaders(cfg.App.Name))
	s.gin.Use(middleware.RequestSizeLimit(1 << 20))
	s.gin.Use(middleware.Timeout(cfg.Server.RequestTimeout))

	s.gin.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now().UTC(),
			"sessions":  registry.Len(),
		})
	})

	sf := s.gin.Group("/storefront")
	sf.Use(SessionMiddleware(registry, cfg.Storefront.SessionCookie, int(cfg.Storefront.SessionTTL.Seconds()), cfg.IsProduction(), log))
	SetupRoutes(sf, NewHandler(log))

	s.httpServer = &http.Server{
		Addr:         ":" + cfg.Server.StorefrontPort,
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
	s.log.WithField("port", s.config.Server.StorefrontPort).Info("storefront server starting")

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start storefront server: %w", err)
	}
	return nil
}

// Stop drains in-flight requests, then closes every cached session
func (s *Server) Stop(ctx context.Context) error {
	s.log.Info("shutting down storefront server")

	err := s.httpServer.Shutdown(ctx)
	s.registry.Purge()
	if err != nil {
		return fmt.Errorf("failed to shutdown storefront server: %w", err)
	}
	return nil
}

// SetupRoutes mounts the storefront endpoints on rg
func SetupRoutes(rg *gin.RouterGroup, h *Handler) {
	rg.GET("/bootstrap", h.Bootstrap)
	rg.GET("/badges", h.Badges)

	cart := rg.Group("/cart")
	{
		cart.GET("", h.GetCart)
		cart.DELETE("", h.ClearCart)
		cart.POST("/items", h.AddToCart)
		cart.PUT("/items/:id/qty", h.SetQuantity)
		cart.POST("/items/:id/select", h.ToggleSelect)
		cart.POST("/items/:id/wish", h.ToggleWish)
		cart.DELETE("/items/:id", h.RemoveFromCart)
	}

	wishes := rg.Group("/wishlist")
	{
		wishes.GET("", h.GetWishlist)
		wishes.POST("", h.Wish)
		wishes.DELETE("/:id", h.Unwish)
		wishes.POST("/:id/promote", h.Promote)
		wishes.POST("/:id/increment", h.Increment)
		wishes.POST("/:id/decrement", h.Decrement)
	}

	rg.GET("/products", h.GetProducts)
	rg.GET("/products/:id", h.GetProduct)

	rg.POST("/checkout", h.Checkout)
	rg.GET("/orders/:id/invoice", h.Invoice)

	auth := rg.Group("/auth")
	{
		auth.POST("/login", h.Login)
		auth.POST("/register", h.Register)
		auth.POST("/logout", h.Logout)
		auth.GET("/me", h.Me)
	}

	alerts := rg.Group("/alerts")
	{
		alerts.GET("", h.GetAlerts)
		alerts.POST("/read-all", h.MarkAllAlertsRead)
		alerts.POST("/:id/read", h.MarkAlertRead)
	}
}
