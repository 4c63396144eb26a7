// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/your-org/pharmacy-storefront/internal/interfaces/http/handlers"
	"github.com/your-org/pharmacy-storefront/internal/interfaces/http/middleware"
)

// Handlers bundles every API handler the routes mount
type Handlers struct {
	Auth    *handlers.AuthHandler
	Product *handlers.ProductHandler
	Cart    *handlers.CartHandler
	Order   *handlers.OrderHandler
	Alert   *handlers.AlertHandler
}

// NewEngine returns a bare engine that matches routes on the escaped path,
// so an id such as "a/b" arrives as one %2F-encoded parameter.
func NewEngine() *gin.Engine {
	engine := gin.New()
	engine.UseRawPath = true
	engine.UnescapePathValues = true
	return engine
}

// SetupRoutes mounts the storefront API under rg
func SetupRoutes(rg *gin.RouterGroup, h Handlers, authenticator middleware.Authenticator) {
	SetupCatalogRoutes(rg, h)
	SetupAuthRoutes(rg, h, authenticator)
	SetupCartRoutes(rg, h, authenticator)
	SetupOrderRoutes(rg, h, authenticator)
	SetupAlertRoutes(rg, h, authenticator)
}

// SetupCatalogRoutes sets up public catalog routes
func SetupCatalogRoutes(rg *gin.RouterGroup, h Handlers) {
	rg.GET("/categories", h.Product.GetCategories)

	products := rg.Group("/client/products")
	{
		products.GET("", h.Product.GetProducts)
		products.GET("/:id", h.Product.GetProduct)
	}
}

// SetupAuthRoutes sets up authentication related routes
func SetupAuthRoutes(rg *gin.RouterGroup, h Handlers, authenticator middleware.Authenticator) {
	client := rg.Group("/client")
	{
		client.POST("/register", h.Auth.Register)
		client.POST("/login", h.Auth.Login)

		protected := client.Group("")
		protected.Use(middleware.AuthMiddleware(authenticator))
		{
			protected.POST("/logout", h.Auth.Logout)
			protected.GET("/me", h.Auth.Me)
		}
	}
}

// SetupCartRoutes sets up cart routes for users and guests
func SetupCartRoutes(rg *gin.RouterGroup, h Handlers, authenticator middleware.Authenticator) {
	cart := rg.Group("/client/cart")
	cart.Use(middleware.OptionalAuthMiddleware(authenticator), middleware.RequireOwner())
	{
		cart.GET("", h.Cart.GetCart)
		cart.DELETE("", h.Cart.ClearCart)
		cart.GET("/count", h.Cart.GetCartCount)
		cart.POST("/items", h.Cart.AddItem)
		cart.PATCH("/items/:id", h.Cart.UpdateItem)
		cart.DELETE("/items/:id", h.Cart.RemoveItem)
		cart.POST("/clear", h.Cart.ClearCart)
	}
}

// SetupOrderRoutes sets up order routes for users and guests
func SetupOrderRoutes(rg *gin.RouterGroup, h Handlers, authenticator middleware.Authenticator) {
	orders := rg.Group("/client/orders")
	orders.Use(middleware.OptionalAuthMiddleware(authenticator), middleware.RequireOwner())
	{
		orders.POST("", h.Order.CreateOrder)
		orders.GET("", h.Order.GetOrders)
		orders.GET("/:id", h.Order.GetOrder)
		orders.GET("/:id/invoice", h.Order.Invoice)
	}
}

// SetupAlertRoutes sets up the signed-in notification routes
func SetupAlertRoutes(rg *gin.RouterGroup, h Handlers, authenticator middleware.Authenticator) {
	alerts := rg.Group("/client/alerts")
	alerts.Use(middleware.AuthMiddleware(authenticator))
	{
		alerts.GET("", h.Alert.GetAlerts)
		alerts.POST("/read-all", h.Alert.MarkAllRead)
		alerts.POST("/:id/read", h.Alert.MarkRead)
	}
}
