// Package storefront serves the per-session storefront endpoints. Every
// handler works on the session resolved by SessionMiddleware.
package storefront

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/pharmacy-storefront/internal/infrastructure/gateway"
	"github.com/your-org/pharmacy-storefront/internal/storefront/item"
	"github.com/your-org/pharmacy-storefront/internal/storefront/session"
)

// Handler handles storefront endpoints
type Handler struct {
	log logrus.FieldLogger
}

// NewHandler creates a new storefront handler
func NewHandler(log logrus.FieldLogger) *Handler {
	return &Handler{log: log}
}

type addRequest struct {
	Product item.Payload `json:"product" binding:"required"`
	Qty     int          `json:"qty"`
}

type qtyRequest struct {
	Qty int `json:"qty"`
}

type wishRequest struct {
	Product item.Payload `json:"product" binding:"required"`
}

type productsQuery struct {
	Page       int    `form:"page"`
	PerPage    int    `form:"per_page"`
	Search     string `form:"q"`
	CategoryID uint   `form:"category_id"`
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "Invalid request data",
		"details": err.Error(),
	})
}

// Bootstrap handles GET /storefront/bootstrap. Partial loads still answer
// 200 with a warning.
func (h *Handler) Bootstrap(c *gin.Context) {
	s := current(c)

	boot, err := s.Bootstrap(c.Request.Context())
	resp := gin.H{"data": boot}
	if err != nil {
		h.log.WithError(err).WithField("session", s.ID()).Warn("bootstrap incomplete")
		resp["warning"] = err.Error()
	}
	c.JSON(http.StatusOK, resp)
}

// Badges handles GET /storefront/badges
func (h *Handler) Badges(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": current(c).Badges(c.Request.Context())})
}

// GetCart handles GET /storefront/cart
func (h *Handler) GetCart(c *gin.Context) {
	var opts session.SummaryOptions
	if err := c.ShouldBindQuery(&opts); err != nil {
		badRequest(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": current(c).CartView(opts)})
}

// AddToCart handles POST /storefront/cart/items
func (h *Handler) AddToCart(c *gin.Context) {
	var req addRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	s := current(c)
	if err := s.AddToCart(c.Request.Context(), req.Product, req.Qty); err != nil {
		respondError(c, err)
		return
	}
	h.cartResponse(c, "Item added to cart")
}

// SetQuantity handles PUT /storefront/cart/items/:id/qty
func (h *Handler) SetQuantity(c *gin.Context) {
	var req qtyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	current(c).SetQuantity(c.Request.Context(), c.Param("id"), req.Qty)
	h.cartResponse(c, "Quantity updated")
}

// ToggleSelect handles POST /storefront/cart/items/:id/select
func (h *Handler) ToggleSelect(c *gin.Context) {
	current(c).Cart().ToggleSelect(c.Request.Context(), c.Param("id"))
	h.cartResponse(c, "Selection updated")
}

// ToggleWish handles POST /storefront/cart/items/:id/wish
func (h *Handler) ToggleWish(c *gin.Context) {
	current(c).Cart().ToggleWish(c.Request.Context(), c.Param("id"))
	h.cartResponse(c, "Wish updated")
}

// RemoveFromCart handles DELETE /storefront/cart/items/:id
func (h *Handler) RemoveFromCart(c *gin.Context) {
	current(c).Cart().Remove(c.Request.Context(), c.Param("id"))
	h.cartResponse(c, "Item removed from cart")
}

// ClearCart handles DELETE /storefront/cart
func (h *Handler) ClearCart(c *gin.Context) {
	current(c).Cart().Clear(c.Request.Context())
	h.cartResponse(c, "Cart cleared")
}

func (h *Handler) cartResponse(c *gin.Context, message string) {
	c.JSON(http.StatusOK, gin.H{
		"message": message,
		"data":    current(c).CartView(session.SummaryOptions{}),
	})
}

// GetWishlist handles GET /storefront/wishlist
func (h *Handler) GetWishlist(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"data": current(c).WishlistView(c.Request.Context(), c.Query("q")),
	})
}

// Wish handles POST /storefront/wishlist
func (h *Handler) Wish(c *gin.Context) {
	var req wishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	h.wishlistResult(c, current(c).Wish(c.Request.Context(), req.Product), "Added to wishlist")
}

// Unwish handles DELETE /storefront/wishlist/:id
func (h *Handler) Unwish(c *gin.Context) {
	h.wishlistResult(c, current(c).Unwish(c.Request.Context(), c.Param("id")), "Removed from wishlist")
}

// Promote handles POST /storefront/wishlist/:id/promote
func (h *Handler) Promote(c *gin.Context) {
	h.wishlistResult(c, current(c).Promote(c.Request.Context(), c.Param("id")), "Moved to cart")
}

// Increment handles POST /storefront/wishlist/:id/increment
func (h *Handler) Increment(c *gin.Context) {
	h.wishlistResult(c, current(c).Increment(c.Request.Context(), c.Param("id")), "Quantity updated")
}

// Decrement handles POST /storefront/wishlist/:id/decrement
func (h *Handler) Decrement(c *gin.Context) {
	current(c).Decrement(c.Request.Context(), c.Param("id"))
	h.wishlistResult(c, nil, "Quantity updated")
}

func (h *Handler) wishlistResult(c *gin.Context, err error, message string) {
	if err != nil {
		respondError(c, err)
		return
	}
	s := current(c)
	c.JSON(http.StatusOK, gin.H{
		"message": message,
		"data": gin.H{
			"items":  s.WishlistView(c.Request.Context(), ""),
			"badges": s.Badges(c.Request.Context()),
		},
	})
}

// GetProducts handles GET /storefront/products
func (h *Handler) GetProducts(c *gin.Context) {
	var q productsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}

	list, err := current(c).Products(c.Request.Context(), gateway.ProductQuery{
		Page:       q.Page,
		PerPage:    q.PerPage,
		Search:     q.Search,
		CategoryID: q.CategoryID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list.Items, "meta": list.Meta})
}

// GetProduct handles GET /storefront/products/:id
func (h *Handler) GetProduct(c *gin.Context) {
	card, err := current(c).Product(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": card})
}

// Checkout handles POST /storefront/checkout
func (h *Handler) Checkout(c *gin.Context) {
	var req session.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	result, err := current(c).Checkout(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Order placed successfully",
		"data":    result,
	})
}

// Invoice handles GET /storefront/orders/:id/invoice
func (h *Handler) Invoice(c *gin.Context) {
	id := c.Param("id")
	receipt, err := current(c).Invoice(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=receipt-%s.pdf", id))
	c.Header("Content-Length", strconv.Itoa(len(receipt)))
	c.Data(http.StatusOK, "application/pdf", receipt)
}

// Login handles POST /storefront/auth/login
func (h *Handler) Login(c *gin.Context) {
	var req gateway.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	u, err := current(c).Login(c.Request.Context(), req)
	h.userResult(c, u, err, http.StatusOK, "Login successful")
}

// Register handles POST /storefront/auth/register
func (h *Handler) Register(c *gin.Context) {
	var req gateway.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	u, err := current(c).Register(c.Request.Context(), req)
	h.userResult(c, u, err, http.StatusCreated, "Registration successful")
}

func (h *Handler) userResult(c *gin.Context, u gateway.User, err error, status int, message string) {
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(status, gin.H{
		"message": message,
		"data": gin.H{
			"user":   u,
			"badges": current(c).Badges(c.Request.Context()),
		},
	})
}

// Logout handles POST /storefront/auth/logout
func (h *Handler) Logout(c *gin.Context) {
	if err := current(c).Logout(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// Me handles GET /storefront/auth/me
func (h *Handler) Me(c *gin.Context) {
	u, err := current(c).Me(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": u})
}

// GetAlerts handles GET /storefront/alerts
func (h *Handler) GetAlerts(c *gin.Context) {
	alerts, err := current(c).Alerts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": alerts})
}

// MarkAlertRead handles POST /storefront/alerts/:id/read
func (h *Handler) MarkAlertRead(c *gin.Context) {
	if err := current(c).MarkAlertRead(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Alert marked as read"})
}

// MarkAllAlertsRead handles POST /storefront/alerts/read-all
func (h *Handler) MarkAllAlertsRead(c *gin.Context) {
	if err := current(c).MarkAllAlertsRead(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "All alerts marked as read"})
}
