// internal/interfaces/http/handlers/cart.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/pharmacy-storefront/internal/domain/cart"
	"github.com/your-org/pharmacy-storefront/internal/interfaces/http/middleware"
)

// CartHandler handles cart endpoints
type CartHandler struct {
	cartService *cart.Service
}

// NewCartHandler creates a new cart handler
func NewCartHandler(cartService *cart.Service) *CartHandler {
	return &CartHandler{cartService: cartService}
}

// GetCart handles GET /client/cart
func (h *CartHandler) GetCart(c *gin.Context) {
	owner, _ := middleware.GetOwnerFromContext(c)

	cartResponse, err := h.cartService.GetCart(c.Request.Context(), owner)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve cart",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart retrieved successfully",
		"data":    cartResponse,
	})
}

// AddItem handles POST /client/cart/items
func (h *CartHandler) AddItem(c *gin.Context) {
	owner, _ := middleware.GetOwnerFromContext(c)

	var req cart.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	item, err := h.cartService.AddItem(c.Request.Context(), owner, &req)
	if err != nil {
		respondCartError(c, err, "Failed to add item to cart")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Item added to cart successfully",
		"data":    item,
	})
}

// UpdateItem handles PATCH /client/cart/items/:id
func (h *CartHandler) UpdateItem(c *gin.Context) {
	owner, _ := middleware.GetOwnerFromContext(c)

	var req cart.UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	item, err := h.cartService.UpdateItem(c.Request.Context(), owner, c.Param("id"), &req)
	if err != nil {
		respondCartError(c, err, "Failed to update cart item")
		return
	}

	if item == nil {
		c.JSON(http.StatusOK, gin.H{
			"message": "Item removed from cart successfully",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Cart item updated successfully",
		"data":    item,
	})
}

// RemoveItem handles DELETE /client/cart/items/:id
func (h *CartHandler) RemoveItem(c *gin.Context) {
	owner, _ := middleware.GetOwnerFromContext(c)

	if err := h.cartService.RemoveItem(c.Request.Context(), owner, c.Param("id")); err != nil {
		respondCartError(c, err, "Failed to remove cart item")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Item removed from cart successfully",
	})
}

// ClearCart handles POST /client/cart/clear and DELETE /client/cart
func (h *CartHandler) ClearCart(c *gin.Context) {
	owner, _ := middleware.GetOwnerFromContext(c)

	if err := h.cartService.ClearCart(c.Request.Context(), owner); err != nil {
		respondCartError(c, err, "Failed to clear cart")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart cleared successfully",
	})
}

// GetCartCount handles GET /client/cart/count
func (h *CartHandler) GetCartCount(c *gin.Context) {
	owner, _ := middleware.GetOwnerFromContext(c)

	count, err := h.cartService.GetItemCount(c.Request.Context(), owner)
	if err != nil {
		respondCartError(c, err, "Failed to get cart count")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart count retrieved successfully",
		"data": gin.H{
			"count": count,
		},
	})
}

func respondCartError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, cart.ErrItemNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, cart.ErrInvalidProduct),
		errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, cart.ErrInvalidPrice),
		errors.Is(err, cart.ErrNoOwner):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}
