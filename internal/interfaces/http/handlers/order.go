// internal/interfaces/http/handlers/order.go
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/your-org/pharmacy-storefront/internal/domain/order"
	"github.com/your-org/pharmacy-storefront/internal/interfaces/http/middleware"
	"github.com/your-org/pharmacy-storefront/internal/pkg/pdf"
)

// OrderHandler handles order endpoints
type OrderHandler struct {
	orderService *order.Service
	pdfService   *pdf.Service
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orderService *order.Service, pdfService *pdf.Service) *OrderHandler {
	return &OrderHandler{orderService: orderService, pdfService: pdfService}
}

// CreateOrder handles POST /client/orders
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	owner, _ := middleware.GetOwnerFromContext(c)

	var req order.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	o, err := h.orderService.CreateOrder(c.Request.Context(), owner, &req)
	if err != nil {
		switch {
		case errors.Is(err, order.ErrEmptyOrder),
			errors.Is(err, order.ErrInvalidLine),
			errors.Is(err, order.ErrIncompleteCustomer),
			errors.Is(err, order.ErrUnknownPaymentMethod),
			errors.Is(err, order.ErrBelowMinimum):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		default:
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create order"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Order created successfully",
		"data":    o,
	})
}

// GetOrders handles GET /client/orders
func (h *OrderHandler) GetOrders(c *gin.Context) {
	owner, _ := middleware.GetOwnerFromContext(c)

	orders, err := h.orderService.GetOrders(c.Request.Context(), owner)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve orders"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Orders retrieved successfully",
		"data":    orders,
	})
}

// GetOrder handles GET /client/orders/:id; id is numeric or an order number
func (h *OrderHandler) GetOrder(c *gin.Context) {
	o, ok := h.lookup(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order retrieved successfully",
		"data":    o,
	})
}

// Invoice handles GET /client/orders/:id/invoice
func (h *OrderHandler) Invoice(c *gin.Context) {
	o, ok := h.lookup(c)
	if !ok {
		return
	}

	receipt, err := h.pdfService.GenerateReceipt(o)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to generate invoice",
		})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=receipt-%s.pdf", o.OrderNumber))
	c.Header("Content-Length", strconv.Itoa(len(receipt)))
	c.Data(http.StatusOK, "application/pdf", receipt)
}

func (h *OrderHandler) lookup(c *gin.Context) (*order.Order, bool) {
	owner, _ := middleware.GetOwnerFromContext(c)

	o, err := h.orderService.GetOrder(c.Request.Context(), owner, c.Param("id"))
	if err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		} else {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve order"})
		}
		return nil, false
	}
	return o, true
}
