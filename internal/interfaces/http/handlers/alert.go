package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/your-org/pharmacy-storefront/internal/domain/alert"
	"github.com/your-org/pharmacy-storefront/internal/interfaces/http/middleware"
)

// AlertHandler serves the notification bell
type AlertHandler struct {
	alertService *alert.Service
}

func NewAlertHandler(alertService *alert.Service) *AlertHandler {
	return &AlertHandler{alertService: alertService}
}

// GetAlerts handles GET /client/alerts
func (h *AlertHandler) GetAlerts(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)

	alerts, err := h.alertService.List(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve alerts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Alerts retrieved successfully",
		"data":    alerts,
	})
}

// MarkRead handles POST /client/alerts/:id/read
func (h *AlertHandler) MarkRead(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid alert ID"})
		return
	}

	if err := h.alertService.MarkRead(c.Request.Context(), userID, uint(id)); err != nil {
		if errors.Is(err, alert.ErrAlertNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update alert"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Alert marked as read"})
}

// MarkAllRead handles POST /client/alerts/read-all
func (h *AlertHandler) MarkAllRead(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)

	if err := h.alertService.MarkAllRead(c.Request.Context(), userID); err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update alerts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "All alerts marked as read"})
}
