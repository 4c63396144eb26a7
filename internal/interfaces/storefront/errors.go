package storefront

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/pharmacy-storefront/internal/infrastructure/gateway"
	"github.com/your-org/pharmacy-storefront/internal/storefront/item"
	"github.com/your-org/pharmacy-storefront/internal/storefront/session"
)

// respondError maps session and gateway errors onto JSON error responses.
// API errors keep their status and server message.
func respondError(c *gin.Context, err error) {
	var apiErr *gateway.APIError
	switch {
	case errors.Is(err, session.ErrNotAuthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, session.ErrNotInWishlist):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, item.ErrInvalidProduct),
		errors.Is(err, session.ErrCheckoutNotAllowed),
		errors.Is(err, session.ErrIncompleteCustomer),
		errors.Is(err, session.ErrUnknownPaymentMethod):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.As(err, &apiErr):
		status := apiErr.Status
		if status >= http.StatusInternalServerError {
			status = http.StatusBadGateway
		}
		c.JSON(status, gin.H{"error": apiErr.Message})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Pharmacy API unavailable"})
	}
}
