// internal/interfaces/http/handlers/auth.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/pharmacy-storefront/internal/domain/cart"
	"github.com/your-org/pharmacy-storefront/internal/domain/user"
	"github.com/your-org/pharmacy-storefront/internal/interfaces/http/middleware"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	userService *user.Service
	cartService *cart.Service
	log         logrus.FieldLogger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(userService *user.Service, cartService *cart.Service, log logrus.FieldLogger) *AuthHandler {
	return &AuthHandler{userService: userService, cartService: cartService, log: log}
}

// Register handles POST /client/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req user.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	response, err := h.userService.Register(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, user.ErrPhoneTaken) || errors.Is(err, user.ErrEmailTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		if errors.Is(err, user.ErrPasswordMismatch) || errors.Is(err, user.ErrWeakPassword) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Registration failed"})
		return
	}

	h.mergeGuestCart(c, response.User.ID)

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"data":    response,
	})
}

// Login handles POST /client/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req user.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	response, err := h.userService.Login(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, user.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Login failed"})
		return
	}

	h.mergeGuestCart(c, response.User.ID)

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"data":    response,
	})
}

// mergeGuestCart folds the caller's guest cart into the user's. Failures
// are logged; the sign-in itself still succeeds.
func (h *AuthHandler) mergeGuestCart(c *gin.Context, userID uint) {
	guestToken := middleware.GuestToken(c)
	if guestToken == "" {
		return
	}
	if err := h.cartService.MergeGuestCartToUser(c.Request.Context(), userID, guestToken); err != nil {
		h.log.WithError(err).WithField("user_id", userID).Warn("failed to merge guest cart")
	}
}

// Logout handles POST /client/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	claims, _ := middleware.GetClaimsFromContext(c)
	if err := h.userService.Logout(c.Request.Context(), claims); err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Logout failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Logged out successfully",
	})
}

// Me handles GET /client/me
func (h *AuthHandler) Me(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "User not authenticated",
		})
		return
	}

	profile, err := h.userService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Profile retrieved successfully",
		"data":    profile.Profile(),
	})
}
