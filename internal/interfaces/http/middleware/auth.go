// internal/interfaces/http/middleware/auth.go
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/your-org/pharmacy-storefront/internal/domain/cart"
	"github.com/your-org/pharmacy-storefront/internal/pkg/auth"
)

// GuestTokenHeader carries the guest identity of anonymous callers
const GuestTokenHeader = "X-Guest-Token"

const (
	ctxUserID = "user_id"
	ctxClaims = "token_claims"
	ctxOwner  = "cart_owner"
)

// Authenticator validates bearer tokens
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*auth.Claims, error)
}

// AuthMiddleware creates JWT authentication middleware
func AuthMiddleware(a Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authorization header required",
			})
			return
		}

		tokenString := auth.ExtractTokenFromHeader(authHeader)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid authorization header format",
			})
			return
		}

		claims, err := a.Authenticate(c.Request.Context(), tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid or expired token",
			})
			return
		}

		setClaims(c, claims)
		c.Next()
	}
}

// OptionalAuthMiddleware authenticates when a bearer token is sent. A token
// that is sent but invalid is rejected rather than downgraded to a guest.
func OptionalAuthMiddleware(a Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := auth.ExtractTokenFromHeader(c.GetHeader("Authorization"))
		if tokenString == "" {
			c.Next()
			return
		}

		claims, err := a.Authenticate(c.Request.Context(), tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid or expired token",
			})
			return
		}

		setClaims(c, claims)
		c.Next()
	}
}

func setClaims(c *gin.Context, claims *auth.Claims) {
	c.Set(ctxUserID, claims.UserID)
	c.Set(ctxClaims, claims)
}

// RequireOwner resolves whose cart the request addresses: the authenticated
// user, else the guest token header. Requests with neither are rejected.
func RequireOwner() gin.HandlerFunc {
	return func(c *gin.Context) {
		owner := cart.Owner{GuestToken: GuestToken(c)}
		if userID, ok := GetUserIDFromContext(c); ok {
			owner.UserID = userID
		}
		if !owner.Valid() {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error": cart.ErrNoOwner.Error(),
			})
			return
		}
		c.Set(ctxOwner, owner)
		c.Next()
	}
}

// GuestToken returns the trimmed guest token header
func GuestToken(c *gin.Context) string {
	return strings.TrimSpace(c.GetHeader(GuestTokenHeader))
}

// GetUserIDFromContext extracts user ID from gin context
func GetUserIDFromContext(c *gin.Context) (uint, bool) {
	userID, exists := c.Get(ctxUserID)
	if !exists {
		return 0, false
	}
	id, ok := userID.(uint)
	return id, ok
}

// GetClaimsFromContext extracts the validated token claims
func GetClaimsFromContext(c *gin.Context) (*auth.Claims, bool) {
	v, exists := c.Get(ctxClaims)
	if !exists {
		return nil, false
	}
	claims, ok := v.(*auth.Claims)
	return claims, ok
}

// GetOwnerFromContext extracts the cart owner resolved by RequireOwner
func GetOwnerFromContext(c *gin.Context) (cart.Owner, bool) {
	v, exists := c.Get(ctxOwner)
	if !exists {
		return cart.Owner{}, false
	}
	owner, ok := v.(cart.Owner)
	return owner, ok
}
