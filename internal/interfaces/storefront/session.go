package storefront

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/pharmacy-storefront/internal/storefront/session"
)

const ctxSession = "storefront_session"

// SessionMiddleware resolves the browser session from its cookie, opening a
// new one when the cookie is missing, and refreshes the cookie.
func SessionMiddleware(registry *session.Registry, cookie string, maxAge int, secure bool, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, _ := c.Cookie(cookie)

		s, err := registry.Get(c.Request.Context(), id)
		if err != nil {
			log.WithError(err).WithField("session", id).Error("failed to open session")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to open session",
			})
			return
		}

		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(cookie, s.ID(), maxAge, "/", "", secure, true)
		c.Set(ctxSession, s)
		c.Next()
	}
}

func current(c *gin.Context) *session.Session {
	s, _ := c.MustGet(ctxSession).(*session.Session)
	return s
}
