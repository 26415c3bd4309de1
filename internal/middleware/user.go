package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"presence-chat/internal/sanitize"
)

// UserContextKey is the gin context key holding the requester's identity.
const UserContextKey = "user"

// RequireUser extracts the User header, which names the presence acting on
// the request. The value is sanitized like any other client-supplied text.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := sanitize.Strip(c.GetHeader("User"))
		if user == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "missing user header"})
			return
		}

		c.Set(UserContextKey, user)
		c.Next()
	}
}
