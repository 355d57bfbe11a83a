package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lyricforge/lyricforge-api/internal/models"
)

// AdminRequired gates the admin API. It must run after JWTAuth, the only
// middleware that loads the full account; the admin surface is never
// exposed in gateway or no-auth mode.
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, exists := GetCurrentUser(c)
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			c.Abort()
			return
		}

		if user.Role != models.RoleAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			c.Abort()
			return
		}

		c.Next()
	}
}
