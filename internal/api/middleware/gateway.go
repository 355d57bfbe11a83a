package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// GatewayAuth trusts the identity headers stamped by the billing gateway
// (X-User-ID, X-User-Email, X-User-Role). The gateway terminates JWTs and
// enforces plan limits before proxying here, so this mode must only run on
// the private network behind it.
func GatewayAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		userIDHeader := c.GetHeader("X-User-ID")
		if userIDHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing gateway identity headers"})
			c.Abort()
			return
		}

		userID, err := strconv.ParseUint(userIDHeader, 10, 64)
		if err != nil {
			// A present but unparsable ID means a broken or spoofed
			// proxy hop; reject rather than fall through as user 0.
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Malformed X-User-ID header"})
			c.Abort()
			return
		}

		c.Set("user_id", uint(userID))
		c.Set("user_email", c.GetHeader("X-User-Email"))
		c.Set("user_role", c.GetHeader("X-User-Role"))

		c.Next()
	}
}
