package middleware

import (
	"github.com/gin-gonic/gin"
)

// NoAuth maps every request to the anonymous local account. Meant for
// self-hosted installs running without an auth layer; hosted deployments
// always run jwt or gateway mode.
func NoAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", uint(0))
		c.Set("user_email", "local@lyricforge")
		c.Next()
	}
}
