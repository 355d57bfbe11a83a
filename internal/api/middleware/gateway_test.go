package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGatewayTestRouter(capture *gin.H) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/songs", GatewayAuth(), func(c *gin.Context) {
		if capture != nil {
			userID, _ := c.Get("user_id")
			email, _ := c.Get("user_email")
			role, _ := c.Get("user_role")
			*capture = gin.H{"user_id": userID, "user_email": email, "user_role": role}
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return router
}

func TestGatewayAuthMissingIdentityHeader(t *testing.T) {
	router := newGatewayTestRouter(nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/songs", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGatewayAuthRejectsMalformedUserID(t *testing.T) {
	router := newGatewayTestRouter(nil)

	// A garbage ID must not be treated as the anonymous account.
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/songs", nil)
	req.Header.Set("X-User-ID", "not-a-number")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGatewayAuthSetsIdentityContext(t *testing.T) {
	var captured gin.H
	router := newGatewayTestRouter(&captured)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/songs", nil)
	req.Header.Set("X-User-ID", "42")
	req.Header.Set("X-User-Email", "user@example.com")
	req.Header.Set("X-User-Role", "beta")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, uint(42), captured["user_id"])
	assert.Equal(t, "user@example.com", captured["user_email"])
	assert.Equal(t, "beta", captured["user_role"])
}
