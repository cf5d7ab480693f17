package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// APIKeyContextKey is where APIKey stores the caller's token.
const APIKeyContextKey = "apikey"

// APIKey extracts the caller's apikey without resolving it. Priority:
// 1) Authorization: Bearer <apikey>
// 2) X-API-Key header
// 3) apikey query parameter
// Resolution and authorization belong to the services, so a missing key is not
// rejected here; read paths accept anonymous callers.
func APIKey() gin.HandlerFunc {
	return func(c *gin.Context) {
		if key := bearer(c.GetHeader("Authorization")); key != "" {
			c.Set(APIKeyContextKey, key)
		} else if key := strings.TrimSpace(c.GetHeader("X-API-Key")); key != "" {
			c.Set(APIKeyContextKey, key)
		} else if key := strings.TrimSpace(c.Query("apikey")); key != "" {
			c.Set(APIKeyContextKey, key)
		}
		c.Next()
	}
}

func bearer(h string) string {
	h = strings.TrimSpace(h)
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}

// APIKeyFrom returns the token stored by APIKey, or fallback when none was sent.
func APIKeyFrom(c *gin.Context, fallback string) string {
	if key := c.GetString(APIKeyContextKey); key != "" {
		return key
	}
	return strings.TrimSpace(fallback)
}
