package middleware

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
)

var corsHeaders = map[string]string{
	"Access-Control-Allow-Credentials": "true",
	"Access-Control-Allow-Headers":     "Content-Type, Authorization, Stripe-Signature, X-Request-ID",
	"Access-Control-Allow-Methods":     "GET, POST, PUT, PATCH, DELETE, OPTIONS",
	"Access-Control-Expose-Headers":    HeaderRequestID,
}

// CORSMiddleware echoes the Origin only when it is in allowed. "*" allows any origin.
// Preflight requests end here with 204.
func CORSMiddleware(allowed []string) gin.HandlerFunc {
	allowAll := slices.Contains(allowed, "*")
	permitted := func(origin string) bool {
		return origin != "" && (allowAll || slices.Contains(allowed, origin))
	}

	return func(c *gin.Context) {
		if origin := c.GetHeader("Origin"); permitted(origin) {
			h := c.Writer.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Add("Vary", "Origin")
			for k, v := range corsHeaders {
				h.Set(k, v)
			}
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
