package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/barber-marketplace/internal/httperr"
)

// RequireBarber must run after AuthMiddleware.
func RequireBarber() gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := CallerFrom(c)
		if !ok {
			httperr.Unauthorized(c, "not_authenticated", "Not authenticated")
			c.Abort()
			return
		}
		if err := caller.RequireBarber(); err != nil {
			httperr.Forbidden(c, "barber_only", "User is not a barber")
			c.Abort()
			return
		}
		c.Next()
	}
}
