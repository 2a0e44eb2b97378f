package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/barber-marketplace/internal/auth"
	"github.com/BruksfildServices01/barber-marketplace/internal/httperr"
	"github.com/BruksfildServices01/barber-marketplace/internal/identity"
	"github.com/BruksfildServices01/barber-marketplace/internal/models"
)

const (
	ContextUserID = "userID"
	ContextCaller = "caller"
)

type UserFinder interface {
	FindUser(ctx context.Context, id uint) (*models.User, error)
}

// AuthMiddleware accepts only access tokens of users that still exist and are active.
func AuthMiddleware(tokens *auth.TokenService, users UserFinder) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			httperr.Unauthorized(c, "missing_authorization_header", "Not authenticated")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			httperr.Unauthorized(c, "invalid_authorization_header", "Not authenticated")
			c.Abort()
			return
		}

		claims, err := tokens.Parse(parts[1], auth.TypeAccess)
		if err != nil {
			httperr.Unauthorized(c, "invalid_token", "Could not validate credentials")
			c.Abort()
			return
		}

		userID, err := claims.UserID()
		if err != nil {
			httperr.Unauthorized(c, "invalid_token_payload", "Could not validate credentials")
			c.Abort()
			return
		}

		user, err := users.FindUser(c.Request.Context(), userID)
		if err != nil || user == nil {
			httperr.Unauthorized(c, "user_not_found", "Could not validate credentials")
			c.Abort()
			return
		}
		if !user.IsActive {
			httperr.BadRequest(c, "inactive_user", "Inactive user")
			c.Abort()
			return
		}

		// Capabilities come from the stored user, not the token claims.
		c.Set(ContextUserID, user.ID)
		c.Set(ContextCaller, identity.Caller{
			UserID:   user.ID,
			Email:    user.Email,
			IsBarber: user.IsBarber,
		})

		c.Next()
	}
}

func CallerFrom(c *gin.Context) (identity.Caller, bool) {
	v, ok := c.Get(ContextCaller)
	if !ok {
		return identity.Caller{}, false
	}
	caller, ok := v.(identity.Caller)
	return caller, ok
}
