package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"auction-house/internal/auth"
	model "auction-house/internal/models"
	"auction-house/utils"

	"github.com/gin-gonic/gin"
)

// RequestLoggerMiddleware logs incoming requests with timing
func RequestLoggerMiddleware(c *gin.Context) {
	start := time.Now()

	c.Next() // process request

	utils.Info("HTTP Request", map[string]any{
		"method":  c.Request.Method,
		"path":    c.Request.URL.Path,
		"status":  c.Writer.Status(),
		"latency": time.Since(start).String(),
	})
}

// AuthRequired verifies the bearer token and threads the authenticated
// identity into the request context.
func AuthRequired(jwter *auth.JWTer) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			utils.JSONError(c, http.StatusUnauthorized, errors.New("no token provided"), "unauthorized")
			c.Abort()
			return
		}

		claims, err := jwter.Verify(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			utils.JSONError(c, http.StatusUnauthorized, err, "invalid token")
			c.Abort()
			return
		}

		c.Set(utils.ContextUserIDKey, claims.UserID)
		c.Set(utils.ContextRoleKey, claims.Role)
		c.Next()
	}
}

// UserGetter is the lookup the admin gate needs.
type UserGetter interface {
	GetUser(userID string) (model.User, error)
}

// AdminRequired gates a route group to admin users. The role is checked
// against the store rather than the token so demotions take effect before
// the token expires.
func AdminRequired(users UserGetter) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, err := users.GetUser(utils.CurrentUserID(c))
		if err != nil || u.Role != model.RoleAdmin {
			utils.JSONError(c, http.StatusForbidden, errors.New("admin access required"), "forbidden")
			c.Abort()
			return
		}
		c.Next()
	}
}
