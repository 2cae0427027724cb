package utils

import (
	"github.com/gin-gonic/gin"
)

// Context keys set by the auth middleware after token verification. Handlers
// read the bearer identity through these accessors instead of an untyped
// property bag.
const (
	ContextUserIDKey = "auth_user_id"
	ContextRoleKey   = "auth_role"
)

// CurrentUserID returns the authenticated user ID, or "" when the request is
// unauthenticated.
func CurrentUserID(c *gin.Context) string {
	return c.GetString(ContextUserIDKey)
}

// CurrentRole returns the authenticated user's token role.
func CurrentRole(c *gin.Context) string {
	return c.GetString(ContextRoleKey)
}
