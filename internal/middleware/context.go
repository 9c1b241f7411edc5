package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/digital-evidence-archive/dea-backend/internal/auth"
	"github.com/digital-evidence-archive/dea-backend/internal/db/models"
)

// gin.Context keys set by AuthMiddleware
const (
	UserKey     = "user"
	UserIDKey   = "user_id"
	ScopesKey   = "scopes"
	IdentityKey = "identity"
)

// CurrentUser returns the authenticated archive user, or nil
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(UserKey)
	if !ok {
		return nil
	}
	u, _ := v.(*models.User)
	return u
}

// CurrentScopes returns the scopes granted to the caller's role
func CurrentScopes(c *gin.Context) []string {
	v, ok := c.Get(ScopesKey)
	if !ok {
		return nil
	}
	scopes, _ := v.([]string)
	return scopes
}

// CurrentIdentity returns the verified token identity, or nil
func CurrentIdentity(c *gin.Context) *auth.Identity {
	v, ok := c.Get(IdentityKey)
	if !ok {
		return nil
	}
	id, _ := v.(*auth.Identity)
	return id
}
