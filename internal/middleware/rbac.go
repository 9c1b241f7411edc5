// Package middleware (rbac.go) implements role-scope authorization.
//
// Scopes gate whole route groups (case work, file work, each audit kind). Access to
// an individual case is decided by its membership record in the services layer.

package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/digital-evidence-archive/dea-backend/internal/auth"
)

// callerScopes returns the scopes AuthMiddleware stored, aborting with 403 when
// they are absent or malformed
func callerScopes(c *gin.Context) ([]string, bool) {
	scopesVal, exists := c.Get(ScopesKey)
	if !exists {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error": "Insufficient permissions",
		})
		return nil, false
	}
	userScopes, ok := scopesVal.([]string)
	if !ok {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error": "Invalid scopes format",
		})
		return nil, false
	}
	return userScopes, true
}

// RequireScope checks the caller's role grants scope
func RequireScope(scope auth.Scope) gin.HandlerFunc {
	return func(c *gin.Context) {
		userScopes, ok := callerScopes(c)
		if !ok {
			return
		}
		if !auth.HasScope(userScopes, scope) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":   "Missing required scope",
				"details": "Required scope: " + string(scope),
			})
			return
		}
		c.Next()
	}
}

// RequireAnyScope checks the caller's role grants at least one of scopes
func RequireAnyScope(scopes ...auth.Scope) gin.HandlerFunc {
	return func(c *gin.Context) {
		userScopes, ok := callerScopes(c)
		if !ok {
			return
		}
		if !auth.HasAnyScope(userScopes, scopes) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Missing required scope",
			})
			return
		}
		c.Next()
	}
}

// RequireAllScopes checks the caller's role grants every one of scopes
func RequireAllScopes(scopes ...auth.Scope) gin.HandlerFunc {
	return func(c *gin.Context) {
		userScopes, ok := callerScopes(c)
		if !ok {
			return
		}
		if !auth.HasAllScopes(userScopes, scopes) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Missing required scopes",
			})
			return
		}
		c.Next()
	}
}
