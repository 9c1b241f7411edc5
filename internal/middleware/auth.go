// Package middleware provides Gin HTTP middleware for request identity, authentication,
// scope checks, rate limiting, security headers, metrics and audit recording.
//
// Middleware ordering is enforced in router.go:
//
//	RequestID → Metrics → Logger → Security → Audit → Auth → RateLimit → Scope → Handler
//
// Audit wraps Auth so rejected credentials are recorded as failures too. Case
// membership is not checked here; the services do that per resource.
package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/digital-evidence-archive/dea-backend/internal/auth"
	"github.com/digital-evidence-archive/dea-backend/internal/db/models"
)

// UserResolver maps a verified identity to the archive user, registering it if new
type UserResolver interface {
	Resolve(ctx context.Context, id *auth.Identity) (*models.User, error)
}

// ScopeLookup returns the scopes a role grants
type ScopeLookup func(role string) []string

// AuthMiddleware verifies the bearer token, resolves the archive user and loads the
// role's scopes. Scopes are looked up on every request so role changes apply without
// reissuing tokens.
func AuthMiddleware(verifier auth.TokenVerifier, users UserResolver, scopesFor ScopeLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, msg := bearerToken(c.GetHeader("Authorization"))
		if msg != "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
			return
		}

		id, err := verifier.Verify(c.Request.Context(), token)
		if err != nil {
			if !errors.Is(err, auth.ErrInvalidToken) {
				slog.WarnContext(c.Request.Context(), "token verification failed", "error", err)
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		c.Set(IdentityKey, id)

		user, err := users.Resolve(c.Request.Context(), id)
		if err != nil {
			slog.ErrorContext(c.Request.Context(), "failed to resolve user", "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to load user"})
			return
		}

		scopes := scopesFor(id.Role)
		if scopes == nil {
			scopes = []string{}
		}

		c.Set(UserKey, user)
		c.Set(UserIDKey, user.ULID)
		c.Set(ScopesKey, scopes)
		c.Next()
	}
}

// bearerToken extracts the token from an Authorization header, or returns the
// client-facing reason it could not
func bearerToken(header string) (string, string) {
	if header == "" {
		return "", "Missing authorization header"
	}
	if !strings.HasPrefix(header, "Bearer ") {
		return "", "Authorization header must start with 'Bearer '"
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		return "", "Authorization token is empty"
	}
	return token, ""
}
