// Package authn implements the login endpoints: the identity provider's hosted login
// URL, the authorization-code exchange, and a dev-mode token issuer for local runs.
package authn

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/digital-evidence-archive/dea-backend/internal/api/respond"
	"github.com/digital-evidence-archive/dea-backend/internal/apperrors"
	"github.com/digital-evidence-archive/dea-backend/internal/auth"
	"github.com/digital-evidence-archive/dea-backend/internal/auth/oidc"
)

// devTokenTTL bounds dev-mode tokens
const devTokenTTL = 8 * time.Hour

// LoginProvider is the part of the OIDC provider the login flow needs
type LoginProvider interface {
	GetAuthURL(state string) string
	ExchangeCode(ctx context.Context, code, redirectURL string) (*oidc.TokenSet, error)
}

// Handlers serves the authentication endpoints. provider is nil when the server
// verifies locally signed tokens only.
type Handlers struct {
	provider LoginProvider
}

// NewHandlers creates a new Handlers instance
func NewHandlers(provider LoginProvider) *Handlers {
	return &Handlers{provider: provider}
}

// generateState generates a random state string for OAuth
func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func (h *Handlers) requireProvider(c *gin.Context) bool {
	if h.provider == nil {
		respond.Error(c, apperrors.Validation("auth", "OIDC login is not configured"))
		return false
	}
	return true
}

// @Summary      Get login URL
// @Description  Returns the identity provider's hosted login URL and the state value the client must check on return
// @Tags         Authentication
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "loginUrl and state"
// @Failure      400  {object}  map[string]interface{}  "OIDC not configured"
// @Router       /auth/loginUrl [get]
// LoginURLHandler returns the hosted login URL
// GET /auth/loginUrl
func (h *Handlers) LoginURLHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !h.requireProvider(c) {
			return
		}
		state, err := generateState()
		if err != nil {
			respond.Error(c, &apperrors.InternalError{Err: err})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"loginUrl": h.provider.GetAuthURL(state),
			"state":    state,
		})
	}
}

type tokenRequest struct {
	RedirectURI string `json:"redirectUri"`
}

// TokenHandler exchanges an authorization code for identity provider tokens
// POST /auth/:authCode/token
func (h *Handlers) TokenHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !h.requireProvider(c) {
			return
		}
		var req tokenRequest
		// The body is optional
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				respond.BadRequest(c, err)
				return
			}
		}

		tokens, err := h.provider.ExchangeCode(c.Request.Context(), c.Param("authCode"), req.RedirectURI)
		if err != nil {
			slog.WarnContext(c.Request.Context(), "authorization code exchange failed", "error", err)
			respond.Error(c, apperrors.Validation("authCode", "authorization code could not be exchanged"))
			return
		}
		c.JSON(http.StatusOK, tokens)
	}
}

type devTokenRequest struct {
	Username  string `json:"username" binding:"required"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      string `json:"role" binding:"required"`
}

// DevTokenHandler signs a local token for any username and role. Only mounted in dev mode.
// POST /auth/dev/token
func (h *Handlers) DevTokenHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !auth.IsDevMode() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Development endpoints are disabled in production",
			})
			return
		}
		var req devTokenRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.BadRequest(c, err)
			return
		}

		token, err := auth.GenerateJWT(&auth.Identity{
			TokenID:   "dev-" + req.Username,
			Username:  req.Username,
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Role:      req.Role,
		}, devTokenTTL)
		if err != nil {
			respond.Error(c, &apperrors.InternalError{Err: errors.Join(errors.New("sign dev token"), err)})
			return
		}
		c.JSON(http.StatusOK, oidc.TokenSet{IDToken: token, ExpiresIn: int64(devTokenTTL.Seconds())})
	}
}
