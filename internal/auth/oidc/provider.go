// Package oidc implements OpenID Connect authentication against the archive's identity
// provider (an Amazon Cognito user pool in standard deployments). It handles discovery,
// the authorization-code exchange behind the login page, and id token verification for
// every API request.
package oidc

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/digital-evidence-archive/dea-backend/internal/auth"
	"github.com/digital-evidence-archive/dea-backend/internal/config"
)

// TokenSet is what the token endpoint hands back for an authorization code
type TokenSet struct {
	IDToken      string `json:"idToken"`
	AccessToken  string `json:"accessToken,omitempty"`
	RefreshToken string `json:"refreshToken,omitempty"`
	ExpiresIn    int64  `json:"expiresIn"`
}

// OIDCProvider wraps the generic OIDC provider
type OIDCProvider struct {
	verifier      *oidc.IDTokenVerifier
	config        *oauth2.Config
	roleClaim     string
	usernameClaim string
}

// NewOIDCProvider initializes a new OIDC provider, performing discovery against the
// issuer with ctx.
func NewOIDCProvider(ctx context.Context, cfg *config.OIDCConfig) (*OIDCProvider, error) {
	if cfg.IssuerURL == "" {
		return nil, fmt.Errorf("OIDC issuer URL is required")
	}

	if cfg.ClientID == "" {
		return nil, fmt.Errorf("OIDC client ID is required")
	}

	provider, err := oidc.NewProvider(ctx, cfg.IssuerURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create OIDC provider: %w", err)
	}

	return newProvider(provider.Verifier(&oidc.Config{ClientID: cfg.ClientID}), provider.Endpoint(), cfg), nil
}

func newProvider(verifier *oidc.IDTokenVerifier, endpoint oauth2.Endpoint, cfg *config.OIDCConfig) *OIDCProvider {
	return &OIDCProvider{
		verifier: verifier,
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     endpoint,
			Scopes:       cfg.Scopes,
		},
		roleClaim:     cfg.RoleClaim,
		usernameClaim: cfg.UsernameClaim,
	}
}

// GetAuthURL returns the OAuth2 authorization URL
func (p *OIDCProvider) GetAuthURL(state string) string {
	return p.config.AuthCodeURL(state)
}

// ExchangeCode exchanges the authorization code for tokens. redirectURL overrides the
// configured callback when the UI is served from a different origin.
func (p *OIDCProvider) ExchangeCode(ctx context.Context, code, redirectURL string) (*TokenSet, error) {
	var opts []oauth2.AuthCodeOption
	if redirectURL != "" {
		if _, err := url.ParseRequestURI(redirectURL); err != nil {
			return nil, fmt.Errorf("invalid redirect url: %w", err)
		}
		opts = append(opts, oauth2.SetAuthURLParam("redirect_uri", redirectURL))
	}

	token, err := p.config.Exchange(ctx, code, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code for token: %w", err)
	}

	idToken, _ := token.Extra("id_token").(string)
	if idToken == "" {
		return nil, errors.New("token response carried no id_token")
	}
	return &TokenSet{
		IDToken:      idToken,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresIn:    token.ExpiresIn,
	}, nil
}

// Verify checks an id token's signature, issuer, audience and expiry and returns the
// identity it asserts. It implements auth.TokenVerifier.
func (p *OIDCProvider) Verify(ctx context.Context, rawIDToken string) (*auth.Identity, error) {
	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, errors.Join(auth.ErrInvalidToken, err)
	}

	var claims map[string]interface{}
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("failed to parse ID token claims: %w", err)
	}
	return p.identityFromClaims(claims)
}

func stringClaim(claims map[string]interface{}, name string) string {
	if name == "" {
		return ""
	}
	s, _ := claims[name].(string)
	return s
}

func (p *OIDCProvider) identityFromClaims(claims map[string]interface{}) (*auth.Identity, error) {
	id := &auth.Identity{
		TokenID:   stringClaim(claims, "sub"),
		Username:  stringClaim(claims, p.usernameClaim),
		FirstName: stringClaim(claims, "given_name"),
		LastName:  stringClaim(claims, "family_name"),
		Role:      stringClaim(claims, p.roleClaim),
	}
	if id.TokenID == "" {
		return nil, errors.Join(auth.ErrInvalidToken, errors.New("ID token missing 'sub' claim"))
	}
	if id.Username == "" {
		id.Username = stringClaim(claims, "email")
	}
	if id.Username == "" {
		id.Username = id.TokenID
	}
	return id, nil
}
