package oidcprovider

import (
	"time"

	"github.com/jrsteele09/go-auth-portal/internal/utils"
	"golang.org/x/oauth2"
)

// TokenResponse is the RFC 6749 token body. The sign-up endpoint answers with the same shape,
// leaving AccessToken empty while the account awaits email confirmation.
type TokenResponse struct {
	// AccessToken is the bearer token, usually a JWT
	AccessToken *string `json:"access_token,omitempty"`

	// IdToken is present when the openid scope was granted
	IdToken *string `json:"id_token,omitempty"`

	// TokenType is always "bearer"
	TokenType string `json:"token_type,omitempty"`

	// ExpiresIn is the access token lifetime in seconds
	ExpiresIn int `json:"expires_in,omitempty"`

	RefreshToken *string `json:"refresh_token,omitempty"`

	// Scope is the space-separated list actually granted
	Scope string `json:"scope,omitempty"`
}

// HasSession reports whether the response carries tokens
func (tr TokenResponse) HasSession() bool {
	return utils.Value(tr.AccessToken) != ""
}

// oauth2Token converts the response to the form oauth2 hands back from a token exchange
func (tr TokenResponse) oauth2Token(now time.Time) *oauth2.Token {
	tok := &oauth2.Token{
		AccessToken:  utils.Value(tr.AccessToken),
		TokenType:    tr.TokenType,
		RefreshToken: utils.Value(tr.RefreshToken),
	}
	if tr.ExpiresIn > 0 {
		tok.Expiry = now.Add(time.Duration(tr.ExpiresIn) * time.Second)
	}
	if tr.IdToken != nil {
		tok = tok.WithExtra(map[string]any{"id_token": *tr.IdToken})
	}
	return tok
}
