package oidcprovider

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jrsteele09/go-auth-portal/sessions"
	"golang.org/x/oauth2"
)

// accessClaims are the identity claims read from an access token when no ID token came back
type accessClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Name  string `json:"name"`
}

// tokenIdentity is what a token exchange says about the principal
type tokenIdentity struct {
	identity   sessions.Identity
	rawIDToken string
	expiry     time.Time
}

// sessionFromToken builds a session from a token exchange result.
func (p *Provider) sessionFromToken(ctx context.Context, tok *oauth2.Token) (*sessions.Session, error) {
	ti, err := p.identityFromToken(ctx, tok)
	if err != nil {
		return nil, err
	}

	return &sessions.Session{
		ID:           uuid.NewString(),
		Identity:     ti.identity,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		IDToken:      ti.rawIDToken,
		CreatedAt:    p.nowTime(),
		ExpiresAt:    ti.expiry,
	}, nil
}

// identityFromToken reads the principal from the verified ID token, or failing that from the
// access token claims. The access token signature is not checked.
func (p *Provider) identityFromToken(ctx context.Context, tok *oauth2.Token) (tokenIdentity, error) {
	ti := tokenIdentity{expiry: tok.Expiry}

	if rawIDToken, ok := tok.Extra("id_token").(string); ok && rawIDToken != "" {
		idToken, err := p.verifier.Verify(ctx, rawIDToken)
		if err != nil {
			return ti, fmt.Errorf("[oidcprovider.identityFromToken] ID token verification failed: %w", err)
		}

		var claims struct {
			Sub   string `json:"sub"`
			Email string `json:"email"`
			Name  string `json:"name"`
		}
		if err := idToken.Claims(&claims); err != nil {
			return ti, fmt.Errorf("[oidcprovider.identityFromToken] failed to extract claims: %w", err)
		}
		ti.identity = sessions.Identity{ID: claims.Sub, Email: claims.Email, Name: claims.Name}
		ti.rawIDToken = rawIDToken
		return ti, nil
	}

	claims := &accessClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tok.AccessToken, claims); err != nil {
		return ti, fmt.Errorf("[oidcprovider.identityFromToken] no ID token and access token is not a JWT: %w", err)
	}
	if claims.Subject == "" {
		return ti, fmt.Errorf("[oidcprovider.identityFromToken] access token has no subject")
	}
	if ti.expiry.IsZero() && claims.ExpiresAt != nil {
		ti.expiry = claims.ExpiresAt.Time
	}
	ti.identity = sessions.Identity{ID: claims.Subject, Email: claims.Email, Name: claims.Name}
	return ti, nil
}
