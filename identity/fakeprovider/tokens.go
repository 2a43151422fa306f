package fakeprovider

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jrsteele09/go-auth-portal/sessions"
)

const issuer = "fakeprovider"

// mintSession issues a new session for acc with an HS256 access token.
func (p *Provider) mintSession(acc *account) (*sessions.Session, error) {
	now := p.nowTime()
	expiresAt := now.Add(p.sessionTTL)

	claims := jwtlib.MapClaims{
		"iss":   issuer,
		"sub":   acc.ID,
		"email": acc.Email,
		"name":  acc.FullName,
		"iat":   now.Unix(),
		"exp":   expiresAt.Unix(),
		"jti":   uuid.New().String(),
	}
	accessToken, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return nil, fmt.Errorf("[fakeprovider.mintSession] sign access token: %w", err)
	}

	return &sessions.Session{
		ID: uuid.New().String(),
		Identity: sessions.Identity{
			ID:    acc.ID,
			Email: acc.Email,
			Name:  acc.FullName,
		},
		AccessToken:  accessToken,
		RefreshToken: randomToken(32),
		CreatedAt:    now,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseAccessToken verifies an access token minted by this provider and returns its subject.
func (p *Provider) ParseAccessToken(raw string) (string, error) {
	token, err := jwtlib.Parse(raw, func(t *jwtlib.Token) (any, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return p.secret, nil
	}, jwtlib.WithIssuer(issuer), jwtlib.WithTimeFunc(p.nowTime))
	if err != nil {
		return "", fmt.Errorf("[fakeprovider.ParseAccessToken] %w", err)
	}
	return token.Claims.GetSubject()
}

func randomToken(length int) string {
	b := make([]byte, length)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
