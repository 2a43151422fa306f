package oidctest

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"fmt"
	"math/big"

	"github.com/golang-jwt/jwt/v5"
)

// RS256 is the only algorithm the test issuer signs with
const RS256 = "RS256"

// KeyPair is the issuer's signing key
type KeyPair struct {
	KeyID      string
	PrivateKey *rsa.PrivateKey
}

// JWKS represents a JSON Web Key Set
type JWKS struct {
	Keys []JWK `json:"keys"`
}

// JWK represents a JSON Web Key
type JWK struct {
	Kty string `json:"kty"`           // Key type (RSA)
	Use string `json:"use,omitempty"` // sig
	Kid string `json:"kid,omitempty"` // Key ID
	Alg string `json:"alg,omitempty"` // Algorithm
	N   string `json:"n,omitempty"`   // Modulus
	E   string `json:"e,omitempty"`   // Exponent
}

// GenerateRSAKeyPair generates a 2048 bit RS256 key
func GenerateRSAKeyPair(keyID string) (*KeyPair, error) {
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, fmt.Errorf("failed to generate RSA key: %w", err)
	}
	return &KeyPair{KeyID: keyID, PrivateKey: privateKey}, nil
}

// Sign creates an RS256 token carrying the key ID in its header
func (kp *KeyPair) Sign(claims jwt.MapClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = kp.KeyID

	signed, err := token.SignedString(kp.PrivateKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// JWKS publishes the public half
func (kp *KeyPair) JWKS() JWKS {
	pub := kp.PrivateKey.PublicKey
	return JWKS{Keys: []JWK{{
		Kty: "RSA",
		Use: "sig",
		Kid: kp.KeyID,
		Alg: RS256,
		N:   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
		E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
	}}}
}
