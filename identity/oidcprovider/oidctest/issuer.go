// Package oidctest runs an in-process OpenID Connect issuer for tests. It serves discovery,
// JWKS, a password grant token endpoint, sign-up and token revocation.
package oidctest

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jrsteele09/go-auth-portal/identity/oidcprovider"
	"github.com/jrsteele09/go-auth-portal/internal/utils"
)

const (
	RouteWellKnownOpenIDConfig = "/.well-known/openid-configuration"
	RouteWellKnownJWKS         = "/.well-known/jwks.json"
	RouteOAuth2Token           = "/oauth2/token"

	contentTypeJSON = "application/json; charset=utf-8"
)

// Account is a registered user
type Account struct {
	ID        string
	Email     string
	Password  string
	Name      string
	Confirmed bool
}

// Revocation is one call to the revoke endpoint
type Revocation struct {
	Token         string
	TokenTypeHint string
	ClientID      string
}

// SignUp is one accepted registration
type SignUp struct {
	Email      string
	FullName   string
	RedirectTo string
}

type Issuer struct {
	server       *httptest.Server
	clientID     string
	clientSecret string
	keys         *KeyPair

	lock          sync.Mutex
	accounts      map[string]*Account
	revocations   []Revocation
	signUps       []SignUp
	tokenRequests int

	autoConfirm bool
	omitIDToken bool
	tokenTTL    time.Duration
}

// IssuerOption defines a function type to modify the Issuer instance.
type IssuerOption func(*Issuer)

// WithAutoConfirm makes sign-up return tokens straight away
func WithAutoConfirm() IssuerOption {
	return func(i *Issuer) {
		i.autoConfirm = true
	}
}

// WithoutIDToken leaves id_token out of token responses
func WithoutIDToken() IssuerOption {
	return func(i *Issuer) {
		i.omitIDToken = true
	}
}

// WithTokenTTL sets expires_in and the exp claims
func WithTokenTTL(ttl time.Duration) IssuerOption {
	return func(i *Issuer) {
		i.tokenTTL = ttl
	}
}

// NewIssuer starts serving. Call Close when done.
func NewIssuer(clientID, clientSecret string, options ...IssuerOption) (*Issuer, error) {
	keys, err := GenerateRSAKeyPair(uuid.NewString())
	if err != nil {
		return nil, fmt.Errorf("[oidctest.NewIssuer] %w", err)
	}

	i := &Issuer{
		clientID:     clientID,
		clientSecret: clientSecret,
		keys:         keys,
		accounts:     make(map[string]*Account),
		tokenTTL:     time.Hour,
	}
	for _, opt := range options {
		opt(i)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET "+RouteWellKnownOpenIDConfig, i.wellKnownOpenIDConfig)
	mux.HandleFunc("GET "+RouteWellKnownJWKS, i.jwks)
	mux.HandleFunc("POST "+RouteOAuth2Token, i.token)
	mux.HandleFunc("POST "+oidcprovider.PathSignUp, i.signUp)
	mux.HandleFunc("POST "+oidcprovider.PathRevoke, i.revoke)
	i.server = httptest.NewServer(mux)
	return i, nil
}

// URL is the issuer identifier
func (i *Issuer) URL() string {
	return i.server.URL
}

func (i *Issuer) Close() {
	i.server.Close()
}

// AddAccount registers a confirmed account and returns its subject
func (i *Issuer) AddAccount(email, password, name string) string {
	i.lock.Lock()
	defer i.lock.Unlock()
	acc := i.addAccount(email, password, name, true)
	return acc.ID
}

// Confirm marks an account's email as confirmed
func (i *Issuer) Confirm(email string) bool {
	i.lock.Lock()
	defer i.lock.Unlock()
	acc, ok := i.accounts[strings.ToLower(email)]
	if ok {
		acc.Confirmed = true
	}
	return ok
}

func (i *Issuer) Revocations() []Revocation {
	i.lock.Lock()
	defer i.lock.Unlock()
	return append([]Revocation(nil), i.revocations...)
}

func (i *Issuer) SignUps() []SignUp {
	i.lock.Lock()
	defer i.lock.Unlock()
	return append([]SignUp(nil), i.signUps...)
}

// TokenRequests counts token endpoint hits
func (i *Issuer) TokenRequests() int {
	i.lock.Lock()
	defer i.lock.Unlock()
	return i.tokenRequests
}

// addAccount requires the lock
func (i *Issuer) addAccount(email, password, name string, confirmed bool) *Account {
	acc := &Account{ID: uuid.NewString(), Email: strings.ToLower(email), Password: password, Name: name, Confirmed: confirmed}
	i.accounts[acc.Email] = acc
	return acc
}

func (i *Issuer) wellKnownOpenIDConfig(w http.ResponseWriter, _ *http.Request) {
	baseURL := i.server.URL
	resp := map[string]any{
		"issuer":                                baseURL,
		"authorization_endpoint":                baseURL + "/oauth2/authorize",
		"token_endpoint":                        baseURL + RouteOAuth2Token,
		"jwks_uri":                              baseURL + RouteWellKnownJWKS,
		"revocation_endpoint":                   baseURL + oidcprovider.PathRevoke,
		"response_types_supported":              []string{"code"},
		"subject_types_supported":               []string{"public"},
		"id_token_signing_alg_values_supported": []string{RS256},
		"scopes_supported":                      []string{"openid", "profile", "email"},
		"grant_types_supported":                 []string{"password"},
		"token_endpoint_auth_methods_supported": []string{"client_secret_basic", "client_secret_post"},
	}
	w.Header().Set("Content-Type", contentTypeJSON)
	_ = json.NewEncoder(w).Encode(resp)
}

func (i *Issuer) jwks(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", contentTypeJSON)
	_ = json.NewEncoder(w).Encode(i.keys.JWKS())
}

func (i *Issuer) token(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSONError(w, "invalid_request", "Failed to parse form data", http.StatusBadRequest)
		return
	}
	if !i.clientAuthenticated(r) {
		writeJSONError(w, "invalid_client", "Client authentication failed", http.StatusUnauthorized)
		return
	}
	if r.FormValue("grant_type") != "password" {
		writeJSONError(w, "unsupported_grant_type", "Only the password grant is supported", http.StatusBadRequest)
		return
	}

	i.lock.Lock()
	i.tokenRequests++
	acc, ok := i.accounts[strings.ToLower(r.FormValue("username"))]
	var snapshot Account
	if ok {
		snapshot = *acc
	}
	i.lock.Unlock()

	if !ok || snapshot.Password != r.FormValue("password") {
		writeJSONError(w, "invalid_grant", "Invalid login credentials", http.StatusBadRequest)
		return
	}
	if !snapshot.Confirmed {
		writeJSONError(w, "email_not_confirmed", "Email not confirmed", http.StatusBadRequest)
		return
	}
	i.writeTokens(w, snapshot)
}

func (i *Issuer) signUp(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSONError(w, "invalid_request", "Failed to parse form data", http.StatusBadRequest)
		return
	}
	email := strings.ToLower(strings.TrimSpace(r.FormValue("email")))
	password := r.FormValue("password")
	if email == "" {
		writeJSONError(w, "validation_failed", "Email address is required", http.StatusBadRequest)
		return
	}
	if len(password) < 6 {
		writeJSONError(w, "weak_password", "Password should be at least 6 characters", http.StatusUnprocessableEntity)
		return
	}

	i.lock.Lock()
	if _, exists := i.accounts[email]; exists {
		i.lock.Unlock()
		writeJSONError(w, "user_already_exists", "User already registered", http.StatusConflict)
		return
	}
	acc := *i.addAccount(email, password, r.FormValue("full_name"), i.autoConfirm)
	i.signUps = append(i.signUps, SignUp{Email: email, FullName: acc.Name, RedirectTo: r.FormValue("redirect_to")})
	i.lock.Unlock()

	if !acc.Confirmed {
		w.Header().Set("Content-Type", contentTypeJSON)
		_ = json.NewEncoder(w).Encode(oidcprovider.TokenResponse{})
		return
	}
	i.writeTokens(w, acc)
}

func (i *Issuer) revoke(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSONError(w, "invalid_request", "Failed to parse form data", http.StatusBadRequest)
		return
	}
	token := r.FormValue("token")
	if token == "" {
		writeJSONError(w, "invalid_request", "token parameter is required", http.StatusBadRequest)
		return
	}

	i.lock.Lock()
	i.revocations = append(i.revocations, Revocation{Token: token, TokenTypeHint: r.FormValue("token_type_hint"), ClientID: r.FormValue("client_id")})
	i.lock.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (i *Issuer) clientAuthenticated(r *http.Request) bool {
	id, secret, ok := r.BasicAuth()
	if !ok {
		id, secret = r.FormValue("client_id"), r.FormValue("client_secret")
	}
	return id == i.clientID && secret == i.clientSecret
}

func (i *Issuer) writeTokens(w http.ResponseWriter, acc Account) {
	now := time.Now()
	claims := jwt.MapClaims{
		"iss":   i.server.URL,
		"aud":   i.clientID,
		"sub":   acc.ID,
		"email": acc.Email,
		"name":  acc.Name,
		"iat":   now.Unix(),
		"exp":   now.Add(i.tokenTTL).Unix(),
	}

	accessClaims := jwt.MapClaims{"jti": uuid.NewString()}
	for k, v := range claims {
		accessClaims[k] = v
	}
	accessToken, err := i.keys.Sign(accessClaims)
	if err != nil {
		writeJSONError(w, "server_error", err.Error(), http.StatusInternalServerError)
		return
	}

	resp := oidcprovider.TokenResponse{
		AccessToken:  utils.Ptr(accessToken),
		TokenType:    "bearer",
		ExpiresIn:    int(i.tokenTTL.Seconds()),
		RefreshToken: utils.Ptr(randomToken(24)),
		Scope:        "openid profile email",
	}
	if !i.omitIDToken {
		idToken, err := i.keys.Sign(claims)
		if err != nil {
			writeJSONError(w, "server_error", err.Error(), http.StatusInternalServerError)
			return
		}
		resp.IdToken = utils.Ptr(idToken)
	}

	w.Header().Set("Content-Type", contentTypeJSON)
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	_ = json.NewEncoder(w).Encode(resp)
}

// writeJSONError writes an OAuth2 error response
func writeJSONError(w http.ResponseWriter, errorCode, description string, statusCode int) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":             errorCode,
		"error_description": description,
	})
}

func randomToken(length int) string {
	b := make([]byte, length)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
