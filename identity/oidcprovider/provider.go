// Package oidcprovider is an identity.Provider backed by an OAuth2 / OpenID Connect server.
//
// Sign-in uses the resource owner password grant against the discovered token endpoint.
// Sign-up and revocation go to the issuer's own endpoints. The current session is cached
// client side and dropped once it expires; tokens are never refreshed.
package oidcprovider

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/jrsteele09/go-auth-portal/identity"
	"github.com/jrsteele09/go-auth-portal/internal/errors"
	"github.com/jrsteele09/go-auth-portal/internal/utils"
	"github.com/jrsteele09/go-auth-portal/sessions"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// Issuer endpoints that are not part of discovery
const (
	PathSignUp = "/auth/signup"
	PathRevoke = "/oauth2/revoke"
)

// Config describes the client registration at the issuer.
type Config struct {
	IssuerURL    string
	ClientID     string
	ClientSecret string
	Scopes       []string // Defaults to openid profile email
}

var _ identity.Provider = (*Provider)(nil)

type Provider struct {
	issuerURL    string
	oauth2Config *oauth2.Config
	verifier     *oidc.IDTokenVerifier
	httpClient   *http.Client
	sessions     sessions.Repo
	subs         identity.Subscribers
	nowTime      func() time.Time
}

// ProviderOption defines a function type to modify the Provider instance.
type ProviderOption func(*Provider)

// WithHTTPClient sets the client used for discovery, token, sign-up and revoke requests
func WithHTTPClient(client *http.Client) ProviderOption {
	return func(p *Provider) {
		p.httpClient = client
	}
}

// WithSessionRepo replaces the in-memory session cache
func WithSessionRepo(repo sessions.Repo) ProviderOption {
	return func(p *Provider) {
		p.sessions = repo
	}
}

// WithNowTime overrides the clock used for session expiry and ID token verification
func WithNowTime(nowFunc func() time.Time) ProviderOption {
	return func(p *Provider) {
		p.nowTime = nowFunc
	}
}

// New discovers the issuer's endpoints and keys. ctx bounds discovery only.
func New(ctx context.Context, cfg Config, options ...ProviderOption) (*Provider, error) {
	if cfg.IssuerURL == "" {
		return nil, errors.New("[oidcprovider.New] issuer URL is required")
	}
	if cfg.ClientID == "" {
		return nil, errors.New("[oidcprovider.New] client ID is required")
	}

	p := &Provider{
		issuerURL:  strings.TrimSuffix(cfg.IssuerURL, "/"),
		httpClient: http.DefaultClient,
		sessions:   sessions.NewInMemoryRepo(),
		nowTime:    time.Now,
	}
	for _, opt := range options {
		opt(p)
	}

	oidcProvider, err := oidc.NewProvider(oidc.ClientContext(ctx, p.httpClient), p.issuerURL)
	if err != nil {
		return nil, errors.Wrapf(err, "[oidcprovider.New] failed to create OIDC provider")
	}

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{oidc.ScopeOpenID, "profile", "email"}
	}
	p.oauth2Config = &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     oidcProvider.Endpoint(),
		Scopes:       scopes,
	}
	p.verifier = oidcProvider.Verifier(&oidc.Config{
		ClientID: cfg.ClientID,
		Now:      p.nowTime,
	})

	log.Info().Str("issuer", p.issuerURL).Str("token_endpoint", p.oauth2Config.Endpoint.TokenURL).Msg("OIDC provider discovered")
	return p, nil
}

func (p *Provider) clientContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
}

// GetCurrentSession returns the cached session while it is valid. An expired session is
// dropped and reported as no session.
func (p *Provider) GetCurrentSession(ctx context.Context) (*sessions.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	current, err := p.sessions.Current()
	if errors.Is(err, errors.ErrSessionNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "[oidcprovider.GetCurrentSession] sessions.Current")
	}

	if !current.Valid(p.nowTime()) {
		log.Debug().Str("user_id", current.UserID()).Time("expired_at", current.ExpiresAt).Msg("dropping expired session")
		if err := p.sessions.Clear(); err != nil {
			log.Err(err).Msg("failed to clear expired session")
		}
		return nil, nil
	}
	return &current, nil
}

func (p *Provider) Subscribe(handler identity.ChangeHandler) identity.Unsubscribe {
	return p.subs.Add(handler)
}

// SignIn exchanges the credentials for tokens with the password grant.
func (p *Provider) SignIn(ctx context.Context, email, password string) (*sessions.Session, error) {
	ctx = p.clientContext(ctx)

	tok, err := p.oauth2Config.PasswordCredentialsToken(ctx, email, password)
	if err != nil {
		return nil, p.tokenError(err)
	}

	session, err := p.sessionFromToken(ctx, tok)
	if err != nil {
		return nil, errors.Wrapf(err, "[oidcprovider.SignIn] sessionFromToken")
	}
	if err := p.startSession(session); err != nil {
		return nil, err
	}
	return session, nil
}

// SignOut revokes the cached session's tokens, forgets it and notifies subscribers.
// Revocation is best effort; a provider with no session still emits SIGNED_OUT.
func (p *Provider) SignOut(ctx context.Context) error {
	current, err := p.sessions.Current()
	switch {
	case err == nil:
		if current.RefreshToken != "" {
			p.revoke(ctx, current.RefreshToken, "refresh_token")
		}
		if current.AccessToken != "" {
			p.revoke(ctx, current.AccessToken, "access_token")
		}
	case !errors.Is(err, errors.ErrSessionNotFound):
		return errors.Wrapf(err, "[oidcprovider.SignOut] sessions.Current")
	}

	if err := p.sessions.Clear(); err != nil {
		return errors.Wrapf(err, "[oidcprovider.SignOut] sessions.Clear")
	}
	p.subs.Emit(sessions.EventSignedOut, nil)
	return nil
}

func (p *Provider) startSession(session *sessions.Session) error {
	if err := p.sessions.Put(*session); err != nil {
		return errors.Wrapf(err, "[oidcprovider.startSession] sessions.Put")
	}
	log.Info().Str("user_id", session.UserID()).Time("expires_at", session.ExpiresAt).Msg("session started")
	p.subs.Emit(sessions.EventSignedIn, session)
	return nil
}

// tokenError maps a token endpoint failure onto identity.Error. Errors that never reached the
// endpoint are only wrapped.
func (p *Provider) tokenError(err error) error {
	var re *oauth2.RetrieveError
	if !errors.As(err, &re) {
		return errors.Wrapf(err, "[oidcprovider.SignIn] token request")
	}

	status := 0
	if re.Response != nil {
		status = re.Response.StatusCode
	}
	if re.ErrorCode == "invalid_grant" {
		pe := identity.NewInvalidCredentialsError()
		pe.Status = status
		return pe
	}

	msg := utils.FirstNonEmpty(re.ErrorDescription, re.ErrorCode, http.StatusText(status))
	return &identity.Error{Code: re.ErrorCode, Message: msg, Status: status}
}
