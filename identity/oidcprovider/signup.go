package oidcprovider

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/jrsteele09/go-auth-portal/identity"
	"github.com/jrsteele09/go-auth-portal/internal/errors"
	"github.com/jrsteele09/go-auth-portal/internal/utils"
	"github.com/jrsteele09/go-auth-portal/sessions"
	"github.com/rs/zerolog/log"
)

const maxErrorBody = 64 << 10

// SignUp registers an account at the issuer. The issuer answers with a token body: tokens
// mean the account is live and a session starts, no tokens mean confirmation is pending and
// the returned session is nil.
func (p *Provider) SignUp(ctx context.Context, req identity.SignUpRequest) (*sessions.Session, error) {
	form := url.Values{}
	form.Set("email", req.Email)
	form.Set("password", req.Password)
	form.Set("full_name", req.FullName)
	form.Set("redirect_to", req.RedirectTo)
	form.Set("client_id", p.oauth2Config.ClientID)
	if p.oauth2Config.ClientSecret != "" {
		form.Set("client_secret", p.oauth2Config.ClientSecret)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.issuerURL+PathSignUp, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, errors.Wrapf(err, "[oidcprovider.SignUp] build request")
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, errors.Wrapf(err, "[oidcprovider.SignUp] request")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, signUpError(resp)
	}

	var body TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil && err != io.EOF {
		return nil, errors.Wrapf(err, "[oidcprovider.SignUp] decode response")
	}
	if !body.HasSession() {
		log.Info().Str("email", req.Email).Msg("sign-up pending email confirmation")
		return nil, nil
	}

	session, err := p.sessionFromToken(ctx, body.oauth2Token(p.nowTime()))
	if err != nil {
		return nil, errors.Wrapf(err, "[oidcprovider.SignUp] sessionFromToken")
	}
	if err := p.startSession(session); err != nil {
		return nil, err
	}
	return session, nil
}

// signUpError reads an OAuth2 style error body. A conflict is always a duplicate registration.
func signUpError(resp *http.Response) error {
	pe := &identity.Error{}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err := json.Unmarshal(raw, pe); err != nil {
		pe.Message = strings.TrimSpace(string(raw))
	}
	pe.Status = resp.StatusCode

	if resp.StatusCode == http.StatusConflict || pe.Code == identity.CodeUserAlreadyExists {
		dup := identity.NewAlreadyRegisteredError()
		dup.Status = resp.StatusCode
		return dup
	}
	pe.Message = utils.FirstNonEmpty(pe.Message, pe.Code, http.StatusText(resp.StatusCode))
	return pe
}
