package oidcprovider

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"
)

// revoke asks the issuer to revoke token (RFC 7009). Failures are logged only.
func (p *Provider) revoke(ctx context.Context, token, tokenTypeHint string) {
	form := url.Values{}
	form.Set("token", token)
	form.Set("token_type_hint", tokenTypeHint)
	form.Set("client_id", p.oauth2Config.ClientID)
	form.Set("client_secret", p.oauth2Config.ClientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.issuerURL+PathRevoke, strings.NewReader(form.Encode()))
	if err != nil {
		log.Err(err).Str("token_type", tokenTypeHint).Msg("Failed to build revoke request")
		return
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		log.Err(err).Str("token_type", tokenTypeHint).Msg("Failed to revoke token")
		return
	}
	resp.Body.Close()

	if resp.StatusCode >= 300 {
		log.Warn().Int("status", resp.StatusCode).Str("token_type", tokenTypeHint).Msg("Token revocation rejected")
	}
}
