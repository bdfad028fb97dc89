// Package zoho drives the OAuth2 authorization-code flow against the
// configured Zoho data-center region.
package zoho

import (
	"fmt"
	"time"

	"github.com/jkatariy/infinity-leadsync/internal/config"
	"golang.org/x/oauth2"
)

// OAuthConfig builds the oauth2 config for the configured region. Zoho wants
// client credentials in the form body, not basic auth.
func OAuthConfig(cfg *config.Config) *oauth2.Config {
	accounts := cfg.Zoho.Endpoints.AccountsBase
	return &oauth2.Config{
		ClientID:     cfg.Zoho.ClientID,
		ClientSecret: cfg.Zoho.ClientSecret,
		RedirectURL:  cfg.Zoho.RedirectURL,
		Scopes:       cfg.Zoho.Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   accounts + "/oauth/v2/auth",
			TokenURL:  accounts + "/oauth/v2/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

// TokenSink receives tokens captured by the OAuth flow. Satisfied by the
// token store; kept narrow so the callback is testable without a database.
type TokenSink interface {
	SetAccessToken(token string, expiresIn time.Duration) error
	SetRefreshToken(token string) error
}

// ExchangeError is a code or refresh exchange the remote rejected.
type ExchangeError struct {
	Grant string // "authorization_code" or "refresh_token"
	Err   error
}

func (e *ExchangeError) Error() string {
	return fmt.Sprintf("oauth %s exchange failed: %v", e.Grant, e.Err)
}

func (e *ExchangeError) Unwrap() error { return e.Err }
