package mastodon

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
)

// OutOfBandRedirect makes the instance display the authorization code
// instead of redirecting.
const OutOfBandRedirect = "urn:ietf:wg:oauth:2.0:oob"

var DefaultScopes = []string{"read", "write"}

type Application struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	RedirectURI  string `json:"redirect_uri"`
}

// RegisterApp creates an OAuth application on the instance.
func RegisterApp(ctx context.Context, instanceURL, name string, scopes []string) (*Application, error) {
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}
	r := newResty(&http.Client{}, instanceURL, NilLogger)

	var app Application
	resp, err := r.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"client_name":   name,
			"redirect_uris": OutOfBandRedirect,
			"scopes":        strings.Join(scopes, " "),
		}).
		SetResult(&app).
		SetError(&errorBody{}).
		Post("/api/v1/apps")
	if err != nil {
		return nil, fmt.Errorf("failed to register app on %s: %w", instanceURL, err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("register app: %w", apiError(resp))
	}
	if app.ClientID == "" || app.ClientSecret == "" {
		return nil, fmt.Errorf("register app: response is missing client credentials")
	}
	return &app, nil
}

// OAuthConfig describes the authorization-code flow of the instance for
// the given client.
func OAuthConfig(instanceURL, clientID, clientSecret string, scopes []string) *oauth2.Config {
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}
	base := strings.TrimSuffix(instanceURL, "/")
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  OutOfBandRedirect,
		Scopes:       scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   base + "/oauth/authorize",
			TokenURL:  base + "/oauth/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

// ExchangeCode trades the code shown to the user for an access token.
func ExchangeCode(ctx context.Context, cfg *oauth2.Config, code string) (string, error) {
	tok, err := cfg.Exchange(ctx, strings.TrimSpace(code))
	if err != nil {
		return "", fmt.Errorf("exchange authorization code: %w", err)
	}
	return tok.AccessToken, nil
}
