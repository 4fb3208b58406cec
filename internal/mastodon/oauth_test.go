package mastodon

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterApp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/apps", r.URL.Path)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "Bach Bot", r.PostForm.Get("client_name"))
		assert.Equal(t, OutOfBandRedirect, r.PostForm.Get("redirect_uris"))
		assert.Equal(t, "read write", r.PostForm.Get("scopes"))
		assert.Empty(t, r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(Application{ID: "7", Name: "Bach Bot", ClientID: "cid", ClientSecret: "csecret"})
	}))
	defer srv.Close()

	app, err := RegisterApp(context.Background(), srv.URL, "Bach Bot", nil)
	require.NoError(t, err)
	assert.Equal(t, "cid", app.ClientID)
	assert.Equal(t, "csecret", app.ClientSecret)
}

func TestRegisterAppMissingCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"7"}`))
	}))
	defer srv.Close()

	_, err := RegisterApp(context.Background(), srv.URL, "Bach Bot", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing client credentials")
}

func TestOAuthConfigAuthURL(t *testing.T) {
	cfg := OAuthConfig("https://mastodon.example/", "cid", "csecret", nil)
	assert.Equal(t, "https://mastodon.example/oauth/token", cfg.Endpoint.TokenURL)

	u, err := url.Parse(cfg.AuthCodeURL(""))
	require.NoError(t, err)
	assert.Equal(t, "/oauth/authorize", u.Path)
	q := u.Query()
	assert.Equal(t, "cid", q.Get("client_id"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, OutOfBandRedirect, q.Get("redirect_uri"))
	assert.Equal(t, "read write", q.Get("scope"))
}

func TestExchangeCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/oauth/token", r.URL.Path)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "authorization_code", r.PostForm.Get("grant_type"))
		assert.Equal(t, "the-code", r.PostForm.Get("code"))
		assert.Equal(t, "cid", r.PostForm.Get("client_id"))
		assert.Equal(t, "csecret", r.PostForm.Get("client_secret"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"fresh-token","token_type":"Bearer","scope":"read write"}`))
	}))
	defer srv.Close()

	cfg := OAuthConfig(srv.URL, "cid", "csecret", nil)
	tok, err := ExchangeCode(context.Background(), cfg, "  the-code\n")
	require.NoError(t, err)
	assert.Equal(t, "fresh-token", tok)
}
