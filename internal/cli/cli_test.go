package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bachbot/internal/config"
	"bachbot/internal/publisher"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCommandWithIO(strings.NewReader(stdin), &out, &out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func tempConfig(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "config.json")
}

func TestPreviewPrintsComposedPost(t *testing.T) {
	path := tempConfig(t)
	out, err := execute(t, "", "preview", "--config", path, "--log-file=")
	require.NoError(t, err)

	assert.Contains(t, out, "BWV Number: ")
	assert.Contains(t, out, "YouTube URL: https://www.youtube.com/results?search_query=Bach%20BWV%20")
	assert.Contains(t, out, "🎼 Daily Bach: BWV ")
	assert.FileExists(t, path)
}

func TestRunWithoutCredentialsExitsCleanly(t *testing.T) {
	path := tempConfig(t)
	out, err := execute(t, "", "run", "--config", path, "--log-file=")
	require.NoError(t, err)

	assert.Contains(t, out, "Mastodon credentials not configured")
	assert.Contains(t, out, "Please configure your Mastodon credentials in "+path)
}

func TestRunMalformedConfigFails(t *testing.T) {
	path := tempConfig(t)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := execute(t, "", "run", "--config", path, "--log-file=")
	require.Error(t, err)
	assert.Equal(t, publisher.KindConfig, publisher.KindOf(err))
}

func TestTestConnectionWithoutCredentials(t *testing.T) {
	_, err := execute(t, "", "test-connection", "--config", tempConfig(t), "--log-file=")
	require.Error(t, err)
	assert.True(t, errors.Is(err, publisher.ErrCredentialsIncomplete))
}

func TestConfigPathFromEnvironment(t *testing.T) {
	path := tempConfig(t)
	t.Setenv("BACHBOT_CONFIG", path)

	_, err := execute(t, "", "preview", "--log-file=")
	require.NoError(t, err)
	assert.FileExists(t, path)
}

func TestLogFileReceivesOutput(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "bach_bot.log")

	_, err := execute(t, "", "run", "--config", filepath.Join(dir, "config.json"), "--log-file", logPath)
	require.NoError(t, err)

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Mastodon credentials not configured")
}

func TestScheduleRequiresCronSpec(t *testing.T) {
	_, err := execute(t, "", "schedule", "--config", tempConfig(t), "--log-file=")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no cron spec")
}

func TestScheduleRejectsInvalidSpec(t *testing.T) {
	_, err := execute(t, "", "schedule", "--cron", "not a spec", "--config", tempConfig(t), "--log-file=")
	require.Error(t, err)
}

func TestSetupStoresCredentials(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/apps", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "Bach Bot", r.PostForm.Get("client_name"))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"id": "1", "client_id": "cid", "client_secret": "csecret"})
	})
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "the-code", r.PostForm.Get("code"))
		assert.Equal(t, "cid", r.PostForm.Get("client_id"))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"access_token": "tok", "token_type": "Bearer"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	path := tempConfig(t)
	out, err := execute(t, "the-code\n", "setup", "--instance", srv.URL+"/", "--config", path, "--log-file=")
	require.NoError(t, err)
	assert.Contains(t, out, "Please visit this URL to authorize the application:")
	assert.Contains(t, out, srv.URL+"/oauth/authorize?")
	assert.Contains(t, out, "Configuration saved to "+path)

	cfg, err := config.NewStore(path, nil).Load()
	require.NoError(t, err)
	assert.Equal(t, config.Mastodon{
		InstanceURL:  srv.URL,
		ClientKey:    "cid",
		ClientSecret: "csecret",
		AccessToken:  "tok",
	}, cfg.Mastodon)
	assert.Equal(t, config.DefaultSearchBaseURL, cfg.YouTube.SearchBaseURL)
}

func TestSetupFailsWithoutCode(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/apps", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"client_id":"cid","client_secret":"csecret"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	_, err := execute(t, "", "setup", "--instance", srv.URL, "--config", tempConfig(t), "--log-file=")
	require.Error(t, err)
}

func TestNormalizeInstance(t *testing.T) {
	assert.Equal(t, "https://mastodon.social", normalizeInstance(" mastodon.social/ "))
	assert.Equal(t, "http://localhost:3000", normalizeInstance("http://localhost:3000"))
	assert.Empty(t, normalizeInstance("   "))
}

func TestFailingCommandClosesLogFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	var out bytes.Buffer
	a := newApp(strings.NewReader(""), &out, &out)
	cmd := a.command()
	cmd.SetArgs([]string{"run", "--config", path, "--log-file", filepath.Join(dir, "bach_bot.log")})

	require.Error(t, cmd.ExecuteContext(context.Background()))
	assert.Nil(t, a.logSink)
}

func TestSuccessfulCommandClosesLogFile(t *testing.T) {
	dir := t.TempDir()

	var out bytes.Buffer
	a := newApp(strings.NewReader(""), &out, &out)
	cmd := a.command()
	cmd.SetArgs([]string{"preview", "--config", filepath.Join(dir, "config.json"), "--log-file", filepath.Join(dir, "bach_bot.log")})

	require.NoError(t, cmd.ExecuteContext(context.Background()))
	assert.Nil(t, a.logSink)
}
