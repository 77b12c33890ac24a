package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	console "github.com/Reales09/reserve-sub002"
	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backendServer(t *testing.T, changePending bool) *httptest.Server {
	t.Helper()
	var requireChange atomic.Bool
	requireChange.Store(changePending)
	token, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, gojwt.RegisteredClaims{
		Subject:   "7",
		ExpiresAt: gojwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("backend-secret"))
	require.NoError(t, err)

	reply := func(w http.ResponseWriter, status int, data any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]any{"success": status < 300, "message": "", "data": data})
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body struct{ Email, Password string }
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Password != "secret" {
			reply(w, http.StatusUnauthorized, nil)
			return
		}
		reply(w, http.StatusOK, map[string]any{
			"token": token,
			"user":  map[string]any{"id": 7, "name": "Ana", "email": body.Email},
			"businesses": []map[string]any{
				{"id": 1, "name": "Bistro", "code": "bistro"},
				{"id": 2, "name": "Hotel", "code": "hotel"},
			},
			"require_password_change": requireChange.Load(),
		})
	})
	mux.HandleFunc("GET /auth/roles-permissions", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, map[string]any{
			"roles":       []map[string]any{{"code": "manager"}},
			"permissions": []string{"tables:manage"},
		})
	})
	mux.HandleFunc("POST /auth/change-password", func(w http.ResponseWriter, r *http.Request) {
		requireChange.Store(false)
		reply(w, http.StatusOK, nil)
	})
	mux.HandleFunc("POST /auth/business-token", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, map[string]any{"token": "biz-token"})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

type cliEnv struct {
	configPath string
	stateDir   string
}

func newCLIEnv(t *testing.T, requireChange bool) *cliEnv {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := "api:\n  base_url: " + backendServer(t, requireChange).URL + "\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return &cliEnv{configPath: path, stateDir: dir}
}

func (e *cliEnv) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--config", e.configPath, "--state-dir", e.stateDir}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootSubcommands(t *testing.T) {
	root := NewRootCommand()
	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"login", "logout", "whoami", "menu", "business", "change-password"} {
		assert.True(t, names[want], "subcommand %q missing", want)
	}

	var business *cobra.Command
	for _, c := range root.Commands() {
		if c.Name() == "business" {
			business = c
		}
	}
	require.NotNil(t, business)
	var subs []string
	for _, c := range business.Commands() {
		subs = append(subs, c.Name())
	}
	assert.ElementsMatch(t, []string{"list", "switch", "token"}, subs)
}

func TestExplicitMissingConfigFails(t *testing.T) {
	env := &cliEnv{configPath: filepath.Join(t.TempDir(), "absent.yaml"), stateDir: t.TempDir()}
	_, err := env.run(t, "", "whoami")
	require.Error(t, err)
}

func TestAPIURLFlagOverridesConfig(t *testing.T) {
	opts := &options{
		configPath: filepath.Join(t.TempDir(), "config.yaml"),
		stateDir:   t.TempDir(),
		apiURL:     "https://api.example.com",
	}
	require.NoError(t, os.WriteFile(opts.configPath, []byte("api:\n  base_url: https://old.example.com\nlog:\n  level: warn\n"), 0o600))

	cfg, err := opts.loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com", cfg.API.BaseURL)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, console.BackendFile, cfg.Session.Backend)
	assert.Equal(t, filepath.Join(opts.stateDir, "session.age"), cfg.Session.FilePath)
}

func TestLoginSessionPersistsAcrossCommands(t *testing.T) {
	env := newCLIEnv(t, false)
	out, err := env.run(t, "secret\n", "login", "--email", "ana@example.com", "--password-stdin")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in as ana@example.com")

	assert.FileExists(t, filepath.Join(env.stateDir, "session.age"))
	info, err := os.Stat(filepath.Join(env.stateDir, "identity.txt"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	out, err = env.run(t, "", "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "Ana <ana@example.com>")
	assert.Contains(t, out, console.StateAuthenticatedWithPermissions.String())

	out, err = env.run(t, "", "menu")
	require.NoError(t, err)
	assert.Contains(t, out, "tables")
	assert.NotContains(t, out, "users")

	out, err = env.run(t, "", "menu", "--all")
	require.NoError(t, err)
	assert.Regexp(t, `tables\s+Tables\s+/tables\s+yes`, out)
	assert.Regexp(t, `users\s+Users\s+/users\s+no`, out)

	_, err = env.run(t, "", "business", "switch", "2")
	require.NoError(t, err)
	out, err = env.run(t, "", "business", "list")
	require.NoError(t, err)
	assert.Regexp(t, `\*\s+2\s+Hotel`, out)

	out, err = env.run(t, "", "business", "token", "1")
	require.NoError(t, err)
	assert.Equal(t, "biz-token\n", out)

	_, err = env.run(t, "", "business", "switch", "9")
	require.ErrorIs(t, err, console.ErrBusinessMembership)

	out, err = env.run(t, "", "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged out.")

	out, err = env.run(t, "", "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "Not logged in.")
}

func TestLoginRejectedCredentials(t *testing.T) {
	env := newCLIEnv(t, false)
	_, err := env.run(t, "", "login", "--email", "ana@example.com", "--password", "nope")
	require.ErrorIs(t, err, console.ErrAuthentication)

	_, err = env.run(t, "", "login", "--password", "secret")
	require.Error(t, err)
}

func TestChangePasswordFlow(t *testing.T) {
	env := newCLIEnv(t, true)
	out, err := env.run(t, "", "login", "--email", "new@example.com", "--password", "secret")
	require.NoError(t, err)
	assert.Contains(t, out, "Password change required")

	out, err = env.run(t, "", "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, console.StatePasswordChangeRequired.String())

	_, err = env.run(t, "", "change-password", "--current", "secret")
	require.Error(t, err)

	out, err = env.run(t, "", "change-password", "--current", "secret", "--new", "s3cret!")
	require.NoError(t, err)
	assert.Contains(t, out, "Password changed.")

	out, err = env.run(t, "", "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, console.StateAuthenticatedWithPermissions.String())
}

func TestParseBusinessID(t *testing.T) {
	id, err := parseBusinessID(" 12 ")
	require.NoError(t, err)
	assert.Equal(t, int64(12), id)

	_, err = parseBusinessID("twelve")
	assert.Error(t, err)
}
