package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func fakeAPI(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login/", func(w http.ResponseWriter, r *http.Request) {
		var creds map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		w.Header().Set("Content-Type", "application/json")
		if creds["password"] != "pw" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"detail":"No active account found with the given credentials"}`)
			return
		}
		_, _ = io.WriteString(w, `{"access":"a1","refresh":"r1","user":{"email":"ada@partner.test","is_partner":true}}`)
	})
	mux.HandleFunc("GET /api/partners/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer a1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"page":"`+r.URL.Query().Get("page")+`"}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := rootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestCommandLineSession(t *testing.T) {
	api := fakeAPI(t)
	t.Setenv("API_BASE_URL", api.URL)
	t.Setenv("SESSION_SECRET", "correct horse battery staple")
	t.Setenv("ENV", "TEST")
	sessionFile := filepath.Join(t.TempDir(), "session")

	_, stderr, err := execute(t, "pw\n", "login", "-u", "ada@partner.test", "--session-file", sessionFile)
	require.NoError(t, err)
	require.Contains(t, stderr, "Signed in as ada@partner.test")

	stdout, _, err := execute(t, "", "fetch", "/api/partners/", "-q", "page=3", "--session-file", sessionFile)
	require.NoError(t, err)
	require.JSONEq(t, `{"page":"3"}`, stdout)

	stdout, _, err = execute(t, "", "whoami", "--session-file", sessionFile)
	require.NoError(t, err)
	require.Contains(t, stdout, "ada@partner.test")

	_, stderr, err = execute(t, "", "logout", "--session-file", sessionFile)
	require.NoError(t, err)
	require.Contains(t, stderr, "dashboard login")

	_, _, err = execute(t, "", "whoami", "--session-file", sessionFile)
	require.EqualError(t, err, "not signed in")
}

func TestLogin_WrongPassword(t *testing.T) {
	api := fakeAPI(t)
	t.Setenv("API_BASE_URL", api.URL)
	t.Setenv("SESSION_SECRET", "s")

	_, _, err := execute(t, "", "login", "-u", "ada@partner.test", "-p", "nope", "--session-file", filepath.Join(t.TempDir(), "session"))
	require.ErrorContains(t, err, "No active account found")
}

func TestLogin_NeedsSecret(t *testing.T) {
	t.Setenv("SESSION_SECRET", "")

	_, _, err := execute(t, "", "login", "-u", "x", "-p", "y", "--session-file", filepath.Join(t.TempDir(), "session"))
	require.ErrorContains(t, err, "SESSION_SECRET")
}

func TestLogin_WithoutRememberDropsStoredSession(t *testing.T) {
	api := fakeAPI(t)
	t.Setenv("API_BASE_URL", api.URL)
	t.Setenv("SESSION_SECRET", "s")
	sessionFile := filepath.Join(t.TempDir(), "session")

	_, _, err := execute(t, "", "login", "-u", "ada@partner.test", "-p", "pw", "--session-file", sessionFile)
	require.NoError(t, err)
	require.FileExists(t, sessionFile)

	_, stderr, err := execute(t, "", "login", "-u", "ada@partner.test", "-p", "pw", "--remember=false", "--session-file", sessionFile)
	require.NoError(t, err)
	require.Contains(t, stderr, "Removed the stored session in "+sessionFile)
	require.NoFileExists(t, sessionFile)

	_, stderr, err = execute(t, "", "login", "-u", "ada@partner.test", "-p", "pw", "--remember=false", "--session-file", sessionFile)
	require.NoError(t, err)
	require.NotContains(t, stderr, "Removed the stored session", "nothing was stored")
}

func TestReadPassword_PipedInput(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })

	_, err = io.WriteString(w, "s3cret\r\n")
	require.NoError(t, err)
	require.NoError(t, w.Close())

	var prompt bytes.Buffer
	password, err := readPassword(r, &prompt)
	require.NoError(t, err)
	require.Equal(t, "s3cret", password)
	require.Equal(t, "Password: ", prompt.String())
}
