package auth_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jrsteele09/go-partner-dashboard/auth"
	"github.com/jrsteele09/go-partner-dashboard/gateway"
	"github.com/jrsteele09/go-partner-dashboard/internal/config"
	"github.com/jrsteele09/go-partner-dashboard/session"
	"github.com/stretchr/testify/require"
)

const (
	partnerIdentifier = "partner@acme.test"
	partnerPassword   = "s3cret-Passw0rd"
)

type loginFixture struct {
	service *auth.LoginService
	store   *session.MemoryStore
	calls   int
	got     map[string]string
}

// setupLoginFixture serves the login endpoint with the given user record
func setupLoginFixture(t *testing.T, user string) *loginFixture {
	t.Helper()

	f := &loginFixture{store: session.NewMemoryStore()}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/auth/login/", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		f.calls++

		f.got = map[string]string{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&f.got))

		w.Header().Set("Content-Type", "application/json")
		if f.got["identifier"] != partnerIdentifier || f.got["password"] != partnerPassword {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"detail":"No active account found with the given credentials"}`)
			return
		}
		_, _ = io.WriteString(w, `{"access":"access-1","refresh":"refresh-1","user":`+user+`}`)
	}))
	t.Cleanup(srv.Close)

	t.Setenv("API_BASE_URL", srv.URL)
	t.Setenv("REQUIRED_ROLE_FLAG", "")
	f.service = auth.NewLoginService(config.New(), nil)
	return f
}

// navRecorder counts sign-in navigations
type navRecorder struct{ signIns int }

func (n *navRecorder) SignIn() { n.signIns++ }

func TestLogin_Success(t *testing.T) {
	f := setupLoginFixture(t, `{"id":1,"is_partner":true}`)

	s, err := f.service.Login(context.Background(), f.store, auth.Credentials{
		Identifier: partnerIdentifier,
		Password:   partnerPassword,
		RememberMe: true,
	})
	require.NoError(t, err)
	require.Equal(t, "access-1", s.AccessToken)
	require.Equal(t, map[string]string{"identifier": partnerIdentifier, "password": partnerPassword}, f.got)

	stored, err := f.store.Get()
	require.NoError(t, err)
	require.Equal(t, s, stored)
	require.True(t, stored.RememberMe)
}

func TestLogin_MissingRoleFlag(t *testing.T) {
	for name, user := range map[string]string{
		"flag false":   `{"id":1,"is_partner":false}`,
		"flag absent":  `{"id":1}`,
		"flag string":  `{"id":1,"is_partner":"true"}`,
		"user missing": `null`,
	} {
		t.Run(name, func(t *testing.T) {
			f := setupLoginFixture(t, user)
			nav := &navRecorder{}

			_, err := f.service.Login(context.Background(), f.store, auth.Credentials{
				Identifier: partnerIdentifier,
				Password:   partnerPassword,
			})
			require.ErrorIs(t, err, auth.ErrAccessDenied)

			stored, err := f.store.Get()
			require.NoError(t, err)
			require.True(t, stored.IsZero(), "session must never be persisted")
			require.Zero(t, nav.signIns, "no navigation on a denied sign-in")
		})
	}
}

func TestLogin_CustomRoleFlag(t *testing.T) {
	f := setupLoginFixture(t, `{"id":1,"is_staff":true}`)
	t.Setenv("REQUIRED_ROLE_FLAG", "is_staff")
	service := auth.NewLoginService(config.New(), nil)

	_, err := service.Login(context.Background(), f.store, auth.Credentials{Identifier: partnerIdentifier, Password: partnerPassword})
	require.NoError(t, err)
}

func TestLogin_BaseURLPathPrefix(t *testing.T) {
	var calls []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/backend/api/auth/login/":
			_, _ = io.WriteString(w, `{"access":"access-1","refresh":"refresh-1","user":{"is_partner":true}}`)
		case "/backend/api/auth/token/refresh/":
			_, _ = io.WriteString(w, `{"access":"access-2"}`)
		case "/backend/api/partners/":
			if r.Header.Get("Authorization") != "Bearer access-2" {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = io.WriteString(w, `{"code":"token_not_valid"}`)
				return
			}
			_, _ = io.WriteString(w, `{"count":0,"results":[]}`)
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"detail":"Not found."}`)
		}
	}))
	t.Cleanup(srv.Close)
	t.Setenv("API_BASE_URL", srv.URL+"/backend")
	t.Setenv("REQUIRED_ROLE_FLAG", "")
	t.Setenv("REFRESH_COALESCING", "")

	cfg := config.New()
	store := session.NewMemoryStore()
	_, err := auth.NewLoginService(cfg, nil).Login(context.Background(), store, auth.Credentials{
		Identifier: partnerIdentifier,
		Password:   partnerPassword,
	})
	require.NoError(t, err)

	nav := &navRecorder{}
	client, err := gateway.New(cfg, gateway.WithStore(store), gateway.WithNavigator(nav))
	require.NoError(t, err)
	_, err = client.Get(context.Background(), "/api/partners/", nil)
	require.NoError(t, err)

	require.Equal(t, []string{
		"POST /backend/api/auth/login/",
		"GET /backend/api/partners/",
		"POST /backend/api/auth/token/refresh/",
		"GET /backend/api/partners/",
	}, calls)
	require.Zero(t, nav.signIns, "the session survives the refresh")
}

func TestLogin_BadCredentials(t *testing.T) {
	f := setupLoginFixture(t, `{"is_partner":true}`)

	_, err := f.service.Login(context.Background(), f.store, auth.Credentials{
		Identifier: partnerIdentifier,
		Password:   "wrong",
	})
	var apiErr *gateway.APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	require.Equal(t, "No active account found with the given credentials", apiErr.Message)

	stored, _ := f.store.Get()
	require.True(t, stored.IsZero())
}

func TestLogin_EmptyCredentials(t *testing.T) {
	f := setupLoginFixture(t, `{"is_partner":true}`)

	_, err := f.service.Login(context.Background(), f.store, auth.Credentials{Identifier: " ", Password: "x"})
	require.ErrorIs(t, err, auth.ErrInvalidCredentials)
	require.Zero(t, f.calls, "nothing is sent without credentials")
}

func TestLogout(t *testing.T) {
	store := session.NewMemoryStore(session.Session{AccessToken: "a", RefreshToken: "r", RememberMe: true})
	nav := &navRecorder{}

	require.NoError(t, auth.Logout(store, nav))
	s, err := store.Get()
	require.NoError(t, err)
	require.True(t, s.IsZero())
	require.Equal(t, 1, nav.signIns)
}

func TestHasFlag(t *testing.T) {
	require.True(t, auth.HasFlag(json.RawMessage(`{"is_partner":true}`), "is_partner"))
	require.False(t, auth.HasFlag(json.RawMessage(`{"is_partner":1}`), "is_partner"))
	require.False(t, auth.HasFlag(json.RawMessage(`not json`), "is_partner"))
	require.True(t, auth.HasFlag(nil, ""), "no flag configured lets everyone in")
}
