// Package auth signs partners in against the backend and out again.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/jrsteele09/go-partner-dashboard/gateway"
	"github.com/jrsteele09/go-partner-dashboard/internal/config"
	"github.com/jrsteele09/go-partner-dashboard/internal/utils"
	"github.com/jrsteele09/go-partner-dashboard/session"
	"github.com/jrsteele09/go-partner-dashboard/users"
	"github.com/rs/zerolog/log"
)

// Credentials is what the sign-in form collects
type Credentials struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
	RememberMe bool   `json:"-"`
}

type loginResponse struct {
	Access  string          `json:"access"`
	Refresh string          `json:"refresh"`
	User    json.RawMessage `json:"user"`
}

// LoginService exchanges credentials for a token pair
type LoginService struct {
	loginURL   string
	roleFlag   string
	httpClient *http.Client
}

// NewLoginService creates a login service for the backend in cfg. A nil
// httpClient uses one with the configured API timeout.
func NewLoginService(cfg config.APIConfig, httpClient *http.Client) *LoginService {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.GetAPITimeout()}
	}
	return &LoginService{
		loginURL:   loginURL(cfg),
		roleFlag:   cfg.GetRequiredRoleFlag(),
		httpClient: httpClient,
	}
}

// Login signs in and, when the returned user carries the required role flag,
// writes the new session to store. A user without the flag gets
// ErrAccessDenied and nothing is stored. Backend rejections come back as
// *gateway.APIError.
func (s *LoginService) Login(ctx context.Context, store session.Store, creds Credentials) (session.Session, error) {
	if strings.TrimSpace(creds.Identifier) == "" || creds.Password == "" {
		return session.Session{}, fmt.Errorf("[auth Login] identifier and password are required: %w", ErrInvalidCredentials)
	}

	body, err := json.Marshal(creds)
	if err != nil {
		return session.Session{}, fmt.Errorf("[auth Login] failed to encode credentials: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.loginURL, bytes.NewReader(body))
	if err != nil {
		return session.Session{}, fmt.Errorf("[auth Login] failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := s.httpClient.Do(req)
	if err != nil {
		return session.Session{}, fmt.Errorf("[auth Login] login call failed: %w", err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return session.Session{}, fmt.Errorf("[auth Login] failed to read response: %w", err)
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return session.Session{}, gateway.NewAPIError(res.StatusCode, data)
	}

	var tokens loginResponse
	if err := json.Unmarshal(data, &tokens); err != nil {
		return session.Session{}, fmt.Errorf("[auth Login] failed to decode response: %w", err)
	}
	if tokens.Access == "" || tokens.Refresh == "" {
		return session.Session{}, fmt.Errorf("[auth Login] response is missing the token pair")
	}

	if !HasFlag(tokens.User, s.roleFlag) {
		log.Warn().Str("identifier", creds.Identifier).Str("flag", s.roleFlag).Msg("Sign-in refused, role flag missing")
		return session.Session{}, fmt.Errorf("[auth Login] user lacks %q: %w", s.roleFlag, ErrAccessDenied)
	}

	signedIn := session.Session{
		AccessToken:  tokens.Access,
		RefreshToken: tokens.Refresh,
		User:         tokens.User,
		RememberMe:   creds.RememberMe,
	}
	if err := store.Set(signedIn); err != nil {
		return session.Session{}, fmt.Errorf("[auth Login] failed to store session: %w", err)
	}

	log.Info().Str("identifier", creds.Identifier).Bool("remember_me", creds.RememberMe).Msg("User signed in")
	return signedIn, nil
}

// Logout clears the session and sends the user to sign-in
func Logout(store session.Store, nav gateway.Navigator) error {
	if err := store.Clear(); err != nil {
		return fmt.Errorf("[auth Logout] failed to clear session: %w", err)
	}
	nav.SignIn()
	return nil
}

// HasFlag reports whether the user record has flag set to true. An empty
// flag means no role is required.
func HasFlag(user json.RawMessage, flag string) bool {
	if flag == "" {
		return true
	}
	u, err := users.Parse(user)
	if err != nil {
		return false
	}
	return u.HasFlag(flag)
}

func loginURL(cfg config.APIConfig) string {
	base, err := url.Parse(cfg.GetAPIBaseURL())
	if err != nil {
		return strings.TrimRight(cfg.GetAPIBaseURL(), "/") + cfg.GetLoginPath()
	}
	return utils.JoinURL(base, cfg.GetLoginPath())
}
