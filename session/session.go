// Package session holds the dashboard's credentials: the access/refresh token
// pair issued at sign-in and the opaque user record that came with it.
package session

import (
	"encoding/json"
	"errors"

	errs "github.com/jrsteele09/go-partner-dashboard/internal/errors"
)

var (
	ErrSessionNotFound = errs.ErrSessionNotFound
	ErrNoSecret        = errors.New("session secret is required for persistent storage")
)

// Session is the signed-in state. It is created at login, has its access
// token replaced on refresh and is cleared on logout or irrecoverable auth failure.
type Session struct {
	AccessToken  string          `json:"access"`
	RefreshToken string          `json:"refresh"`
	User         json.RawMessage `json:"user,omitempty"`
	RememberMe   bool            `json:"remember_me"`
}

// IsZero reports whether every field is empty
func (s Session) IsZero() bool {
	return s.AccessToken == "" && s.RefreshToken == "" && len(s.User) == 0 && !s.RememberMe
}

// WithAccessToken returns a copy carrying a new access token and the same refresh token
func (s Session) WithAccessToken(accessToken string) Session {
	s.AccessToken = accessToken
	return s
}

// Store is the session-store capability handed to the gateway.
// An empty store returns a zero Session and a nil error from Get.
type Store interface {
	Get() (Session, error)
	Set(session Session) error
	Clear() error
}
