package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/jrsteele09/go-partner-dashboard/session"
	"github.com/rs/zerolog/log"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeySessionID stores the ID of the live server-side session
	ContextKeySessionID ContextKey = "session_id"
	// ContextKeySession stores the session entry found by RequireSession
	ContextKeySession ContextKey = "session"
)

// RequireSession guards dashboard routes. Requests without a session cookie,
// or whose cookie names no live session holding an access token, are sent to
// the sign-in page.
func (s *Server) RequireSession() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(s.config.GetSessionCookieName())
			if err != nil || cookie.Value == "" {
				redirectSuccess(w, r, RouteSignIn)
				return
			}

			entry, err := s.sessions.Get(cookie.Value)
			if err != nil {
				if !errors.Is(err, session.ErrSessionNotFound) {
					log.Err(err).Msg("Failed to read session")
				}
				s.ClearSessionCookie(w, r)
				redirectSuccess(w, r, RouteSignIn)
				return
			}

			if entry.Expired(session.NowTimeFunc()) || entry.Session.AccessToken == "" {
				_ = s.sessions.Delete(cookie.Value)
				s.ClearSessionCookie(w, r)
				redirectWithError(w, r, RouteSignIn, "Session expired")
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeySessionID, cookie.Value)
			ctx = context.WithValue(ctx, ContextKeySession, entry)
			next(w, r.WithContext(ctx))
		}
	}
}

// sessionFromContext returns what RequireSession stored on the request
func sessionFromContext(ctx context.Context) (string, session.Entry, bool) {
	id, ok := ctx.Value(ContextKeySessionID).(string)
	if !ok || id == "" {
		return "", session.Entry{}, false
	}
	entry, _ := ctx.Value(ContextKeySession).(session.Entry)
	return id, entry, true
}
