package server

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-partner-dashboard/auth"
	"github.com/jrsteele09/go-partner-dashboard/gateway"
	"github.com/jrsteele09/go-partner-dashboard/session"
	"github.com/rs/zerolog/log"
)

const (
	contentTypeHTML = "text/html; charset=utf-8"
	contentTypeJSON = "application/json; charset=utf-8"
)

// SignInPageData contains data for rendering the sign-in page
type SignInPageData struct {
	AppName    string
	Error      string
	Identifier string // Preserve identifier on error
}

// SignInPageHandler displays the sign-in page (GET /). Users with a live
// session go straight to the dashboard.
func (s *Server) SignInPageHandler() http.HandlerFunc {
	tmpl, err := ParseTemplate("signin.html")
	if err != nil {
		panic("Failed to parse sign-in template: " + err.Error())
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if s.hasLiveSession(r) {
			redirectSuccess(w, r, RouteDashboard)
			return
		}

		data := SignInPageData{
			AppName:    s.config.GetAppName(),
			Error:      r.URL.Query().Get("error"),
			Identifier: r.URL.Query().Get("identifier"),
		}

		w.Header().Set("Content-Type", contentTypeHTML)
		if err := tmpl.Execute(w, data); err != nil {
			log.Err(err).Msg("Failed to render sign-in template")
			http.Error(w, "Failed to render sign-in page", http.StatusInternalServerError)
		}
	}
}

// LoginSubmissionHandler processes the sign-in form (POST /auth/login).
// Form posts and JSON bodies are both accepted.
func (s *Server) LoginSubmissionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		creds, err := parseCredentials(r)
		if err != nil {
			redirectWithError(w, r, RouteSignIn, "Invalid form data")
			return
		}

		// The login service writes to a pending store; the session only
		// reaches the repo once the role check has passed.
		pending := session.NewMemoryStore()
		signedIn, err := s.login.Login(r.Context(), pending, creds)
		if err != nil {
			redirectWithError(w, r, RouteSignIn, loginFailureMessage(err))
			return
		}

		// Replace whatever session this browser held before
		if cookie, err := r.Cookie(s.config.GetSessionCookieName()); err == nil && cookie.Value != "" {
			_ = s.sessions.Delete(cookie.Value)
		}

		now := session.NowTimeFunc()
		ttl := s.sessionLifetime(signedIn, now)
		sessionID := uuid.NewString()
		entry := session.Entry{Session: signedIn, CreatedAt: now, ExpiresAt: now.Add(ttl)}
		if err := s.sessions.Upsert(sessionID, entry); err != nil {
			log.Err(err).Msg("Failed to save session")
			redirectWithError(w, r, RouteSignIn, "Sign-in is unavailable, please try again")
			return
		}

		maxAge := 0
		if creds.RememberMe {
			maxAge = int(ttl.Seconds())
		}
		s.SetSessionCookie(w, r, sessionID, maxAge)
		redirectSuccess(w, r, RouteDashboard)
	}
}

// LogoutHandler ends the browser's session (GET /auth/logout)
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(s.config.GetSessionCookieName())
		s.ClearSessionCookie(w, r)
		if err != nil || cookie.Value == "" {
			redirectSuccess(w, r, RouteSignIn)
			return
		}

		nav := gateway.NavigatorFunc(func() {
			redirectSuccess(w, r, RouteSignIn)
		})
		if err := auth.Logout(session.Bind(s.sessions, cookie.Value, 0), nav); err != nil {
			log.Err(err).Msg("Logout: failed to clear session")
			redirectSuccess(w, r, RouteSignIn)
		}
	}
}

func (s *Server) hasLiveSession(r *http.Request) bool {
	cookie, err := r.Cookie(s.config.GetSessionCookieName())
	if err != nil || cookie.Value == "" {
		return false
	}
	entry, err := s.sessions.Get(cookie.Value)
	if err != nil {
		return false
	}
	return !entry.Expired(session.NowTimeFunc()) && entry.Session.AccessToken != ""
}

type credentialsBody struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
	RememberMe bool   `json:"remember_me"`
}

func parseCredentials(r *http.Request) (auth.Credentials, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var body credentialsBody
		if err := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 64<<10)).Decode(&body); err != nil {
			return auth.Credentials{}, err
		}
		return auth.Credentials(body), nil
	}

	if err := r.ParseForm(); err != nil {
		return auth.Credentials{}, err
	}
	remember, _ := strconv.ParseBool(r.FormValue("remember_me"))
	if r.FormValue("remember_me") == "on" {
		remember = true
	}
	return auth.Credentials{
		Identifier: r.FormValue("identifier"),
		Password:   r.FormValue("password"),
		RememberMe: remember,
	}, nil
}

// loginFailureMessage maps a sign-in error to what the form shows
func loginFailureMessage(err error) string {
	var apiErr *gateway.APIError
	switch {
	case errors.Is(err, auth.ErrAccessDenied):
		return "This account is not allowed to use the partner dashboard"
	case errors.Is(err, auth.ErrInvalidCredentials):
		return "Identifier and password are required"
	case errors.As(err, &apiErr):
		return apiErr.Message
	default:
		log.Err(err).Msg("Sign-in failed")
		return "Sign-in is unavailable, please try again"
	}
}
