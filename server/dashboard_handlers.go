package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-partner-dashboard/gateway"
	"github.com/jrsteele09/go-partner-dashboard/session"
	"github.com/jrsteele09/go-partner-dashboard/users"
	"github.com/rs/zerolog/log"
)

const maxProxyBodyBytes = 1 << 20

// passthroughHeaders are copied from a non-JSON backend response (exports, receipts)
var passthroughHeaders = []string{"Content-Type", "Content-Disposition", "Content-Length", "Cache-Control"}

// DashboardPageData contains data for rendering the dashboard shell
type DashboardPageData struct {
	AppName   string
	UserName  string
	Resources []Resource
}

// DashboardHandler renders the dashboard shell (GET /dashboard/)
func (s *Server) DashboardHandler() http.HandlerFunc {
	tmpl, err := ParseTemplate("dashboard.html")
	if err != nil {
		panic("Failed to parse dashboard template: " + err.Error())
	}

	return func(w http.ResponseWriter, r *http.Request) {
		_, entry, _ := sessionFromContext(r.Context())

		data := DashboardPageData{
			AppName:   s.config.GetAppName(),
			UserName:  displayName(entry.Session.User),
			Resources: Resources(),
		}

		w.Header().Set("Content-Type", contentTypeHTML)
		if err := tmpl.Execute(w, data); err != nil {
			log.Err(err).Msg("Failed to render dashboard template")
			http.Error(w, "Failed to render dashboard", http.StatusInternalServerError)
		}
	}
}

// ResourceProxyHandler forwards /dashboard/api/{resource}/[{id}/[{action}/]]
// to the backend through the gateway, using the caller's session. Gateway
// notifications come back in HX-Trigger; a lost session clears the cookie
// and sends the browser to sign-in.
func (s *Server) ResourceProxyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resource, ok := LookupResource(r.PathValue("resource"))
		if !ok {
			writeJSONError(w, "Not found", http.StatusNotFound)
			return
		}
		if resource.ReadOnly && r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			writeJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		sessionID, _, ok := sessionFromContext(r.Context())
		if !ok {
			writeJSONError(w, gateway.SessionExpiredMessage, http.StatusUnauthorized)
			return
		}

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxProxyBodyBytes))
		if err != nil {
			writeJSONError(w, "Request body too large", http.StatusRequestEntityTooLarge)
			return
		}

		req := gateway.Request{
			Method: r.Method,
			Path:   resource.backendPath(r.PathValue("id"), r.PathValue("action")),
			Query:  r.URL.Query(),
			Header: http.Header{},
		}
		if len(body) > 0 {
			req.Body = body
			req.Header.Set("Content-Type", r.Header.Get("Content-Type"))
		}
		if id := r.Header.Get("X-Request-ID"); id != "" {
			req.Header.Set("X-Request-ID", id)
		}

		effects := &requestEffects{}
		client := s.gateway.With(
			gateway.WithStore(session.Bind(s.sessions, sessionID, s.config.GetMaxSessionAge())),
			gateway.WithNavigator(effects),
			gateway.WithNotifier(effects),
		)

		res, err := client.Fetch(r.Context(), req)
		effects.writeTrigger(w)

		var apiErr *gateway.APIError
		switch {
		case errors.Is(err, gateway.ErrSessionInvalid):
			s.ClearSessionCookie(w, r)
			sessionEnded(w, r)
		case errors.As(err, &apiErr):
			writeAPIError(w, apiErr)
		case err != nil:
			logError(r.Method, r.URL.Path, err.Error())
			writeJSONError(w, "The dashboard API could not be reached", http.StatusBadGateway)
		default:
			writeResponse(w, res)
		}
	}
}

// sessionEnded sends the browser to sign-in; API clients get a 401
func sessionEnded(w http.ResponseWriter, r *http.Request) {
	if isHTMXRequest(r) || strings.Contains(r.Header.Get("Accept"), "text/html") {
		redirectWithError(w, r, RouteSignIn, gateway.SessionExpiredMessage)
		return
	}
	writeJSONError(w, gateway.SessionExpiredMessage, http.StatusUnauthorized)
}

func writeAPIError(w http.ResponseWriter, apiErr *gateway.APIError) {
	if len(apiErr.Body) == 0 {
		writeJSONError(w, apiErr.Message, apiErr.StatusCode)
		return
	}
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(apiErr.StatusCode)
	_, _ = w.Write(apiErr.Body)
}

func writeResponse(w http.ResponseWriter, res *gateway.Response) {
	if res.Raw != nil {
		defer res.Raw.Body.Close()
		for _, h := range passthroughHeaders {
			if v := res.Header.Get(h); v != "" {
				w.Header().Set(h, v)
			}
		}
		w.WriteHeader(res.StatusCode)
		if _, err := io.Copy(w, res.Raw.Body); err != nil {
			log.Err(err).Msg("Failed to stream backend response")
		}
		return
	}

	if len(res.Body) == 0 {
		w.WriteHeader(res.StatusCode)
		return
	}
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(res.StatusCode)
	_, _ = w.Write(res.Body)
}

// displayName picks something human from the backend's user record
func displayName(user json.RawMessage) string {
	u, err := users.Parse(user)
	if err != nil {
		return ""
	}
	return u.DisplayName()
}
