package server

import (
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"
)

func (s *Server) initRoutes() {
	// SIGN IN
	s.RegisterRouteHandler("GET "+RouteSignIn+"{$}", ChainMiddleware(s.SignInPageHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("POST "+RouteAuthLogin, ChainMiddleware(s.LoginSubmissionHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("GET "+RouteAuthLogout, ChainMiddleware(s.LogoutHandler(), s.HTMLMiddleWare()...))

	// Dashboard (require a live server-side session)
	s.RegisterRouteHandler("GET "+RouteDashboard+"{$}", ChainMiddleware(s.DashboardHandler(), s.HTMLMiddleWare(s.RequireSession())...))

	// Resource passthrough to the backend API
	for _, route := range []string{RouteDashboardResource, RouteDashboardItem, RouteDashboardAction} {
		s.RegisterRouteHandler(route+"{$}", ChainMiddleware(s.ResourceProxyHandler(), s.APIMiddleware(s.RequireSession())...))
	}

	// Operational
	s.RegisterRouteHandler("GET "+RouteMetrics, s.metrics)
	s.RegisterRouteFunc("GET "+RouteHealthz, s.HealthHandler())
}

func logError(method, path, error string) {
	var displayMethod string
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		displayMethod = color + paddedMethod + ResetColor
	} else {
		displayMethod = Gray + paddedMethod + ResetColor
	}
	errorString := Red + error + ResetColor
	log.Error().Msgf("[%-19s] %s %s", displayMethod, path, errorString)
}

// HealthHandler reports that the process is serving
func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
