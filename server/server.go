package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jrsteele09/go-partner-dashboard/auth"
	"github.com/jrsteele09/go-partner-dashboard/gateway"
	"github.com/jrsteele09/go-partner-dashboard/internal/config"
	"github.com/jrsteele09/go-partner-dashboard/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

type Server struct {
	env      string // Environment (e.g., "DEV", "PROD")
	mux      *http.ServeMux
	routes   []string
	config   config.Config
	gateway  *gateway.Client
	login    *auth.LoginService
	sessions session.Repo
	metrics  http.Handler
}

// New wires the dashboard against the backend in config. Gateway metrics are
// registered with registry and served on /metrics.
func New(config config.Config, sessionRepo session.Repo, registry *prometheus.Registry) (*Server, error) {
	gatewayMetrics, err := gateway.NewMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("[Server New] failed to register gateway metrics: %w", err)
	}

	client, err := gateway.New(config, gateway.WithMetrics(gatewayMetrics))
	if err != nil {
		return nil, fmt.Errorf("[Server New] failed to create gateway: %w", err)
	}

	s := &Server{
		env:      config.GetEnv(),
		mux:      http.NewServeMux(),
		config:   config,
		gateway:  client,
		login:    auth.NewLoginService(config, nil),
		sessions: sessionRepo,
		metrics:  promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

// ExpiredSessionSweeper is implemented by session repos that can drop dead entries
type ExpiredSessionSweeper interface {
	DeleteExpired(now time.Time) int
}

// SweepSessions removes expired sessions every interval until ctx is done.
// Repos that cannot sweep are left alone.
func (s *Server) SweepSessions(ctx context.Context, interval time.Duration) {
	sweeper, ok := s.sessions.(ExpiredSessionSweeper)
	if !ok || interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := sweeper.DeleteExpired(session.NowTimeFunc()); removed > 0 {
				log.Debug().Int("removed", removed).Msg("Swept expired sessions")
			}
		}
	}
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	var displayMethod string
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		displayMethod = color + paddedMethod + ResetColor
	} else {
		displayMethod = Gray + paddedMethod + ResetColor
	}
	log.Info().Msgf("[%-19s] %s", displayMethod, path)
}

// Helper function to determine the scheme (http/https)
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
