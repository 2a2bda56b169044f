package gateway

import (
	"net/http"

	"github.com/jrsteele09/go-partner-dashboard/session"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// Navigator sends the user to the sign-in entry point
type Navigator interface {
	SignIn()
}

// NavigatorFunc adapts a function to Navigator
type NavigatorFunc func()

func (f NavigatorFunc) SignIn() { f() }

// Notifier surfaces call results to the user. Delivery is best effort.
type Notifier interface {
	Success(message string)
	Error(message string)
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func WithStore(store session.Store) Option {
	return func(c *Client) {
		c.store = store
	}
}

func WithNavigator(nav Navigator) Option {
	return func(c *Client) {
		c.navigator = nav
	}
}

func WithNotifier(n Notifier) Option {
	return func(c *Client) {
		c.notifier = n
	}
}

func WithMetrics(m *Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithRefreshCoalescing makes concurrent calls holding the same refresh token
// share one refresh request instead of each sending their own.
func WithRefreshCoalescing() Option {
	return func(c *Client) {
		if c.refreshGroup == nil {
			c.refreshGroup = &singleflight.Group{}
		}
	}
}

// logNavigator is used when no Navigator is configured
type logNavigator struct{}

func (logNavigator) SignIn() {
	log.Warn().Msg("Session ended, sign in required")
}

// logNotifier is used when no Notifier is configured
type logNotifier struct{}

func (logNotifier) Success(message string) {
	log.Debug().Str("notification", "success").Msg(message)
}

func (logNotifier) Error(message string) {
	log.Debug().Str("notification", "error").Msg(message)
}
