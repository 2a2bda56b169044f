// Package gateway performs backend API calls on behalf of a signed-in user.
//
// Every call carries the stored access token. A call rejected because the
// token expired is recovered once: the refresh token is exchanged for a new
// access token and the call is sent again. When that is impossible the
// session is cleared and the user is sent back to sign-in.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-partner-dashboard/internal/config"
	"github.com/jrsteele09/go-partner-dashboard/internal/utils"
	"github.com/jrsteele09/go-partner-dashboard/session"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

const (
	// SuccessMessage is the notification for a completed mutating call
	SuccessMessage = "Operation completed successfully"
	// SessionExpiredMessage is the notification for an irrecoverable auth failure
	SessionExpiredMessage = "Your session has expired, please sign in again"

	requestIDHeader = "X-Request-ID"
)

// Request is an API call. Body is kept as bytes so the call can be replayed
// after a token refresh.
type Request struct {
	Method string
	// Path is resolved against the API base URL; absolute URLs are used as is
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
}

// NewJSONRequest encodes body as the JSON payload of a request
func NewJSONRequest(method, path string, body any) (Request, error) {
	req := Request{Method: method, Path: path, Header: http.Header{}}
	if body == nil {
		return req, nil
	}
	data, err := json.Marshal(body)
	if err != nil {
		return Request{}, fmt.Errorf("[gateway NewJSONRequest] failed to encode body: %w", err)
	}
	req.Body = data
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func (r Request) method() string {
	if r.Method == "" {
		return http.MethodGet
	}
	return strings.ToUpper(r.Method)
}

// mutating reports whether a successful call changed backend state
func (r Request) mutating() bool {
	switch r.method() {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// Response is a settled API call. JSON bodies are in Body; anything else is
// handed back untouched in Raw with its body still readable.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       json.RawMessage
	Raw        *http.Response

	payload any
}

// IsJSON reports whether the body parsed as JSON. An empty body counts as JSON null.
func (r *Response) IsJSON() bool {
	return r.Raw == nil
}

// Payload returns the decoded body, objects keep their member order
func (r *Response) Payload() any {
	return r.payload
}

// Decode unmarshals the JSON body into v
func (r *Response) Decode(v any) error {
	if !r.IsJSON() {
		return fmt.Errorf("response is %s, not JSON", r.Raw.Header.Get("Content-Type"))
	}
	if len(r.Body) == 0 {
		return nil
	}
	return json.Unmarshal(r.Body, v)
}

// Client is the authenticated request gateway. A Client is bound to one
// session store; use With to derive clients for other sessions that share the
// HTTP client, metrics and refresh coalescing.
type Client struct {
	baseURL          *url.URL
	refreshPath      string
	invalidTokenCode string

	httpClient   *http.Client
	store        session.Store
	navigator    Navigator
	notifier     Notifier
	metrics      *Metrics
	refreshGroup *singleflight.Group
}

// New creates a gateway for the backend described by cfg
func New(cfg config.APIConfig, opts ...Option) (*Client, error) {
	base, err := url.Parse(cfg.GetAPIBaseURL())
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("[gateway New] invalid API base URL %q", cfg.GetAPIBaseURL())
	}

	c := &Client{
		baseURL:          base,
		refreshPath:      cfg.GetRefreshPath(),
		invalidTokenCode: cfg.GetInvalidTokenCode(),
		httpClient:       &http.Client{Timeout: cfg.GetAPITimeout()},
		store:            session.NewMemoryStore(),
		navigator:        logNavigator{},
		notifier:         logNotifier{},
	}
	if cfg.GetRefreshCoalescing() {
		WithRefreshCoalescing()(c)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// With returns a copy of the client with opts applied
func (c *Client) With(opts ...Option) *Client {
	clone := *c
	for _, opt := range opts {
		opt(&clone)
	}
	return &clone
}

// Store returns the session store the client reads credentials from
func (c *Client) Store() session.Store {
	return c.store
}

// URL joins an API path onto the base URL, keeping the base's path prefix
func (c *Client) URL(path string) string {
	return utils.JoinURL(c.baseURL, path)
}

// Fetch performs req with the current credentials. It returns the response
// for 2xx JSON bodies and for any non-JSON body, an *APIError for other
// non-2xx JSON bodies, and an error wrapping ErrSessionInvalid when the
// session could not be recovered.
func (c *Client) Fetch(ctx context.Context, req Request) (*Response, error) {
	var (
		res     *Response
		failure error
		state   = StateInitial
	)

	for !state.Terminal() {
		var token string
		switch state {
		case StateInitial:
			s, err := c.store.Get()
			if err != nil {
				return nil, fmt.Errorf("[gateway Fetch] failed to read session: %w", err)
			}
			token = s.AccessToken
		case StateRetrying:
			refreshed, err := c.Refresh(ctx)
			if isSessionInvalid(err) {
				failure = err
				state = Next(state, OutcomeRefreshFailed)
				continue
			}
			if err != nil {
				c.metrics.request(req.method(), "transport_error")
				return nil, err
			}
			token = refreshed
		}

		var err error
		res, err = c.send(ctx, req, token)
		if err != nil {
			c.metrics.request(req.method(), "transport_error")
			return nil, err
		}

		outcome := OutcomeSettled
		if c.tokenRejected(res) {
			outcome = OutcomeExpired
		}
		state = Next(state, outcome)
	}

	if state == StateFailed {
		// Refresh failures have already torn the session down.
		if failure == nil {
			c.teardown("access token rejected after refresh")
			failure = fmt.Errorf("[gateway Fetch] %s %s: %w", req.method(), req.Path, ErrSessionInvalid)
		}
		c.metrics.request(req.method(), "session_invalid")
		c.notifier.Error(SessionExpiredMessage)
		return nil, failure
	}
	return c.settle(req, res)
}

// Get is Fetch for a GET with query parameters
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.Fetch(ctx, Request{Method: http.MethodGet, Path: path, Query: query})
}

// Send is Fetch for a JSON encoded body
func (c *Client) Send(ctx context.Context, method, path string, body any) (*Response, error) {
	req, err := NewJSONRequest(method, path, body)
	if err != nil {
		return nil, err
	}
	return c.Fetch(ctx, req)
}

// settle turns a response that is not an auth failure into the call result
func (c *Client) settle(req Request, res *Response) (*Response, error) {
	if !res.IsJSON() {
		c.metrics.request(req.method(), "raw")
		return res, nil
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		apiErr := newAPIError(res.StatusCode, res.Body, res.payload)
		c.metrics.request(req.method(), "api_error")
		c.notifier.Error(apiErr.Message)
		return nil, apiErr
	}

	c.metrics.request(req.method(), "ok")
	if req.mutating() {
		c.notifier.Success(SuccessMessage)
	}
	return res, nil
}

// tokenRejected reports a 401 or a body carrying the invalid-token code
func (c *Client) tokenRejected(res *Response) bool {
	if res.StatusCode == http.StatusUnauthorized {
		return true
	}
	obj, ok := res.payload.(Object)
	if !ok || c.invalidTokenCode == "" {
		return false
	}
	code, _ := obj.StringValue("code")
	return code == c.invalidTokenCode
}

// send performs one round trip and reads the whole body
func (c *Client) send(ctx context.Context, req Request, accessToken string) (*Response, error) {
	target := c.URL(req.Path)
	if len(req.Query) > 0 {
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target += sep + req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method(), target, body)
	if err != nil {
		return nil, fmt.Errorf("[gateway send] failed to build request: %w", err)
	}
	for k, v := range req.Header {
		httpReq.Header[k] = append([]string(nil), v...)
	}
	httpReq.Header.Del("Authorization")
	if accessToken != "" {
		session.Session{AccessToken: accessToken}.OAuth2Token().SetAuthHeader(httpReq)
	}
	requestID := httpReq.Header.Get(requestIDHeader)
	if requestID == "" {
		requestID = uuid.NewString()
		httpReq.Header.Set(requestIDHeader, requestID)
	}

	httpRes, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("[gateway send] %s %s: %w", req.method(), req.Path, err)
	}
	defer httpRes.Body.Close()

	data, err := io.ReadAll(httpRes.Body)
	if err != nil {
		return nil, fmt.Errorf("[gateway send] failed to read response body: %w", err)
	}

	log.Debug().
		Str("request_id", requestID).
		Str("method", req.method()).
		Str("path", req.Path).
		Int("status", httpRes.StatusCode).
		Msg("API call")

	res := &Response{StatusCode: httpRes.StatusCode, Header: httpRes.Header}
	if len(bytes.TrimSpace(data)) == 0 {
		return res, nil
	}

	payload, err := DecodeJSON(data)
	if err != nil {
		httpRes.Body = io.NopCloser(bytes.NewReader(data))
		res.Raw = httpRes
		return res, nil
	}
	res.Body = data
	res.payload = payload
	return res, nil
}

// teardown clears the session and sends the user to sign-in
func (c *Client) teardown(reason string) {
	log.Warn().Str("reason", reason).Msg("Clearing session")
	if err := c.store.Clear(); err != nil {
		log.Err(err).Msg("Failed to clear session")
	}
	c.metrics.teardown()
	c.navigator.SignIn()
}
