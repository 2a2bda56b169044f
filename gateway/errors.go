package gateway

import (
	"encoding/json"
	"fmt"

	errs "github.com/jrsteele09/go-partner-dashboard/internal/errors"
)

// ErrSessionInvalid means the caller must sign in again. The session has
// already been cleared and sign-in navigation requested when it is returned.
var ErrSessionInvalid = errs.ErrSessionInvalid

// APIError is a non-2xx JSON response from the backend
type APIError struct {
	StatusCode int
	// Message is the normalized, displayable form of Payload
	Message string
	// Payload is the decoded body (Object, []any, string, ...)
	Payload any
	// Body is the body as received
	Body json.RawMessage
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// Decode unmarshals the original error body into v
func (e *APIError) Decode(v any) error {
	return json.Unmarshal(e.Body, v)
}

func newAPIError(statusCode int, body []byte, payload any) *APIError {
	return &APIError{
		StatusCode: statusCode,
		Message:    Normalize(payload),
		Payload:    payload,
		Body:       append(json.RawMessage(nil), body...),
	}
}

// NewAPIError builds an APIError from a raw response body; non-JSON bodies
// produce the unknown error message
func NewAPIError(statusCode int, body []byte) *APIError {
	payload, err := DecodeJSON(body)
	if err != nil {
		payload = nil
	}
	return newAPIError(statusCode, body, payload)
}
