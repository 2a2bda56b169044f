package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	errs "github.com/jrsteele09/go-partner-dashboard/internal/errors"
	"github.com/rs/zerolog/log"
)

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

type refreshResponse struct {
	Access string `json:"access"`
}

// Refresh exchanges the stored refresh token for a new access token and
// stores it next to the same refresh token. When there is no refresh token or
// the backend will not issue an access token the session is cleared, sign-in
// navigation is requested and the returned error wraps ErrSessionInvalid.
// Transport errors are returned without touching the session.
func (c *Client) Refresh(ctx context.Context) (string, error) {
	s, err := c.store.Get()
	if err != nil {
		return "", fmt.Errorf("[gateway Refresh] failed to read session: %w", err)
	}

	if s.RefreshToken == "" {
		c.metrics.refresh("no_token")
		c.teardown("no refresh token")
		return "", fmt.Errorf("[gateway Refresh] %w: %w", ErrSessionInvalid, errs.ErrNoRefreshToken)
	}

	access, err := c.exchangeShared(ctx, s.RefreshToken)
	if err != nil {
		if isSessionInvalid(err) {
			c.metrics.refresh("rejected")
			c.teardown(err.Error())
		} else {
			c.metrics.refresh("error")
		}
		return "", err
	}

	if err := c.store.Set(s.WithAccessToken(access)); err != nil {
		c.metrics.refresh("error")
		return "", fmt.Errorf("[gateway Refresh] failed to store access token: %w", err)
	}
	c.metrics.refresh("ok")
	return access, nil
}

// exchangeShared runs the refresh call, joining an identical in-flight one
// when coalescing is enabled. The shared call outlives the caller that
// started it; each caller stops waiting when its own ctx ends.
func (c *Client) exchangeShared(ctx context.Context, refreshToken string) (string, error) {
	if c.refreshGroup == nil {
		return c.exchange(ctx, refreshToken)
	}

	shared := context.WithoutCancel(ctx)
	ch := c.refreshGroup.DoChan(refreshToken, func() (any, error) {
		return c.exchange(shared, refreshToken)
	})

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("[gateway exchangeShared] gave up waiting for refresh: %w", ctx.Err())
	case res := <-ch:
		if res.Shared {
			log.Debug().Msg("Joined in-flight token refresh")
		}
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

// exchange performs POST {refresh} -> {access} against the refresh endpoint
func (c *Client) exchange(ctx context.Context, refreshToken string) (string, error) {
	body, err := json.Marshal(refreshRequest{Refresh: refreshToken})
	if err != nil {
		return "", fmt.Errorf("[gateway exchange] failed to encode refresh request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL(c.refreshPath), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("[gateway exchange] failed to build refresh request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set(requestIDHeader, uuid.NewString())

	httpRes, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("[gateway exchange] refresh call failed: %w", err)
	}
	defer httpRes.Body.Close()

	data, err := io.ReadAll(httpRes.Body)
	if err != nil {
		return "", fmt.Errorf("[gateway exchange] failed to read refresh response: %w", err)
	}

	if httpRes.StatusCode < 200 || httpRes.StatusCode > 299 {
		return "", fmt.Errorf("[gateway exchange] status %d: %w: %w", httpRes.StatusCode, ErrSessionInvalid, errs.ErrRefreshRejected)
	}

	var tokens refreshResponse
	if err := json.Unmarshal(data, &tokens); err != nil || tokens.Access == "" {
		return "", fmt.Errorf("[gateway exchange] %w: %w", ErrSessionInvalid, errs.ErrMissingAccessKey)
	}
	return tokens.Access, nil
}

func isSessionInvalid(err error) bool {
	return errors.Is(err, ErrSessionInvalid)
}
