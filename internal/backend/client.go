// Package backend is the single request surface to the remote rules
// backend. Every higher component goes through Client; no call is ever
// retried, and no transport or parse error escapes this boundary as
// anything other than ErrUnavailable.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

// ErrUnavailable is the uniform failure signal: transport error, parse
// error, or status >= 300. Callers decide whether it is fatal to the
// user-visible operation or ignorable.
var ErrUnavailable = errors.New("backend unavailable")

// Client talks to the rules backend under <baseURL>/api/.
type Client struct {
	http *resty.Client
	log  zerolog.Logger
}

// New creates a Client. The token is sent on every request; locale selects
// the language of backend-rendered labels.
func New(baseURL, token, locale string, log zerolog.Logger) *Client {
	c := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetHeader("Authorization", "TOKEN "+token).
		SetHeader("Accept-Language", locale).
		SetTimeout(30 * time.Second)

	return &Client{http: c, log: log}
}

// Call performs one request against /api/<endpoint>. GET and DELETE send
// no body; other methods serialize payload as JSON. Success requires a
// status below 300 and a JSON body. Every call is logged with its full
// request and response context.
func (c *Client) Call(ctx context.Context, method, endpoint string, payload any) (json.RawMessage, error) {
	req := c.http.R().SetContext(ctx)
	if payload != nil && method != http.MethodGet && method != http.MethodDelete {
		req.SetBody(payload)
	}

	resp, err := req.Execute(method, "/api/"+endpoint)

	status := 0
	var body []byte
	if resp != nil {
		status = resp.StatusCode()
		body = resp.Body()
	}
	ev := c.log.Debug().
		Str("method", method).
		Int("status", status).
		Str("endpoint", endpoint).
		Interface("payload", payload)

	switch {
	case err != nil:
		requestsTotal.WithLabelValues(method, "failure").Inc()
		ev.Err(err).Msg("backend call failed")
		return nil, fmt.Errorf("%s %s: %w", method, endpoint, ErrUnavailable)
	case status >= 300 || !json.Valid(body):
		requestsTotal.WithLabelValues(method, "failure").Inc()
		ev.Str("result", "failure").Str("body", string(body)).Msg("backend call rejected")
		return nil, fmt.Errorf("%s %s: status %d: %w", method, endpoint, status, ErrUnavailable)
	default:
		requestsTotal.WithLabelValues(method, "success").Inc()
		ev.RawJSON("result", body).Msg("backend call")
		return json.RawMessage(body), nil
	}
}

// call performs Call and decodes the result into out when non-nil.
func (c *Client) call(ctx context.Context, method, endpoint string, payload, out any) error {
	raw, err := c.Call(ctx, method, endpoint, payload)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		c.log.Debug().Err(err).Str("endpoint", endpoint).Msg("backend result decode failed")
		return fmt.Errorf("%s %s: decode: %w", method, endpoint, ErrUnavailable)
	}
	return nil
}
