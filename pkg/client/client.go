// Package client is the Go SDK for the OpenLingo REST API. It owns the HTTP
// plumbing (base URL, JSON headers, bearer injection, 401 handling) so the
// rest of a client program only ever sees typed results.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/openlingo/openlingo/pkg/client/session"
)

type Client struct {
	baseURL string
	hc      *http.Client
	sess    *session.Store
}

type ClientOption func(*Client)

func WithHTTPClient(hc *http.Client) ClientOption { return func(c *Client) { c.hc = hc } }

// New builds a client rooted at baseURL (the /api prefix is appended). The
// session store supplies the bearer token and is invalidated when the server
// answers 401.
func New(baseURL string, sess *session.Store, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/") + "/api",
		hc:      &http.Client{Timeout: 30 * time.Second},
		sess:    sess,
	}
	for _, o := range opts {
		o(c)
	}
	sess.SetServerLogout(func(ctx context.Context) error {
		_, err := do[struct{}](c, ctx, http.MethodPost, "/auth/logout", nil)
		return err
	})
	return c
}

func (c *Client) Session() *session.Store { return c.sess }

// APIError is any non-2xx answer, carrying the server's message and, for
// validation failures, the field-keyed error map.
type APIError struct {
	Status  int
	Message string
	Fields  map[string]string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

// result pairs a decoded payload with the server's human message.
type result[T any] struct {
	Data    T
	Message string
}

type envelope struct {
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Errors  map[string]string `json:"errors"`
}

func do[T any](c *Client, ctx context.Context, method, path string, body any) (result[T], error) {
	var out result[T]

	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return out, err
		}
		rd = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return out, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.sess.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return out, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		// the server no longer accepts this session; drop it
		c.sess.Invalidate()
	}

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return out, err
	}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &env) // plain-text errors keep the default envelope
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := env.Message
		if msg == "" {
			msg = strings.TrimSpace(string(raw))
		}
		return out, &APIError{Status: resp.StatusCode, Message: msg, Fields: env.Errors}
	}

	out.Message = env.Message
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &out.Data); err != nil {
			return out, fmt.Errorf("decode %s %s response: %w", method, path, err)
		}
	}
	return out, nil
}
