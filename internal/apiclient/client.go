package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"fpc-portal/internal/metrics"
	"fpc-portal/pkg/apierror"
)

const maxErrorBody = 64 << 10

// Client talks to the remote FPC API. Every path is resolved against one
// base URL. A Client is immutable; WithBearer derives an authorised copy.
type Client struct {
	baseURL string
	http    *http.Client
	bearer  string
	metrics *metrics.Metrics
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	c := &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WithBearer returns a copy whose every request carries
// "Authorization: Bearer <token>". An empty token yields a copy without the
// header.
func (c *Client) WithBearer(token string) *Client {
	token = strings.TrimSpace(token)

	clone := *c
	clone.bearer = token

	hc := *c.http
	base := c.http.Transport
	if bt, ok := base.(*bearerTransport); ok {
		base = bt.base
	}
	if token == "" {
		hc.Transport = base
	} else {
		hc.Transport = &bearerTransport{base: base, token: token}
	}
	clone.http = &hc

	return &clone
}

// Bearer is the token installed on this client, or "".
func (c *Client) Bearer() string {
	return c.bearer
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

type bearerTransport struct {
	base  http.RoundTripper
	token string
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}

	if req.Header.Get("Authorization") != "" {
		return base.RoundTrip(req)
	}

	clone := req.Clone(req.Context())
	clone.Header.Set("Authorization", "Bearer "+t.token)
	return base.RoundTrip(clone)
}

// call performs one JSON round trip. endpoint is the low-cardinality label
// used for metrics and error details; path is the concrete request path.
func (c *Client) call(ctx context.Context, method string, endpoint string, path string, payload any, out any) error {
	return c.exchange(ctx, method, endpoint, path, payload, out, isAuthStatus)
}

func isAuthStatus(status int) bool {
	return status == http.StatusUnauthorized || status == http.StatusForbidden
}

func (c *Client) exchange(ctx context.Context, method string, endpoint string, path string, payload any, out any, authStatus func(int) bool) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode %s payload: %w", endpoint, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build %s request: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			c.metrics.ObserveUpstream(endpoint, "cancelled", time.Since(started))
			return ctx.Err()
		}
		c.metrics.ObserveUpstream(endpoint, "network_error", time.Since(started))
		slog.Warn("upstream unreachable", "endpoint", endpoint, "error", err)
		return apierror.Network(endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail := readDetail(resp.Body)
		outcome := "server_error"
		var apiErr *apierror.APIError
		if authStatus(resp.StatusCode) {
			outcome = "unauthorized"
			apiErr = apierror.Authentication(detail)
		} else {
			apiErr = apierror.Server(endpoint, resp.StatusCode, detail)
		}
		c.metrics.ObserveUpstream(endpoint, outcome, time.Since(started))
		return apiErr
	}

	c.metrics.ObserveUpstream(endpoint, "ok", time.Since(started))

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return apierror.Network(endpoint, err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return apierror.Server(endpoint, http.StatusBadGateway, "unexpected response shape")
	}

	return nil
}

// readDetail extracts the human-readable message from an error body. It
// understands {"detail": "..."}, validation arrays of {"msg": "..."} and
// {"message"|"error": "..."}.
func readDetail(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil || len(bytes.TrimSpace(raw)) == 0 {
		return ""
	}

	var body map[string]json.RawMessage
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}

	for _, key := range []string{"detail", "message", "error", "msg"} {
		value, ok := body[key]
		if !ok {
			continue
		}
		if msg := detailText(value); msg != "" {
			return msg
		}
	}

	return ""
}

func detailText(raw json.RawMessage) string {
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return strings.TrimSpace(text)
	}

	var items []struct {
		Loc []any  `json:"loc"`
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(raw, &items); err == nil {
		parts := make([]string, 0, len(items))
		for _, item := range items {
			if item.Msg == "" {
				continue
			}
			if field := lastLoc(item.Loc); field != "" {
				parts = append(parts, field+": "+item.Msg)
			} else {
				parts = append(parts, item.Msg)
			}
		}
		return strings.Join(parts, "; ")
	}

	var nested struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &nested); err == nil {
		return strings.TrimSpace(nested.Message)
	}

	return ""
}

func lastLoc(loc []any) string {
	if len(loc) == 0 {
		return ""
	}
	if s, ok := loc[len(loc)-1].(string); ok {
		return s
	}
	return ""
}

// decodeList accepts a bare JSON array or an object wrapping one under
// "data", "items" or "results".
func decodeList[T any](raw json.RawMessage) ([]T, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []T{}, nil
	}

	if trimmed[0] == '[' {
		var out []T
		if err := json.Unmarshal(trimmed, &out); err != nil {
			return nil, err
		}
		return out, nil
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &wrapper); err != nil {
		return nil, err
	}
	for _, key := range []string{"data", "items", "results"} {
		if inner, ok := wrapper[key]; ok {
			return decodeList[T](inner)
		}
	}

	return nil, errors.New("response holds no list")
}

func (c *Client) getList(ctx context.Context, endpoint string, path string) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.call(ctx, http.MethodGet, endpoint, path, nil, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func listOf[T any](c *Client, ctx context.Context, endpoint string, path string) ([]T, error) {
	raw, err := c.getList(ctx, endpoint, path)
	if err != nil {
		return nil, err
	}

	items, err := decodeList[T](raw)
	if err != nil {
		return nil, apierror.Server(endpoint, http.StatusBadGateway, "unexpected response shape")
	}
	return items, nil
}
