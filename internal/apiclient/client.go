// Package apiclient is the typed client for the blog REST API.
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

	"avocado/internal/observability"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
)

// maxErrorBody caps how much of a failed response is kept for messages and logs.
const maxErrorBody = 4 << 10

// Client calls the blog REST API. A zero token sends no Authorization header.
type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a client for baseURL (scheme and host, no trailing slash).
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// NewWithHTTPClient is New with a caller-provided transport, used by tests.
func NewWithHTTPClient(baseURL string, hc *http.Client) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Error is a non-2xx answer from the API.
type Error struct {
	Endpoint string
	Method   string
	Status   int
	Body     string
}

func (e *Error) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Endpoint, e.Status, e.Body)
	}
	return fmt.Sprintf("%s %s: status %d", e.Method, e.Endpoint, e.Status)
}

// StatusOf returns the HTTP status carried by err, or 0 for transport errors.
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// IsConflict reports a 409 answer.
func IsConflict(err error) bool { return StatusOf(err) == http.StatusConflict }

// IsNotFound reports a 404 answer.
func IsNotFound(err error) bool { return StatusOf(err) == http.StatusNotFound }

// IsUnauthorized reports a 401 or 403 answer.
func IsUnauthorized(err error) bool {
	s := StatusOf(err)
	return s == http.StatusUnauthorized || s == http.StatusForbidden
}

type request struct {
	endpoint    string // metric/span label, e.g. "posts.get"
	method      string
	path        string
	token       string
	body        io.Reader
	contentType string
}

func jsonBody(v any) (io.Reader, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}
	return bytes.NewReader(b), nil
}

// do sends r and decodes a JSON answer into out when out is non-nil.
func (c *Client) do(ctx context.Context, r request, out any) (err error) {
	start := time.Now()
	status := 0

	ctx, span := observability.TraceUpstreamCall(ctx, r.endpoint, r.method)
	defer func() {
		span.SetAttributes(attribute.Int("http.status_code", status))
		observability.EndSpan(span, err)
		observability.ObserveUpstream(r.endpoint, r.method, status, start)
		if err != nil {
			observability.Logger.WarnContext(ctx, "upstream call failed",
				slog.String("endpoint", r.endpoint),
				slog.String("method", r.method),
				slog.Int("status", status),
				slog.String("error", err.Error()),
			)
		}
	}()

	req, err := http.NewRequestWithContext(ctx, r.method, c.baseURL+r.path, r.body)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	status = resp.StatusCode

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &Error{
			Endpoint: r.path,
			Method:   r.method,
			Status:   resp.StatusCode,
			Body:     strings.TrimSpace(string(body)),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// Ping checks the API answers at all. Any status below 500 counts as reachable.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/posts", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	_ = resp.Body.Close()
	if resp.StatusCode >= 500 {
		return &Error{Endpoint: "/api/posts", Method: http.MethodGet, Status: resp.StatusCode}
	}
	return nil
}
