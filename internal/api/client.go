package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Endpoint paths of the backend.
const (
	PathLogin            = "/auth/login"
	PathRolesPermissions = "/auth/roles-permissions"
	PathChangePassword   = "/auth/change-password"
	PathBusinessToken    = "/auth/business-token"
)

// AuthScheme selects how a token is presented in the Authorization header.
type AuthScheme string

const (
	// SchemeBearer sends "Bearer <token>".
	SchemeBearer AuthScheme = "bearer"
	// SchemeRaw sends the token unchanged.
	SchemeRaw AuthScheme = "raw"
)

const maxBodyBytes = 1 << 20

// ErrTransport marks failures to reach the backend (dial, timeout, cancel).
var ErrTransport = errors.New("backend unreachable")

// ResponseError is a backend reply that could not be used: a non-2xx
// status, an envelope with success=false, or a malformed body.
type ResponseError struct {
	Endpoint  string
	Status    int
	Message   string
	Malformed bool
}

func (e *ResponseError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: status %d: %s", e.Endpoint, e.Status, e.Message)
	}
	if e.Malformed {
		return fmt.Sprintf("%s: status %d: malformed response", e.Endpoint, e.Status)
	}
	return fmt.Sprintf("%s: status %d", e.Endpoint, e.Status)
}

// Config holds backend client configuration.
type Config struct {
	// BaseURL is the backend root, e.g. "https://api.example.com/api/v1".
	BaseURL string

	// Timeout bounds each request (default: 15s). Ignored when HTTPClient
	// is set.
	Timeout time.Duration

	// BusinessTokenScheme is how the session token is sent to the business
	// token exchange (default: raw).
	BusinessTokenScheme AuthScheme

	// UserAgent is sent on every request when non-empty.
	UserAgent string

	// HTTPClient overrides the transport.
	HTTPClient *http.Client

	// Observe, when set, receives the latency of every round trip.
	Observe func(endpoint string, d time.Duration, err error)
}

// Client calls the console backend.
type Client struct {
	base      *url.URL
	http      *http.Client
	bizScheme AuthScheme
	userAgent string
	observe   func(string, time.Duration, error)
}

// New validates cfg and returns a [Client].
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("backend base URL is required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing backend base URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("backend base URL must be http or https, got %q", base.Scheme)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.BusinessTokenScheme == "" {
		cfg.BusinessTokenScheme = SchemeRaw
	}
	if cfg.BusinessTokenScheme != SchemeRaw && cfg.BusinessTokenScheme != SchemeBearer {
		return nil, fmt.Errorf("unsupported auth scheme %q", cfg.BusinessTokenScheme)
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	observe := cfg.Observe
	if observe == nil {
		observe = func(string, time.Duration, error) {}
	}
	return &Client{
		base:      base,
		http:      hc,
		bizScheme: cfg.BusinessTokenScheme,
		userAgent: cfg.UserAgent,
		observe:   observe,
	}, nil
}

// envelope is the wrapper every backend reply uses.
type envelope struct {
	Success *bool           `json:"success"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

func (e envelope) text() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Error
}

func authorization(scheme AuthScheme, token string) string {
	if scheme == SchemeBearer {
		return "Bearer " + token
	}
	return token
}

// do sends body (JSON encoded when non-nil) and decodes the envelope data
// into out (when non-nil).
func (c *Client) do(ctx context.Context, method, path, auth string, body, out any) (err error) {
	start := time.Now()
	defer func() { c.observe(path, time.Since(start), err) }()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding %s request: %w", path, err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, reader)
	if err != nil {
		return fmt.Errorf("building %s request: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrTransport, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: %s: reading body: %v", ErrTransport, path, err)
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &ResponseError{Endpoint: path, Status: resp.StatusCode, Message: env.text(), Malformed: decodeErr != nil}
	}
	if decodeErr != nil {
		return &ResponseError{Endpoint: path, Status: resp.StatusCode, Malformed: true}
	}
	if env.Success != nil && !*env.Success {
		return &ResponseError{Endpoint: path, Status: resp.StatusCode, Message: env.text()}
	}
	if out == nil {
		return nil
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return &ResponseError{Endpoint: path, Status: resp.StatusCode, Message: env.text(), Malformed: true}
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &ResponseError{Endpoint: path, Status: resp.StatusCode, Malformed: true}
	}
	return nil
}
