// Package gateway is the storefront's REST client for the pharmacy API.
package gateway

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

// Header names shared with the API
const (
	HeaderGuestToken = "X-Guest-Token"
	defaultUserAgent = "pharmacy-storefront/1.0"
	defaultTimeout   = 15 * time.Second
)

// Credentials supply the identity headers of each request. A bearer token
// takes precedence; the guest token is sent only when there is none.
type Credentials interface {
	BearerToken() string
	GuestToken() string
}

// ErrInvalidID is returned for identifiers that cannot name a path segment
var ErrInvalidID = errors.New("invalid resource id")

// APIError is a response with status >= 400
type APIError struct {
	Method  string
	Path    string
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api %s %s returned status %d: %s", e.Method, e.Path, e.Status, e.Message)
	}
	return fmt.Sprintf("api %s %s returned status %d", e.Method, e.Path, e.Status)
}

// StatusOf returns the HTTP status carried by err, or 0
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// IsNotFound reports whether err is a 404 from the API
func IsNotFound(err error) bool {
	return StatusOf(err) == http.StatusNotFound
}

// Client talks to the pharmacy REST API
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	creds     Credentials
}

// NewClient builds a client for the API rooted at baseURL (for example
// "http://localhost:8000/api").
func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	base, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:   base,
		http:      &http.Client{Timeout: timeout},
		userAgent: defaultUserAgent,
	}, nil
}

// WithCredentials returns a client sharing the transport that authenticates
// requests with creds.
func (c *Client) WithCredentials(creds Credentials) *Client {
	clone := *c
	clone.creds = creds
	return &clone
}

func (c *Client) do(ctx context.Context, method, path string, body, dest any) error {
	return c.doURL(ctx, method, &url.URL{Path: path}, body, dest)
}

// resource joins prefix, the escaped id and an optional suffix. Dot ids are
// refused since URL resolution would collapse them onto the parent.
func resource(prefix, id, suffix string) (*url.URL, error) {
	switch strings.TrimSpace(id) {
	case "", ".", "..":
		return nil, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return &url.URL{
		Path:    prefix + id + suffix,
		RawPath: prefix + url.PathEscape(id) + suffix,
	}, nil
}

func (c *Client) doURL(ctx context.Context, method string, rel *url.URL, body, dest any) error {
	resp, err := c.send(ctx, method, rel, body, "application/json")
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if dest == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// doRaw returns the response body unparsed, for binary downloads
func (c *Client) doRaw(ctx context.Context, method string, rel *url.URL, accept string) ([]byte, string, error) {
	resp, err := c.send(ctx, method, rel, nil, accept)
	if err != nil {
		return nil, "", err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read response: %w", err)
	}
	return data, resp.Header.Get("Content-Type"), nil
}

func (c *Client) send(ctx context.Context, method string, rel *url.URL, body any, accept string) (*http.Response, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	reqURL := c.baseURL.ResolveReference(rel)

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	if resp.StatusCode >= 400 {
		defer func() { _ = resp.Body.Close() }()
		return nil, &APIError{
			Method:  method,
			Path:    rel.Path,
			Status:  resp.StatusCode,
			Message: errorMessage(resp.Body),
		}
	}
	return resp, nil
}

func (c *Client) authorize(req *http.Request) {
	if c.creds == nil {
		return
	}
	if token := c.creds.BearerToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
		return
	}
	if guest := c.creds.GuestToken(); guest != "" {
		req.Header.Set(HeaderGuestToken, guest)
	}
}

// errorMessage extracts {"error": ...} or {"message": ...} from an error body
func errorMessage(body io.Reader) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	raw, err := io.ReadAll(io.LimitReader(body, 64<<10))
	if err != nil || len(raw) == 0 {
		return ""
	}
	if json.Unmarshal(raw, &payload) != nil {
		return ""
	}
	if payload.Error != "" {
		return payload.Error
	}
	return payload.Message
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("api base url required")
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api base url %q: %w", raw, err)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}

// envelope unwraps the API's {"data": ...} convention when present
type envelope struct {
	Data json.RawMessage `json:"data"`
}

func unwrap(raw json.RawMessage) json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return trimmed
	}
	var env envelope
	if json.Unmarshal(trimmed, &env) == nil && len(env.Data) > 0 {
		return env.Data
	}
	return trimmed
}
