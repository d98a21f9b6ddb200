// Package questionbank talks to the education API: the knowledge point
// catalog and the problem search index.
package questionbank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/FrenchMajesty/problem-matcher/pkg/types"
)

const (
	DefaultBaseURL    = "https://qms.stzy.com"
	DefaultStudyPhase = "300"
	DefaultSubject    = "2"
	DefaultPageSize   = 10

	catalogPath = "/matrix/zw-zzw/api/v1/zzw/tree/kpoint"
	searchPath  = "/matrix/zw-search/api/v1/homeEs/question/keyPointQuery"

	maxErrorBody = 512
)

// APIError represents a non-2xx HTTP response
type APIError struct {
	StatusCode int
	Body       string // first 512 bytes
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// Unwrap lets errors.Is match types.ErrTransport
func (e *APIError) Unwrap() error {
	return types.ErrTransport
}

// Option configures a client
type Option func(*client)

// WithHTTPClient replaces the underlying HTTP client. The client is copied
// and its timeout replaced by the request timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *client) {
		c.httpClient = hc
	}
}

// WithTimeout bounds each request
func WithTimeout(d time.Duration) Option {
	return func(c *client) {
		c.timeout = d
	}
}

// WithStudyPhase sets the study phase code sent with every request
func WithStudyPhase(code string) Option {
	return func(c *client) {
		c.studyPhase = code
	}
}

// WithSubject sets the subject code sent with every request
func WithSubject(code string) Option {
	return func(c *client) {
		c.subject = code
	}
}

// WithPageSize sets how many problems a search returns
func WithPageSize(n int) Option {
	return func(c *client) {
		c.pageSize = n
	}
}

// client holds what the catalog and search clients share
type client struct {
	baseURL    string
	token      string
	studyPhase string
	subject    string
	pageSize   int
	timeout    time.Duration
	httpClient *http.Client
}

func newClient(baseURL, token string, timeout time.Duration, opts []Option) *client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	c := &client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		studyPhase: DefaultStudyPhase,
		subject:    DefaultSubject,
		pageSize:   DefaultPageSize,
		timeout:    timeout,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	hc := *c.httpClient
	hc.Timeout = c.timeout
	c.httpClient = &hc
	return c
}

// postJSON sends payload and returns the response body of a 2xx response.
// Returns *APIError for non-2xx responses.
func (c *client) postJSON(ctx context.Context, path string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("token", c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrTransport, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response body: %w", types.ErrTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyStr := string(respBody)
		if len(bodyStr) > maxErrorBody {
			bodyStr = bodyStr[:maxErrorBody]
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Body: bodyStr}
	}

	return respBody, nil
}
