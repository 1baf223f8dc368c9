package requester

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultTimeout bounds every provider call so a slow or unresponsive
// provider cannot stall the caller indefinitely.
const DefaultTimeout = 10 * time.Second

// Response represents an HTTP response from a provider endpoint
type Response struct {
	StatusCode int
	Body       []byte
	Headers    http.Header
}

// OK reports whether the response carries a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Client is the wire capability the OAuth adapters depend on: a form-encoded
// POST for token endpoints and a header-carrying GET for user-info endpoints.
// Implementations must honor context cancellation.
type Client interface {
	PostForm(ctx context.Context, endpoint string, form url.Values) (*Response, error)
	Get(ctx context.Context, endpoint string, headers map[string]string) (*Response, error)
}

// HTTPRequester implements Client on top of net/http
type HTTPRequester struct {
	client *http.Client
}

// NewHTTPRequester creates a new HTTPRequester with the default timeout
func NewHTTPRequester() *HTTPRequester {
	return &HTTPRequester{
		client: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
}

// SetTimeout sets the timeout for the HTTP client
func (r *HTTPRequester) SetTimeout(timeout time.Duration) {
	r.client.Timeout = timeout
}

// PostForm sends a form-encoded POST request to the given endpoint
func (r *HTTPRequester) PostForm(ctx context.Context, endpoint string, form url.Values) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	return r.execute(req)
}

// Get sends a GET request with the given headers to the endpoint
func (r *HTTPRequester) Get(ctx context.Context, endpoint string, headers map[string]string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return r.execute(req)
}

// execute performs the actual HTTP request execution
func (r *HTTPRequester) execute(req *http.Request) (*Response, error) {
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			err = fmt.Errorf("failed to close response body: %w", closeErr)
		}
	}()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       bodyBytes,
		Headers:    resp.Header,
	}, nil
}
