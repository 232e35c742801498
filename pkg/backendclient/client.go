/**
 * @description
 * This package provides the single shared client for the remote platform backend.
 * It encapsulates request construction for every outbound call: HTTPS
 * normalization, bearer-token and API-key header injection, request/response
 * logging, typed error decoding, and the automatic session-invalidation hook for
 * 401 responses.
 *
 * @dependencies
 * - bytes, context, encoding/json, net/http, net/url, time: Standard Go libraries.
 * - github.com/google/uuid: Request correlation ids for log lines.
 */
package backendclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Credentials is the per-request auth material read from the session store.
type Credentials struct {
	Token  string
	APIKey string
}

// CredentialSource supplies credentials for outgoing requests. The session
// store satisfies this through a small adapter in the app layer.
type CredentialSource interface {
	Credentials(ctx context.Context) (Credentials, error)
}

// Options configures a Client.
type Options struct {
	// Timeout is the per-request client timeout. Defaults to 30s.
	Timeout time.Duration
	// RetryAttempts is the number of extra attempts for idempotent GETs that
	// fail at the transport level. Writes are never retried.
	RetryAttempts int
	// RetryDelay is the pause between retry attempts.
	RetryDelay time.Duration
	// Credentials supplies the bearer token and API key. Optional; requests go
	// out unauthenticated without it.
	Credentials CredentialSource
	// OnUnauthorized runs once per 401 response, unless the call suppresses it.
	// The portal uses it to clear the session.
	OnUnauthorized func(ctx context.Context)
	// HTTPClient overrides the underlying http.Client. When set, Timeout is
	// left to the provided client.
	HTTPClient *http.Client
}

// Client is the shared backend API client.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	credentials    CredentialSource
	retryAttempts  int
	retryDelay     time.Duration
	onUnauthorized func(ctx context.Context)
}

// APIError is a non-2xx backend response with its decoded detail message.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend api error: status %d - %s", e.Status, e.Detail)
}

// StatusOf returns the HTTP status of err when it is an *APIError, else zero.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// DetailOf returns the backend detail message of err when it is an *APIError.
func DetailOf(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Detail
	}
	return ""
}

// NewClient creates a backend client pinned to baseURL. The URL is normalized
// to HTTPS up front; SecureURL guards every dispatched request again, so even a
// path that sneaks in an absolute http:// URL cannot downgrade the connection.
func NewClient(baseURL string, opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	retryDelay := opts.RetryDelay
	if retryDelay <= 0 {
		retryDelay = time.Second
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL:        SecureURL(strings.TrimRight(strings.TrimSpace(baseURL), "/")),
		httpClient:     httpClient,
		credentials:    opts.Credentials,
		retryAttempts:  opts.RetryAttempts,
		retryDelay:     retryDelay,
		onUnauthorized: opts.OnUnauthorized,
	}
}

// BaseURL returns the normalized backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SecureURL rewrites any http:// scheme to https://. Mixed-content redirects
// from the backend host made this mandatory for every dispatched URL.
func SecureURL(raw string) string {
	if len(raw) >= len("http://") && strings.EqualFold(raw[:len("http://")], "http://") {
		return "https://" + raw[len("http://"):]
	}
	return raw
}

// callOptions collects per-request behavior toggles.
type callOptions struct {
	withAPIKey  bool
	suppress401 bool
	query       url.Values
}

// CallOption adjusts a single request.
type CallOption func(*callOptions)

// WithAPIKey attaches the session's X-API-Key header. Endpoints on the Agent v1
// surface require it in addition to the bearer token.
func WithAPIKey() CallOption {
	return func(o *callOptions) { o.withAPIKey = true }
}

// Suppress401 disables the unauthorized hook for this call. Used by the key
// provisioning flow, which must not log the agent out mid-provision.
func Suppress401() CallOption {
	return func(o *callOptions) { o.suppress401 = true }
}

// WithQuery adds query parameters to the request URL.
func WithQuery(query url.Values) CallOption {
	return func(o *callOptions) { o.query = query }
}

// Get issues a GET and decodes the JSON response into out. Transport errors are
// retried per the configured retry budget; HTTP errors are not.
func (c *Client) Get(ctx context.Context, path string, out interface{}, opts ...CallOption) error {
	return c.do(ctx, http.MethodGet, path, nil, out, opts...)
}

// Post issues a POST with a JSON body (nil means empty body).
func (c *Client) Post(ctx context.Context, path string, body interface{}, out interface{}, opts ...CallOption) error {
	return c.do(ctx, http.MethodPost, path, body, out, opts...)
}

// Put issues a PUT with a JSON body (nil means empty body).
func (c *Client) Put(ctx context.Context, path string, body interface{}, out interface{}, opts ...CallOption) error {
	return c.do(ctx, http.MethodPut, path, body, out, opts...)
}

// Delete issues a DELETE.
func (c *Client) Delete(ctx context.Context, path string, out interface{}, opts ...CallOption) error {
	return c.do(ctx, http.MethodDelete, path, nil, out, opts...)
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, out interface{}, opts ...CallOption) error {
	options := callOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	var payload []byte
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		payload = raw
	}

	fullURL := SecureURL(c.baseURL + path)
	if len(options.query) > 0 {
		fullURL = fullURL + "?" + options.query.Encode()
	}

	attempts := 1
	if method == http.MethodGet {
		attempts += c.retryAttempts
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.retryDelay):
			}
		}

		err := c.doOnce(ctx, method, fullURL, payload, out, options)
		if err == nil {
			return nil
		}
		lastErr = err

		// Only transport failures are retried; an HTTP-level error is a
		// definitive backend answer.
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return err
		}
		if ctx.Err() != nil {
			return err
		}
	}
	return lastErr
}

func (c *Client) doOnce(ctx context.Context, method, fullURL string, payload []byte, out interface{}, options callOptions) error {
	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", requestID)

	if c.credentials != nil {
		creds, err := c.credentials.Credentials(ctx)
		if err != nil {
			return fmt.Errorf("failed to read session credentials: %w", err)
		}
		if creds.Token != "" {
			req.Header.Set("Authorization", "Bearer "+creds.Token)
		}
		if options.withAPIKey {
			if creds.APIKey == "" {
				return errors.New("api key required but not present in session")
			}
			req.Header.Set("X-API-Key", creds.APIKey)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("level=warn component=backend_client request_id=%s method=%s url=%s msg=\"transport failure\" err=%v", requestID, method, fullURL, err)
		return fmt.Errorf("failed to reach backend: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read backend response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized && !options.suppress401 {
		log.Printf("level=warn component=backend_client request_id=%s method=%s url=%s status=401 msg=\"session rejected by backend\"", requestID, method, fullURL)
		if c.onUnauthorized != nil {
			c.onUnauthorized(ctx)
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail := decodeErrorDetail(resp.Header.Get("Content-Type"), bodyBytes, resp.Status)
		log.Printf("level=warn component=backend_client request_id=%s method=%s url=%s status=%d detail=%q", requestID, method, fullURL, resp.StatusCode, detail)
		return &APIError{Status: resp.StatusCode, Detail: detail}
	}

	log.Printf("level=info component=backend_client request_id=%s method=%s url=%s status=%d", requestID, method, fullURL, resp.StatusCode)

	if out == nil || len(bodyBytes) == 0 {
		return nil
	}
	if err := json.Unmarshal(bodyBytes, out); err != nil {
		return fmt.Errorf("failed to decode backend response: %w", err)
	}
	return nil
}

// decodeErrorDetail extracts a human-readable message from an error body.
// JSON bodies yield their detail field; anything else is used as raw text so a
// parse failure can never escape as a panic or decode error.
func decodeErrorDetail(contentType string, body []byte, fallback string) string {
	text := strings.TrimSpace(string(body))
	if strings.Contains(contentType, "application/json") || strings.HasPrefix(text, "{") {
		var decoded struct {
			Detail string `json:"detail"`
		}
		if err := json.Unmarshal(body, &decoded); err == nil && decoded.Detail != "" {
			return decoded.Detail
		}
	}
	if text != "" {
		return text
	}
	return fallback
}

// Forward relays a proxied request to the backend, preserving method and body
// and carrying over only the Authorization and Content-Type headers. Responses
// are returned raw; the proxy layer owns relay semantics. Caching is disabled
// for every forwarded call.
func (c *Client) Forward(ctx context.Context, method, path string, inbound http.Header, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, SecureURL(c.baseURL+path), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create forwarded request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if auth := inbound.Get("Authorization"); auth != "" {
		req.Header.Set("Authorization", auth)
	}
	if ct := inbound.Get("Content-Type"); ct != "" {
		req.Header.Set("Content-Type", ct)
	}
	req.Header.Set("Cache-Control", "no-store")

	return c.httpClient.Do(req)
}
