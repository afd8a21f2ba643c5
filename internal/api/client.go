// Package api implements the HTTP client for the catalog REST
// backend. All server response shapes are normalized at this boundary
// into the canonical list types in pkg/model; nothing above this
// package ever sees a raw response.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/me/shelf/internal/session"
	"github.com/me/shelf/pkg/model"
)

// Config contains API client settings.
type Config struct {
	// BaseURL is the catalog API base URL.
	BaseURL string

	// Timeout is the HTTP request timeout.
	Timeout time.Duration

	// MaxRetries is the number of retry attempts for list requests.
	MaxRetries int

	// RetryDelay is the initial delay between retries.
	RetryDelay time.Duration
}

// Client is an HTTP client for the catalog API. The session store is
// injected at construction and consulted before every authenticated
// call; an empty token fails fast without touching the network.
type Client struct {
	baseURL    string
	httpClient *http.Client
	session    *session.Store
	logger     *slog.Logger
	maxRetries int
	retryDelay time.Duration
}

// NewClient creates a catalog API client with connection pooling.
func NewClient(cfg Config, sess *session.Store, logger *slog.Logger) *Client {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	maxRetries := cfg.MaxRetries
	if maxRetries == 0 {
		maxRetries = 3
	}
	retryDelay := cfg.RetryDelay
	if retryDelay == 0 {
		retryDelay = time.Second
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		session:    sess,
		logger:     logger,
		maxRetries: maxRetries,
		retryDelay: retryDelay,
	}
}

// ListProducts fetches one page of products. The response may be a
// bare array or an envelope; both normalize to a ProductList. Rate
// limiting and transient failures are retried with exponential
// backoff.
func (c *Client) ListProducts(ctx context.Context, opts model.ListOptions) (*model.ProductList, error) {
	opts.Clamp()
	q := url.Values{}
	q.Set("offset", strconv.Itoa(opts.Offset))
	q.Set("limit", strconv.Itoa(opts.Limit))
	if opts.CategoryID != "" {
		q.Set("categoryId", opts.CategoryID)
	}

	data, header, err := c.doRetry(ctx, http.MethodGet, "/products", q, nil)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	list, err := decodeProductList(data, header)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return list, nil
}

// SearchProducts returns all products matching the search text.
// Search results are not paginated server-side and are not retried.
func (c *Client) SearchProducts(ctx context.Context, text string) ([]model.Product, error) {
	q := url.Values{}
	q.Set("q", text)

	data, header, err := c.do(ctx, http.MethodGet, "/products/search", q, nil, true)
	if err != nil {
		return nil, fmt.Errorf("search products: %w", surfaceError(err))
	}
	list, err := decodeProductList(data, header)
	if err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}
	return list.Items, nil
}

// GetProduct fetches a single product. If the direct fetch fails, it
// falls back to a single-item filtered list query for the same
// identifier, and reports NOT_FOUND when that also yields nothing.
func (c *Client) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	data, _, err := c.do(ctx, http.MethodGet, "/products/"+url.PathEscape(id), nil, nil, true)
	if err == nil {
		p, decErr := decodeProduct(data)
		if decErr == nil {
			return p, nil
		}
		err = decErr
	}
	if model.IsSessionExpired(err) || model.IsAuthMissing(err) {
		return nil, err
	}
	c.logger.Debug("direct product fetch failed, trying list query", "id", id, "error", err)

	q := url.Values{}
	q.Set("id", id)
	q.Set("limit", "1")
	data, header, err := c.do(ctx, http.MethodGet, "/products", q, nil, true)
	if err != nil {
		if model.IsSessionExpired(err) || model.IsAuthMissing(err) {
			return nil, err
		}
		return nil, model.NewNotFoundError("product", id)
	}
	list, err := decodeProductList(data, header)
	if err != nil || len(list.Items) == 0 {
		return nil, model.NewNotFoundError("product", id)
	}
	return &list.Items[0], nil
}

// CreateProduct creates a product and returns the server's resulting
// record. Client-side validation runs before any network call.
func (c *Client) CreateProduct(ctx context.Context, p model.Product) (*model.Product, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	data, _, err := c.do(ctx, http.MethodPost, "/products", nil, p, true)
	if err != nil {
		return nil, fmt.Errorf("create product: %w", surfaceError(err))
	}
	created, err := decodeProduct(data)
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	return created, nil
}

// UpdateProduct updates a product and returns the server's resulting
// record.
func (c *Client) UpdateProduct(ctx context.Context, id string, p model.Product) (*model.Product, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	data, _, err := c.do(ctx, http.MethodPut, "/products/"+url.PathEscape(id), nil, p, true)
	if err != nil {
		return nil, fmt.Errorf("update product: %w", surfaceError(err))
	}
	updated, err := decodeProduct(data)
	if err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	return updated, nil
}

// DeleteProduct deletes a product and returns the deleted identifier.
func (c *Client) DeleteProduct(ctx context.Context, id string) (string, error) {
	_, _, err := c.do(ctx, http.MethodDelete, "/products/"+url.PathEscape(id), nil, nil, true)
	if err != nil {
		return "", fmt.Errorf("delete product: %w", surfaceError(err))
	}
	return id, nil
}

// ListCategories fetches one page of categories, optionally filtered
// by search text. Uses the same retry policy and total-count fallback
// as ListProducts.
func (c *Client) ListCategories(ctx context.Context, search string, opts model.ListOptions) (*model.CategoryList, error) {
	opts.Clamp()
	q := url.Values{}
	q.Set("offset", strconv.Itoa(opts.Offset))
	q.Set("limit", strconv.Itoa(opts.Limit))

	path := "/categories"
	if search != "" {
		path = "/categories/search"
		q.Set("q", search)
	}

	data, header, err := c.doRetry(ctx, http.MethodGet, path, q, nil)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	list, err := decodeCategoryList(data, header)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return list, nil
}

// Login exchanges an email for a bearer token. The email is validated
// client-side before any network call. The caller is responsible for
// persisting the returned token.
func (c *Client) Login(ctx context.Context, email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", model.NewValidationError("invalid login",
			model.FieldError{Field: "email", Message: "email is required"})
	}

	data, _, err := c.do(ctx, http.MethodPost, "/auth", nil, map[string]string{"email": email}, false)
	if err != nil {
		return "", fmt.Errorf("login: %w", surfaceError(err))
	}

	var resp struct {
		Token       string `json:"token"`
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", fmt.Errorf("login: parse response: %w", err)
	}
	tok := resp.Token
	if tok == "" {
		tok = resp.AccessToken
	}
	if tok == "" {
		return "", fmt.Errorf("login: server returned no token")
	}
	return tok, nil
}

// doRetry performs a request with the retry policy for list
// operations: up to maxRetries retries with exponential backoff,
// honoring Retry-After on 429. Session-expiry and missing-auth errors
// are never retried.
func (c *Client) doRetry(ctx context.Context, method, path string, query url.Values, payload any) ([]byte, http.Header, error) {
	var lastErr error
	for attempt := 0; ; attempt++ {
		data, header, err := c.do(ctx, method, path, query, payload, true)
		if err == nil {
			return data, header, nil
		}
		if model.IsSessionExpired(err) || model.IsAuthMissing(err) {
			return nil, nil, err
		}
		lastErr = err

		if attempt >= c.maxRetries {
			if he, ok := lastErr.(*httpError); ok && he.StatusCode == http.StatusTooManyRequests {
				return nil, nil, model.NewRateLimitError(attempt + 1)
			}
			return nil, nil, surfaceError(lastErr)
		}

		delay := c.backoffDelay(attempt)
		if he, ok := lastErr.(*httpError); ok && he.RetryAfter > 0 {
			delay = he.RetryAfter
		}
		c.logger.Warn("request failed, retrying",
			"method", method, "path", path, "attempt", attempt, "delay", delay, "error", lastErr)

		select {
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		case <-time.After(delay):
		}
	}
}

// backoffDelay calculates the delay for a retry attempt using
// exponential backoff: delay * 2^attempt, capped at 30 seconds.
func (c *Client) backoffDelay(attempt int) time.Duration {
	delay := c.retryDelay
	for i := 0; i < attempt; i++ {
		delay *= 2
	}
	if delay > 30*time.Second {
		delay = 30 * time.Second
	}
	return delay
}

// do performs a single HTTP request and returns the raw response body
// and headers. When authed is true the session store must hold a
// token, and a 401 response tears the session down before surfacing
// SESSION_EXPIRED.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload any, authed bool) ([]byte, http.Header, error) {
	var authHeader string
	if authed {
		h, err := c.session.AuthHeader()
		if err != nil {
			return nil, nil, err
		}
		authHeader = h
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var bodyReader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, nil, fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, bodyReader)
	if err != nil {
		return nil, nil, fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}

	c.logger.Debug("HTTP request", "method", method, "url", u)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("read response: %w", err)
	}

	c.logger.Debug("HTTP response", "status", resp.StatusCode, "bytes", len(respBody))

	if authed && resp.StatusCode == http.StatusUnauthorized {
		if clearErr := c.session.Clear(); clearErr != nil {
			c.logger.Warn("clear session after 401", "error", clearErr)
		}
		return nil, nil, model.NewSessionExpiredError()
	}

	if resp.StatusCode >= 400 {
		return nil, nil, &httpError{
			StatusCode: resp.StatusCode,
			Message:    serverMessage(respBody, resp.StatusCode),
			RetryAfter: parseRetryAfter(resp.Header),
		}
	}

	return respBody, resp.Header, nil
}

// httpError represents a non-2xx HTTP response.
type httpError struct {
	StatusCode int
	Message    string
	RetryAfter time.Duration // from Retry-After, 0 if absent
}

func (e *httpError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// surfaceError converts internal transport errors into the structured
// errors callers see. Structured errors pass through unchanged.
func surfaceError(err error) error {
	if he, ok := err.(*httpError); ok {
		if he.StatusCode == http.StatusTooManyRequests {
			return model.NewRateLimitError(1)
		}
		if he.StatusCode == http.StatusNotFound {
			return &model.APIError{Code: model.ErrNotFound, Message: he.Message}
		}
		return &model.APIError{Code: model.ErrServer, Message: he.Message}
	}
	return err
}

// serverMessage extracts a human-readable error message from a
// response body, defaulting to a generic message when the body is not
// parseable.
func serverMessage(body []byte, status int) string {
	var parsed struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil {
		if parsed.Message != "" {
			return parsed.Message
		}
		if parsed.Error != "" {
			return parsed.Error
		}
	}
	return fmt.Sprintf("server error (status %d)", status)
}

// parseRetryAfter reads a Retry-After header given in seconds.
func parseRetryAfter(header http.Header) time.Duration {
	v := header.Get("Retry-After")
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
