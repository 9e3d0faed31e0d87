// Package client provides a minimal Taiga REST API client with bearer
// token authentication, header-driven pagination, and error handling.
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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/taiga-contrib/taiga-go-client/pkg/pagination"
)

// Prometheus metrics for Taiga client operations.
var (
	taigaRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taiga_requests_total",
		Help: "Total Taiga requests by endpoint and status",
	}, []string{"endpoint", "status"})

	taigaRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "taiga_request_duration_seconds",
		Help:    "Taiga request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	taigaErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taiga_errors_total",
		Help: "Total Taiga errors by class",
	}, []string{"class"})

	taigaPagesFetchedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taiga_pages_fetched_total",
		Help: "Total pages fetched during paginated requests by endpoint",
	}, []string{"endpoint"})
)

// ErrorClass represents a classification of non-2xx HTTP responses.
type ErrorClass string

const (
	// ErrorClassAuth represents 401 responses (token rejected).
	ErrorClassAuth ErrorClass = "auth"

	// ErrorClassForbidden represents 403 responses (resource forbidden).
	ErrorClassForbidden ErrorClass = "forbidden"

	// ErrorClassClient represents other 4xx client errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassUnexpected represents any other non-2xx status.
	ErrorClassUnexpected ErrorClass = "unexpected"
)

// paginationNextHeader is the Taiga response header that signals a
// further page. Subsequent pages are requested with a page=N query
// parameter.
const paginationNextHeader = "X-Pagination-Next"

// Client is a session against a single Taiga instance. It is not safe
// for concurrent use; each fetch blocks until its round-trips complete.
type Client struct {
	baseURL    string
	token      string
	user       string
	password   string
	httpClient *http.Client
	userAgent  string
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL of the Taiga API, e.g. "https://api.taiga.io/api/v1/".
	BaseURL string

	// Token is a pre-supplied bearer token. A token-born client is
	// immediately usable and cannot Login.
	Token string

	// User and Password are exchanged for a token by Login. Both must be
	// set together.
	User     string
	Password string

	// UserAgent header sent on every request (optional).
	UserAgent string

	// HTTPClient overrides the default transport (optional, for testing).
	HTTPClient *http.Client
}

// New creates a new Taiga client. The configuration must carry a base
// URL plus either a token or a full user/password pair; anything less
// fails with ErrMissingInitArguments.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: base URL is required", ErrMissingInitArguments)
	}

	hasToken := cfg.Token != ""
	hasCredentials := cfg.User != "" && cfg.Password != ""
	if !hasToken && !hasCredentials {
		return nil, fmt.Errorf("%w: need either a token or both user and password", ErrMissingInitArguments)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: 30 * time.Second,
		}
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "taiga-go-client/0.1.0"
	}

	logger := log.With().Str("component", "taiga-client").Logger()

	baseURL := cfg.BaseURL
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	return &Client{
		baseURL:    baseURL,
		token:      cfg.Token,
		user:       cfg.User,
		password:   cfg.Password,
		httpClient: httpClient,
		userAgent:  userAgent,
		logger:     logger,
	}, nil
}

// NewWithToken creates a token-born client.
func NewWithToken(baseURL, token string) (*Client, error) {
	return New(Config{BaseURL: baseURL, Token: token})
}

// NewWithCredentials creates a credentials-born client. The client holds
// no token until Login succeeds.
func NewWithCredentials(baseURL, user, password string) (*Client, error) {
	return New(Config{BaseURL: baseURL, User: user, Password: password})
}

// Token returns the current bearer token, or "" when the client has not
// yet obtained one.
func (c *Client) Token() string {
	return c.token
}

// loginRequest is the Taiga normal-auth exchange body.
type loginRequest struct {
	Type     string `json:"type"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// loginResponse carries the token granted by the auth endpoint.
type loginResponse struct {
	AuthToken string `json:"auth_token"`
}

// Login exchanges the configured credentials for a bearer token and
// stores it, replacing any prior value. A token-born client has no
// credentials to exchange and fails with ErrLoginLacksCredentials.
func (c *Client) Login(ctx context.Context) error {
	if c.user == "" || c.password == "" {
		return fmt.Errorf("%w: client was born with a token and cannot re-authenticate", ErrLoginLacksCredentials)
	}

	body, err := json.Marshal(loginRequest{
		Type:     "normal",
		Username: c.user,
		Password: c.password,
	})
	if err != nil {
		return fmt.Errorf("encode login request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"auth", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.do(req, "auth")
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.apiError(resp.StatusCode, "auth", resp.Body)
	}

	var granted loginResponse
	if err := json.Unmarshal(resp.Body, &granted); err != nil {
		return fmt.Errorf("parse login response: %w", err)
	}
	if granted.AuthToken == "" {
		return fmt.Errorf("login response carries no auth_token")
	}

	c.token = granted.AuthToken
	c.logger.Info().Str("user", c.user).Msg("Login succeeded")
	return nil
}

// Response is a single Taiga HTTP response: status code, raw JSON body
// and headers. Produced and consumed within one fetch call.
type Response struct {
	StatusCode int
	Body       []byte
	Header     http.Header
}

// JSON unmarshals the response body into v.
func (r *Response) JSON(v any) error {
	return json.Unmarshal(r.Body, v)
}

// Get issues one GET against a resource using the current token. It does
// NOT treat non-2xx statuses as errors; callers inspect StatusCode. This
// is the lower-level escape hatch under Request.
func (c *Client) Get(ctx context.Context, resource string) (*Response, error) {
	if c.token == "" {
		return nil, ErrUninitiatedClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+resource, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	return c.do(req, endpointLabel(resource))
}

// do executes the request and drains the body into a Response.
func (c *Client) do(req *http.Request, endpoint string) (*Response, error) {
	startTime := time.Now()
	defer func() {
		taigaRequestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	c.logger.Debug().
		Str("endpoint", endpoint).
		Str("method", req.Method).
		Msg("Executing Taiga request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("endpoint", endpoint).Msg("HTTP request failed")
		taigaRequestsTotal.WithLabelValues(endpoint, "transport_error").Inc()
		return nil, fmt.Errorf("taiga request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		taigaRequestsTotal.WithLabelValues(endpoint, "read_error").Inc()
		return nil, fmt.Errorf("read response body: %w", err)
	}

	taigaRequestsTotal.WithLabelValues(endpoint, fmt.Sprintf("%d", resp.StatusCode)).Inc()

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       body,
		Header:     resp.Header,
	}, nil
}

// Request fetches a list resource across all its pages and concatenates
// the page bodies into one ordered slice. A positive limit bounds the
// result to at most limit items; zero or negative means unlimited. Any
// non-2xx page fails the whole fetch with an *APIError.
func (c *Client) Request(ctx context.Context, resource string, limit int) ([]json.RawMessage, error) {
	if c.token == "" {
		return nil, ErrUninitiatedClient
	}

	walker := pagination.NewWalker(c, c.logger)
	return walker.FetchAll(ctx, resource, limit)
}

// FetchPage fetches a single page of a list resource. It implements
// pagination.PageFetcher: page 1 requests the resource as given, later
// pages append a page=N query parameter, and the returned flag reports
// whether the response announced a further page.
func (c *Client) FetchPage(ctx context.Context, resource string, page int) ([]json.RawMessage, bool, error) {
	target := resource
	if page > 1 {
		separator := "?"
		if strings.Contains(resource, "?") {
			separator = "&"
		}
		target = fmt.Sprintf("%s%spage=%d", resource, separator, page)
	}

	resp, err := c.Get(ctx, target)
	if err != nil {
		return nil, false, err
	}

	endpoint := endpointLabel(resource)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, false, c.apiError(resp.StatusCode, target, resp.Body)
	}

	var items []json.RawMessage
	if err := json.Unmarshal(resp.Body, &items); err != nil {
		return nil, false, fmt.Errorf("parse page %d of %q: %w", page, resource, err)
	}

	taigaPagesFetchedTotal.WithLabelValues(endpoint).Inc()

	hasNext := resp.Header.Get(paginationNextHeader) != ""
	return items, hasNext, nil
}

// apiError classifies a non-2xx status, records it, and builds the
// typed error handed to callers.
func (c *Client) apiError(status int, resource string, body []byte) *APIError {
	class := classifyStatus(status)
	taigaErrorsTotal.WithLabelValues(string(class)).Inc()

	c.logger.Warn().
		Str("resource", resource).
		Int("status", status).
		Str("error_class", string(class)).
		Msg("Taiga request error")

	return &APIError{
		StatusCode: status,
		Class:      class,
		Resource:   resource,
		Body:       body,
	}
}

// classifyStatus categorizes a non-2xx status for handling and
// observability.
func classifyStatus(status int) ErrorClass {
	switch {
	case status == http.StatusUnauthorized:
		return ErrorClassAuth
	case status == http.StatusForbidden:
		return ErrorClassForbidden
	case status >= 400 && status < 500:
		return ErrorClassClient
	case status >= 500:
		return ErrorClassServer
	default:
		return ErrorClassUnexpected
	}
}

// endpointLabel strips the query from a resource for metric labels.
func endpointLabel(resource string) string {
	if i := strings.IndexByte(resource, '?'); i >= 0 {
		return resource[:i]
	}
	return resource
}
