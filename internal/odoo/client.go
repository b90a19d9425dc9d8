// Package odoo implements a thin JSON-RPC 2.0 client for the Odoo
// external API: session login, generic execute_kw model calls, domain
// helpers and field metadata lookups. It is transport glue only; no
// server-side business logic is reimplemented here.
package odoo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// ClientConfig configures the JSON-RPC client behavior.
type ClientConfig struct {
	// URL is the Odoo instance URL (e.g. https://odoo.example.com).
	URL string

	// Database is the Odoo database name.
	Database string

	// Username is the login user.
	Username string

	// Password is the login password or API key.
	Password string

	// Timeout for individual requests (default: 300s, Odoo imports are slow).
	Timeout time.Duration

	// MaxRetries for failed requests (default: 3).
	MaxRetries int

	// RateLimit requests per second (default: 10).
	RateLimit float64

	// RateBurst maximum burst size (default: 5).
	RateBurst int

	// UserAgent string (default: "godoo-rpc/1.0").
	UserAgent string

	// Transport allows injecting a custom HTTP transport (for tests/stubs).
	Transport http.RoundTripper

	// Logger for request logging. Defaults to zap.NewNop().
	Logger *zap.Logger
}

// DefaultClientConfig returns a client config with sensible defaults.
func DefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		Timeout:    300 * time.Second,
		MaxRetries: 3,
		RateLimit:  10.0,
		RateBurst:  5,
		UserAgent:  "godoo-rpc/1.0",
	}
}

// Validate checks required fields and normalizes defaults.
func (c *ClientConfig) Validate() error {
	if c.URL == "" {
		return wrapError(CodeUnreachable, false, fmt.Errorf("url is required"))
	}
	if c.Database == "" {
		return wrapError(CodeAuthInvalid, false, fmt.Errorf("database is required"))
	}
	if c.Username == "" {
		return wrapError(CodeAuthInvalid, false, fmt.Errorf("username is required"))
	}
	if c.Timeout == 0 {
		c.Timeout = 300 * time.Second
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.RateLimit == 0 {
		c.RateLimit = 10.0
	}
	if c.RateBurst == 0 {
		c.RateBurst = 5
	}
	if c.UserAgent == "" {
		c.UserAgent = "godoo-rpc/1.0"
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	return nil
}

// Endpoint resolves the /jsonrpc endpoint URL. An https scheme without an
// explicit port implies 443, anything else defaults to 80.
func (c *ClientConfig) Endpoint() (string, error) {
	u, err := url.Parse(c.URL)
	if err != nil {
		return "", wrapError(CodeUnreachable, false, fmt.Errorf("invalid url: %w", err))
	}
	if u.Scheme == "" {
		u.Scheme = "http"
	}
	if u.Port() == "" {
		port := "80"
		if u.Scheme == "https" {
			port = "443"
		}
		u.Host = u.Hostname() + ":" + port
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/jsonrpc"
	return u.String(), nil
}

// =============================================================================
// JSON-RPC CLIENT
// =============================================================================

// Client is a rate-limited, retry-capable Odoo JSON-RPC client.
type Client struct {
	config      *ClientConfig
	endpoint    string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	log         *zap.Logger

	uid int64
}

// NewClient creates a new client with the given configuration. The client
// is not logged in yet; call Login or WaitForReady first.
func NewClient(config *ClientConfig) (*Client, error) {
	if config == nil {
		config = DefaultClientConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	endpoint, err := config.Endpoint()
	if err != nil {
		return nil, err
	}

	return &Client{
		config:   config,
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout:   config.Timeout,
			Transport: config.Transport,
		},
		rateLimiter: rate.NewLimiter(rate.Limit(config.RateLimit), config.RateBurst),
		log:         config.Logger,
	}, nil
}

// Database returns the configured database name.
func (c *Client) Database() string { return c.config.Database }

// UID returns the authenticated user id, or 0 before login.
func (c *Client) UID() int64 { return c.uid }

// =============================================================================
// WIRE TYPES
// =============================================================================

type rpcRequest struct {
	JSONRPC string    `json:"jsonrpc"`
	Method  string    `json:"method"`
	Params  rpcParams `json:"params"`
	ID      string    `json:"id"`
}

type rpcParams struct {
	Service string `json:"service"`
	Method  string `json:"method"`
	Args    []any  `json:"args"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcFault       `json:"error"`
}

type rpcFault struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		Name    string `json:"name"`
		Message string `json:"message"`
		Debug   string `json:"debug"`
	} `json:"data"`
}

// =============================================================================
// CALL EXECUTION
// =============================================================================

// Call executes a raw JSON-RPC service call with rate limiting and retry.
func (c *Client) Call(ctx context.Context, service, method string, args ...any) (json.RawMessage, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		result, err := c.callOnce(ctx, service, method, args)
		if err == nil {
			return result, nil
		}

		lastErr = err
		if !IsRetryable(err) {
			return nil, err
		}

		backoff := time.Duration(1<<uint(attempt)) * 100 * time.Millisecond
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// callOnce executes a single JSON-RPC exchange.
func (c *Client) callOnce(ctx context.Context, service, method string, args []any) (json.RawMessage, error) {
	payload, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		Method:  "call",
		Params:  rpcParams{Service: service, Method: method, Args: args},
		ID:      uuid.New().String(),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("User-Agent", c.config.UserAgent)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, wrapError(CodeUnreachable, true, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, wrapError(CodeBadResponse, true, fmt.Errorf("read body: %w", err))
	}

	if resp.StatusCode >= 400 {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Message: string(body)}
	}

	var envelope rpcResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, wrapError(CodeBadResponse, false, fmt.Errorf("decode response: %w", err))
	}
	if envelope.Error != nil {
		fault := envelope.Error
		return nil, &ServerError{
			RPCCode: fault.Code,
			Name:    fault.Data.Name,
			Message: firstNonEmpty(fault.Data.Message, fault.Message),
			Debug:   fault.Data.Debug,
		}
	}

	return envelope.Result, nil
}

// ExecuteKw calls a method on an Odoo model through the object service.
// kwargs may be nil.
func (c *Client) ExecuteKw(ctx context.Context, model, method string, args []any, kwargs map[string]any) (json.RawMessage, error) {
	if c.uid == 0 {
		return nil, wrapError(CodeAuthInvalid, false, fmt.Errorf("not logged in"))
	}
	if args == nil {
		args = []any{}
	}
	if kwargs == nil {
		kwargs = map[string]any{}
	}
	c.log.Debug("odoo execute_kw",
		zap.String("model", model),
		zap.String("method", method))
	return c.Call(ctx, "object", "execute_kw",
		c.config.Database, c.uid, c.config.Password, model, method, args, kwargs)
}

// =============================================================================
// DECODE HELPERS
// =============================================================================

func decodeInt(raw json.RawMessage) (int64, error) {
	var n json.Number
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&n); err != nil {
		return 0, wrapError(CodeBadResponse, false, fmt.Errorf("expected number, got %s", raw))
	}
	i, err := strconv.ParseInt(n.String(), 10, 64)
	if err != nil {
		return 0, wrapError(CodeBadResponse, false, err)
	}
	return i, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
