package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Chqrety/reservation/internal/metrics"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const maxResponseBody = 10 << 20

// Credentials is the session the client authenticates with. Token returns ""
// when there is no session; Clear is called on a 401 response.
type Credentials interface {
	Token(ctx context.Context) (string, error)
	Clear(ctx context.Context) error
}

// Backend is the shared HTTP transport to the reservation REST API.
type Backend struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger

	redis    *redis.Client
	cacheTTL time.Duration
}

// New constructs a backend for baseURL, e.g. "http://localhost:8000/api".
func New(baseURL string, timeout time.Duration, logger *zerolog.Logger) *Backend {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	l := zerolog.Nop()
	if logger != nil {
		l = logger.With().Str("component", "backend").Logger()
	}
	return &Backend{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     l,
	}
}

// UseRedisCache configures optional Redis caching for public GET endpoints.
func (b *Backend) UseRedisCache(redisClient *redis.Client, ttl time.Duration) {
	b.redis = redisClient
	b.cacheTTL = ttl
}

// Client binds the transport to a session. A nil creds yields an
// unauthenticated client.
func (b *Backend) Client(creds Credentials) *Client {
	return &Client{backend: b, creds: creds}
}

// Public returns an unauthenticated client.
func (b *Backend) Public() *Client {
	return b.Client(nil)
}

// Client issues API calls on behalf of one session.
type Client struct {
	backend *Backend
	creds   Credentials
}

type request struct {
	endpoint    string
	method      string
	path        string
	query       url.Values
	body        io.Reader
	contentType string
}

func jsonRequest(endpoint, method, path string, payload any) (request, error) {
	req := request{endpoint: endpoint, method: method, path: path}
	if payload == nil {
		return req, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return req, fmt.Errorf("encode %s body: %w", endpoint, err)
	}
	req.body = bytes.NewReader(data)
	req.contentType = "application/json"
	return req, nil
}

// do sends the request through the request and response hooks and returns
// the raw response body of a 2xx response.
func (c *Client) do(ctx context.Context, r request) ([]byte, error) {
	b := c.backend
	endpoint := b.baseURL + r.path
	if len(r.query) > 0 {
		endpoint += "?" + r.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, r.method, endpoint, r.body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	if err := c.authorize(ctx, req); err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := b.httpClient.Do(req)
	if err != nil {
		metrics.ObserveBackend(r.endpoint, 0, time.Since(start))
		b.logger.Warn().Err(err).Str("endpoint", r.endpoint).Msg("backend request failed")
		return nil, fmt.Errorf("%s: %w", r.endpoint, err)
	}
	defer resp.Body.Close()
	metrics.ObserveBackend(r.endpoint, resp.StatusCode, time.Since(start))

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("%s: read body: %w", r.endpoint, err)
	}

	b.logger.Debug().
		Str("endpoint", r.endpoint).
		Str("method", r.method).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("backend call")

	if resp.StatusCode >= 300 {
		apiErr := decodeError(resp.StatusCode, body)
		if resp.StatusCode == http.StatusUnauthorized {
			c.unauthorized(ctx)
		}
		return nil, apiErr
	}
	return body, nil
}

// authorize attaches the bearer token when the session has one.
func (c *Client) authorize(ctx context.Context, req *http.Request) error {
	if c.creds == nil {
		return nil
	}
	token, err := c.creds.Token(ctx)
	if err != nil {
		return fmt.Errorf("read session token: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return nil
}

// unauthorized tears the session down. The caller still gets the 401.
func (c *Client) unauthorized(ctx context.Context) {
	if c.creds == nil {
		return
	}
	if err := c.creds.Clear(ctx); err != nil {
		c.backend.logger.Error().Err(err).Msg("clear session after 401")
		return
	}
	c.backend.logger.Info().Msg("session cleared after 401")
}

func decodeError(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status}
	var payload struct {
		Message string              `json:"message"`
		Error   string              `json:"error"`
		Errors  map[string][]string `json:"errors"`
	}
	if len(bytes.TrimSpace(body)) > 0 && json.Unmarshal(body, &payload) == nil {
		apiErr.Message = payload.Message
		if apiErr.Message == "" {
			apiErr.Message = payload.Error
		}
		apiErr.Errors = payload.Errors
	}
	return apiErr
}

// envelope is the {success, data, message} wrapper most endpoints use.
type envelope struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

func (e envelope) ok() bool {
	return e.Success != nil && *e.Success
}

// decodeList accepts either an envelope with a data array or a bare array.
func decodeList[T any](body []byte) ([]T, error) {
	trimmed := bytes.TrimSpace(body)
	var items []T
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("decode list: %w", err)
		}
		return items, nil
	}

	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Success != nil && !*env.Success {
		return nil, ErrRejected
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return []T{}, nil
	}
	if err := json.Unmarshal(env.Data, &items); err != nil {
		return nil, fmt.Errorf("decode list data: %w", err)
	}
	return items, nil
}

// decodeItem requires success=true and a non-null data object; anything
// else is reported as ErrNotFound.
func decodeItem[T any](body []byte) (*T, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	if !env.ok() || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil, ErrNotFound
	}
	var item T
	if err := json.Unmarshal(env.Data, &item); err != nil {
		return nil, fmt.Errorf("decode data: %w", err)
	}
	return &item, nil
}

func idPath(prefix string, id int64) string {
	return fmt.Sprintf("%s/%d", prefix, id)
}
