// ABOUTME: HTTP client for the credit evaluation API
// ABOUTME: One call per operation with bearer auth, request ids and client spans

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// RequestIDHeader carries a per-request correlation id
const RequestIDHeader = "X-Request-ID"

const tracerName = "github.com/markalston/crediteval/internal/client"

// Client is the API client for the credit evaluation backend
type Client struct {
	baseURL    string
	httpClient *http.Client
	tracer     trace.Tracer

	mu    sync.RWMutex
	token string
}

// Option customizes a Client
type Option func(*Client)

// WithTimeout sets the per-request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// New creates a new API client with the given base URL
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured API root
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SetToken installs the bearer credential sent with every request.
// An empty token removes it.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// Token returns the current bearer credential
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Register calls POST /register
func (c *Client) Register(ctx context.Context, profile Profile) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.do(ctx, http.MethodPost, "/register", profile, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Login calls POST /login
func (c *Client) Login(ctx context.Context, creds Credentials) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.do(ctx, http.MethodPost, "/login", creds, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Me calls GET /me
func (c *Client) Me(ctx context.Context) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, "/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// SubmitCreditInput calls POST /credit-inputs. The evaluation arrives
// wrapped as {"result": {...}}; a bare evaluation is accepted too.
func (c *Client) SubmitCreditInput(ctx context.Context, input CreditInput) (*CreditResult, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodPost, "/credit-inputs", input, &raw); err != nil {
		return nil, err
	}

	var envelope submitResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("invalid response from backend: %w", err)
	}
	if envelope.Result != nil {
		return envelope.Result, nil
	}

	var result CreditResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("invalid response from backend: %w", err)
	}
	return &result, nil
}

// CreditHistory calls GET /credit-inputs
func (c *Client) CreditHistory(ctx context.Context) ([]CreditResult, error) {
	var history []CreditResult
	if err := c.do(ctx, http.MethodGet, "/credit-inputs", nil, &history); err != nil {
		return nil, err
	}
	if history == nil {
		history = []CreditResult{}
	}
	return history, nil
}

// CreditResult calls GET /credit-results/{id}
func (c *Client) CreditResult(ctx context.Context, inputID ID) (*CreditResult, error) {
	var result CreditResult
	if err := c.do(ctx, http.MethodGet, "/credit-results/"+url.PathEscape(inputID.String()), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// AdminUsers calls GET /admin/users
func (c *Client) AdminUsers(ctx context.Context) ([]User, error) {
	var users []User
	if err := c.do(ctx, http.MethodGet, "/admin/users", nil, &users); err != nil {
		return nil, err
	}
	if users == nil {
		users = []User{}
	}
	return users, nil
}

// AdminStats calls GET /admin/stats
func (c *Client) AdminStats(ctx context.Context) (*Stats, error) {
	var stats Stats
	if err := c.do(ctx, http.MethodGet, "/admin/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// AdminOverview loads users and stats concurrently and returns once both settle
func (c *Client) AdminOverview(ctx context.Context) (*AdminOverview, error) {
	var overview AdminOverview
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		users, err := c.AdminUsers(gctx)
		if err != nil {
			return err
		}
		overview.Users = users
		return nil
	})
	g.Go(func() error {
		stats, err := c.AdminStats(gctx)
		if err != nil {
			return err
		}
		overview.Stats = stats
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &overview, nil
}

// UpdateUserRole calls PATCH /admin/users/{id}. The returned user reflects
// the backend's response; fields it omits are left zero.
func (c *Client) UpdateUserRole(ctx context.Context, userID ID, role Role) (*User, error) {
	body := struct {
		Role Role `json:"role"`
	}{Role: role}

	var user User
	if err := c.do(ctx, http.MethodPatch, "/admin/users/"+url.PathEscape(userID.String()), body, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// do performs one request. out may be nil; an empty response body leaves it untouched.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	requestID := uuid.NewString()
	ctx, span := c.tracer.Start(ctx, method+" "+path, trace.WithSpanKind(trace.SpanKindClient), trace.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("http.target", path),
		attribute.String("request.id", requestID),
	))
	defer span.End()

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal input: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(RequestIDHeader, requestID)
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		err = c.handleRequestError(ctx, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.Warn("api request failed", "method", method, "path", path, "request_id", requestID, "error", err)
		return err
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	slog.Debug("api request", "method", method, "path", path, "status", resp.StatusCode,
		"request_id", requestID, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := c.handleErrorResponse(resp)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.Warn("api error response", "method", method, "path", path, "status", resp.StatusCode,
			"request_id", requestID, "error", err)
		return err
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("invalid response from backend: %w", err)
	}
	return nil
}

// handleRequestError converts context errors to user-friendly messages
func (c *Client) handleRequestError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return &NetworkError{Reason: "request canceled"}
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &NetworkError{Reason: "request timed out"}
	}
	var ue *url.Error
	if errors.As(err, &ue) && ue.Timeout() {
		return &NetworkError{Reason: "request timed out"}
	}
	return &NetworkError{Reason: fmt.Sprintf("cannot connect to backend at %s", c.BaseURL()), Err: err}
}

// handleErrorResponse parses API error responses
func (c *Client) handleErrorResponse(resp *http.Response) error {
	var errResp ErrorResponse
	message := ""
	details := ""
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil {
		message = errResp.Error
		if message == "" {
			message = errResp.Message
		}
		details = errResp.Details
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return &AuthError{Status: resp.StatusCode, Message: message}
	}
	return &BackendError{Status: resp.StatusCode, Message: message, Details: details}
}
