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

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultTimeout bounds every request unless WithTimeout says otherwise.
const DefaultTimeout = 15 * time.Second

const (
	RequestIDHeaderName = "X-Request-ID"
	tracerName          = "github.com/dmitrijs2005/restodash/internal/client/api"
)

// AuthAPI is the authentication surface of the backend.
type AuthAPI interface {
	Register(ctx context.Context, req RegisterRequest) (*RegisterResult, error)
	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)
	Verify(ctx context.Context, token string) (*VerifyResult, error)
}

// ExpensesAPI is the expense type / subcategory surface of the backend.
// Mutations return the server's confirmation message.
type ExpensesAPI interface {
	ListExpenseTypes(ctx context.Context) ([]ExpenseType, error)
	CreateExpenseType(ctx context.Context, name string, hasSubcategory bool) (string, error)
	RenameExpenseType(ctx context.Context, id int64, name string) (string, error)
	ActivateExpenseType(ctx context.Context, id int64) (string, error)
	DeactivateExpenseType(ctx context.Context, id int64) (string, error)

	ListSubcategories(ctx context.Context, expenseTypeID int64) ([]Subcategory, error)
	CreateSubcategory(ctx context.Context, expenseTypeID int64, name string) (string, error)
	RenameSubcategory(ctx context.Context, id int64, name string) (string, error)
	DeactivateSubcategory(ctx context.Context, id int64) (string, error)
}

// HTTPClient talks JSON over HTTP to the backend.
type HTTPClient struct {
	baseURL string
	http    *http.Client
	token   func() string
	tracer  trace.Tracer
	timeout time.Duration
}

type Option func(*HTTPClient)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(h *HTTPClient) { h.http = c }
}

// WithTokenSource sets the function consulted for the bearer token on
// every authenticated request.
func WithTokenSource(fn func() string) Option {
	return func(h *HTTPClient) { h.token = fn }
}

func WithTracer(t trace.Tracer) Option {
	return func(h *HTTPClient) { h.tracer = t }
}

// WithTimeout sets the per-request timeout; zero or negative disables it.
func WithTimeout(d time.Duration) Option {
	return func(h *HTTPClient) { h.timeout = d }
}

// New builds a client for the API rooted at baseURL, e.g.
// "http://localhost:3000/api".
func New(baseURL string, opts ...Option) (*HTTPClient, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", baseURL)
	}

	c := &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    http.DefaultClient,
		token:   func() string { return "" },
		tracer:  otel.Tracer(tracerName),
		timeout: DefaultTimeout,
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// request describes one call. route is the templated path used for span
// names; path is the concrete one.
type request struct {
	method string
	route  string
	path   string
	token  string
	body   any
	out    any
}

func (c *HTTPClient) do(ctx context.Context, r request) (err error) {
	ctx, span := c.tracer.Start(ctx, r.method+" "+r.route,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", r.method),
			attribute.String("http.route", r.route),
		),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var body io.Reader
	if r.body != nil {
		b, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, c.baseURL+r.path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	requestID := uuid.NewString()
	req.Header.Set(RequestIDHeaderName, requestID)
	span.SetAttributes(attribute.String("http.request.id", requestID))
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return fmt.Errorf("%w: %s %s: %v", ErrUnavailable, r.method, r.route, err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %v", ErrUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(resp.StatusCode, data)
	}

	if r.out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, r.out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

func newAPIError(status int, data []byte) *APIError {
	var eb errorBody
	_ = json.Unmarshal(data, &eb)

	msg := eb.Message
	if msg == "" {
		msg = eb.Error
	}
	if msg == "" {
		msg = fmt.Sprintf("API error: %d", status)
	}
	return &APIError{Status: status, Message: msg}
}

// authed fills the bearer token from the token source.
func (c *HTTPClient) authed(r request) request {
	r.token = c.token()
	return r
}
