package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/restodash/internal/backendtest"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

type fixture struct {
	srv    *backendtest.Server
	ts     *httptest.Server
	client *HTTPClient
	token  string
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{srv: backendtest.NewServer()}
	f.ts = httptest.NewServer(f.srv)
	t.Cleanup(f.ts.Close)

	opts = append([]Option{WithTokenSource(func() string { return f.token })}, opts...)
	c, err := New(f.ts.URL+"/api", opts...)
	require.NoError(t, err)
	f.client = c
	return f
}

func (f *fixture) login(t *testing.T) {
	t.Helper()
	f.srv.AddUser("Ann", "ann@example.com", "secret", "admin")
	res, err := f.client.Login(context.Background(), LoginRequest{Email: "ann@example.com", Password: "secret"})
	require.NoError(t, err)
	f.token = res.Token
}

func TestNew_RejectsBadBaseURL(t *testing.T) {
	_, err := New("localhost:3000/api")
	require.Error(t, err)

	_, err = New("://")
	require.Error(t, err)
}

func TestLogin_SuccessReturnsTokenAndUser(t *testing.T) {
	f := newFixture(t)
	id := f.srv.AddUser("Ann", "ann@example.com", "secret", "admin")

	res, err := f.client.Login(context.Background(), LoginRequest{Email: "ann@example.com", Password: "secret"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	require.NotNil(t, res.User)
	assert.Equal(t, id, res.User.ID)
	assert.Equal(t, "admin", res.User.Role)
	assert.NotZero(t, res.User.ExpiresAt)
}

func TestLogin_BadCredentialsCarryServerMessage(t *testing.T) {
	f := newFixture(t)

	_, err := f.client.Login(context.Background(), LoginRequest{Email: "nobody@example.com", Password: "x"})
	require.ErrorIs(t, err, ErrUnauthorized)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "Invalid credentials", UserMessage(err, "Login failed"))
}

func TestRegister_DoesNotRequireToken(t *testing.T) {
	f := newFixture(t)

	res, err := f.client.Register(context.Background(), RegisterRequest{
		Name: "A", Email: "a@x.com", Password: "p", Role: "admin", RestaurantID: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, "User registered successfully", res.Message)
	assert.Empty(t, res.Token)

	_, err = f.client.Register(context.Background(), RegisterRequest{
		Name: "A", Email: "a@x.com", Password: "p", Role: "admin", RestaurantID: 1,
	})
	assert.Equal(t, "User already exists", UserMessage(err, "Registration failed"))
}

func TestVerify_UsesExplicitToken(t *testing.T) {
	f := newFixture(t)
	tok := f.srv.IssueToken(42, "branch_manager", time.Hour)

	res, err := f.client.Verify(context.Background(), tok)
	require.NoError(t, err)
	require.NotNil(t, res.User)
	assert.EqualValues(t, 42, res.User.ID)

	h := f.srv.LastHeaders("GET /api/auth/protected")
	assert.Equal(t, "Bearer "+tok, h.Get("Authorization"))
	_, err = uuid.Parse(h.Get(RequestIDHeaderName))
	assert.NoError(t, err, "request id must be a uuid")
}

func TestVerify_ExpiredTokenIsUnauthorized(t *testing.T) {
	f := newFixture(t)
	tok := f.srv.IssueToken(1, "admin", -time.Minute)

	_, err := f.client.Verify(context.Background(), tok)
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestExpenseTypes_CRUDRoundTrip(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	ctx := context.Background()

	msg, err := f.client.CreateExpenseType(ctx, "Utilities", true)
	require.NoError(t, err)
	assert.Equal(t, "Expense type created successfully", msg)

	types, err := f.client.ListExpenseTypes(ctx)
	require.NoError(t, err)
	require.Len(t, types, 1)
	et := types[0]
	assert.Equal(t, "Utilities", et.TypeName)
	assert.True(t, bool(et.HasSubcategory))
	assert.True(t, bool(et.IsActive))

	_, err = f.client.RenameExpenseType(ctx, et.ID, "Bills")
	require.NoError(t, err)
	_, err = f.client.DeactivateExpenseType(ctx, et.ID)
	require.NoError(t, err)

	types, err = f.client.ListExpenseTypes(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Bills", types[0].TypeName)
	assert.False(t, bool(types[0].IsActive))

	_, err = f.client.ActivateExpenseType(ctx, et.ID)
	require.NoError(t, err)

	_, err = f.client.CreateSubcategory(ctx, et.ID, "Water")
	require.NoError(t, err)
	subs, err := f.client.ListSubcategories(ctx, et.ID)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, et.ID, subs[0].ExpenseTypeID)

	_, err = f.client.RenameSubcategory(ctx, subs[0].ID, "Water & sewage")
	require.NoError(t, err)
	_, err = f.client.DeactivateSubcategory(ctx, subs[0].ID)
	require.NoError(t, err)

	subs, err = f.client.ListSubcategories(ctx, et.ID)
	require.NoError(t, err)
	assert.Equal(t, "Water & sewage", subs[0].SubcategoryName)
	assert.False(t, bool(subs[0].IsActive))
}

func TestExpenseTypes_NotFoundIsAPIError(t *testing.T) {
	f := newFixture(t)
	f.login(t)

	_, err := f.client.RenameExpenseType(context.Background(), 999, "x")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.False(t, errors.Is(err, ErrUnauthorized))
}

func TestAuthenticatedCall_WithoutTokenIsUnauthorized(t *testing.T) {
	f := newFixture(t)

	_, err := f.client.ListExpenseTypes(context.Background())
	require.ErrorIs(t, err, ErrUnauthorized)
	assert.Empty(t, f.srv.LastHeaders("GET /api/expense-types").Get("Authorization"))
}

func TestGatewayErrorsAreUnavailable(t *testing.T) {
	f := newFixture(t)
	f.srv.FailNext("POST /api/auth/login", http.StatusBadGateway)

	_, err := f.client.Login(context.Background(), LoginRequest{Email: "a", Password: "b"})
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestTransportErrorIsUnavailable(t *testing.T) {
	f := newFixture(t)
	f.ts.Close()

	_, err := f.client.Login(context.Background(), LoginRequest{Email: "a", Password: "b"})
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestTimeoutIsUnavailable(t *testing.T) {
	block := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}))
	defer ts.Close()
	defer close(block)

	c, err := New(ts.URL, WithTimeout(50*time.Millisecond))
	require.NoError(t, err)

	_, err = c.Verify(context.Background(), "tok")
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestCallerCancellationIsNotUnavailable(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer ts.Close()

	c, err := New(ts.URL)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err = c.Verify(ctx, "tok")
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, errors.Is(err, ErrUnavailable))
}

func TestLogin_ResponseWithoutTokenIsMalformed(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message":"ok"}`))
	}))
	defer ts.Close()

	c, err := New(ts.URL)
	require.NoError(t, err)

	_, err = c.Login(context.Background(), LoginRequest{Email: "a", Password: "b"})
	require.ErrorIs(t, err, ErrMalformedResponse)
}

func TestRequestsAreTraced(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	f := newFixture(t, WithTracer(tp.Tracer("test")))

	_, _ = f.client.Login(context.Background(), LoginRequest{Email: "a", Password: "b"})

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "POST /auth/login", spans[0].Name)
	assert.Equal(t, "Error", spans[0].Status.Code.String())
}

func TestFlag_UnmarshalAcceptsNumbersAndBools(t *testing.T) {
	for in, want := range map[string]bool{"1": true, "0": false, "true": true, "false": false, "null": false} {
		var f Flag
		require.NoError(t, f.UnmarshalJSON([]byte(in)), in)
		assert.Equal(t, want, bool(f), in)
	}
	var f Flag
	require.Error(t, f.UnmarshalJSON([]byte(`"yes"`)))
}
