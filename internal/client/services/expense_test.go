package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/restodash/internal/backendtest"
	"github.com/dmitrijs2005/restodash/internal/client/api"
	"github.com/dmitrijs2005/restodash/internal/client/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGuard struct {
	mu           sync.Mutex
	token        string
	unauthorized int
}

func (g *fakeGuard) Token() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.token
}

func (g *fakeGuard) HandleUnauthorized(context.Context) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.unauthorized++
	g.token = ""
}

type fixture struct {
	backend *backendtest.Server
	guard   *fakeGuard
	notices *notify.Recorder
	svc     ExpenseService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	backend := backendtest.NewServer()
	ts := httptest.NewServer(backend)
	t.Cleanup(ts.Close)

	id := backend.AddUser("Ann", "ann@x.io", "secret", "admin")
	guard := &fakeGuard{token: backend.IssueToken(id, "admin", time.Hour)}

	client, err := api.New(ts.URL+"/api", api.WithTokenSource(guard.Token))
	require.NoError(t, err)

	rec := &notify.Recorder{}
	return &fixture{
		backend: backend,
		guard:   guard,
		notices: rec,
		svc:     NewExpenseService(client, guard, rec, nil),
	}
}

func (f *fixture) last(t *testing.T) notify.Notice {
	t.Helper()
	n := f.notices.Notices()
	require.NotEmpty(t, n)
	return n[len(n)-1]
}

func TestExpenseService_AddTypeAndSubcategory(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	require.NoError(t, f.svc.AddType(ctx, "  Utilities ", true))
	assert.Equal(t, notify.Notice{Level: notify.LevelSuccess, Message: "Expense type added successfully"}, f.last(t))

	cat := f.svc.Catalog()
	require.Len(t, cat.Types, 1)
	typ := cat.Types[0]
	assert.Equal(t, "Utilities", typ.TypeName)
	assert.True(t, bool(typ.HasSubcategory))
	assert.True(t, bool(typ.IsActive))

	require.NoError(t, f.svc.AddSubcategory(ctx, typ.ID, "Electricity"))
	assert.Equal(t, "Subcategory added successfully", f.last(t).Message)

	subs := f.svc.Catalog().Subcategories[typ.ID]
	require.Len(t, subs, 1)
	assert.Equal(t, "Electricity", subs[0].SubcategoryName)

	require.NoError(t, f.svc.RenameSubcategory(ctx, subs[0].ID, "Power"))
	require.NoError(t, f.svc.DeactivateSubcategory(ctx, subs[0].ID))

	sc, ok := f.svc.Catalog().Subcategory(subs[0].ID)
	require.True(t, ok)
	assert.Equal(t, "Power", sc.SubcategoryName)
	assert.False(t, bool(sc.IsActive))
}

func TestExpenseService_RenameAndToggleType(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.svc.AddType(ctx, "Rent", false))
	id := f.svc.Catalog().Types[0].ID

	require.NoError(t, f.svc.RenameType(ctx, id, "Office rent"))
	require.NoError(t, f.svc.SetTypeActive(ctx, id, false))

	typ, ok := f.svc.Catalog().Type(id)
	require.True(t, ok)
	assert.Equal(t, "Office rent", typ.TypeName)
	assert.False(t, bool(typ.IsActive))
	assert.Equal(t, "Expense type deactivated successfully", f.last(t).Message)

	require.NoError(t, f.svc.SetTypeActive(ctx, id, true))
	typ, _ = f.svc.Catalog().Type(id)
	assert.True(t, bool(typ.IsActive))

	before := len(f.notices.Notices())
	require.NoError(t, f.svc.RenameType(ctx, id, "Office rent"))
	assert.Len(t, f.notices.Notices(), before, "renaming to the same name is a no-op")
}

type panicExpenses struct {
	api.ExpensesAPI
}

func TestExpenseService_ValidationNeverReachesNetwork(t *testing.T) {
	ctx := context.Background()
	rec := &notify.Recorder{}
	svc := NewExpenseService(panicExpenses{}, &fakeGuard{token: "t"}, rec, nil)

	require.ErrorIs(t, svc.AddType(ctx, "   ", false), ErrValidation)
	require.ErrorIs(t, svc.RenameType(ctx, 1, ""), ErrValidation)
	require.ErrorIs(t, svc.AddSubcategory(ctx, 1, "\t"), ErrValidation)
	require.ErrorIs(t, svc.RenameSubcategory(ctx, 1, " "), ErrValidation)

	assert.Equal(t, []notify.Notice{
		{Level: notify.LevelError, Message: "Expense type name is required"},
		{Level: notify.LevelError, Message: "Expense type name is required"},
		{Level: notify.LevelError, Message: "Subcategory name is required"},
		{Level: notify.LevelError, Message: "Subcategory name is required"},
	}, rec.Notices())
}

func TestExpenseService_NoTokenSkipsRequest(t *testing.T) {
	rec := &notify.Recorder{}
	svc := NewExpenseService(panicExpenses{}, &fakeGuard{}, rec, nil)

	_, err := svc.Refresh(context.Background())
	require.ErrorIs(t, err, ErrNotAuthenticated)
	require.ErrorIs(t, svc.SetTypeActive(context.Background(), 1, true), ErrNotAuthenticated)
	assert.Equal(t, "Authentication required. Please login again.", rec.Notices()[0].Message)
}

func TestExpenseService_UnauthorizedClearsSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.backend.RevokeAll()

	_, err := f.svc.Refresh(ctx)
	require.ErrorIs(t, err, api.ErrUnauthorized)
	assert.Equal(t, 1, f.guard.unauthorized)

	// the guard dropped the token, so the next call does not go out
	require.ErrorIs(t, f.svc.AddType(ctx, "Rent", false), ErrNotAuthenticated)
	assert.Equal(t, 1, f.guard.unauthorized)
}

func TestExpenseService_ServerErrorShowsServerMessage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	err := f.svc.AddSubcategory(ctx, 999, "Orphan")
	require.Error(t, err)
	assert.Equal(t, notify.Notice{Level: notify.LevelError, Message: "Expense type not found"}, f.last(t))

	f.backend.FailNext("POST /api/expense-types", http.StatusInternalServerError)
	require.Error(t, f.svc.AddType(ctx, "Rent", false))
	assert.Equal(t, "Internal Server Error", f.last(t).Message)
	assert.Zero(t, f.guard.unauthorized)
}

func TestExpenseService_RefreshFailureNotifies(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.backend.FailNext("GET /api/expense-types", http.StatusServiceUnavailable)

	_, err := f.svc.Refresh(ctx)
	require.ErrorIs(t, err, api.ErrUnavailable)
	assert.Equal(t, notify.Notice{Level: notify.LevelError, Message: "Failed to fetch expense types. Please try again."}, f.last(t))
	assert.Zero(t, f.guard.unauthorized)
}
