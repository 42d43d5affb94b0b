package cli

import (
	"bytes"
	"context"
	"io"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/restodash/internal/backendtest"
	"github.com/dmitrijs2005/restodash/internal/client/config"
	"github.com/dmitrijs2005/restodash/internal/client/router"
)

type testEnv struct {
	backend *backendtest.Server
	cfg     *config.Config
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	backend := backendtest.NewServer()
	ts := httptest.NewServer(backend)
	t.Cleanup(ts.Close)

	backend.AddUser("Alice", "alice@example.com", "secret", "admin")

	return &testEnv{
		backend: backend,
		cfg: &config.Config{
			APIBaseURL:     ts.URL + "/api",
			StoragePath:    filepath.Join(t.TempDir(), "restodash.db"),
			RequestTimeout: 5 * time.Second,
			LogLevel:       "error",
			LogFormat:      "text",
		},
	}
}

// app builds an App reading input. The caller closes it, directly or
// through Run.
func (e *testEnv) app(t *testing.T, input string) (*App, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	a, err := NewApp(context.Background(), e.cfg, Streams{In: strings.NewReader(input), Out: &out, Err: io.Discard})
	require.NoError(t, err)
	return a, &out
}

func stubPassword(t *testing.T, pw string) {
	t.Helper()
	orig := getPassword
	getPassword = func(io.Writer) ([]byte, error) { return []byte(pw), nil }
	t.Cleanup(func() { getPassword = orig })
}

func TestApp_RunLoginManageTypesLogout(t *testing.T) {
	env := newTestEnv(t)
	stubPassword(t, "secret")

	a, out := env.app(t, strings.Join([]string{
		"types",
		"login",
		"alice@example.com",
		"go /records",
		"addtype",
		"Rent",
		"y",
		"addsub 2", // ids are shared with the seeded user
		"Electricity",
		"types",
		"addtype",
		"   ",
		"n",
		"logout",
		"exit",
	}, "\n")+"\n")

	require.NoError(t, a.Run(context.Background()))

	got := out.String()
	assert.Contains(t, got, "Use 'login' to sign in")
	assert.Contains(t, got, "Login successful")
	assert.Contains(t, got, "No expense types yet")
	assert.Contains(t, got, "Expense type added successfully")
	assert.Contains(t, got, "Subcategory added successfully")
	assert.Contains(t, got, "Electricity")
	assert.Contains(t, got, "Expense type name is required")
	assert.Contains(t, got, "Logged out")
	assert.Contains(t, got, "Bye!")
}

func TestApp_StartRestoresStoredSession(t *testing.T) {
	env := newTestEnv(t)
	stubPassword(t, "secret")

	first, _ := env.app(t, "alice@example.com\n")
	require.NoError(t, first.Start(context.Background()))
	require.NoError(t, first.Login(context.Background()))
	require.NoError(t, first.Close())

	second, out := env.app(t, "")
	defer second.Close()
	require.NoError(t, second.Start(context.Background()))

	assert.True(t, second.isLoggedIn())
	assert.Contains(t, out.String(), "Verifying saved session...")
	assert.Equal(t, router.PathDashboard, second.history.Current())
	assert.Contains(t, second.status(), "alice@example.com")
}

func TestApp_StartDropsRevokedSession(t *testing.T) {
	env := newTestEnv(t)
	stubPassword(t, "secret")

	first, _ := env.app(t, "alice@example.com\n")
	require.NoError(t, first.Start(context.Background()))
	require.NoError(t, first.Login(context.Background()))
	require.NoError(t, first.Close())

	env.backend.RevokeAll()

	second, out := env.app(t, "")
	defer second.Close()
	require.NoError(t, second.Start(context.Background()))

	assert.False(t, second.isLoggedIn())
	assert.Contains(t, out.String(), "Saved session is no longer valid")
	assert.Equal(t, router.PathAuth, second.history.Current())
	assert.Equal(t, "/auth (anonymous)", second.status())
}

func TestApp_GoGatesProtectedPages(t *testing.T) {
	env := newTestEnv(t)
	a, out := env.app(t, "")
	defer a.Close()
	ctx := context.Background()
	require.NoError(t, a.Start(ctx))

	require.NoError(t, a.Go(ctx, router.PathOrders))
	assert.Equal(t, router.PathAuth, a.history.Current())

	require.NoError(t, a.Go(ctx, "/no-such-page"))
	assert.Equal(t, router.PathAuth, a.history.Current())

	out.Reset()
	require.NoError(t, a.Nav(ctx))
	assert.Equal(t, "Login to see the navigation.\n", out.String())
}

func TestApp_HistoryListsVisitedPages(t *testing.T) {
	env := newTestEnv(t)
	stubPassword(t, "secret")

	a, out := env.app(t, "alice@example.com\n")
	defer a.Close()
	ctx := context.Background()
	require.NoError(t, a.Start(ctx))
	require.NoError(t, a.Login(ctx))
	require.NoError(t, a.Go(ctx, router.PathOrders))

	out.Reset()
	require.NoError(t, a.History(ctx))
	assert.Equal(t, "  1  /\n  2  /auth\n  3  /dashboard\n  4  /orders\n", out.String())
}

func TestApp_NavMarksCurrentPage(t *testing.T) {
	env := newTestEnv(t)
	stubPassword(t, "secret")

	a, out := env.app(t, "alice@example.com\n")
	defer a.Close()
	ctx := context.Background()
	require.NoError(t, a.Start(ctx))
	require.NoError(t, a.Login(ctx))
	require.NoError(t, a.Go(ctx, router.PathOrders))

	out.Reset()
	require.NoError(t, a.Nav(ctx))
	assert.Contains(t, out.String(), "* [O] Orders")
	assert.Contains(t, out.String(), "  [D] Dashboard")

	require.NoError(t, a.Settings(ctx, []string{"set", "sidebarMode", "icon"}))
	out.Reset()
	require.NoError(t, a.Nav(ctx))
	assert.Contains(t, out.String(), "* [O] /orders\n")
}

func TestApp_ExpiredSessionOnRequest(t *testing.T) {
	env := newTestEnv(t)
	stubPassword(t, "secret")

	a, out := env.app(t, "alice@example.com\n")
	defer a.Close()
	ctx := context.Background()
	require.NoError(t, a.Start(ctx))
	require.NoError(t, a.Login(ctx))

	env.backend.RevokeAll()
	require.Error(t, a.Types(ctx))

	assert.False(t, a.isLoggedIn())
	assert.Contains(t, out.String(), "Session expired. Please login again.")
	assert.Equal(t, router.PathAuth, a.history.Current())
}
