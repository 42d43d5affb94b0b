// Package router holds the client route table and the authentication gate
// in front of protected pages.
package router

import (
	"strings"
	"sync"
)

const (
	PathRoot      = "/"
	PathAuth      = "/auth"
	PathDashboard = "/dashboard"
	PathOrders    = "/orders"
	PathProducts  = "/products"
	PathCustomers = "/customers"
	PathAnalytics = "/analytics"
	PathRecords   = "/records"
)

// Route is one navigable page.
type Route struct {
	Path      string
	Title     string
	Icon      string
	Protected bool
}

// Routes lists the pages in sidebar order. The root and catch-all
// redirects are not pages and are handled by Resolve.
var Routes = []Route{
	{Path: PathAuth, Title: "Sign in", Icon: "->"},
	{Path: PathDashboard, Title: "Dashboard", Icon: "[D]", Protected: true},
	{Path: PathOrders, Title: "Orders", Icon: "[O]", Protected: true},
	{Path: PathProducts, Title: "Products", Icon: "[P]", Protected: true},
	{Path: PathCustomers, Title: "Customers", Icon: "[C]", Protected: true},
	{Path: PathAnalytics, Title: "Analytics", Icon: "[A]", Protected: true},
	{Path: PathRecords, Title: "Expense types", Icon: "[E]", Protected: true},
}

// Lookup finds the route registered for path.
func Lookup(path string) (Route, bool) {
	path = normalize(path)
	for _, r := range Routes {
		if r.Path == path {
			return r, true
		}
	}
	return Route{}, false
}

// Sidebar returns the protected routes, i.e. what the navigation shows to a
// signed-in user.
func Sidebar() []Route {
	out := make([]Route, 0, len(Routes))
	for _, r := range Routes {
		if r.Protected {
			out = append(out, r)
		}
	}
	return out
}

// AuthStatus is what the gate needs to know about the session.
type AuthStatus int

const (
	StatusAnonymous AuthStatus = iota
	// StatusPending means a token is known but not yet verified.
	StatusPending
	StatusAuthenticated
)

// Outcome of resolving a path.
type Outcome int

const (
	Render Outcome = iota
	Redirect
	Loading
)

// Decision tells the presentation layer what to do with a path.
type Decision struct {
	Outcome Outcome
	// Route is the page to render (Render) or being waited on (Loading).
	Route Route
	// Target is the redirect destination (Redirect).
	Target string
}

// Resolve applies the route table and the auth gate to path.
//
//   - "/" redirects to the dashboard when authenticated, to /auth otherwise.
//   - Unknown paths redirect to /auth.
//   - Protected pages render when authenticated, wait while the stored
//     token is being verified, and redirect to /auth otherwise.
func Resolve(path string, status AuthStatus) Decision {
	if normalize(path) == PathRoot {
		if status == StatusAuthenticated {
			return Decision{Outcome: Redirect, Target: PathDashboard}
		}
		return Decision{Outcome: Redirect, Target: PathAuth}
	}

	route, ok := Lookup(path)
	if !ok {
		return Decision{Outcome: Redirect, Target: PathAuth}
	}
	if !route.Protected {
		return Decision{Outcome: Render, Route: route}
	}

	switch status {
	case StatusAuthenticated:
		return Decision{Outcome: Render, Route: route}
	case StatusPending:
		return Decision{Outcome: Loading, Route: route}
	default:
		return Decision{Outcome: Redirect, Target: PathAuth}
	}
}

func normalize(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return PathRoot
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	return path
}

// History is the navigator: it records the current location and notifies
// listeners on every navigation. Safe for concurrent use.
type History struct {
	mu        sync.Mutex
	current   string
	entries   []string
	listeners []func(path string)
}

func NewHistory(start string) *History {
	start = normalize(start)
	return &History{current: start, entries: []string{start}}
}

// Navigate replaces the current location with path.
func (h *History) Navigate(path string) {
	path = normalize(path)

	h.mu.Lock()
	h.current = path
	h.entries = append(h.entries, path)
	listeners := append([]func(string){}, h.listeners...)
	h.mu.Unlock()

	for _, fn := range listeners {
		fn(path)
	}
}

func (h *History) Current() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}

// Entries returns every location visited, oldest first.
func (h *History) Entries() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.entries...)
}

// OnNavigate registers fn to be called after each navigation.
func (h *History) OnNavigate(fn func(path string)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.listeners = append(h.listeners, fn)
}
