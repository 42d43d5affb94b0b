package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/restodash/internal/client/preferences"
	"github.com/dmitrijs2005/restodash/internal/client/router"
)

// maxRedirects bounds a redirect chain; the route table never needs more
// than two hops.
const maxRedirects = 4

var subtitles = map[string]string{
	router.PathAuth:      "Welcome back! Please sign in to your account or create a new one.",
	router.PathDashboard: "Here's what's happening with your store today.",
	router.PathOrders:    "Manage and track your customer orders",
	router.PathProducts:  "Manage your product inventory and listings",
	router.PathCustomers: "Manage your customer relationships",
	router.PathAnalytics: "Insights and performance metrics",
	router.PathRecords:   "Manage expense types and their subcategories",
}

// Go navigates to path through the auth gate and renders the page it lands
// on. While a stored token is still being verified protected pages only
// show a loading line.
func (a *App) Go(ctx context.Context, path string) error {
	for range maxRedirects {
		d := router.Resolve(path, a.session.AuthStatus())
		switch d.Outcome {
		case router.Loading:
			fmt.Fprintln(a.out, "Loading...")
			return nil
		case router.Redirect:
			path = d.Target
		case router.Render:
			a.history.Navigate(d.Route.Path)
			return a.render(ctx, d.Route)
		}
	}
	return fmt.Errorf("too many redirects resolving %q", path)
}

func (a *App) render(ctx context.Context, r router.Route) error {
	a.heading(r.Title, subtitles[r.Path])

	switch r.Path {
	case router.PathAuth:
		fmt.Fprintln(a.out, "Use 'login' to sign in or 'register' to create an account.")
	case router.PathDashboard:
		if s := a.session.Snapshot(); s.Identity != nil && s.Identity.Name != "" {
			fmt.Fprintf(a.out, "Signed in as %s (%s)\n", s.Identity.Name, s.Identity.Role)
		}
		fmt.Fprintln(a.out, "Type 'nav' to list pages, 'go <path>' to open one.")
	case router.PathRecords:
		return a.showCatalog(ctx)
	}
	return nil
}

func (a *App) heading(title, subtitle string) {
	if a.prefs.Get().CompactMode {
		fmt.Fprintf(a.out, "== %s ==\n", title)
		return
	}
	fmt.Fprintf(a.out, "\n%s\n%s\n", title, strings.Repeat("=", len(title)))
	if subtitle != "" {
		fmt.Fprintln(a.out, subtitle)
	}
	fmt.Fprintln(a.out)
}

// Nav prints the sidebar. Icon mode shows only the icons and paths.
// History lists the pages visited in this session, oldest first.
func (a *App) History(context.Context) error {
	for i, path := range a.history.Entries() {
		fmt.Fprintf(a.out, "%3d  %s\n", i+1, path)
	}
	return nil
}

func (a *App) Nav(context.Context) error {
	if !a.isLoggedIn() {
		fmt.Fprintln(a.out, "Login to see the navigation.")
		return nil
	}

	iconOnly := a.prefs.Get().SidebarMode == preferences.SidebarIcon
	current := a.history.Current()
	for _, r := range router.Sidebar() {
		marker := " "
		if r.Path == current {
			marker = "*"
		}
		if iconOnly {
			fmt.Fprintf(a.out, "%s %s %s\n", marker, r.Icon, r.Path)
		} else {
			fmt.Fprintf(a.out, "%s %s %-14s %s\n", marker, r.Icon, r.Title, r.Path)
		}
	}
	return nil
}
