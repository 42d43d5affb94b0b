package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/restodash/internal/client/api"
	"github.com/dmitrijs2005/restodash/internal/client/router"
)

// getSimpleText, getChoice and getPassword are indirections used to
// facilitate testing. They point to interactive input helpers and can be
// swapped in tests.
var (
	getSimpleText = GetSimpleText
	getChoice     = GetChoice
	getPassword   = GetPassword
)

// Roles offered at registration.
var roles = []string{"admin", "store_manager", "branch_manager", "kitchen_staff"}

const (
	defaultRole         = "branch_manager"
	defaultRestaurantID = 1
)

// Login prompts for credentials and signs in. On failure the session's error
// message is shown once and cleared; on success the dashboard is opened.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer wipe(password)

	if err := a.session.Login(ctx, email, string(password)); err != nil {
		a.showSessionError()
		return err
	}

	fmt.Fprintln(a.out, "Login successful")
	return a.Go(ctx, router.PathDashboard)
}

// Register prompts for the account fields and creates the user. It does not
// sign in; the user is sent back to the login route.
func (a *App) Register(ctx context.Context) error {
	name, err := getSimpleText(a.reader, "Enter full name", a.out)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer wipe(password)

	role, err := getChoice(a.reader, "Role", roles, defaultRole, a.out)
	if err != nil {
		return err
	}

	req := api.RegisterRequest{
		Name:         name,
		Email:        email,
		Password:     string(password),
		Role:         role,
		RestaurantID: defaultRestaurantID,
	}
	if err := a.session.Register(ctx, req); err != nil {
		a.showSessionError()
		return err
	}

	if a.session.Snapshot().RegistrationJustSucceeded {
		fmt.Fprintln(a.out, "User created successfully! You can now login with your credentials.")
		a.session.ClearRegistrationSuccess()
	}
	return a.Go(ctx, router.PathAuth)
}

// Logout ends the session and returns to the login route.
func (a *App) Logout(ctx context.Context) error {
	a.session.Logout(ctx)
	fmt.Fprintln(a.out, "Logged out")
	return a.Go(ctx, router.PathAuth)
}

// WhoAmI prints the signed-in identity.
func (a *App) WhoAmI(context.Context) error {
	s := a.session.Snapshot()
	if !s.IsAuthenticated || s.Identity == nil {
		fmt.Fprintln(a.out, "Not logged in")
		return nil
	}
	id := s.Identity
	fmt.Fprintf(a.out, "ID:    %d\nRole:  %s\n", id.ID, id.Role)
	if id.Email != "" {
		fmt.Fprintf(a.out, "Email: %s\n", id.Email)
	}
	if id.Name != "" {
		fmt.Fprintf(a.out, "Name:  %s\n", id.Name)
	}
	return nil
}

func (a *App) showSessionError() {
	if msg := a.session.Snapshot().LastError; msg != "" {
		fmt.Fprintln(a.out, "Error:", msg)
		a.session.ClearError()
	}
}
