// Package services contains application services for the dashboard client.
// This file defines the expense service: expense type and subcategory
// management on top of the REST API, with user notices and the fatal
// session clear on 401.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/dmitrijs2005/restodash/internal/client/api"
	"github.com/dmitrijs2005/restodash/internal/client/notify"
	"github.com/dmitrijs2005/restodash/internal/client/task"
	"github.com/dmitrijs2005/restodash/internal/logging"
)

var (
	// ErrValidation is returned for input rejected before any request is made.
	ErrValidation = errors.New("validation failed")
	// ErrNotAuthenticated is returned when there is no session token at all.
	ErrNotAuthenticated = errors.New("not authenticated")
)

// SessionGuard is the part of the session the service needs: the current
// token and the fatal clear for rejected requests.
type SessionGuard interface {
	Token() string
	HandleUnauthorized(ctx context.Context)
}

// Catalog is the expense types page model: every type plus the
// subcategories of the types that have them.
type Catalog struct {
	Types         []api.ExpenseType
	Subcategories map[int64][]api.Subcategory
}

// Type returns the expense type with id.
func (c Catalog) Type(id int64) (api.ExpenseType, bool) {
	for _, t := range c.Types {
		if t.ID == id {
			return t, true
		}
	}
	return api.ExpenseType{}, false
}

// Subcategory returns the subcategory with id.
func (c Catalog) Subcategory(id int64) (api.Subcategory, bool) {
	for _, list := range c.Subcategories {
		for _, s := range list {
			if s.ID == id {
				return s, true
			}
		}
	}
	return api.Subcategory{}, false
}

// ExpenseService manages expense types and subcategories.
//
// Contract:
//   - Refresh: reload the catalog; a newer Refresh supersedes an older one.
//   - Catalog: the last catalog a Refresh committed.
//   - mutations: validate input (ErrValidation, no request), call the API,
//     notify the outcome and refresh on success.
//
// A 401 from any call clears the session through the SessionGuard.
type ExpenseService interface {
	Refresh(ctx context.Context) (Catalog, error)
	Catalog() Catalog

	AddType(ctx context.Context, name string, hasSubcategory bool) error
	RenameType(ctx context.Context, id int64, name string) error
	SetTypeActive(ctx context.Context, id int64, active bool) error

	AddSubcategory(ctx context.Context, typeID int64, name string) error
	RenameSubcategory(ctx context.Context, id int64, name string) error
	DeactivateSubcategory(ctx context.Context, id int64) error
}

type expenseService struct {
	api    api.ExpensesAPI
	guard  SessionGuard
	notify notify.Notifier
	log    logging.Logger

	lists task.Latest

	mu      sync.Mutex
	catalog Catalog
}

// NewExpenseService constructs an ExpenseService. A nil notifier discards
// notices; a nil logger discards logs.
func NewExpenseService(client api.ExpensesAPI, guard SessionGuard, n notify.Notifier, l logging.Logger) ExpenseService {
	if n == nil {
		n = notify.Discard
	}
	if l == nil {
		l = logging.Nop()
	}
	return &expenseService{api: client, guard: guard, notify: n, log: l}
}

func (s *expenseService) Catalog() Catalog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.catalog
}

func (s *expenseService) Refresh(ctx context.Context) (Catalog, error) {
	if err := s.authenticated(); err != nil {
		return s.Catalog(), err
	}

	h := s.lists.Go(ctx, func(ctx context.Context, commit task.Commit) error {
		types, err := s.api.ListExpenseTypes(ctx)
		if err != nil {
			return err
		}

		subs := make(map[int64][]api.Subcategory)
		for _, t := range types {
			if !t.HasSubcategory {
				continue
			}
			list, err := s.api.ListSubcategories(ctx, t.ID)
			if err != nil {
				if errors.Is(err, api.ErrUnauthorized) || errors.Is(err, context.Canceled) {
					return err
				}
				s.log.Warn(ctx, "failed to fetch subcategories", "expense_type_id", t.ID, "error", err)
				continue
			}
			subs[t.ID] = list
		}

		cat := Catalog{Types: types, Subcategories: subs}
		if !commit(func() {
			s.mu.Lock()
			s.catalog = cat
			s.mu.Unlock()
		}) {
			return task.ErrSuperseded
		}
		return nil
	})

	err := h.Wait()
	switch {
	case err == nil:
	case errors.Is(err, task.ErrSuperseded), errors.Is(err, context.Canceled):
	case errors.Is(err, api.ErrUnauthorized):
		s.guard.HandleUnauthorized(ctx)
	default:
		s.log.Error(ctx, "failed to fetch expense types", "error", err)
		notify.Error(s.notify, "Failed to fetch expense types. Please try again.")
	}
	return s.Catalog(), err
}

func (s *expenseService) AddType(ctx context.Context, name string, hasSubcategory bool) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return s.invalid("Expense type name is required")
	}
	return s.mutate(ctx, "Failed to add expense type", "Expense type added successfully",
		func(ctx context.Context) (string, error) {
			return s.api.CreateExpenseType(ctx, name, hasSubcategory)
		})
}

// RenameType is a no-op when name equals the type's current name.
func (s *expenseService) RenameType(ctx context.Context, id int64, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return s.invalid("Expense type name is required")
	}
	if t, ok := s.Catalog().Type(id); ok && t.TypeName == name {
		return nil
	}
	return s.mutate(ctx, "Failed to update expense type", "Expense type updated successfully",
		func(ctx context.Context) (string, error) {
			return s.api.RenameExpenseType(ctx, id, name)
		})
}

func (s *expenseService) SetTypeActive(ctx context.Context, id int64, active bool) error {
	if active {
		return s.mutate(ctx, "Failed to activate expense type", "Expense type activated successfully",
			func(ctx context.Context) (string, error) {
				return s.api.ActivateExpenseType(ctx, id)
			})
	}
	return s.mutate(ctx, "Failed to deactivate expense type", "Expense type deactivated successfully",
		func(ctx context.Context) (string, error) {
			return s.api.DeactivateExpenseType(ctx, id)
		})
}

func (s *expenseService) AddSubcategory(ctx context.Context, typeID int64, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return s.invalid("Subcategory name is required")
	}
	return s.mutate(ctx, "Failed to add subcategory", "Subcategory added successfully",
		func(ctx context.Context) (string, error) {
			return s.api.CreateSubcategory(ctx, typeID, name)
		})
}

// RenameSubcategory is a no-op when name equals the current name.
func (s *expenseService) RenameSubcategory(ctx context.Context, id int64, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return s.invalid("Subcategory name is required")
	}
	if sc, ok := s.Catalog().Subcategory(id); ok && sc.SubcategoryName == name {
		return nil
	}
	return s.mutate(ctx, "Failed to update subcategory", "Subcategory updated successfully",
		func(ctx context.Context) (string, error) {
			return s.api.RenameSubcategory(ctx, id, name)
		})
}

func (s *expenseService) DeactivateSubcategory(ctx context.Context, id int64) error {
	return s.mutate(ctx, "Failed to deactivate subcategory", "Subcategory deactivated successfully",
		func(ctx context.Context) (string, error) {
			return s.api.DeactivateSubcategory(ctx, id)
		})
}

func (s *expenseService) authenticated() error {
	if s.guard.Token() == "" {
		notify.Error(s.notify, "Authentication required. Please login again.")
		return ErrNotAuthenticated
	}
	return nil
}

func (s *expenseService) invalid(msg string) error {
	notify.Error(s.notify, msg)
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}

// mutate runs call and reports the outcome. The server's message wins over
// fallback on failure; success shows the fixed success text and refreshes.
func (s *expenseService) mutate(ctx context.Context, fallback, success string, call func(ctx context.Context) (string, error)) error {
	if err := s.authenticated(); err != nil {
		return err
	}

	if _, err := call(ctx); err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			s.guard.HandleUnauthorized(ctx)
			return err
		}
		if errors.Is(err, context.Canceled) {
			return err
		}
		s.log.Error(ctx, fallback, "error", err)
		notify.Error(s.notify, api.UserMessage(err, fallback))
		return err
	}

	notify.Success(s.notify, success)
	_, _ = s.Refresh(ctx)
	return nil
}
