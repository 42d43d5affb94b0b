package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/restodash/internal/client/api"
	"github.com/dmitrijs2005/restodash/internal/client/router"
)

var getYesNo = GetYesNo

// Types opens the expense types page. It goes through the route gate, so an
// anonymous user lands on the login page instead.
func (a *App) Types(ctx context.Context) error {
	return a.Go(ctx, router.PathRecords)
}

// showCatalog refreshes the catalog and prints it. Failures were already
// reported by the service's notices.
func (a *App) showCatalog(ctx context.Context) error {
	cat, err := a.expenses.Refresh(ctx)
	if err != nil {
		return err
	}
	if len(cat.Types) == 0 {
		fmt.Fprintln(a.out, "No expense types yet. Use 'addtype' to create one.")
		return nil
	}

	for _, t := range cat.Types {
		fmt.Fprintf(a.out, "%4d  %-30s %s\n", t.ID, t.TypeName, activeLabel(t.IsActive))
		if !t.HasSubcategory {
			continue
		}
		subs := cat.Subcategories[t.ID]
		if len(subs) == 0 {
			fmt.Fprintln(a.out, "        (no subcategories)")
		}
		for _, s := range subs {
			fmt.Fprintf(a.out, "      %4d  %-24s %s\n", s.ID, s.SubcategoryName, activeLabel(s.IsActive))
		}
	}
	return nil
}

func activeLabel(f api.Flag) string {
	if f {
		return "active"
	}
	return "inactive"
}

func (a *App) AddType(ctx context.Context) error {
	name, err := getSimpleText(a.reader, "Expense type name", a.out)
	if err != nil {
		return err
	}
	hasSub, err := getYesNo(a.reader, "Has subcategories?", false, a.out)
	if err != nil {
		return err
	}
	return a.expenses.AddType(ctx, name, hasSub)
}

func (a *App) RenameType(ctx context.Context, id int64) error {
	name, err := getSimpleText(a.reader, "New name", a.out)
	if err != nil {
		return err
	}
	return a.expenses.RenameType(ctx, id, name)
}

func (a *App) SetTypeActive(ctx context.Context, id int64, active bool) error {
	return a.expenses.SetTypeActive(ctx, id, active)
}

// Subs lists the subcategories of one expense type from the last refresh.
func (a *App) Subs(ctx context.Context, typeID int64) error {
	cat := a.expenses.Catalog()
	if _, ok := cat.Type(typeID); !ok {
		var err error
		if cat, err = a.expenses.Refresh(ctx); err != nil {
			return err
		}
	}
	t, ok := cat.Type(typeID)
	if !ok {
		fmt.Fprintf(a.out, "Expense type %d not found\n", typeID)
		return nil
	}
	if !t.HasSubcategory {
		fmt.Fprintf(a.out, "%s has no subcategories\n", t.TypeName)
		return nil
	}
	fmt.Fprintf(a.out, "%s:\n", t.TypeName)
	for _, s := range cat.Subcategories[typeID] {
		fmt.Fprintf(a.out, "%4d  %-24s %s\n", s.ID, s.SubcategoryName, activeLabel(s.IsActive))
	}
	return nil
}

func (a *App) AddSub(ctx context.Context, typeID int64) error {
	name, err := getSimpleText(a.reader, "Subcategory name", a.out)
	if err != nil {
		return err
	}
	return a.expenses.AddSubcategory(ctx, typeID, name)
}

func (a *App) RenameSub(ctx context.Context, id int64) error {
	name, err := getSimpleText(a.reader, "New name", a.out)
	if err != nil {
		return err
	}
	return a.expenses.RenameSubcategory(ctx, id, name)
}

func (a *App) DeactivateSub(ctx context.Context, id int64) error {
	return a.expenses.DeactivateSubcategory(ctx, id)
}
