package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/dmitrijs2005/restodash/internal/client/preferences"
	"github.com/dmitrijs2005/restodash/internal/client/storage"
)

// Settings handles "settings", "settings set <key> <value>" and
// "settings reset".
func (a *App) Settings(ctx context.Context, args []string) error {
	var err error
	switch {
	case len(args) == 0 || (len(args) == 1 && args[0] == "show"):
		printSettings(a.out, a.prefs.Get(), a.surface)
		return nil
	case args[0] == "set" && len(args) == 3:
		err = setSetting(ctx, a.out, a.prefs, args[1], args[2])
	case args[0] == "reset" && len(args) == 1:
		err = resetSettings(ctx, a.out, a.prefs)
	default:
		fmt.Fprintln(a.out, "Usage: settings [show | set <key> <value> | reset]")
		return nil
	}
	if err != nil {
		return err
	}
	printSurface(a.out, a.surface)
	return nil
}

func printSettings(w io.Writer, p preferences.Preferences, surface fmt.Stringer) {
	for _, k := range preferences.Keys() {
		v, _ := p.Value(k)
		allowed, _ := preferences.Allowed(k)
		fmt.Fprintf(w, "%-14s %-9s (%s)\n", k, v, strings.Join(allowed, "|"))
	}
	printSurface(w, surface)
}

// printStoredSettings dumps the preference namespace as stored, sorted by key.
func printStoredSettings(ctx context.Context, w io.Writer, b *storage.Bucket) error {
	entries, err := b.List(ctx)
	if err != nil {
		fmt.Fprintln(w, "Could not read settings:", err)
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(w, "No settings stored.")
		return nil
	}
	for _, k := range slices.Sorted(maps.Keys(entries)) {
		fmt.Fprintf(w, "%s = %s\n", k, entries[k])
	}
	return nil
}

func printSurface(w io.Writer, surface fmt.Stringer) {
	if surface != nil {
		fmt.Fprintln(w, surface.String())
	}
}

// setSetting updates one preference and explains a rejected key or value.
func setSetting(ctx context.Context, w io.Writer, store *preferences.Store, key, value string) error {
	err := store.Update(ctx, preferences.Key(key), value)
	switch {
	case err == nil:
		fmt.Fprintf(w, "%s set to %s\n", key, value)
	case errors.Is(err, preferences.ErrUnknownKey):
		names := make([]string, 0, len(preferences.Keys()))
		for _, k := range preferences.Keys() {
			names = append(names, string(k))
		}
		fmt.Fprintf(w, "Unknown setting %q. Known settings: %s\n", key, strings.Join(names, ", "))
	case errors.Is(err, preferences.ErrInvalidValue):
		allowed, _ := preferences.Allowed(preferences.Key(key))
		fmt.Fprintf(w, "Invalid value %q for %s. Allowed: %s\n", value, key, strings.Join(allowed, ", "))
	default:
		fmt.Fprintln(w, "Could not save settings:", err)
	}
	return err
}

func resetSettings(ctx context.Context, w io.Writer, store *preferences.Store) error {
	if err := store.Reset(ctx); err != nil {
		fmt.Fprintln(w, "Could not save settings:", err)
		return err
	}
	fmt.Fprintln(w, "Settings restored to defaults")
	return nil
}
