// Package preferences owns the dashboard's durable UI configuration.
//
// A Store keeps the current Preferences in memory, persists every change as a
// single JSON object under the "dashboard-settings" key and applies the
// result to a Surface (CSS custom properties, classes and the text direction
// attribute of the document root). Stored values are always decoded over the
// defaults, so a partial or older object never loses a field.
package preferences
