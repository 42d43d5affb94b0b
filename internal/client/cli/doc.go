// Package cli implements the restodash terminal client: an interactive REPL
// over the session, preferences, router and expense service, plus the cobra
// command tree that starts it.
//
// The REPL is the presentation layer. It reads state from the Session
// Manager and Preference Store and changes it only through their operations;
// every page change goes through the router's auth gate.
package cli
