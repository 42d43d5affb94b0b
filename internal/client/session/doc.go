// Package session owns the client's authentication state.
//
// A Manager holds the current Session (token, identity and the flags the
// presentation layer renders), mirrors the token to durable storage and runs
// the login / register / verify / logout protocol against the backend. Every
// auth request runs on a single task.Latest runner, so a newer operation
// supersedes an older one and the older one's response is dropped.
//
// Presentation reads state through Snapshot or Subscribe and changes it only
// through the Manager's operations.
package session
