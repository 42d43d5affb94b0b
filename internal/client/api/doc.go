// Package api is the typed REST client for the restaurant back office API.
//
// # Overview
//
// HTTPClient implements two narrow contracts:
//   - AuthAPI: Register, Login, Verify (the /auth endpoints).
//   - ExpensesAPI: expense type and subcategory CRUD.
//
// Every request is JSON, carries an X-Request-ID, runs under a per-request
// timeout and is wrapped in an OpenTelemetry span. Authenticated requests
// get "Authorization: Bearer <token>" from the configured token source.
//
// # Error Handling
//
// Non-2xx responses are returned as *APIError, which carries the HTTP status
// and the server-provided message. Callers match conditions with errors.Is:
//   - ErrUnauthorized: HTTP 401.
//   - ErrUnavailable: transport failure, timeout, or HTTP 502/503/504.
//
// Nothing is retried.
package api
