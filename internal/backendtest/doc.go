// Package backendtest is an in-memory stand-in for the restaurant back
// office API. It implements the auth and expense endpoints the dashboard
// client consumes, signs HS256 JWTs, and exposes a few knobs (token
// revocation, forced failures) that tests use to drive error paths.
//
// Server is an http.Handler: wrap it in httptest.NewServer in tests, or
// serve it directly (see cmd/mockapi) for local demos. All routes live
// under /api.
package backendtest
