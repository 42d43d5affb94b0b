package api

import (
	"context"
	"fmt"
	"net/http"
)

func (c *HTTPClient) Register(ctx context.Context, in RegisterRequest) (*RegisterResult, error) {
	var out authResponse
	err := c.do(ctx, request{
		method: http.MethodPost, route: "/auth/register", path: "/auth/register",
		body: in, out: &out,
	})
	if err != nil {
		return nil, err
	}
	return &RegisterResult{Message: out.Message, Token: out.Token, User: out.User}, nil
}

func (c *HTTPClient) Login(ctx context.Context, in LoginRequest) (*LoginResult, error) {
	var out authResponse
	err := c.do(ctx, request{
		method: http.MethodPost, route: "/auth/login", path: "/auth/login",
		body: in, out: &out,
	})
	if err != nil {
		return nil, err
	}
	if out.Token == "" {
		return nil, fmt.Errorf("%w: login response without token", ErrMalformedResponse)
	}
	return &LoginResult{Message: out.Message, Token: out.Token, User: out.User}, nil
}

// Verify checks token against the protected endpoint. The token is passed
// explicitly rather than read from the token source: verification runs
// before the session trusts it.
func (c *HTTPClient) Verify(ctx context.Context, token string) (*VerifyResult, error) {
	var out authResponse
	err := c.do(ctx, request{
		method: http.MethodGet, route: "/auth/protected", path: "/auth/protected",
		token: token, out: &out,
	})
	if err != nil {
		return nil, err
	}
	return &VerifyResult{Message: out.Message, User: out.User}, nil
}
