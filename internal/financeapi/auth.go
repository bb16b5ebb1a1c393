package financeapi

import (
	"context"

	"financy/internal/core"
)

// SignUp registers a user and, on success, authenticates the client with the returned token.
func (c *Client) SignUp(ctx context.Context, creds core.Credentials) (core.AuthResponse, error) {
	return c.authenticate(ctx, "/api/auth/signup", creds)
}

// SignIn authenticates the client with the returned token.
func (c *Client) SignIn(ctx context.Context, creds core.Credentials) (core.AuthResponse, error) {
	return c.authenticate(ctx, "/api/auth/signin", creds)
}

func (c *Client) authenticate(ctx context.Context, path string, creds core.Credentials) (core.AuthResponse, error) {
	var out core.AuthResponse
	if err := c.post(ctx, path, creds, &out); err != nil {
		return out, err
	}
	if out.AccessToken != "" {
		c.SetToken(out.AccessToken)
	}
	return out, nil
}

// SignOut drops the token held by the client.
func (c *Client) SignOut() { c.SetToken("") }

func (c *Client) CurrentUser(ctx context.Context) (core.User, error) {
	var out core.User
	return out, c.get(ctx, "/api/auth/me", nil, &out)
}
