package grpcgw

import (
	"context"

	"github.com/dmitrijs2005/bulletin/internal/client/gateway"
)

type userReply struct {
	User *gateway.User `json:"user"`
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c *Client) SignUp(ctx context.Context, req gateway.SignUpRequest) (*gateway.User, error) {
	var resp userReply
	if err := c.invoke(ctx, methodSignUp, req, &resp); err != nil {
		return nil, err
	}
	return resp.User, nil
}

// SignInWithPassword keeps the returned tokens for later calls when the
// session payload is usable.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*gateway.AuthResult, error) {
	var resp gateway.AuthResult
	if err := c.invoke(ctx, methodSignIn, signInRequest{Email: email, Password: password}, &resp); err != nil {
		return nil, err
	}
	if s := resp.Session; s != nil && s.AccessToken != "" && s.RefreshToken != "" {
		c.SetTokens(s.AccessToken, s.RefreshToken)
	}
	return &resp, nil
}

func (c *Client) SignOut(ctx context.Context) error {
	if err := c.invoke(ctx, methodSignOut, struct{}{}, nil); err != nil {
		return err
	}
	c.SetTokens("", "")
	return nil
}

// GetCurrentUser returns nil without error when the service knows no
// caller.
func (c *Client) GetCurrentUser(ctx context.Context) (*gateway.User, error) {
	access, _ := c.Tokens()
	if access == "" {
		return nil, nil
	}
	var resp userReply
	if err := c.invoke(ctx, methodGetCurrentUser, struct{}{}, &resp); err != nil {
		return nil, err
	}
	return resp.User, nil
}
