package grpcgw

import (
	"context"
	"errors"

	"github.com/golang-jwt/jwt/v5"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// ErrTokenExpired is the status message the service uses for an expired
// access token.
var ErrTokenExpired = errors.New("token expired")

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Delete(AccessTokenHeader)
	if token != "" {
		md.Set(AccessTokenHeader, token)
	}
	return metadata.NewOutgoingContext(ctx, md)
}

// expired reports whether token carries an exp claim in the past. Tokens
// that are not JWTs are left to the server to judge.
func (c *Client) expired(token string) bool {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return !c.now().Before(claims.ExpiresAt.Time)
}

func (c *Client) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if method == methodRefreshToken {
		return invoker(ctx, method, req, reply, cc, opts...)
	}

	access, refresh := c.Tokens()

	if access != "" && refresh != "" && c.expired(access) {
		c.log.Debug(ctx, "access token expired locally, refreshing", "method", method)
		if a, err := c.refresh(ctx, refresh); err == nil {
			access = a
		} else {
			c.log.Warn(ctx, "proactive refresh failed", "error", err)
		}
	}

	err := invoker(withAccessToken(ctx, access), method, req, reply, cc, opts...)
	if err == nil {
		return nil
	}

	st, ok := status.FromError(err)
	if !ok || st.Code() != codes.Unauthenticated || st.Message() != ErrTokenExpired.Error() {
		return err
	}

	_, refresh = c.Tokens()
	if refresh == "" {
		return err
	}

	access, rerr := c.refresh(ctx, refresh)
	if rerr != nil {
		c.log.Warn(ctx, "token refresh failed", "method", method, "error", rerr)
		return err
	}

	return invoker(withAccessToken(ctx, access), method, req, reply, cc, opts...)
}

// refresh exchanges refreshToken and stores the rotated pair.
func (c *Client) refresh(ctx context.Context, refreshToken string) (string, error) {
	access, refresh, err := c.refresher(ctx, refreshToken)
	if err != nil {
		return "", err
	}
	if refresh == "" {
		refresh = refreshToken
	}
	c.SetTokens(access, refresh)

	c.mu.Lock()
	fn := c.onRefresh
	c.mu.Unlock()
	if fn != nil {
		fn(access, refresh)
	}
	return access, nil
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type tokensReply struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func (c *Client) callRefresh(ctx context.Context, refreshToken string) (string, string, error) {
	var resp tokensReply
	if err := c.invoke(ctx, methodRefreshToken, refreshRequest{RefreshToken: refreshToken}, &resp); err != nil {
		return "", "", err
	}
	if resp.AccessToken == "" {
		return "", "", ErrTokenExpired
	}
	return resp.AccessToken, resp.RefreshToken, nil
}
