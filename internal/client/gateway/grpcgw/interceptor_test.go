package grpcgw

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/dmitrijs2005/bulletin/internal/client/gateway"
	"github.com/dmitrijs2005/bulletin/internal/logging"
)

func newTestClient(access, refresh string) *Client {
	c := &Client{log: logging.Nop(), now: time.Now}
	c.SetTokens(access, refresh)
	return c
}

func tokenFrom(t *testing.T, ctx context.Context) string {
	t.Helper()
	md, _ := metadata.FromOutgoingContext(ctx)
	toks := md.Get(AccessTokenHeader)
	if len(toks) == 0 {
		return ""
	}
	require.Len(t, toks, 1)
	return toks[0]
}

func signed(t *testing.T, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("k"))
	require.NoError(t, err)
	return tok
}

func TestInterceptor_RefreshesTokenOnExpiredAndRetries(t *testing.T) {
	c := newTestClient("A1", "R1")
	var gotRefresh string
	c.refresher = func(_ context.Context, rt string) (string, string, error) {
		gotRefresh = rt
		return "A2", "R2", nil
	}
	var seen []string
	c.onRefresh = func(a, r string) { seen = append(seen, a, r) }

	callCount := 0
	invoker := func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		callCount++
		if callCount == 1 {
			require.Equal(t, "A1", tokenFrom(t, ctx))
			return status.Error(codes.Unauthenticated, ErrTokenExpired.Error())
		}
		require.Equal(t, "A2", tokenFrom(t, ctx))
		return nil
	}

	err := c.accessTokenInterceptor(context.Background(), methodSelect, nil, nil, nil, invoker)
	require.NoError(t, err)
	require.Equal(t, 2, callCount)
	require.Equal(t, "R1", gotRefresh)
	require.Equal(t, []string{"A2", "R2"}, seen)

	a, r := c.Tokens()
	require.Equal(t, "A2", a)
	require.Equal(t, "R2", r)
}

func TestInterceptor_NoRefreshIfNoRefreshToken(t *testing.T) {
	c := newTestClient("A1", "")
	c.refresher = func(context.Context, string) (string, string, error) {
		t.Fatal("refresher must not be called")
		return "", "", nil
	}

	invoker := func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		return status.Error(codes.Unauthenticated, ErrTokenExpired.Error())
	}

	err := c.accessTokenInterceptor(context.Background(), methodSelect, nil, nil, nil, invoker)
	require.Error(t, err)
}

func TestInterceptor_RefreshFailureReturnsOriginalError(t *testing.T) {
	c := newTestClient("A1", "R1")
	c.refresher = func(context.Context, string) (string, string, error) {
		return "", "", errors.New("refresh rejected")
	}

	calls := 0
	invoker := func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		calls++
		return status.Error(codes.Unauthenticated, ErrTokenExpired.Error())
	}

	err := c.accessTokenInterceptor(context.Background(), methodSelect, nil, nil, nil, invoker)
	st, _ := status.FromError(err)
	require.Equal(t, codes.Unauthenticated, st.Code())
	require.Equal(t, 1, calls)
}

func TestInterceptor_IgnoresOtherErrors(t *testing.T) {
	c := newTestClient("X", "R")
	c.refresher = func(context.Context, string) (string, string, error) {
		t.Fatal("refresher must not be called")
		return "", "", nil
	}
	invoker := func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		return status.Error(codes.Unauthenticated, "bad credentials")
	}
	err := c.accessTokenInterceptor(context.Background(), methodSelect, nil, nil, nil, invoker)
	require.Error(t, err)
}

func TestInterceptor_ProactiveRefreshOnExpiredJWT(t *testing.T) {
	expiredTok := signed(t, time.Now().Add(-time.Minute))
	c := newTestClient(expiredTok, "R1")
	c.refresher = func(context.Context, string) (string, string, error) {
		return "A2", "", nil
	}

	invoker := func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		require.Equal(t, "A2", tokenFrom(t, ctx))
		return nil
	}

	require.NoError(t, c.accessTokenInterceptor(context.Background(), methodSelect, nil, nil, nil, invoker))

	_, r := c.Tokens()
	require.Equal(t, "R1", r, "refresh token kept when the server does not rotate it")
}

func TestInterceptor_ValidJWTNotRefreshed(t *testing.T) {
	tok := signed(t, time.Now().Add(time.Hour))
	c := newTestClient(tok, "R1")
	c.refresher = func(context.Context, string) (string, string, error) {
		t.Fatal("refresher must not be called")
		return "", "", nil
	}

	invoker := func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		require.Equal(t, tok, tokenFrom(t, ctx))
		return nil
	}
	require.NoError(t, c.accessTokenInterceptor(context.Background(), methodSelect, nil, nil, nil, invoker))
}

func TestInterceptor_RefreshMethodPassesThrough(t *testing.T) {
	c := newTestClient("A1", "R1")
	invoker := func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		require.Empty(t, tokenFrom(t, ctx))
		return nil
	}
	require.NoError(t, c.accessTokenInterceptor(context.Background(), methodRefreshToken, nil, nil, nil, invoker))
}

func TestRefreshOverWire(t *testing.T) {
	calls := 0
	c, fake := startFake(t, func(method string, req map[string]any) (map[string]any, error) {
		switch method {
		case methodRefreshToken:
			if req["refresh_token"] != "R1" {
				return nil, status.Error(codes.Unauthenticated, "unknown refresh token")
			}
			return map[string]any{"access_token": "A2", "refresh_token": "R2"}, nil
		default:
			calls++
			if calls == 1 {
				return nil, status.Error(codes.Unauthenticated, ErrTokenExpired.Error())
			}
			return map[string]any{"rows": []any{}}, nil
		}
	})
	c.SetTokens("A1", "R1")

	_, err := c.Select(context.Background(), "logs", gateway.Query{Limit: 12})
	require.NoError(t, err)

	rec := fake.recorded()
	require.Len(t, rec, 3)
	require.Equal(t, "A1", rec[0].token)
	require.Equal(t, methodRefreshToken, rec[1].method)
	require.Equal(t, "A2", rec[2].token)
}
