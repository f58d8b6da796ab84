package grpcgw

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dmitrijs2005/bulletin/internal/client/gateway"
)

func TestSignInWithPassword_StoresTokens(t *testing.T) {
	c, fake := startFake(t, func(method string, req map[string]any) (map[string]any, error) {
		return map[string]any{
			"session": map[string]any{"access_token": "A1", "refresh_token": "R1"},
			"user": map[string]any{
				"id": "u-1", "email": "ann@example.com", "created_at": "2024-05-01T10:00:00Z",
				"user_metadata": map[string]any{"full_name": "Ann"},
			},
		}, nil
	})

	res, err := c.SignInWithPassword(context.Background(), "ann@example.com", "secret")
	require.NoError(t, err)
	require.NotNil(t, res.Session)
	require.Equal(t, "u-1", res.User.ID)
	require.Equal(t, "Ann", res.User.UserMetadata["full_name"])
	require.Equal(t, 2024, res.User.CreatedAt.Year())

	a, r := c.Tokens()
	require.Equal(t, "A1", a)
	require.Equal(t, "R1", r)

	calls := fake.recorded()
	require.Len(t, calls, 1)
	require.Equal(t, methodSignIn, calls[0].method)
	require.Equal(t, "ann@example.com", calls[0].req["email"])
	require.Equal(t, "secret", calls[0].req["password"])
}

func TestSignInWithPassword_EmptySessionNotStored(t *testing.T) {
	c, _ := startFake(t, func(string, map[string]any) (map[string]any, error) {
		return map[string]any{"session": map[string]any{"access_token": "", "refresh_token": ""}}, nil
	})

	res, err := c.SignInWithPassword(context.Background(), "a@b.c", "pw")
	require.NoError(t, err)
	require.NotNil(t, res.Session)
	require.Empty(t, res.Session.AccessToken)

	a, r := c.Tokens()
	require.Empty(t, a)
	require.Empty(t, r)
}

func TestSignInWithPassword_Rejected(t *testing.T) {
	c, _ := startFake(t, func(string, map[string]any) (map[string]any, error) {
		return nil, status.Error(codes.Unauthenticated, "invalid login credentials")
	})

	_, err := c.SignInWithPassword(context.Background(), "a@b.c", "pw")
	require.ErrorIs(t, err, gateway.ErrUnauthorized)
	require.Equal(t, "invalid login credentials", gateway.Message(err, ""))
}

func TestSignUp(t *testing.T) {
	c, fake := startFake(t, func(string, map[string]any) (map[string]any, error) {
		return map[string]any{"user": map[string]any{"id": "u-9", "email": "new@example.com"}}, nil
	})

	u, err := c.SignUp(context.Background(), gateway.SignUpRequest{
		Email: "new@example.com", Password: "pw123456", ProfileData: map[string]any{"full_name": "New"},
	})
	require.NoError(t, err)
	require.Equal(t, "u-9", u.ID)

	req := fake.recorded()[0].req
	require.Equal(t, map[string]any{"full_name": "New"}, req["data"])
}

func TestSignUp_NoUserRecord(t *testing.T) {
	c, _ := startFake(t, func(string, map[string]any) (map[string]any, error) {
		return map[string]any{}, nil
	})

	u, err := c.SignUp(context.Background(), gateway.SignUpRequest{Email: "x@y.z", Password: "pw"})
	require.NoError(t, err)
	require.Nil(t, u)
}

func TestSignOut_ClearsTokens(t *testing.T) {
	c, fake := startFake(t, func(string, map[string]any) (map[string]any, error) {
		return map[string]any{}, nil
	})
	c.SetTokens("A1", "R1")

	require.NoError(t, c.SignOut(context.Background()))
	require.Equal(t, "A1", fake.recorded()[0].token)

	a, r := c.Tokens()
	require.Empty(t, a)
	require.Empty(t, r)
}

func TestSignOut_FailureKeepsTokens(t *testing.T) {
	c, _ := startFake(t, func(string, map[string]any) (map[string]any, error) {
		return nil, status.Error(codes.Unavailable, "down")
	})
	c.SetTokens("A1", "R1")

	err := c.SignOut(context.Background())
	require.ErrorIs(t, err, gateway.ErrUnavailable)

	a, _ := c.Tokens()
	require.Equal(t, "A1", a)
}

func TestGetCurrentUser(t *testing.T) {
	c, fake := startFake(t, func(string, map[string]any) (map[string]any, error) {
		return map[string]any{"user": map[string]any{"id": "u-1", "email": "ann@example.com"}}, nil
	})

	u, err := c.GetCurrentUser(context.Background())
	require.NoError(t, err)
	require.Nil(t, u, "no token: nothing to ask")
	require.Empty(t, fake.recorded())

	c.SetTokens("A1", "R1")
	u, err = c.GetCurrentUser(context.Background())
	require.NoError(t, err)
	require.Equal(t, "ann@example.com", u.Email)
	require.Equal(t, "A1", fake.recorded()[0].token)
}
