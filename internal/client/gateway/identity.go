package gateway

import (
	"context"
	"time"
)

// User is the identity record returned by the identity gateway.
type User struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	CreatedAt    time.Time      `json:"created_at"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
	AppMetadata  map[string]any `json:"app_metadata,omitempty"`
}

// Tokens is the session half of a sign-in response.
type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// AuthResult is a sign-in response. Either field may be nil on an accepted
// call; deciding whether that is usable is the caller's job.
type AuthResult struct {
	Session *Tokens `json:"session,omitempty"`
	User    *User   `json:"user,omitempty"`
}

type SignUpRequest struct {
	Email       string         `json:"email"`
	Password    string         `json:"password"`
	ProfileData map[string]any `json:"data,omitempty"`
}

// Identity is the remote identity service.
type Identity interface {
	// SignUp registers an account. A nil user with a nil error means the
	// gateway accepted the call without returning a record.
	SignUp(ctx context.Context, req SignUpRequest) (*User, error)
	SignInWithPassword(ctx context.Context, email, password string) (*AuthResult, error)
	SignOut(ctx context.Context) error
	// GetCurrentUser resolves the caller from the credential the gateway
	// itself tracks.
	GetCurrentUser(ctx context.Context) (*User, error)
}
