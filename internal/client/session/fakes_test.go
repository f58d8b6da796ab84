package session

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/bulletin/internal/client/credentials"
	"github.com/dmitrijs2005/bulletin/internal/client/gateway"
)

type fakeIdentity struct {
	// inputs captured
	lastSignUp   *gateway.SignUpRequest
	lastEmail    string
	lastPassword string
	signOutCalls int

	// outputs preset
	signUpUser *gateway.User
	signUpErr  error
	signInRes  *gateway.AuthResult
	signInErr  error
	signOutErr error
	currentUsr *gateway.User
	currentErr error
}

func (f *fakeIdentity) SignUp(_ context.Context, req gateway.SignUpRequest) (*gateway.User, error) {
	f.lastSignUp = &req
	return f.signUpUser, f.signUpErr
}

func (f *fakeIdentity) SignInWithPassword(_ context.Context, email, password string) (*gateway.AuthResult, error) {
	f.lastEmail, f.lastPassword = email, password
	return f.signInRes, f.signInErr
}

func (f *fakeIdentity) SignOut(context.Context) error {
	f.signOutCalls++
	return f.signOutErr
}

func (f *fakeIdentity) GetCurrentUser(context.Context) (*gateway.User, error) {
	return f.currentUsr, f.currentErr
}

type fakeStore struct {
	mu       sync.Mutex
	rec      *credentials.Record
	saves    int
	clears   int
	saveErr  error
	clearErr error
}

func (s *fakeStore) Load(context.Context) (credentials.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rec == nil {
		return credentials.Record{}, credentials.ErrNoCredentials
	}
	return *s.rec, nil
}

func (s *fakeStore) Save(_ context.Context, rec credentials.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	if s.saveErr != nil {
		return s.saveErr
	}
	s.rec = &rec
	return nil
}

func (s *fakeStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clears++
	if s.clearErr != nil {
		return s.clearErr
	}
	s.rec = nil
	return nil
}

func (s *fakeStore) Get(context.Context, string) (string, bool, error) { return "", false, nil }
func (s *fakeStore) Set(context.Context, string, string) error         { return nil }
func (s *fakeStore) Delete(context.Context, string) error              { return nil }

type fakeNav struct {
	paths []string
	err   error
}

func (n *fakeNav) Navigate(_ context.Context, path string) error {
	n.paths = append(n.paths, path)
	return n.err
}

func ann() *gateway.User {
	return &gateway.User{
		ID:           "u-1",
		Email:        "ann@example.com",
		UserMetadata: map[string]any{FullNameKey: "Ann Lee"},
	}
}

func goodSignIn() *gateway.AuthResult {
	return &gateway.AuthResult{
		Session: &gateway.Tokens{AccessToken: "at", RefreshToken: "rt"},
		User:    ann(),
	}
}
