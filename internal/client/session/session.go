// Package session owns the in-memory authentication state of the client.
//
// A Manager is constructed once per running application and handed to the
// router and to every collection cache; there is no package-level instance.
// It drives the credential store on sign-in and sign-out and exposes derived
// identity facts (IsAuthenticated, Email, DisplayName).
//
// Operations are not mutually exclusive. Overlapping calls race and the last
// write wins; Loading reports whether any call is in flight so that callers
// can suppress duplicate submissions.
package session

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/dmitrijs2005/bulletin/internal/client/credentials"
	"github.com/dmitrijs2005/bulletin/internal/client/gateway"
	"github.com/dmitrijs2005/bulletin/internal/logging"
)

// FullNameKey is the profile attribute used as the display name.
const FullNameKey = "full_name"

// DefaultLandingPath is where a successful sign-out navigates to.
const DefaultLandingPath = "/"

// Session is the identity projection of a signed-in user.
type Session struct {
	ID                string
	Email             string
	CreatedAt         time.Time
	ProfileAttributes map[string]any
	AppAttributes     map[string]any
}

func fromUser(u *gateway.User) *Session {
	return &Session{
		ID:                u.ID,
		Email:             u.Email,
		CreatedAt:         u.CreatedAt,
		ProfileAttributes: maps.Clone(u.UserMetadata),
		AppAttributes:     maps.Clone(u.AppMetadata),
	}
}

// Account is what a successful registration reports.
type Account struct {
	ID    string
	Email string
}

// Navigator moves the application to another path.
type Navigator interface {
	Navigate(ctx context.Context, path string) error
}

type Manager struct {
	identity gateway.Identity
	store    credentials.Store
	log      logging.Logger
	validate *validator.Validate
	landing  string

	mu        sync.RWMutex
	session   *Session
	nav       Navigator
	onSignOut []func(ctx context.Context)

	inflight atomic.Int32
}

func NewManager(identity gateway.Identity, store credentials.Store, log logging.Logger) *Manager {
	if log == nil {
		log = logging.Nop()
	}
	return &Manager{
		identity: identity,
		store:    store,
		log:      log.With("module", "session"),
		validate: validator.New(validator.WithRequiredStructEnabled()),
		landing:  DefaultLandingPath,
	}
}

// SetNavigator wires the router used after sign-out. The router itself
// depends on the Manager, hence the setter.
func (m *Manager) SetNavigator(n Navigator) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nav = n
}

// OnSignOut registers fn to run when the authenticated identity goes away
// or is replaced by a different one.
func (m *Manager) OnSignOut(fn func(ctx context.Context)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onSignOut = append(m.onSignOut, fn)
}

func (m *Manager) begin() func() {
	m.inflight.Add(1)
	return func() { m.inflight.Add(-1) }
}

// Loading reports whether a sign-up, sign-in, sign-out or restore is in
// flight.
func (m *Manager) Loading() bool { return m.inflight.Load() > 0 }

// setSession swaps the session and runs the sign-out hooks when the identity
// changes away from a previous one.
func (m *Manager) setSession(ctx context.Context, s *Session) {
	m.mu.Lock()
	prev := m.session
	m.session = s
	hooks := append([]func(context.Context){}, m.onSignOut...)
	m.mu.Unlock()

	if prev != nil && (s == nil || s.ID != prev.ID) {
		for _, fn := range hooks {
			fn(ctx)
		}
	}
}

// Restore asks the gateway who the current caller is. Any failure leaves
// the manager unauthenticated; the credential store is not touched.
func (m *Manager) Restore(ctx context.Context) {
	defer m.begin()()

	u, err := m.identity.GetCurrentUser(ctx)
	switch {
	case err != nil:
		m.log.Warn(ctx, "session restore failed", "error", err)
		m.setSession(ctx, nil)
	case u == nil:
		m.log.Debug(ctx, "no identity to restore")
		m.setSession(ctx, nil)
	default:
		m.log.Info(ctx, "session restored", "user_id", u.ID)
		m.setSession(ctx, fromUser(u))
	}
}

type signUpInput struct {
	Email       string `validate:"required,email"`
	Password    string `validate:"required,min=6"`
	DisplayName string `validate:"omitempty,max=100"`
}

type signInInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

func (m *Manager) check(v any) error {
	if err := m.validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%w: %s failed %q", ErrInvalidInput, fe.Field(), fe.Tag())
		}
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return nil
}

// SignUp registers an account. It never authenticates; an explicit SignIn
// is required afterwards.
func (m *Manager) SignUp(ctx context.Context, email, password, displayName string) (*Account, error) {
	defer m.begin()()

	if err := m.check(signUpInput{Email: email, Password: password, DisplayName: displayName}); err != nil {
		return nil, err
	}

	req := gateway.SignUpRequest{Email: email, Password: password}
	if displayName != "" {
		req.ProfileData = map[string]any{FullNameKey: displayName}
	}

	u, err := m.identity.SignUp(ctx, req)
	if err != nil {
		m.log.Warn(ctx, "sign up rejected", "email", email, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrRegistration, err)
	}
	if u == nil {
		return nil, fmt.Errorf("%w: %w", ErrRegistration, gateway.ErrEmptyResult)
	}

	m.log.Info(ctx, "account registered", "user_id", u.ID)
	return &Account{ID: u.ID, Email: u.Email}, nil
}

// SignIn authenticates, persists the credential record and sets the
// session. The session becomes visible only after the record is stored.
func (m *Manager) SignIn(ctx context.Context, email, password string) (*gateway.User, error) {
	defer m.begin()()

	if err := m.check(signInInput{Email: email, Password: password}); err != nil {
		return nil, err
	}

	res, err := m.identity.SignInWithPassword(ctx, email, password)
	if err != nil {
		m.log.Warn(ctx, "sign in rejected", "email", email, "error", err)
		return nil, fmt.Errorf("sign in: %w", err)
	}
	if res == nil || res.Session == nil || res.User == nil ||
		res.Session.AccessToken == "" || res.Session.RefreshToken == "" || res.User.ID == "" {
		return nil, fmt.Errorf("%w: %w", ErrSessionEstablishment, gateway.ErrEmptyResult)
	}

	rec := credentials.Record{
		AccessToken:  res.Session.AccessToken,
		RefreshToken: res.Session.RefreshToken,
		UserID:       res.User.ID,
	}
	if err := m.store.Save(ctx, rec); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSessionEstablishment, err)
	}

	m.setSession(ctx, fromUser(res.User))
	m.log.Info(ctx, "signed in", "user_id", res.User.ID)
	return res.User, nil
}

// SignOut signs out remotely first. On a gateway error nothing local
// changes. On success the credential record is cleared, the session
// dropped and the application sent to the landing path.
func (m *Manager) SignOut(ctx context.Context) error {
	defer m.begin()()

	if err := m.identity.SignOut(ctx); err != nil {
		m.log.Warn(ctx, "sign out rejected", "error", err)
		return fmt.Errorf("sign out: %w", err)
	}

	clearErr := m.store.Clear(ctx)
	if clearErr != nil {
		m.log.Error(ctx, "failed to clear credentials", "error", clearErr)
	}

	m.setSession(ctx, nil)
	m.log.Info(ctx, "signed out")

	m.mu.RLock()
	nav := m.nav
	m.mu.RUnlock()
	if nav != nil {
		if err := nav.Navigate(ctx, m.landing); err != nil {
			m.log.Warn(ctx, "post sign-out navigation failed", "error", err)
		}
	}

	if clearErr != nil {
		return fmt.Errorf("clear credentials: %w", clearErr)
	}
	return nil
}

// Snapshot returns a copy of the current session and whether one exists.
func (m *Manager) Snapshot() (Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.session == nil {
		return Session{}, false
	}
	s := *m.session
	s.ProfileAttributes = maps.Clone(s.ProfileAttributes)
	s.AppAttributes = maps.Clone(s.AppAttributes)
	return s, true
}

func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session != nil
}

// Email returns "" when unauthenticated.
func (m *Manager) Email() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.session == nil {
		return ""
	}
	return m.session.Email
}

func (m *Manager) UserID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.session == nil {
		return ""
	}
	return m.session.ID
}

// DisplayName prefers the full-name profile attribute, then the email.
func (m *Manager) DisplayName() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.session == nil {
		return ""
	}
	if name, ok := m.session.ProfileAttributes[FullNameKey].(string); ok && name != "" {
		return name
	}
	return m.session.Email
}
