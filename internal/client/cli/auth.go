package cli

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/bulletin/internal/client/gateway"
	"github.com/dmitrijs2005/bulletin/internal/client/guard"
	"github.com/dmitrijs2005/bulletin/internal/client/session"
)

// Register prompts for email, display name and password and creates an
// account. The user still has to log in afterwards.
func (a *App) Register(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	name, err := getSimpleText(a.reader, "Enter display name (optional)", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}

	acc, err := a.session.SignUp(ctx, email, password, name)
	if err != nil {
		a.printf("Registration failed: %s\n", describe(err))
		return err
	}

	a.printf("Account %s created. Use 'login' to sign in.\n", acc.Email)
	return nil
}

// Login prompts for credentials, signs in and moves to the home page.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}

	if _, err := a.session.SignIn(ctx, email, password); err != nil {
		a.printf("Login unsuccessful: %s\n", describe(err))
		return err
	}

	a.printf("Signed in as %s\n", a.session.DisplayName())
	return a.router.Navigate(ctx, guard.DefaultTable.Home)
}

// Logout signs out; the session manager takes the router back to "/".
func (a *App) Logout(ctx context.Context) error {
	if !a.isLoggedIn() {
		a.printf("You are not signed in.\n")
		return nil
	}
	if err := a.session.SignOut(ctx); err != nil {
		a.printf("Logout failed: %s\n", describe(err))
		return err
	}
	return nil
}

func (a *App) Whoami(_ context.Context) error {
	s, ok := a.session.Snapshot()
	if !ok {
		a.printf("Not signed in.\n")
		return nil
	}
	a.printf("%s <%s>\nid: %s\n", a.session.DisplayName(), s.Email, s.ID)
	return nil
}

// describe turns an error into the line shown to the user.
func describe(err error) string {
	switch {
	case errors.Is(err, session.ErrInvalidInput):
		return err.Error()
	case errors.Is(err, gateway.ErrUnavailable):
		return "the server is unavailable, try again later"
	}
	return gateway.Message(err, err.Error())
}
