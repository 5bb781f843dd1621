package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/dryerwatch/internal/client/models"
	"github.com/dmitrijs2005/dryerwatch/internal/client/tokenwatch"
	"github.com/dmitrijs2005/dryerwatch/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts for the registration form and creates the account. The
// session is left alone; the operator logs in afterwards.
func (a *App) Register(ctx context.Context) error {
	username, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out, "Enter password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	confirm, err := getPassword(a.out, "Confirm password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(confirm)

	user, err := a.session.Register(ctx, models.RegisterRequest{
		Username:        username,
		Email:           email,
		Password:        string(password),
		ConfirmPassword: string(confirm),
	})
	if err != nil {
		return err
	}

	a.printf("Account %s created. Log in to continue.\n", user.Username)
	return nil
}

// Login prompts for credentials and starts a session.
func (a *App) Login(ctx context.Context) error {
	username, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out, "Enter password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.session.Login(ctx, username, string(password)); err != nil {
		if msg := a.session.State().Err; msg != "" {
			return fmt.Errorf("login failed: %s", msg)
		}
		return err
	}

	s := a.session.State()
	a.printf("Welcome, %s!\n", s.User.Username)
	return nil
}

// Logout ends the session. It always succeeds locally.
func (a *App) Logout(ctx context.Context) error {
	a.session.Logout(ctx)
	a.printf("Logged out.\n")
	return nil
}

// WhoAmI prints the session user and the token's remaining lifetime.
func (a *App) WhoAmI(ctx context.Context) error {
	s := a.session.State()
	if !s.IsAuthenticated() {
		a.printf("Not logged in (%s).\n", s.Status)
		if s.Err != "" {
			a.printf("Last error: %s\n", s.Err)
		}
		return nil
	}

	u := s.User
	a.printf("User:  %s\n", u.Username)
	if u.Email != "" {
		a.printf("Email: %s\n", u.Email)
	}
	if u.Role != "" {
		a.printf("Role:  %s\n", u.Role)
	}
	if a.tokens != nil {
		a.printf("Token: %s\n", describeToken(a.tokens.Status()))
	}
	return nil
}

func describeToken(ts tokenwatch.TokenStatus) string {
	switch {
	case !ts.HasToken:
		return "none"
	case ts.TimeUntilExpiry == nil:
		return "unreadable"
	case ts.IsExpired:
		return "expired"
	case ts.IsNearExpiry:
		return fmt.Sprintf("expires soon (in %s)", ts.TimeUntilExpiry.Round(time.Second))
	}
	return fmt.Sprintf("valid for %s", ts.TimeUntilExpiry.Round(time.Second))
}
