package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/authkeeper/internal/client/client"
	"github.com/dmitrijs2005/authkeeper/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts for name, email and password and creates an account.
// On success the session token is kept and the user is logged in.
func (a *App) Register(ctx context.Context) error {
	name, err := getSimpleText(a.reader, "Enter name", a.out)
	if err != nil {
		return err
	}

	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.api.Register(ctx, name, email, string(password)); err != nil {
		a.report("Registration failed", err)
		return err
	}

	a.email = email
	a.saveSession(ctx)
	a.setMode(ModeOnline)
	fmt.Fprintln(a.out, "Success!")
	return nil
}

// Login prompts for credentials and authenticates against the server.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.api.Login(ctx, email, string(password)); err != nil {
		a.report("Login unsuccessful", err)
		return err
	}

	a.email = email
	a.saveSession(ctx)
	a.setMode(ModeOnline)
	fmt.Fprintln(a.out, "Login successful")
	return nil
}

// WhoAmI prints the profile behind the current session token.
func (a *App) WhoAmI(ctx context.Context) error {
	p, err := a.api.CurrentUser(ctx)
	if err != nil {
		if errors.Is(err, client.ErrUnauthorized) {
			a.clearSession(ctx)
		}
		a.report("Cannot load profile", err)
		return err
	}

	fmt.Fprintf(a.out, "ID:      %s\nName:    %s\nEmail:   %s\nCreated: %s\n",
		p.ID, p.Name, p.Email, p.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	return nil
}

// Logout forgets the session token, locally and on disk.
func (a *App) Logout(ctx context.Context) error {
	a.clearSession(ctx)
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

func (a *App) report(prefix string, err error) {
	if errors.Is(err, client.ErrUnavailable) {
		a.setMode(ModeOffline)
	}
	fmt.Fprintf(a.out, "%s: %v\n", prefix, err)
}
