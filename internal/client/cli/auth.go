package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
)

// getSimpleText and getPassword are swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts for a username, email and password and creates the
// account.
func (a *App) Register(ctx context.Context) error {
	username, err := getSimpleText(a.reader, "Enter username", a.out)
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
	defer wipe(password)

	id, err := a.client.Register(ctx, username, email, string(password))
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Registered, user id %s. You can log in now.\n", id)
	return nil
}

// Login prompts for credentials and keeps the issued token.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer wipe(password)

	if _, err := a.client.Login(ctx, email, string(password)); err != nil {
		switch {
		case errors.Is(err, common.ErrorNotFound):
			return fmt.Errorf("no account for %s", email)
		case errors.Is(err, common.ErrorInvalidCredentials):
			return errors.New("wrong password")
		}
		return err
	}

	a.email = email
	fmt.Fprintf(a.out, "Logged in as %s\n", email)
	return nil
}

// Logout forgets the token.
func (a *App) Logout(ctx context.Context) error {
	err := a.client.Logout(ctx)
	a.email = ""
	fmt.Fprintln(a.out, "Logged out")
	return err
}

// Whoami prints the account the server resolves the token to.
func (a *App) Whoami(ctx context.Context) error {
	u, err := a.client.Me(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s <%s> id=%s since %s\n", u.Username, u.Email, u.ID, u.CreatedAt.Format("2006-01-02"))
	return nil
}
