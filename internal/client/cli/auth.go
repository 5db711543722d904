package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dmitrijs2005/taskvault/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts for an email and password and creates a new account.
// On success the user still has to log in.
func (a *App) Register(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}

	if err := a.client.Register(ctx, email, string(password)); err != nil {
		printlnFn("Registration failed:", err.Error())
		return err
	}

	printlnFn("Account created. Use 'login' to sign in.")
	return nil
}

// Login prompts for credentials and authenticates against the server.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}

	if err := a.client.Login(ctx, email, string(password)); err != nil {
		if errors.Is(err, common.ErrorUnauthenticated) {
			printlnFn("Wrong email or password.")
		} else {
			printlnFn("Login failed:", err.Error())
		}
		return err
	}

	printlnFn(fmt.Sprintf("Logged in as %s.", email))
	return nil
}

// Logout revokes the session server-side and forgets the tokens.
func (a *App) Logout(ctx context.Context) error {
	if err := a.client.Logout(ctx); err != nil {
		printlnFn("Logout failed:", err.Error())
		return err
	}
	printlnFn("Logged out.")
	return nil
}
