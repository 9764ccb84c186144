package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/keepsafe-dev/keepsafe/internal/common"
	"github.com/keepsafe-dev/keepsafe/internal/session"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts the user for a username and password and creates a new
// account. The fresh account is immediately unlocked, so the user can start
// working right away.
//
// The password byte slice is securely wiped before returning.
func (a *App) Register(ctx context.Context) error {
	userName, err := getSimpleText(a.reader, "Enter username", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout, "Enter password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	u, err := a.session.Register(ctx, userName, password)
	if err != nil {
		if errors.Is(err, common.ErrWeakPassword) {
			fmt.Printf("Password is too weak, use at least %d characters\n", a.config.MinPasswordLength)
			return nil
		}
		if errors.Is(err, common.ErrDuplicateUsername) {
			fmt.Println("That username is already taken")
			return nil
		}
		return err
	}

	fmt.Printf("Welcome, %s!\n", u.Username)
	return nil
}

// Login prompts the user for credentials and opens an unlocked session.
// The password is securely wiped before returning.
func (a *App) Login(ctx context.Context) error {
	userName, err := getSimpleText(a.reader, "Enter username", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout, "Enter password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	u, err := a.session.Login(ctx, userName, password)
	if err != nil {
		if errors.Is(err, common.ErrInvalidPassword) {
			fmt.Println("Invalid username or password")
			return nil
		}
		return err
	}

	fmt.Printf("Welcome back, %s!\n", u.Username)
	a.loadSettingsOrOfferReset(ctx)
	return nil
}

// Unlock re-derives the session key from a freshly entered password.
// Only meaningful in the locked state.
func (a *App) Unlock(ctx context.Context) error {
	password, err := getPassword(os.Stdout, "Enter password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.session.Unlock(ctx, password); err != nil {
		if errors.Is(err, common.ErrInvalidPassword) {
			fmt.Println("Invalid password")
			return nil
		}
		return err
	}

	fmt.Println("Unlocked")
	a.loadSettingsOrOfferReset(ctx)
	return nil
}

// Logout ends the current session and wipes all cached secrets.
func (a *App) Logout(ctx context.Context) error {
	if err := a.session.Logout(ctx); err != nil {
		return err
	}
	fmt.Println("Logged out")
	return nil
}

// DeleteAccount removes the current user together with every encrypted
// blob they own. It asks for explicit confirmation first.
func (a *App) DeleteAccount(ctx context.Context) error {
	u := a.session.CurrentUser()
	if u == nil {
		fmt.Println("Not logged in")
		return nil
	}

	answer, err := getSimpleText(a.reader,
		fmt.Sprintf("Delete account %q and all its data? Type 'yes' to confirm", u.Username), os.Stdout)
	if err != nil {
		return err
	}
	if answer != "yes" {
		fmt.Println("Cancelled")
		return nil
	}

	if err := a.session.DeleteCurrentUser(ctx); err != nil {
		return err
	}
	fmt.Println("Account deleted")
	return nil
}

// Status prints the session state and, when a timed session is active,
// the seconds remaining until auto-lock.
func (a *App) Status(ctx context.Context) error {
	st := a.session.State()
	u := a.session.CurrentUser()

	switch st {
	case session.StateLoggedOut:
		fmt.Println("State: logged out")
	case session.StateLocked:
		fmt.Printf("State: locked (user %s)\n", u.Username)
	case session.StateUnlocked:
		fmt.Printf("State: unlocked (user %s), locks in %ds\n", u.Username, a.session.Remaining())
	}
	return nil
}
