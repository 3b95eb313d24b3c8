package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dmitrijs2005/daybook/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Link prompts for a username and password and attaches them to the current
// anonymous identity, keeping the identity id and everything already written
// under it. Requires an anonymous identity and server connectivity.
//
// On success the coordinator uploads the full local collection so the freshly
// linked account is complete server-side.
func (a *App) Link(ctx context.Context) error {
	if a.isLinked() {
		fmt.Println("Already linked.")
		return nil
	}

	userName, err := getSimpleText(a.reader, "Enter username", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if _, err := a.session.Link(ctx, userName, string(password)); err != nil {
		switch {
		case errors.Is(err, common.ErrUsernameTaken):
			fmt.Println("That username is already taken.")
		case errors.Is(err, common.ErrUnavailable):
			fmt.Println("Server unavailable, try again later.")
		default:
			a.logger.Warn(ctx, "link failed", "error", err)
		}
		return err
	}

	fmt.Println("Success! Your journal is now tied to your account.")
	return nil
}

// Login prompts for credentials and signs in to an existing linked account.
// The device switches to that account's identity; notes written under the
// old anonymous identity stay in the local store.
func (a *App) Login(ctx context.Context) error {
	userName, err := getSimpleText(a.reader, "Enter username", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if _, err := a.session.Login(ctx, userName, string(password)); err != nil {
		switch {
		case errors.Is(err, common.ErrUnauthenticated):
			fmt.Println("Invalid username or password.")
		case errors.Is(err, common.ErrUnavailable):
			fmt.Println("Server unavailable, try again later.")
		default:
			a.logger.Warn(ctx, "login failed", "error", err)
		}
		return err
	}

	fmt.Println("Success!")
	return nil
}

// Status prints the resolved identity and connectivity state. If identity
// resolution failed at startup it is retried here.
func (a *App) Status(ctx context.Context) error {
	id := a.session.Current()
	if id == nil {
		var err error
		id, err = a.session.Initialize(ctx)
		if err != nil {
			fmt.Println("Identity: none (server unreachable)")
		}
	}
	if id != nil {
		kind := id.Provider
		if id.Anonymous {
			kind = "anonymous"
		}
		fmt.Printf("Identity: %s (%s)\n", id.ID, kind)
	}

	if a.coord.Online() {
		fmt.Println("Connectivity: online")
	} else {
		fmt.Println("Connectivity: offline")
	}
	if n := a.coord.Pending(); n > 0 {
		fmt.Printf("Pending uploads: %d\n", n)
	}
	return nil
}
