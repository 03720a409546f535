package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/avlasov/securevault/internal/api"
	"github.com/avlasov/securevault/internal/common"
	"github.com/avlasov/securevault/internal/register"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// verdictTimeout bounds how long the register flow waits for the availability
// checker; debounce plus one round trip fits comfortably.
const verdictTimeout = 10 * time.Second

// Register walks the user through account creation: username with a live
// availability check, password with a strength readout, confirmation, then
// the submit-time validation and the API call.
func (a *App) Register(ctx context.Context) error {
	username, err := getSimpleText(a.reader, "Choose a username", a.out)
	if err != nil {
		return err
	}

	a.checker.Check(ctx, username)
	status, err := a.waitForVerdict(ctx)
	if err != nil {
		return err
	}
	if status.Message != "" {
		fmt.Fprintln(a.out, status.Message)
	}

	password, err := getPassword(a.out, "Choose a password")
	if err != nil {
		return err
	}
	if msg := register.Score(password).Message(); msg != "" {
		fmt.Fprintln(a.out, msg)
	}

	confirm, err := getPassword(a.out, "Confirm password")
	if err != nil {
		return err
	}

	form := register.Form{Username: username, Password: password, ConfirmPassword: confirm}
	if err := a.validator.Register(ctx, form); err != nil {
		fmt.Fprintln(a.out, a.registerFailure(err))
		return err
	}

	a.checker.Reset()
	fmt.Fprintln(a.out, "Account created. Please login.")
	return nil
}

func (a *App) registerFailure(err error) string {
	if register.IsValidationError(err) {
		return common.ValidationMessage(err)
	}
	return api.ErrorMessage(err, register.FallbackMessage)
}

// waitForVerdict drains checker events until the latest probe settles one way
// or the other (including the local verdicts for short usernames).
func (a *App) waitForVerdict(ctx context.Context) (register.Status, error) {
	timeout := time.NewTimer(verdictTimeout)
	defer timeout.Stop()

	for {
		select {
		case s := <-a.checkEvents:
			if !s.Checking {
				return s, nil
			}
			if s.Message != "" {
				fmt.Fprintln(a.out, s.Message)
			}
		case <-timeout.C:
			return register.Status{}, fmt.Errorf("username check timed out")
		case <-ctx.Done():
			return register.Status{}, ctx.Err()
		}
	}
}

// Login authenticates against the API, persists the session and loads the
// vault.
func (a *App) Login(ctx context.Context) error {
	username, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out, "Enter password")
	if err != nil {
		return err
	}

	sess, err := a.client.Login(ctx, username, password)
	if err != nil {
		fmt.Fprintln(a.out, api.ErrorMessage(err, "Login failed"))
		return err
	}

	if err := a.session.Set(ctx, sess.User, sess.Token); err != nil {
		return fmt.Errorf("persisting session: %w", err)
	}
	a.username = sess.User.Username
	fmt.Fprintf(a.out, "Logged in as %s\n", a.username)

	if err := a.vault.Load(ctx); err != nil {
		fmt.Fprintln(a.out, "Failed to load vault:", api.ErrorMessage(err, "server unavailable"))
	}
	return nil
}

// Logout ends the session on the server (best effort) and always clears the
// local one.
func (a *App) Logout(ctx context.Context) error {
	if err := a.client.Logout(ctx); err != nil {
		a.log.Warn(ctx, "server logout failed", "error", err)
	}
	if err := a.session.Clear(ctx); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	a.username = ""
	fmt.Fprintln(a.out, "Logged out")
	return nil
}
