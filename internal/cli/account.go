package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/avlasov/securevault/internal/account"
	"github.com/avlasov/securevault/internal/api"
	"github.com/avlasov/securevault/internal/common"
)

// DeleteAccount drives the guarded deletion flow: a warning, the account
// password, and the exact confirmation phrase. On success the session ends
// and the REPL drops back to the logged-out command set.
func (a *App) DeleteAccount(ctx context.Context) error {
	a.gate.Open()
	defer a.gate.Cancel()

	fmt.Fprintln(a.out, "This permanently deletes your account and every vault entry.")

	password, err := getPassword(a.out, "Enter your password")
	if err != nil {
		return err
	}
	phrase, err := getSimpleText(a.reader, fmt.Sprintf("Type %s to confirm", account.ConfirmationPhrase), a.out)
	if err != nil {
		return err
	}

	if err := a.gate.Submit(ctx, password, phrase); err != nil {
		if errors.Is(err, common.ErrValidation) {
			fmt.Fprintln(a.out, common.ValidationMessage(err))
		} else {
			fmt.Fprintln(a.out, api.ErrorMessage(err, account.FallbackMessage))
		}
		return err
	}

	a.username = ""
	fmt.Fprintln(a.out, "Account deleted")
	return nil
}
