package register

import (
	"context"
	"errors"
	"fmt"

	"github.com/avlasov/securevault/internal/api"
	"github.com/avlasov/securevault/internal/common"
	"github.com/avlasov/securevault/internal/logging"
)

// Submit-time validation errors, in the order the checks run. Each wraps
// common.ErrValidation; none of them ever reaches the network.
var (
	ErrFieldsRequired   = fmt.Errorf("%w: Please fill in all fields", common.ErrValidation)
	ErrUsernameTooShort = fmt.Errorf("%w: Username must be at least 3 characters", common.ErrValidation)
	ErrUsernameTaken    = fmt.Errorf("%w: Username is already taken", common.ErrValidation)
	ErrCheckPending     = fmt.Errorf("%w: Please wait for username validation to complete", common.ErrValidation)
	ErrPasswordMismatch = fmt.Errorf("%w: Passwords do not match", common.ErrValidation)
	ErrPasswordTooWeak  = fmt.Errorf("%w: Password is too weak. Please use a stronger password", common.ErrValidation)
)

// FallbackMessage is shown when the server rejects a registration without
// providing its own message.
const FallbackMessage = "Registration failed. Please try again."

// Form is the registration form state at submit time.
type Form struct {
	Username        string
	Password        string
	ConfirmPassword string
}

// Validator composes the strength scorer and the availability checker into a
// single submit-time decision.
type Validator struct {
	client  api.Client
	checker *Checker
	log     logging.Logger
}

func NewValidator(client api.Client, checker *Checker, log logging.Logger) *Validator {
	return &Validator{client: client, checker: checker, log: log}
}

// Validate runs the ordered checks; the first failing check wins. It is
// evaluated against the checker's latest verdict, independent of any live
// per-field indicator the UI may show.
func (v *Validator) Validate(form Form) error {
	if form.Username == "" || form.Password == "" || form.ConfirmPassword == "" {
		return ErrFieldsRequired
	}
	if len(form.Username) < MinUsernameLength {
		return ErrUsernameTooShort
	}

	status := v.checker.Status()
	if status.Available == AvailabilityTaken {
		return ErrUsernameTaken
	}
	if status.Checking || status.Available == AvailabilityUnknown {
		return ErrCheckPending
	}

	if form.Password != form.ConfirmPassword {
		return ErrPasswordMismatch
	}
	if Score(form.Password).Score < MinSubmitScore {
		return ErrPasswordTooWeak
	}
	return nil
}

// CanSubmit is the derived gate for the submit control: it stays false while
// the availability verdict is pending or negative, or while the password is
// below the strength threshold. It duplicates the corresponding Validate
// checks so the UI can disable the control instead of merely rejecting the
// submission; the server-side check on Register remains authoritative.
func (v *Validator) CanSubmit(form Form) bool {
	status := v.checker.Status()
	return status.Settled() &&
		status.Available == AvailabilityAvailable &&
		Score(form.Password).Score >= MinSubmitScore
}

// Register validates the form and, if it passes, creates the account. The
// returned error is either one of the validation sentinels above or the API
// rejection itself; use api.ErrorMessage with FallbackMessage to present the
// latter.
func (v *Validator) Register(ctx context.Context, form Form) error {
	if err := v.Validate(form); err != nil {
		return err
	}

	if err := v.client.Register(ctx, form.Username, form.Password); err != nil {
		v.log.Warn(ctx, "registration rejected", "username", form.Username, "error", err)
		return err
	}
	v.log.Info(ctx, "account created", "username", form.Username)
	return nil
}

// IsValidationError reports whether err is a local validation failure rather
// than an API rejection.
func IsValidationError(err error) bool {
	return errors.Is(err, common.ErrValidation)
}
