// Package account implements the guarded account-deletion flow: a small state
// machine around an exact confirmation phrase and a password re-check, ending
// in the irreversible API call.
package account

import (
	"context"
	"fmt"
	"sync"

	"github.com/avlasov/securevault/internal/api"
	"github.com/avlasov/securevault/internal/common"
	"github.com/avlasov/securevault/internal/logging"
	"github.com/avlasov/securevault/internal/session"
)

// ConfirmationPhrase must be typed exactly, case-sensitive, no trimming.
const ConfirmationPhrase = "DELETE"

// FallbackMessage is shown when the server rejects the deletion without a
// message of its own.
const FallbackMessage = "Failed to delete account"

// Local validation errors; none of them reaches the network.
var (
	ErrPasswordRequired = fmt.Errorf("%w: Password is required", common.ErrValidation)
	ErrPhraseMismatch   = fmt.Errorf("%w: Please type DELETE to confirm", common.ErrValidation)
	ErrNotLoggedIn      = common.ErrNotLoggedIn
)

// State is the gate's position in the deletion flow.
type State int

const (
	// StateIdle: the flow has not been opened, or was cancelled.
	StateIdle State = iota
	// StateAwaitingConfirmation: the form is visible and inputs are collected.
	StateAwaitingConfirmation
	// StateValidating: the deletion request is in flight.
	StateValidating
)

// Gate drives the account-deletion flow. A failed attempt keeps the gate in
// StateAwaitingConfirmation with the session intact; only a confirmed success
// clears the session and returns to StateIdle.
type Gate struct {
	client  api.Client
	session *session.Controller
	log     logging.Logger

	mu    sync.Mutex
	state State
}

func NewGate(client api.Client, sess *session.Controller, log logging.Logger) *Gate {
	return &Gate{client: client, session: sess, log: log}
}

// State returns the gate's current position.
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Open moves the gate from idle to collecting inputs. Opening an already open
// gate is a no-op.
func (g *Gate) Open() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state == StateIdle {
		g.state = StateAwaitingConfirmation
	}
}

// Cancel abandons the flow and discards nothing but the gate's own state.
func (g *Gate) Cancel() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != StateValidating {
		g.state = StateIdle
	}
}

// CanSubmit reports whether the inputs would pass local validation: a
// non-empty password and the confirmation phrase typed exactly.
func (g *Gate) CanSubmit(password, phrase string) bool {
	return password != "" && phrase == ConfirmationPhrase
}

// Submit validates the inputs and performs the deletion for the currently
// logged-in user. On success the persisted session is cleared and the gate
// returns to idle; on any failure the gate stays open and the session is kept.
// Local validation always runs before the network is touched.
func (g *Gate) Submit(ctx context.Context, password, phrase string) error {
	if password == "" {
		return ErrPasswordRequired
	}
	if phrase != ConfirmationPhrase {
		return ErrPhraseMismatch
	}

	user, err := g.session.CurrentUser(ctx)
	if err != nil {
		return fmt.Errorf("loading session: %w", err)
	}
	if user == nil {
		return ErrNotLoggedIn
	}

	g.mu.Lock()
	g.state = StateValidating
	g.mu.Unlock()

	if err := g.client.DeleteAccount(ctx, user.Username, password); err != nil {
		g.mu.Lock()
		g.state = StateAwaitingConfirmation
		g.mu.Unlock()
		g.log.Warn(ctx, "account deletion rejected", "username", user.Username, "error", err)
		return err
	}

	if err := g.session.Clear(ctx); err != nil {
		g.log.Error(ctx, "clearing session after account deletion", "error", err)
	}

	g.mu.Lock()
	g.state = StateIdle
	g.mu.Unlock()

	g.log.Info(ctx, "account deleted", "username", user.Username)
	return nil
}
