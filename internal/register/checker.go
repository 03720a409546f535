package register

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/avlasov/securevault/internal/api"
	"github.com/avlasov/securevault/internal/logging"
)

// Availability is the tri-state verdict of a username probe.
type Availability int

const (
	// AvailabilityUnknown covers "never checked", "check in flight" and
	// "check failed" alike; only the Status message tells them apart.
	AvailabilityUnknown Availability = iota
	AvailabilityAvailable
	AvailabilityTaken
)

// MinUsernameLength is the shortest username the checker will probe.
const MinUsernameLength = 3

// Status is the externally visible state of the checker. It is superseded
// wholesale by the next probe and never mutated after publication.
type Status struct {
	Username  string
	Checking  bool
	Available Availability
	Message   string
}

// Settled reports whether the latest probe has come to a definite verdict:
// not in flight and with a known availability.
func (s Status) Settled() bool {
	return !s.Checking && s.Available != AvailabilityUnknown
}

// Checker probes the API for username availability with cancel-and-restart
// debounce semantics: every Check supersedes the previous one, and the
// network probe only fires after the configured quiet period with no further
// calls. At most one debounce timer is live at any moment.
//
// Each issued probe carries a sequence token; a response is applied only if
// its token still matches the most recently issued probe, so a slow response
// for an abandoned username can never overwrite the current status.
type Checker struct {
	client api.Client
	log    logging.Logger
	delay  time.Duration
	notify func(Status)

	mu     sync.Mutex
	seq    uint64
	timer  *time.Timer
	status Status
}

// CheckerOption configures a Checker.
type CheckerOption func(*Checker)

// WithDelay overrides the debounce quiet period (default 800ms).
func WithDelay(d time.Duration) CheckerOption {
	return func(c *Checker) { c.delay = d }
}

// WithNotify registers a callback fired on every status change, including the
// asynchronous ones when a probe resolves. The callback runs with the
// checker's internal lock released.
func WithNotify(fn func(Status)) CheckerOption {
	return func(c *Checker) { c.notify = fn }
}

func NewChecker(client api.Client, log logging.Logger, opts ...CheckerOption) *Checker {
	c := &Checker{
		client: client,
		log:    log,
		delay:  800 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Check registers a username change. Usernames shorter than the minimum get
// an immediate local verdict and no network traffic; anything else schedules
// a probe after the quiet period, cancelling whatever was pending.
func (c *Checker) Check(ctx context.Context, username string) {
	c.mu.Lock()

	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.seq++

	if len(username) < MinUsernameLength {
		msg := ""
		if username != "" {
			msg = fmt.Sprintf("Username must be at least %d characters", MinUsernameLength)
		}
		c.publish(Status{Username: username, Available: AvailabilityUnknown, Message: msg})
		return
	}

	token := c.seq
	c.status = Status{
		Username:  username,
		Checking:  true,
		Available: AvailabilityUnknown,
		Message:   "Checking availability...",
	}
	c.timer = time.AfterFunc(c.delay, func() {
		c.probe(ctx, token, username)
	})
	status := c.status
	c.mu.Unlock()

	if c.notify != nil {
		c.notify(status)
	}
}

// probe performs the actual API call for one settled debounce window.
func (c *Checker) probe(ctx context.Context, token uint64, username string) {
	available, err := c.client.CheckUsername(ctx, username)

	c.mu.Lock()
	if token != c.seq {
		// A newer probe was issued while this one was in flight; its
		// verdict, not ours, is the authoritative one.
		c.mu.Unlock()
		c.log.Debug(ctx, "stale username probe discarded", "username", username)
		return
	}

	var status Status
	switch {
	case err != nil:
		c.log.Warn(ctx, "username check failed", "username", username, "error", err)
		status = Status{
			Username:  username,
			Available: AvailabilityUnknown,
			Message:   "Error checking username availability",
		}
	case available:
		status = Status{
			Username:  username,
			Available: AvailabilityAvailable,
			Message:   fmt.Sprintf("Username %q is available", username),
		}
	default:
		status = Status{
			Username:  username,
			Available: AvailabilityTaken,
			Message:   fmt.Sprintf("Username %q is already taken", username),
		}
	}
	c.publish(status)
}

// publish stores the new status and fires the notify callback.
// Caller must hold the mutex; publish releases it.
func (c *Checker) publish(status Status) {
	c.status = status
	c.mu.Unlock()

	if c.notify != nil {
		c.notify(status)
	}
}

// Status returns the current externally visible state.
func (c *Checker) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Reset cancels any pending probe and returns the checker to its initial
// state, e.g. when the registration view is left.
func (c *Checker) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.seq++
	c.status = Status{}
}
