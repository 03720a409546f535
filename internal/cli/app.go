package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/avlasov/securevault/internal/account"
	"github.com/avlasov/securevault/internal/api"
	"github.com/avlasov/securevault/internal/config"
	"github.com/avlasov/securevault/internal/logging"
	"github.com/avlasov/securevault/internal/register"
	"github.com/avlasov/securevault/internal/session"
	"github.com/avlasov/securevault/internal/vault"
)

// App wires the client services together and implements the REPL command
// surface.
type App struct {
	config    *config.Config
	log       logging.Logger
	client    api.Client
	session   *session.Controller
	vault     *vault.Store
	checker   *register.Checker
	validator *register.Validator
	gate      *account.Gate

	db       *sql.DB
	reader   *bufio.Reader
	out      io.Writer
	username string

	// checkEvents receives every status the availability checker publishes;
	// the interactive register flow drains it while waiting for a verdict.
	checkEvents chan register.Status
}

// NewApp builds a fully wired client from the given configuration.
func NewApp(ctx context.Context, cfg *config.Config, log logging.Logger) (*App, error) {
	dbPath := cfg.SessionDBPath
	if dbPath == "" {
		p, err := defaultSessionDBPath()
		if err != nil {
			return nil, err
		}
		dbPath = p
	}

	db, err := session.OpenDatabase(ctx, dbPath)
	if err != nil {
		return nil, err
	}

	a := &App{
		config:      cfg,
		log:         log,
		db:          db,
		session:     session.NewController(db, log),
		reader:      bufio.NewReader(os.Stdin),
		out:         os.Stdout,
		checkEvents: make(chan register.Status, 16),
	}

	a.client = api.NewHTTPClient(cfg.ServerBaseURL, log,
		api.WithTokenProvider(a.session.TokenProvider()),
		api.WithUnauthorizedHook(a.onSessionExpired),
	)

	a.vault = vault.NewStore(a.client, log)
	a.checker = register.NewChecker(a.client, log,
		register.WithDelay(cfg.CheckDebounce),
		register.WithNotify(func(s register.Status) {
			select {
			case a.checkEvents <- s:
			default:
			}
		}),
	)
	a.validator = register.NewValidator(a.client, a.checker, log)
	a.gate = account.NewGate(a.client, a.session, log)

	return a, nil
}

// defaultSessionDBPath resolves the session database under the user config
// dir, creating the directory if needed.
func defaultSessionDBPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolving config dir: %w", err)
	}
	dir := filepath.Join(base, "securevault")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("creating config dir: %w", err)
	}
	return filepath.Join(dir, "session.db"), nil
}

// Run restores any persisted session, then hands control to the REPL until
// the user exits or input ends.
func (a *App) Run(ctx context.Context) error {
	defer func() { _ = a.db.Close() }()

	fmt.Fprintln(a.out, "Secure Vault CLI (type 'help' for commands)")

	if err := a.restoreSession(ctx); err != nil {
		return err
	}

	runREPL(ctx, a, a.status, bufio.NewScanner(os.Stdin))
	return nil
}

// restoreSession picks up a persisted session from a previous run. A token
// that is already expired locally is discarded up front instead of bouncing
// off the server's 401.
func (a *App) restoreSession(ctx context.Context) error {
	user, err := a.session.CurrentUser(ctx)
	if err != nil {
		return fmt.Errorf("restoring session: %w", err)
	}
	if user == nil {
		return nil
	}

	if a.session.Expired(ctx) {
		a.log.Info(ctx, "stored session expired", "username", user.Username)
		return a.session.Clear(ctx)
	}

	a.username = user.Username
	fmt.Fprintf(a.out, "Logged in as %s\n", user.Username)

	if err := a.vault.Load(ctx); err != nil {
		fmt.Fprintln(a.out, "Failed to load vault:", api.ErrorMessage(err, "server unavailable"))
	}
	return nil
}

// onSessionExpired is the 401 hook: the server rejected our token, so the
// persisted session is dropped and the user is told to authenticate again.
func (a *App) onSessionExpired(ctx context.Context) {
	a.username = ""
	if err := a.session.Clear(ctx); err != nil {
		a.log.Error(ctx, "clearing expired session", "error", err)
	}
	fmt.Fprintln(a.out, "Session expired. Please login again.")
}

func (a *App) isLoggedIn() bool {
	return a.username != ""
}

func (a *App) status() string {
	if a.username == "" {
		return ""
	}
	return fmt.Sprintf("(%s) ", a.username)
}
