package cli

import (
	"bufio"
	"bytes"
	"context"
	"database/sql"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/avlasov/securevault/internal/account"
	"github.com/avlasov/securevault/internal/api"
	"github.com/avlasov/securevault/internal/logging"
	"github.com/avlasov/securevault/internal/models"
	"github.com/avlasov/securevault/internal/register"
	"github.com/avlasov/securevault/internal/session"
	"github.com/avlasov/securevault/internal/vault"
)

type fakeClient struct {
	mu sync.Mutex

	loginSession *models.Session
	loginErr     error
	taken        map[string]bool
	registerErr  error
	entries      []models.VaultEntry
	deleteErr    error

	registered []string
	created    []api.EntryDraft
	deleted    []string
}

func (f *fakeClient) Register(ctx context.Context, username, password string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.registered = append(f.registered, username)
	return f.registerErr
}

func (f *fakeClient) Login(ctx context.Context, username, password string) (*models.Session, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return f.loginSession, nil
}

func (f *fakeClient) Logout(ctx context.Context) error { return nil }

func (f *fakeClient) CheckUsername(ctx context.Context, username string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.taken[username], nil
}

func (f *fakeClient) ListEntries(ctx context.Context) ([]models.VaultEntry, error) {
	return f.entries, nil
}

func (f *fakeClient) CreateEntry(ctx context.Context, draft api.EntryDraft) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, draft)
	return nil
}

func (f *fakeClient) UpdateEntry(ctx context.Context, id int64, patch api.EntryPatch) error {
	return nil
}

func (f *fakeClient) DeleteEntry(ctx context.Context, id int64) error { return nil }

func (f *fakeClient) DeleteAccount(ctx context.Context, username, password string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, username)
	return f.deleteErr
}

// queuePasswords replaces the password seam with a scripted queue.
func queuePasswords(t *testing.T, passwords ...string) {
	t.Helper()
	orig := readPassword
	i := 0
	readPassword = func(fd int) ([]byte, error) {
		if i >= len(passwords) {
			return nil, io.EOF
		}
		pw := passwords[i]
		i++
		return []byte(pw), nil
	}
	t.Cleanup(func() { readPassword = orig })
}

func newTestApp(t *testing.T, f *fakeClient, input string) (*App, *bytes.Buffer) {
	t.Helper()

	db, err := sql.Open("sqlite", "file:"+t.Name()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	_, err = db.Exec(`CREATE TABLE session (key TEXT PRIMARY KEY, value BLOB NOT NULL);`)
	require.NoError(t, err)

	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	out := &bytes.Buffer{}

	a := &App{
		log:         log,
		client:      f,
		db:          db,
		session:     session.NewController(db, log),
		reader:      bufio.NewReader(strings.NewReader(input)),
		out:         out,
		checkEvents: make(chan register.Status, 16),
	}
	a.vault = vault.NewStore(f, log)
	a.checker = register.NewChecker(f, log,
		register.WithDelay(time.Millisecond),
		register.WithNotify(func(s register.Status) {
			select {
			case a.checkEvents <- s:
			default:
			}
		}),
	)
	a.validator = register.NewValidator(f, a.checker, log)
	a.gate = account.NewGate(f, a.session, log)
	return a, out
}

func TestApp_Login_Success(t *testing.T) {
	ctx := context.Background()
	f := &fakeClient{
		loginSession: &models.Session{User: models.User{ID: 1, Username: "alice"}, Token: "tok"},
		entries:      []models.VaultEntry{{ID: 1, ServiceName: "github", Username: "alice"}},
	}
	queuePasswords(t, "Abcdef1!")
	a, out := newTestApp(t, f, "alice\n")

	require.NoError(t, a.Login(ctx))

	assert.True(t, a.isLoggedIn())
	assert.Contains(t, out.String(), "Logged in as alice")

	token, err := a.session.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok", token)
	assert.Len(t, a.vault.Entries(), 1)
}

func TestApp_Login_RejectionShowsServerMessage(t *testing.T) {
	f := &fakeClient{loginErr: &api.Error{Status: 401, Message: "Invalid username or password"}}
	queuePasswords(t, "wrong")
	a, out := newTestApp(t, f, "alice\n")

	err := a.Login(context.Background())
	require.Error(t, err)
	assert.False(t, a.isLoggedIn())
	assert.Contains(t, out.String(), "Invalid username or password")
}

func TestApp_Register_Success(t *testing.T) {
	f := &fakeClient{}
	queuePasswords(t, "Abcdef1!", "Abcdef1!")
	a, out := newTestApp(t, f, "alice\n")

	require.NoError(t, a.Register(context.Background()))

	assert.Equal(t, []string{"alice"}, f.registered)
	assert.Contains(t, out.String(), `Username "alice" is available`)
	assert.Contains(t, out.String(), "Account created. Please login.")
}

func TestApp_Register_TakenUsernameRejectedLocally(t *testing.T) {
	f := &fakeClient{taken: map[string]bool{"admin": true}}
	queuePasswords(t, "Abcdef1!", "Abcdef1!")
	a, out := newTestApp(t, f, "admin\n")

	err := a.Register(context.Background())
	require.Error(t, err)
	assert.Empty(t, f.registered)
	assert.Contains(t, out.String(), "Username is already taken")
}

func TestApp_Register_PasswordMismatch(t *testing.T) {
	f := &fakeClient{}
	queuePasswords(t, "Abcdef1!", "Abcdef2!")
	a, out := newTestApp(t, f, "alice\n")

	err := a.Register(context.Background())
	require.Error(t, err)
	assert.Empty(t, f.registered)
	assert.Contains(t, out.String(), "Passwords do not match")
}

func TestApp_Add_Success(t *testing.T) {
	ctx := context.Background()
	f := &fakeClient{}
	queuePasswords(t, "hunter2")
	a, out := newTestApp(t, f, "github\nalice\nwork account\n")
	require.NoError(t, a.vault.Load(ctx))

	require.NoError(t, a.Add(ctx))

	require.Len(t, f.created, 1)
	assert.Equal(t, "github", f.created[0].ServiceName)
	assert.Contains(t, out.String(), "Added entry 1 (github)")
	assert.Len(t, a.vault.Entries(), 1)
}

func TestApp_Add_ValidationMessageShown(t *testing.T) {
	ctx := context.Background()
	f := &fakeClient{}
	queuePasswords(t, "hunter2")
	a, out := newTestApp(t, f, "\nalice\n\n")
	require.NoError(t, a.vault.Load(ctx))

	err := a.Add(ctx)
	require.Error(t, err)
	assert.Empty(t, f.created)
	assert.Contains(t, out.String(), "service name, username and password are required")
}

func TestApp_DeleteAccount_WrongPhraseKeepsSession(t *testing.T) {
	ctx := context.Background()
	f := &fakeClient{}
	queuePasswords(t, "hunter2")
	a, out := newTestApp(t, f, "delete\n")
	require.NoError(t, a.session.Set(ctx, models.User{ID: 1, Username: "alice"}, "tok"))
	a.username = "alice"

	err := a.DeleteAccount(ctx)
	require.Error(t, err)
	assert.Empty(t, f.deleted)
	assert.Equal(t, "alice", a.username)
	assert.Contains(t, out.String(), "Please type DELETE to confirm")

	user, err := a.session.CurrentUser(ctx)
	require.NoError(t, err)
	require.NotNil(t, user)
}

func TestApp_DeleteAccount_Success(t *testing.T) {
	ctx := context.Background()
	f := &fakeClient{}
	queuePasswords(t, "hunter2")
	a, out := newTestApp(t, f, "DELETE\n")
	require.NoError(t, a.session.Set(ctx, models.User{ID: 1, Username: "alice"}, "tok"))
	a.username = "alice"

	require.NoError(t, a.DeleteAccount(ctx))

	assert.Equal(t, []string{"alice"}, f.deleted)
	assert.False(t, a.isLoggedIn())
	assert.Contains(t, out.String(), "Account deleted")

	user, err := a.session.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Nil(t, user)
}
