package account

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/avlasov/securevault/internal/api"
	"github.com/avlasov/securevault/internal/logging"
	"github.com/avlasov/securevault/internal/models"
	"github.com/avlasov/securevault/internal/session"
)

type fakeClient struct {
	api.Client

	mu        sync.Mutex
	deleteErr error
	deleted   [][2]string // username, password
}

func (f *fakeClient) DeleteAccount(ctx context.Context, username, password string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, [2]string{username, password})
	return f.deleteErr
}

func (f *fakeClient) deleteCalls() [][2]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][2]string(nil), f.deleted...)
}

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func setupSession(t *testing.T, loggedIn bool) *session.Controller {
	t.Helper()
	db, err := sql.Open("sqlite", "file:"+t.Name()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`CREATE TABLE session (key TEXT PRIMARY KEY, value BLOB NOT NULL);`)
	require.NoError(t, err)

	c := session.NewController(db, testLogger())
	if loggedIn {
		require.NoError(t, c.Set(context.Background(), models.User{ID: 1, Username: "alice"}, "tok"))
	}
	return c
}

func TestGate_OpenAndCancel(t *testing.T) {
	g := NewGate(&fakeClient{}, setupSession(t, true), testLogger())

	assert.Equal(t, StateIdle, g.State())
	g.Open()
	assert.Equal(t, StateAwaitingConfirmation, g.State())
	g.Open() // no-op
	assert.Equal(t, StateAwaitingConfirmation, g.State())
	g.Cancel()
	assert.Equal(t, StateIdle, g.State())
}

func TestGate_CanSubmit(t *testing.T) {
	g := NewGate(&fakeClient{}, setupSession(t, true), testLogger())

	assert.False(t, g.CanSubmit("", "DELETE"))
	assert.False(t, g.CanSubmit("secret", ""))
	assert.False(t, g.CanSubmit("secret", "delete"))
	assert.False(t, g.CanSubmit("secret", " DELETE"))
	assert.False(t, g.CanSubmit("secret", "DELETE "))
	assert.True(t, g.CanSubmit("secret", "DELETE"))
}

// The phrase is case-sensitive and never trimmed; anything but the exact
// phrase is rejected locally without an API call.
func TestGate_Submit_PhraseMismatchNeverReachesNetwork(t *testing.T) {
	f := &fakeClient{}
	g := NewGate(f, setupSession(t, true), testLogger())
	g.Open()

	for _, phrase := range []string{"delete", "Delete", " DELETE", "DELETE ", "DEL"} {
		err := g.Submit(context.Background(), "secret", phrase)
		assert.ErrorIs(t, err, ErrPhraseMismatch, "phrase %q", phrase)
	}
	assert.Empty(t, f.deleteCalls())
	assert.Equal(t, StateAwaitingConfirmation, g.State())
}

func TestGate_Submit_PasswordRequired(t *testing.T) {
	f := &fakeClient{}
	g := NewGate(f, setupSession(t, true), testLogger())
	g.Open()

	err := g.Submit(context.Background(), "", "DELETE")
	assert.ErrorIs(t, err, ErrPasswordRequired)
	assert.Empty(t, f.deleteCalls())
}

func TestGate_Submit_RequiresSession(t *testing.T) {
	f := &fakeClient{}
	g := NewGate(f, setupSession(t, false), testLogger())
	g.Open()

	err := g.Submit(context.Background(), "secret", "DELETE")
	assert.ErrorIs(t, err, ErrNotLoggedIn)
	assert.Empty(t, f.deleteCalls())
}

func TestGate_Submit_SuccessClearsSession(t *testing.T) {
	ctx := context.Background()
	f := &fakeClient{}
	sess := setupSession(t, true)
	g := NewGate(f, sess, testLogger())
	g.Open()

	require.NoError(t, g.Submit(ctx, "secret", "DELETE"))

	assert.Equal(t, [][2]string{{"alice", "secret"}}, f.deleteCalls())
	assert.Equal(t, StateIdle, g.State())

	user, err := sess.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestGate_Submit_RejectionKeepsSessionAndGateOpen(t *testing.T) {
	ctx := context.Background()
	f := &fakeClient{deleteErr: &api.Error{Status: 400, Message: "Invalid password"}}
	sess := setupSession(t, true)
	g := NewGate(f, sess, testLogger())
	g.Open()

	err := g.Submit(ctx, "wrong", "DELETE")
	require.Error(t, err)
	assert.Equal(t, "Invalid password", api.ErrorMessage(err, FallbackMessage))
	assert.Equal(t, StateAwaitingConfirmation, g.State())

	user, err := sess.CurrentUser(ctx)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "alice", user.Username)
}
