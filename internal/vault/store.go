// Package vault holds the in-memory vault state machine: load, add, update,
// delete and a derived search view over the current entries.
package vault

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/avlasov/securevault/internal/api"
	"github.com/avlasov/securevault/internal/common"
	"github.com/avlasov/securevault/internal/logging"
	"github.com/avlasov/securevault/internal/models"
)

// ErrNotLoaded is returned by mutating operations invoked before Load has
// ever been run.
var ErrNotLoaded = errors.New("vault not loaded")

// Draft is the input to Add. ServiceName, Username and Password are
// mandatory; Notes is optional.
type Draft struct {
	ServiceName string
	Username    string
	Password    string
	Notes       string
}

// Patch carries the fields Update merges into an existing entry. Nil fields
// are left untouched.
type Patch struct {
	ServiceName *string
	Username    *string
	Password    *string
	Notes       *string
}

// Store is the in-memory collection of vault entries, kept newest-first.
//
// All operations are serialized on one mutex, the Go rendering of the
// original single task queue: no two operations ever interleave over the
// collection, and operations arriving while a Load is in flight wait for it
// to settle instead of observing a half-populated vault.
type Store struct {
	client api.Client
	log    logging.Logger
	nowFn  func() time.Time

	mu      sync.Mutex
	entries []models.VaultEntry
	nextID  int64
	loaded  bool
	loading bool
	settled chan struct{}
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithNow substitutes the clock; used by tests to pin createdAt stamps.
func WithNow(fn func() time.Time) StoreOption {
	return func(s *Store) { s.nowFn = fn }
}

func NewStore(client api.Client, log logging.Logger, opts ...StoreOption) *Store {
	s := &Store{
		client: client,
		log:    log,
		nowFn:  time.Now,
		nextID: 1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load populates the collection from the vault API. While it is pending the
// store reports Loading and every other operation blocks until it settles.
// On failure the previous contents are kept and the error is returned.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	if s.loading {
		// A load is already in flight; piggyback on its outcome.
		ch := s.settled
		s.mu.Unlock()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ch:
			return nil
		}
	}
	s.loading = true
	s.settled = make(chan struct{})
	s.mu.Unlock()

	entries, err := s.client.ListEntries(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	close(s.settled)

	if err != nil {
		return fmt.Errorf("load vault: %w", err)
	}

	s.entries = entries
	s.loaded = true
	s.nextID = 1
	for _, e := range entries {
		if e.ID >= s.nextID {
			s.nextID = e.ID + 1
		}
	}
	s.log.Info(ctx, "vault loaded", "entries", len(entries))
	return nil
}

// lockLoaded acquires the store mutex once any in-flight load has settled.
// On success the mutex is held and the caller must release it.
func (s *Store) lockLoaded(ctx context.Context) error {
	s.mu.Lock()
	for s.loading {
		ch := s.settled
		s.mu.Unlock()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ch:
		}
		s.mu.Lock()
	}
	if !s.loaded {
		s.mu.Unlock()
		return ErrNotLoaded
	}
	return nil
}

// Add validates the draft, creates the entry on the server, then prepends it
// to the collection with a fresh unique id and today's date. A rejected API
// call leaves the collection untouched: no placeholder entry is inserted.
func (s *Store) Add(ctx context.Context, draft Draft) (models.VaultEntry, error) {
	if draft.ServiceName == "" || draft.Username == "" || draft.Password == "" {
		return models.VaultEntry{}, fmt.Errorf("%w: service name, username and password are required", common.ErrValidation)
	}

	if err := s.lockLoaded(ctx); err != nil {
		return models.VaultEntry{}, err
	}
	defer s.mu.Unlock()

	err := s.client.CreateEntry(ctx, api.EntryDraft{
		ServiceName: draft.ServiceName,
		Username:    draft.Username,
		Password:    draft.Password,
		Notes:       draft.Notes,
	})
	if err != nil {
		return models.VaultEntry{}, fmt.Errorf("create entry: %w", err)
	}

	now := s.nowFn()
	entry := models.VaultEntry{
		ID:          s.nextID,
		ServiceName: draft.ServiceName,
		Username:    draft.Username,
		Password:    draft.Password,
		Notes:       draft.Notes,
		CreatedAt:   time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()),
	}
	s.nextID++
	s.entries = append([]models.VaultEntry{entry}, s.entries...)
	s.log.Info(ctx, "entry added", "id", entry.ID, "service", entry.ServiceName)
	return entry, nil
}

// Update merges the provided fields into the entry with the given id. An
// unknown id is a no-op, not an error: the entry may have been deleted
// concurrently and callers are expected to tolerate that.
func (s *Store) Update(ctx context.Context, id int64, patch Patch) error {
	if err := s.lockLoaded(ctx); err != nil {
		return err
	}
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		s.log.Debug(ctx, "update of unknown entry ignored", "id", id)
		return nil
	}

	// The server only accepts password/notes changes; the remaining fields
	// are client-side merges.
	if patch.Password != nil || patch.Notes != nil {
		err := s.client.UpdateEntry(ctx, id, api.EntryPatch{
			Password: patch.Password,
			Notes:    patch.Notes,
		})
		if err != nil {
			return fmt.Errorf("update entry: %w", err)
		}
	}

	e := &s.entries[idx]
	if patch.ServiceName != nil {
		e.ServiceName = *patch.ServiceName
	}
	if patch.Username != nil {
		e.Username = *patch.Username
	}
	if patch.Password != nil {
		e.Password = *patch.Password
	}
	if patch.Notes != nil {
		e.Notes = *patch.Notes
	}
	return nil
}

// Delete removes the entry with the given id. Deleting an id that is not
// present is not an error and triggers no API call.
func (s *Store) Delete(ctx context.Context, id int64) error {
	if err := s.lockLoaded(ctx); err != nil {
		return err
	}
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return nil
	}

	if err := s.client.DeleteEntry(ctx, id); err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	s.entries = append(s.entries[:idx:idx], s.entries[idx+1:]...)
	s.log.Info(ctx, "entry deleted", "id", id)
	return nil
}

// Search returns the entries whose service name or username contains term,
// case-insensitively. The empty term returns the whole collection. The result
// is a fresh slice recomputed from current state; the collection itself is
// never mutated.
func (s *Store) Search(term string) []models.VaultEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	needle := strings.ToLower(term)
	result := make([]models.VaultEntry, 0, len(s.entries))
	for _, e := range s.entries {
		if needle == "" ||
			strings.Contains(strings.ToLower(e.ServiceName), needle) ||
			strings.Contains(strings.ToLower(e.Username), needle) {
			result = append(result, e)
		}
	}
	return result
}

// Entries returns a snapshot of the full collection, newest first.
func (s *Store) Entries() []models.VaultEntry {
	return s.Search("")
}

// Loaded reports whether an initial Load has completed successfully.
func (s *Store) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// indexOf returns the position of id in the collection, or -1.
// Caller must hold the mutex.
func (s *Store) indexOf(id int64) int {
	for i, e := range s.entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}
