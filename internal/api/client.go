// Package api defines the contract with the remote Authentication & Vault API
// and its HTTP/JSON implementation. Every call is single-shot: it resolves to
// success or failure once and is never retried here.
package api

import (
	"context"

	"github.com/avlasov/securevault/internal/models"
)

// EntryDraft carries the fields needed to create a vault entry.
type EntryDraft struct {
	ServiceName string `json:"service_name"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	Notes       string `json:"notes,omitempty"`
}

// EntryPatch carries the fields the server accepts on update. Nil fields are
// omitted from the request and left untouched server-side.
type EntryPatch struct {
	Password *string `json:"password,omitempty"`
	Notes    *string `json:"notes,omitempty"`
}

// Client is the Authentication & Vault API surface the client application
// consumes.
//
// Contract:
//   - Register / Login / Logout: account and session lifecycle.
//   - CheckUsername: availability probe used during registration.
//   - ListEntries / CreateEntry / UpdateEntry / DeleteEntry: vault CRUD.
//   - DeleteAccount: destructive removal of the account and its entries.
//
// All methods honor context cancellation. Server rejections surface as *Error
// values; transport failures wrap common.ErrUnavailable; an unauthorized
// response additionally wraps common.ErrUnauthorized.
type Client interface {
	Register(ctx context.Context, username, password string) error
	Login(ctx context.Context, username, password string) (*models.Session, error)
	Logout(ctx context.Context) error
	CheckUsername(ctx context.Context, username string) (bool, error)
	ListEntries(ctx context.Context) ([]models.VaultEntry, error)
	CreateEntry(ctx context.Context, draft EntryDraft) error
	UpdateEntry(ctx context.Context, id int64, patch EntryPatch) error
	DeleteEntry(ctx context.Context, id int64) error
	DeleteAccount(ctx context.Context, username, password string) error
}
