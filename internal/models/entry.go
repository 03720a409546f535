// Package models defines the value types shared by the Secure Vault client:
// vault entries, the authenticated user, and the session record.
// Wire shapes live with the API client; these are the in-memory forms.
package models

import "time"

// VaultEntry is a single named secret kept in the vault.
//
// ID and CreatedAt are assigned once at creation and never change afterwards.
// ServiceName, Username and Password are mandatory at creation time; Notes is
// optional free text.
type VaultEntry struct {
	ID          int64
	ServiceName string
	Username    string
	Password    string
	Notes       string
	CreatedAt   time.Time
}
