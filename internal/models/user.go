package models

// User identifies the authenticated account.
type User struct {
	ID       int64
	Username string
}

// Session couples the current user with the opaque API credential.
// Its lifetime runs from a successful login until logout, forced expiry
// on an unauthorized response, or account deletion.
type Session struct {
	User  User
	Token string
}
