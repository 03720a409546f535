// Package cli implements the interactive Secure Vault client: a small REPL
// over the registration, session, vault and account-deletion services.
//
// The command surface depends on the session state. Logged out the REPL
// accepts register, login, help and exit; logged in it accepts list, search,
// add, update, delete, delete-account, logout, help and exit.
package cli
