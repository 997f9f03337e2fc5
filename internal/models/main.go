// Package models defines the core data structures for user accounts.
package models

// User represents a single user account record.
type User struct {
	// ID is the caller-supplied unique identifier; immutable after creation.
	ID string `json:"id"`
	// Type is a free-text role or category for the account.
	Type string `json:"type"`
	// Username is the unique display/login name.
	Username string `json:"username"`
	// Password holds the argon2id digest of the password, never plaintext.
	Password string `json:"password"`
	// RecoveryMail is an optional recovery email address.
	RecoveryMail string `json:"recovery_mail"`
	// ActiveDay is an optional last-active marker, stored as an opaque string.
	ActiveDay string `json:"active_day"`
}
