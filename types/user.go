package types

import "time"

// User represents an account in the system.
type User struct {
	// ID is the unique identifier of the user.
	ID int `json:"id" db:"id"`

	// Username is the unique login name chosen by the user.
	// It is an immutable identity key.
	Username string `json:"username" db:"username"`

	// Email is the user's email address, unique across all accounts
	// and immutable after registration.
	Email string `json:"email" db:"email"`

	// PasswordHash stores the bcrypt hash of the user's password.
	// This field is never exposed in responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// RegisteredOn is the timestamp when the account was created.
	RegisteredOn time.Time `json:"registered_on" db:"registered_on"`

	// Confirmed reports whether the user has proven control of their
	// email address.
	Confirmed bool `json:"confirmed" db:"confirmed"`

	// ConfirmedOn is set exactly once, when Confirmed flips to true.
	// It is nil while the account is unconfirmed.
	ConfirmedOn *time.Time `json:"confirmed_on,omitempty" db:"confirmed_on"`
}
