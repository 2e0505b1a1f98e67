package domain

import "time"

// Credential is a user's password record. PasswordHash is a PHC string
// carrying the algorithm id, parameters, salt, and digest. It never leaves
// the credential package.
type Credential struct {
	ID           string
	UserID       string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
