package domain

import "time"

// Credential is a stored site login. It is owned by exactly one user and is
// never updated in place.
type Credential struct {
	ID        string
	OwnerID   string
	Site      string
	Username  string
	Password  string
	CreatedAt time.Time
}
