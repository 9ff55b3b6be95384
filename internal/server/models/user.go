package models

import "time"

// User is the persisted account record.
// PendingCode is nil when no verification or reset is outstanding.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	IsActive     bool
	IsVerified   bool
	PendingCode  *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
