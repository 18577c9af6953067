package models

import "time"

type UserRole string

const (
	UserRoleUser  UserRole = "USER"
	UserRoleAdmin UserRole = "ADMIN"
)

type UserStatus string

const (
	UserStatusActive   UserStatus = "ACTIVE"
	UserStatusInactive UserStatus = "INACTIVE"
)

type User struct {
	ID           string
	Email        string
	PasswordHash []byte
	DisplayName  string
	Role         UserRole
	Status       UserStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RefreshToken is a ledger row for a live refresh token. Only the SHA-256
// digest of the raw token is stored; the raw value lives client-side.
// Presence of a row is necessary but not sufficient for validity: callers
// must also check ExpiresAt and the owner's status.
type RefreshToken struct {
	ID            string
	UserID        string
	TokenHash     string
	ClientAgent   string
	ClientAddress string
	ExpiresAt     time.Time
	CreatedAt     time.Time
}
