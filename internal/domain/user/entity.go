package user

import (
	"time"

	"github.com/google/uuid"
)

// Role is the privilege level of an account.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User represents a user entity in the domain
type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	FirstName    *string
	LastName     *string
	Role         Role
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Session projects the user onto the identity attached to an
// authenticated request.
func (u *User) Session() *SessionUser {
	return &SessionUser{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      u.Role,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// SessionUser is the authenticated identity of a request. It never
// carries the password hash.
type SessionUser struct {
	ID        uuid.UUID
	Email     string
	FirstName *string
	LastName  *string
	Role      Role
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (s *SessionUser) IsAdmin() bool {
	return s.Role == RoleAdmin
}

// PasswordResetToken is a one-time credential. Only the hash of its secret
// is stored.
type PasswordResetToken struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	TokenHash string
	ExpiresAt time.Time
	UsedAt    *time.Time
	CreatedAt time.Time
}

// IsValid reports whether the token can still be consumed at now.
func (t *PasswordResetToken) IsValid(now time.Time) bool {
	return t.UsedAt == nil && t.ExpiresAt.After(now)
}
