package models

import (
	"time"

	"github.com/google/uuid"
)

// UserModel represents the database model for User
type UserModel struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Email        string    `gorm:"type:varchar(255);not null;uniqueIndex:users_email_key"`
	PasswordHash string    `gorm:"column:password;type:varchar(255);not null"`
	FirstName    *string   `gorm:"type:varchar(100)"`
	LastName     *string   `gorm:"type:varchar(100)"`
	Role         string    `gorm:"type:varchar(16);not null;default:'USER'"`
	IsActive     bool      `gorm:"default:true;not null"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}

func (UserModel) TableName() string {
	return "users"
}

// PasswordResetTokenModel represents the database model for PasswordResetToken.
// Token holds the argon2id hash of the secret, never the secret itself.
type PasswordResetTokenModel struct {
	ID        uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null;index"`
	Token     string     `gorm:"type:varchar(255);not null"`
	ExpiresAt time.Time  `gorm:"not null;index"`
	UsedAt    *time.Time `gorm:"type:timestamptz"`
	CreatedAt time.Time  `gorm:"not null"`
}

func (PasswordResetTokenModel) TableName() string {
	return "password_reset_tokens"
}
