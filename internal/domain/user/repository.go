package user

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for user repository operations
type Repository interface {
	Create(ctx context.Context, user *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, userID uuid.UUID) (*User, error)
	GetAll(ctx context.Context) ([]*User, error)
	// Update persists the profile fields (names, email). A duplicate email
	// fails with ErrUserAlreadyExists.
	Update(ctx context.Context, user *User) error
	UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error
	SetActive(ctx context.Context, userID uuid.UUID, active bool) error

	CreatePasswordResetToken(ctx context.Context, token *PasswordResetToken) error
	// GetValidPasswordResetToken returns the token only while it is unused
	// and not expired at now.
	GetValidPasswordResetToken(ctx context.Context, tokenID uuid.UUID, now time.Time) (*PasswordResetToken, error)
	DeleteExpiredPasswordResetTokens(ctx context.Context, userID uuid.UUID, now time.Time) (int64, error)
	// PurgePasswordResetTokens deletes every token, of any user, that expired
	// or was consumed before cutoff.
	PurgePasswordResetTokens(ctx context.Context, cutoff time.Time) (int64, error)
	RevokeActivePasswordResetTokens(ctx context.Context, userID uuid.UUID, now time.Time) (int64, error)
	// MarkPasswordResetTokenUsed sets used_at only if it is still unset,
	// otherwise it fails with ErrResetTokenNotFound.
	MarkPasswordResetTokenUsed(ctx context.Context, tokenID uuid.UUID, usedAt time.Time) error

	// Transaction runs fn against a repository bound to a single store
	// transaction. An error from fn rolls everything back.
	Transaction(ctx context.Context, fn func(tx Repository) error) error
}
