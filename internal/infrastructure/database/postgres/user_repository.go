package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"storefront-api/internal/domain/user"
	"storefront-api/internal/infrastructure/database/postgres/models"
)

// UserRepository implements user.Repository on postgres.
type UserRepository struct {
	db *DB
}

func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Transaction(ctx context.Context, fn func(tx user.Repository) error) error {
	return r.db.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&UserRepository{db: &DB{DB: tx}})
	})
}

func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	now := time.Now().UTC()
	u.ID = uuid.New()
	u.CreatedAt = now
	u.UpdatedAt = now
	if u.Role == "" {
		u.Role = user.RoleUser
	}

	dbModel := toUserModel(u)
	if err := r.db.DB.WithContext(ctx).Create(dbModel).Error; err != nil {
		if constraint, ok := uniqueViolation(err); ok && constraint == constraintUserEmail {
			return user.ErrUserAlreadyExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	u.ID = dbModel.ID
	u.CreatedAt = dbModel.CreatedAt
	u.UpdatedAt = dbModel.UpdatedAt

	return nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	var dbModel models.UserModel
	err := r.db.DB.WithContext(ctx).Where("email = ?", email).First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, user.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return toUserEntity(&dbModel), nil
}

func (r *UserRepository) GetByID(ctx context.Context, userID uuid.UUID) (*user.User, error) {
	var dbModel models.UserModel
	err := r.db.DB.WithContext(ctx).First(&dbModel, "id = ?", userID).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, user.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return toUserEntity(&dbModel), nil
}

func (r *UserRepository) GetAll(ctx context.Context) ([]*user.User, error) {
	var dbModels []models.UserModel
	err := r.db.DB.WithContext(ctx).Order("created_at DESC").Find(&dbModels).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}

	users := make([]*user.User, len(dbModels))
	for i := range dbModels {
		users[i] = toUserEntity(&dbModels[i])
	}

	return users, nil
}

func (r *UserRepository) Update(ctx context.Context, u *user.User) error {
	u.UpdatedAt = time.Now().UTC()

	result := r.db.DB.WithContext(ctx).Model(&models.UserModel{}).
		Where("id = ?", u.ID).
		Updates(map[string]interface{}{
			"email":      u.Email,
			"first_name": u.FirstName,
			"last_name":  u.LastName,
			"updated_at": u.UpdatedAt,
		})

	if result.Error != nil {
		if constraint, ok := uniqueViolation(result.Error); ok && constraint == constraintUserEmail {
			return user.ErrUserAlreadyExists
		}
		return fmt.Errorf("failed to update user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return user.ErrUserNotFound
	}

	return nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	result := r.db.DB.WithContext(ctx).Model(&models.UserModel{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"password":   passwordHash,
			"updated_at": time.Now().UTC(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update password: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return user.ErrUserNotFound
	}

	return nil
}

func (r *UserRepository) SetActive(ctx context.Context, userID uuid.UUID, active bool) error {
	result := r.db.DB.WithContext(ctx).Model(&models.UserModel{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"is_active":  active,
			"updated_at": time.Now().UTC(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update user status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return user.ErrUserNotFound
	}

	return nil
}

func (r *UserRepository) CreatePasswordResetToken(ctx context.Context, token *user.PasswordResetToken) error {
	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}
	token.CreatedAt = time.Now().UTC()
	token.UsedAt = nil

	dbModel := toPasswordResetTokenModel(token)
	if err := r.db.DB.WithContext(ctx).Create(dbModel).Error; err != nil {
		return fmt.Errorf("failed to create reset token: %w", err)
	}

	token.ID = dbModel.ID
	token.CreatedAt = dbModel.CreatedAt

	return nil
}

func (r *UserRepository) GetValidPasswordResetToken(ctx context.Context, tokenID uuid.UUID, now time.Time) (*user.PasswordResetToken, error) {
	var dbModel models.PasswordResetTokenModel
	err := r.db.DB.WithContext(ctx).
		Where("id = ? AND used_at IS NULL AND expires_at > ?", tokenID, now).
		First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, user.ErrResetTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reset token: %w", err)
	}

	return toPasswordResetTokenEntity(&dbModel), nil
}

func (r *UserRepository) DeleteExpiredPasswordResetTokens(ctx context.Context, userID uuid.UUID, now time.Time) (int64, error) {
	result := r.db.DB.WithContext(ctx).
		Where("user_id = ? AND expires_at <= ?", userID, now).
		Delete(&models.PasswordResetTokenModel{})

	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete expired reset tokens: %w", result.Error)
	}

	return result.RowsAffected, nil
}

func (r *UserRepository) PurgePasswordResetTokens(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.DB.WithContext(ctx).
		Where("expires_at <= ? OR used_at <= ?", cutoff, cutoff).
		Delete(&models.PasswordResetTokenModel{})

	if result.Error != nil {
		return 0, fmt.Errorf("failed to purge reset tokens: %w", result.Error)
	}

	return result.RowsAffected, nil
}

func (r *UserRepository) RevokeActivePasswordResetTokens(ctx context.Context, userID uuid.UUID, now time.Time) (int64, error) {
	result := r.db.DB.WithContext(ctx).
		Model(&models.PasswordResetTokenModel{}).
		Where("user_id = ? AND used_at IS NULL AND expires_at > ?", userID, now).
		Update("used_at", now)

	if result.Error != nil {
		return 0, fmt.Errorf("failed to revoke reset tokens: %w", result.Error)
	}

	return result.RowsAffected, nil
}

func (r *UserRepository) MarkPasswordResetTokenUsed(ctx context.Context, tokenID uuid.UUID, usedAt time.Time) error {
	result := r.db.DB.WithContext(ctx).
		Model(&models.PasswordResetTokenModel{}).
		Where("id = ? AND used_at IS NULL", tokenID).
		Update("used_at", usedAt)

	if result.Error != nil {
		return fmt.Errorf("failed to mark reset token as used: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return user.ErrResetTokenNotFound
	}

	return nil
}

// Helper functions to convert between domain entities and database models

func toUserModel(u *user.User) *models.UserModel {
	return &models.UserModel{
		ID:           u.ID,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Role:         string(u.Role),
		IsActive:     u.IsActive,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func toUserEntity(m *models.UserModel) *user.User {
	return &user.User{
		ID:           m.ID,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		FirstName:    m.FirstName,
		LastName:     m.LastName,
		Role:         user.Role(m.Role),
		IsActive:     m.IsActive,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func toPasswordResetTokenModel(t *user.PasswordResetToken) *models.PasswordResetTokenModel {
	return &models.PasswordResetTokenModel{
		ID:        t.ID,
		UserID:    t.UserID,
		Token:     t.TokenHash,
		ExpiresAt: t.ExpiresAt,
		UsedAt:    t.UsedAt,
		CreatedAt: t.CreatedAt,
	}
}

func toPasswordResetTokenEntity(m *models.PasswordResetTokenModel) *user.PasswordResetToken {
	return &user.PasswordResetToken{
		ID:        m.ID,
		UserID:    m.UserID,
		TokenHash: m.Token,
		ExpiresAt: m.ExpiresAt,
		UsedAt:    m.UsedAt,
		CreatedAt: m.CreatedAt,
	}
}
