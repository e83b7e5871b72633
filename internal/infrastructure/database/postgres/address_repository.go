package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"storefront-api/internal/domain/address"
	"storefront-api/internal/infrastructure/database/postgres/models"
)

// AddressRepository implements address.Repository on postgres.
type AddressRepository struct {
	db *DB
}

func NewAddressRepository(db *DB) *AddressRepository {
	return &AddressRepository{db: db}
}

func (r *AddressRepository) Transaction(ctx context.Context, fn func(tx address.Repository) error) error {
	return r.db.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&AddressRepository{db: &DB{DB: tx}})
	})
}

// LockDefaults takes a transaction scoped advisory lock keyed by (user, type),
// so concurrent clear-then-set sequences for the same key run one at a time.
func (r *AddressRepository) LockDefaults(ctx context.Context, userID uuid.UUID, t address.Type) error {
	key := fmt.Sprintf("addresses:default:%s:%s", userID, t)
	if err := r.db.DB.WithContext(ctx).Exec("SELECT pg_advisory_xact_lock(hashtext(?))", key).Error; err != nil {
		return fmt.Errorf("failed to lock default addresses: %w", err)
	}
	return nil
}

func (r *AddressRepository) Create(ctx context.Context, a *address.Address) error {
	now := time.Now().UTC()
	a.ID = uuid.New()
	a.CreatedAt = now
	a.UpdatedAt = now

	dbModel := toAddressModel(a)
	if err := r.db.DB.WithContext(ctx).Create(dbModel).Error; err != nil {
		return translateAddressError("failed to create address", err)
	}

	a.ID = dbModel.ID
	a.CreatedAt = dbModel.CreatedAt
	a.UpdatedAt = dbModel.UpdatedAt

	return nil
}

func (r *AddressRepository) GetByID(ctx context.Context, userID, addressID uuid.UUID) (*address.Address, error) {
	var dbModel models.AddressModel
	err := r.db.DB.WithContext(ctx).
		Where("id = ? AND user_id = ?", addressID, userID).
		First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, address.ErrAddressNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get address: %w", err)
	}

	return toAddressEntity(&dbModel), nil
}

func (r *AddressRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*address.Address, error) {
	var dbModels []models.AddressModel
	err := r.db.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&dbModels).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list addresses: %w", err)
	}

	addresses := make([]*address.Address, len(dbModels))
	for i := range dbModels {
		addresses[i] = toAddressEntity(&dbModels[i])
	}

	return addresses, nil
}

func (r *AddressRepository) Update(ctx context.Context, a *address.Address) error {
	a.UpdatedAt = time.Now().UTC()

	result := r.db.DB.WithContext(ctx).
		Model(&models.AddressModel{}).
		Where("id = ? AND user_id = ?", a.ID, a.UserID).
		Updates(map[string]interface{}{
			"type":        string(a.Type),
			"first_name":  a.FirstName,
			"last_name":   a.LastName,
			"company":     a.Company,
			"street":      a.Street,
			"city":        a.City,
			"state":       a.State,
			"postal_code": a.PostalCode,
			"country":     a.Country,
			"phone":       a.Phone,
			"is_default":  a.IsDefault,
			"updated_at":  a.UpdatedAt,
		})

	if result.Error != nil {
		return translateAddressError("failed to update address", result.Error)
	}
	if result.RowsAffected == 0 {
		return address.ErrAddressNotFound
	}

	return nil
}

func (r *AddressRepository) Delete(ctx context.Context, userID, addressID uuid.UUID) error {
	result := r.db.DB.WithContext(ctx).
		Where("id = ? AND user_id = ?", addressID, userID).
		Delete(&models.AddressModel{})

	if result.Error != nil {
		return fmt.Errorf("failed to delete address: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return address.ErrAddressNotFound
	}

	return nil
}

func (r *AddressRepository) ClearDefault(ctx context.Context, userID uuid.UUID, t address.Type, except uuid.UUID) error {
	db := r.db.DB.WithContext(ctx).
		Model(&models.AddressModel{}).
		Where("user_id = ? AND type = ? AND is_default = ?", userID, string(t), true)
	if except != uuid.Nil {
		db = db.Where("id <> ?", except)
	}

	err := db.Updates(map[string]interface{}{
		"is_default": false,
		"updated_at": time.Now().UTC(),
	}).Error
	if err != nil {
		return fmt.Errorf("failed to clear default address: %w", err)
	}

	return nil
}

func translateAddressError(msg string, err error) error {
	if constraint, ok := uniqueViolation(err); ok && constraint == constraintDefaultAddress {
		return address.ErrDefaultConflict
	}
	return fmt.Errorf("%s: %w", msg, err)
}

func toAddressModel(a *address.Address) *models.AddressModel {
	return &models.AddressModel{
		ID:         a.ID,
		UserID:     a.UserID,
		Type:       string(a.Type),
		FirstName:  a.FirstName,
		LastName:   a.LastName,
		Company:    a.Company,
		Street:     a.Street,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
		Phone:      a.Phone,
		IsDefault:  a.IsDefault,
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	}
}

func toAddressEntity(m *models.AddressModel) *address.Address {
	return &address.Address{
		ID:         m.ID,
		UserID:     m.UserID,
		Type:       address.Type(m.Type),
		FirstName:  m.FirstName,
		LastName:   m.LastName,
		Company:    m.Company,
		Street:     m.Street,
		City:       m.City,
		State:      m.State,
		PostalCode: m.PostalCode,
		Country:    m.Country,
		Phone:      m.Phone,
		IsDefault:  m.IsDefault,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}
