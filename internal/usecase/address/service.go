package address

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	domainAddress "storefront-api/internal/domain/address"
	"storefront-api/internal/logger"
	appErrors "storefront-api/pkg/errors"
	"storefront-api/pkg/utils"
)

// Service manages a user's address book. Each user has at most one default
// address per type; every mutation that can change that runs in a
// transaction holding the (user, type) lock.
type Service struct {
	addressRepo domainAddress.Repository
}

func NewService(addressRepo domainAddress.Repository) *Service {
	return &Service{addressRepo: addressRepo}
}

func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]*AddressResponse, error) {
	addresses, err := s.addressRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list addresses: %w", err)
	}

	responses := make([]*AddressResponse, 0, len(addresses))
	for _, a := range addresses {
		responses = append(responses, ToAddressResponse(a))
	}
	return responses, nil
}

func (s *Service) Get(ctx context.Context, userID, addressID uuid.UUID) (*AddressResponse, error) {
	a, err := s.addressRepo.GetByID(ctx, userID, addressID)
	if err != nil {
		return nil, translate(err)
	}
	return ToAddressResponse(a), nil
}

func (s *Service) Create(ctx context.Context, userID uuid.UUID, req *CreateAddressRequest) (*AddressResponse, error) {
	req.sanitize()
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	a := req.toEntity(userID)

	err := s.addressRepo.Transaction(ctx, func(tx domainAddress.Repository) error {
		if !a.IsDefault {
			return tx.Create(ctx, a)
		}
		if err := tx.LockDefaults(ctx, userID, a.Type); err != nil {
			return err
		}
		if err := tx.ClearDefault(ctx, userID, a.Type, uuid.Nil); err != nil {
			return err
		}
		return tx.Create(ctx, a)
	})
	if err != nil {
		return nil, translate(err)
	}

	logger.FromContext(ctx).Info("Address created",
		zap.String("user_id", userID.String()),
		zap.String("address_id", a.ID.String()),
		zap.String("type", string(a.Type)),
		zap.Bool("is_default", a.IsDefault),
		zap.String("event", "address_created"),
	)

	return ToAddressResponse(a), nil
}

// Update applies a partial change. When the resulting address is default,
// either because it is being promoted or because a default changes type,
// the other defaults of its effective type are cleared.
func (s *Service) Update(ctx context.Context, userID, addressID uuid.UUID, req *UpdateAddressRequest) (*AddressResponse, error) {
	req.sanitize()
	fields := req.toFields()
	if fields.IsEmpty() {
		return nil, appErrors.NewAppError(appErrors.CodeBadRequest, "At least one field must be provided", nil)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	var updated *domainAddress.Address
	err := s.addressRepo.Transaction(ctx, func(tx domainAddress.Repository) error {
		current, err := tx.GetByID(ctx, userID, addressID)
		if err != nil {
			return err
		}

		next := *current
		fields.Apply(&next)

		promoting := next.IsDefault && (!current.IsDefault || next.Type != current.Type)
		if promoting {
			if err := tx.LockDefaults(ctx, userID, next.Type); err != nil {
				return err
			}
			if err := tx.ClearDefault(ctx, userID, next.Type, addressID); err != nil {
				return err
			}
		}

		if err := tx.Update(ctx, &next); err != nil {
			return err
		}
		updated = &next
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}

	logger.FromContext(ctx).Info("Address updated",
		zap.String("user_id", userID.String()),
		zap.String("address_id", addressID.String()),
		zap.String("event", "address_updated"),
	)

	return ToAddressResponse(updated), nil
}

func (s *Service) Delete(ctx context.Context, userID, addressID uuid.UUID) error {
	if err := s.addressRepo.Delete(ctx, userID, addressID); err != nil {
		return translate(err)
	}

	logger.FromContext(ctx).Info("Address deleted",
		zap.String("user_id", userID.String()),
		zap.String("address_id", addressID.String()),
		zap.String("event", "address_deleted"),
	)
	return nil
}

// SetDefault makes the address the default of its type. Promoting the
// current default is a no-op.
func (s *Service) SetDefault(ctx context.Context, userID, addressID uuid.UUID) (*AddressResponse, error) {
	var promoted *domainAddress.Address
	err := s.addressRepo.Transaction(ctx, func(tx domainAddress.Repository) error {
		current, err := tx.GetByID(ctx, userID, addressID)
		if err != nil {
			return err
		}
		if current.IsDefault {
			promoted = current
			return nil
		}

		if err := tx.LockDefaults(ctx, userID, current.Type); err != nil {
			return err
		}
		if err := tx.ClearDefault(ctx, userID, current.Type, addressID); err != nil {
			return err
		}

		current.IsDefault = true
		if err := tx.Update(ctx, current); err != nil {
			return err
		}
		promoted = current
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}

	logger.FromContext(ctx).Info("Default address set",
		zap.String("user_id", userID.String()),
		zap.String("address_id", addressID.String()),
		zap.String("type", string(promoted.Type)),
		zap.String("event", "address_default_set"),
	)

	return ToAddressResponse(promoted), nil
}

func translate(err error) error {
	switch {
	case errors.Is(err, domainAddress.ErrAddressNotFound):
		return appErrors.ErrAddressNotFound
	case errors.Is(err, domainAddress.ErrDefaultConflict):
		return appErrors.ErrDefaultAddressConflict
	default:
		return err
	}
}
