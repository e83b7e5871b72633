package address

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for address repository operations.
// Every lookup and mutation is scoped by the owning user id.
type Repository interface {
	Create(ctx context.Context, address *Address) error
	GetByID(ctx context.Context, userID, addressID uuid.UUID) (*Address, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*Address, error)
	Update(ctx context.Context, address *Address) error
	Delete(ctx context.Context, userID, addressID uuid.UUID) error

	// ClearDefault unsets is_default on the user's addresses of type t,
	// except the one with id except (uuid.Nil clears all).
	ClearDefault(ctx context.Context, userID uuid.UUID, t Type, except uuid.UUID) error
	// LockDefaults serializes default changes for (userID, t) until the
	// surrounding transaction ends. Outside a transaction it is a no-op.
	LockDefaults(ctx context.Context, userID uuid.UUID, t Type) error

	Transaction(ctx context.Context, fn func(tx Repository) error) error
}
