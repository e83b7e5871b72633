package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"storefront-api/internal/domain/address"
)

// AddressRepository implements address.Repository in memory. It enforces
// the one-default-per-(user, type) rule the way the postgres partial unique
// index does.
type AddressRepository struct {
	store *Store
	tx    *dataset
}

func (r *AddressRepository) Transaction(ctx context.Context, fn func(tx address.Repository) error) error {
	if r.tx != nil {
		return fn(r)
	}
	return r.store.write(ctx, func(d *dataset) error {
		return fn(&AddressRepository{store: r.store, tx: d})
	})
}

// LockDefaults is satisfied by the store mutex a transaction already holds.
func (r *AddressRepository) LockDefaults(ctx context.Context, _ uuid.UUID, _ address.Type) error {
	return ctx.Err()
}

func (r *AddressRepository) do(ctx context.Context, mutate bool, fn func(d *dataset) error) error {
	return scope(ctx, r.store, r.tx, mutate, fn)
}

func defaultTaken(d *dataset, a *address.Address) bool {
	if !a.IsDefault {
		return false
	}
	for id, other := range d.addresses {
		if id != a.ID && other.UserID == a.UserID && other.Type == a.Type && other.IsDefault {
			return true
		}
	}
	return false
}

func (r *AddressRepository) Create(ctx context.Context, a *address.Address) error {
	return r.do(ctx, true, func(d *dataset) error {
		now := time.Now().UTC()
		a.ID = uuid.New()
		a.CreatedAt = now
		a.UpdatedAt = now

		if defaultTaken(d, a) {
			return address.ErrDefaultConflict
		}

		d.addresses[a.ID] = *a
		return nil
	})
}

func (r *AddressRepository) GetByID(ctx context.Context, userID, addressID uuid.UUID) (*address.Address, error) {
	var found *address.Address
	err := r.do(ctx, false, func(d *dataset) error {
		a, ok := d.addresses[addressID]
		if !ok || a.UserID != userID {
			return address.ErrAddressNotFound
		}
		found = &a
		return nil
	})
	return found, err
}

func (r *AddressRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*address.Address, error) {
	var list []*address.Address
	err := r.do(ctx, false, func(d *dataset) error {
		for _, a := range d.addresses {
			if a.UserID == userID {
				list = append(list, &a)
			}
		}
		return nil
	})

	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return list, err
}

func (r *AddressRepository) Update(ctx context.Context, a *address.Address) error {
	return r.do(ctx, true, func(d *dataset) error {
		stored, ok := d.addresses[a.ID]
		if !ok || stored.UserID != a.UserID {
			return address.ErrAddressNotFound
		}
		if defaultTaken(d, a) {
			return address.ErrDefaultConflict
		}

		a.CreatedAt = stored.CreatedAt
		a.UpdatedAt = time.Now().UTC()
		d.addresses[a.ID] = *a
		return nil
	})
}

func (r *AddressRepository) Delete(ctx context.Context, userID, addressID uuid.UUID) error {
	return r.do(ctx, true, func(d *dataset) error {
		a, ok := d.addresses[addressID]
		if !ok || a.UserID != userID {
			return address.ErrAddressNotFound
		}
		delete(d.addresses, addressID)
		return nil
	})
}

func (r *AddressRepository) ClearDefault(ctx context.Context, userID uuid.UUID, t address.Type, except uuid.UUID) error {
	return r.do(ctx, true, func(d *dataset) error {
		now := time.Now().UTC()
		for id, a := range d.addresses {
			if id == except || a.UserID != userID || a.Type != t || !a.IsDefault {
				continue
			}
			a.IsDefault = false
			a.UpdatedAt = now
			d.addresses[id] = a
		}
		return nil
	})
}
