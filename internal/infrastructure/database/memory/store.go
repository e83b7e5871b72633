// Package memory is an in-process implementation of the repositories, used
// for local runs with DB_DRIVER=memory and by tests.
//
// Every write, and every Transaction, runs under one mutex against a copy of
// the data set; the copy replaces the live set only when the write succeeds.
package memory

import (
	"context"

	"github.com/google/uuid"

	"storefront-api/internal/domain/address"
	"storefront-api/internal/domain/user"
)

type dataset struct {
	users       map[uuid.UUID]user.User
	resetTokens map[uuid.UUID]user.PasswordResetToken
	addresses   map[uuid.UUID]address.Address
}

func newDataset() *dataset {
	return &dataset{
		users:       make(map[uuid.UUID]user.User),
		resetTokens: make(map[uuid.UUID]user.PasswordResetToken),
		addresses:   make(map[uuid.UUID]address.Address),
	}
}

func (d *dataset) clone() *dataset {
	c := &dataset{
		users:       make(map[uuid.UUID]user.User, len(d.users)),
		resetTokens: make(map[uuid.UUID]user.PasswordResetToken, len(d.resetTokens)),
		addresses:   make(map[uuid.UUID]address.Address, len(d.addresses)),
	}
	for k, v := range d.users {
		c.users[k] = v
	}
	for k, v := range d.resetTokens {
		c.resetTokens[k] = v
	}
	for k, v := range d.addresses {
		c.addresses[k] = v
	}
	return c
}

// Store holds the shared data behind the memory repositories.
type Store struct {
	mu   chan struct{}
	data *dataset
}

func NewStore() *Store {
	s := &Store{
		mu:   make(chan struct{}, 1),
		data: newDataset(),
	}
	return s
}

// lock acquires the store or gives up when ctx is done.
func (s *Store) lock(ctx context.Context) error {
	select {
	case s.mu <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) unlock() {
	<-s.mu
}

func (s *Store) read(ctx context.Context, fn func(d *dataset) error) error {
	if err := s.lock(ctx); err != nil {
		return err
	}
	defer s.unlock()
	return fn(s.data)
}

func (s *Store) write(ctx context.Context, fn func(d *dataset) error) error {
	if err := s.lock(ctx); err != nil {
		return err
	}
	defer s.unlock()

	staged := s.data.clone()
	if err := fn(staged); err != nil {
		return err
	}
	s.data = staged
	return nil
}

func (s *Store) Health(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) Users() *UserRepository {
	return &UserRepository{store: s}
}

func (s *Store) Addresses() *AddressRepository {
	return &AddressRepository{store: s}
}

// scope runs fn directly on tx when inside a transaction, otherwise through
// the store with the requested access mode.
func scope(ctx context.Context, s *Store, tx *dataset, mutate bool, fn func(d *dataset) error) error {
	if tx != nil {
		return fn(tx)
	}
	if mutate {
		return s.write(ctx, fn)
	}
	return s.read(ctx, fn)
}
