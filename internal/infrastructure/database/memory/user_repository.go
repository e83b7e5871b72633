package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"storefront-api/internal/domain/user"
)

// UserRepository implements user.Repository in memory.
type UserRepository struct {
	store *Store
	tx    *dataset
}

func (r *UserRepository) Transaction(ctx context.Context, fn func(tx user.Repository) error) error {
	if r.tx != nil {
		return fn(r)
	}
	return r.store.write(ctx, func(d *dataset) error {
		return fn(&UserRepository{store: r.store, tx: d})
	})
}

func (r *UserRepository) do(ctx context.Context, mutate bool, fn func(d *dataset) error) error {
	return scope(ctx, r.store, r.tx, mutate, fn)
}

func emailTaken(d *dataset, email string, except uuid.UUID) bool {
	for id, u := range d.users {
		if id != except && strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}

func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	return r.do(ctx, true, func(d *dataset) error {
		if emailTaken(d, u.Email, uuid.Nil) {
			return user.ErrUserAlreadyExists
		}

		now := time.Now().UTC()
		u.ID = uuid.New()
		u.CreatedAt = now
		u.UpdatedAt = now
		if u.Role == "" {
			u.Role = user.RoleUser
		}

		d.users[u.ID] = *u
		return nil
	})
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	var found *user.User
	err := r.do(ctx, false, func(d *dataset) error {
		for _, u := range d.users {
			if strings.EqualFold(u.Email, email) {
				found = &u
				return nil
			}
		}
		return user.ErrUserNotFound
	})
	return found, err
}

func (r *UserRepository) GetByID(ctx context.Context, userID uuid.UUID) (*user.User, error) {
	var found *user.User
	err := r.do(ctx, false, func(d *dataset) error {
		u, ok := d.users[userID]
		if !ok {
			return user.ErrUserNotFound
		}
		found = &u
		return nil
	})
	return found, err
}

func (r *UserRepository) GetAll(ctx context.Context) ([]*user.User, error) {
	var users []*user.User
	err := r.do(ctx, false, func(d *dataset) error {
		users = make([]*user.User, 0, len(d.users))
		for _, u := range d.users {
			users = append(users, &u)
		}
		return nil
	})

	sort.Slice(users, func(i, j int) bool {
		return users[i].CreatedAt.After(users[j].CreatedAt)
	})
	return users, err
}

func (r *UserRepository) Update(ctx context.Context, u *user.User) error {
	return r.do(ctx, true, func(d *dataset) error {
		stored, ok := d.users[u.ID]
		if !ok {
			return user.ErrUserNotFound
		}
		if emailTaken(d, u.Email, u.ID) {
			return user.ErrUserAlreadyExists
		}

		u.UpdatedAt = time.Now().UTC()
		stored.Email = u.Email
		stored.FirstName = u.FirstName
		stored.LastName = u.LastName
		stored.UpdatedAt = u.UpdatedAt
		d.users[u.ID] = stored
		return nil
	})
}

func (r *UserRepository) UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	return r.do(ctx, true, func(d *dataset) error {
		stored, ok := d.users[userID]
		if !ok {
			return user.ErrUserNotFound
		}
		stored.PasswordHash = passwordHash
		stored.UpdatedAt = time.Now().UTC()
		d.users[userID] = stored
		return nil
	})
}

func (r *UserRepository) SetActive(ctx context.Context, userID uuid.UUID, active bool) error {
	return r.do(ctx, true, func(d *dataset) error {
		stored, ok := d.users[userID]
		if !ok {
			return user.ErrUserNotFound
		}
		stored.IsActive = active
		stored.UpdatedAt = time.Now().UTC()
		d.users[userID] = stored
		return nil
	})
}

// SetRole is not part of user.Repository; it lets local setups and tests
// promote an account to admin.
func (r *UserRepository) SetRole(ctx context.Context, userID uuid.UUID, role user.Role) error {
	return r.do(ctx, true, func(d *dataset) error {
		stored, ok := d.users[userID]
		if !ok {
			return user.ErrUserNotFound
		}
		stored.Role = role
		d.users[userID] = stored
		return nil
	})
}

func (r *UserRepository) CreatePasswordResetToken(ctx context.Context, token *user.PasswordResetToken) error {
	return r.do(ctx, true, func(d *dataset) error {
		if _, ok := d.users[token.UserID]; !ok {
			return user.ErrUserNotFound
		}
		if token.ID == uuid.Nil {
			token.ID = uuid.New()
		}
		token.CreatedAt = time.Now().UTC()
		token.UsedAt = nil

		d.resetTokens[token.ID] = *token
		return nil
	})
}

func (r *UserRepository) GetValidPasswordResetToken(ctx context.Context, tokenID uuid.UUID, now time.Time) (*user.PasswordResetToken, error) {
	var found *user.PasswordResetToken
	err := r.do(ctx, false, func(d *dataset) error {
		t, ok := d.resetTokens[tokenID]
		if !ok || !t.IsValid(now) {
			return user.ErrResetTokenNotFound
		}
		found = &t
		return nil
	})
	return found, err
}

func (r *UserRepository) DeleteExpiredPasswordResetTokens(ctx context.Context, userID uuid.UUID, now time.Time) (int64, error) {
	var deleted int64
	err := r.do(ctx, true, func(d *dataset) error {
		for id, t := range d.resetTokens {
			if t.UserID == userID && !t.ExpiresAt.After(now) {
				delete(d.resetTokens, id)
				deleted++
			}
		}
		return nil
	})
	return deleted, err
}

func (r *UserRepository) PurgePasswordResetTokens(ctx context.Context, cutoff time.Time) (int64, error) {
	var deleted int64
	err := r.do(ctx, true, func(d *dataset) error {
		for id, t := range d.resetTokens {
			if !t.ExpiresAt.After(cutoff) || (t.UsedAt != nil && !t.UsedAt.After(cutoff)) {
				delete(d.resetTokens, id)
				deleted++
			}
		}
		return nil
	})
	return deleted, err
}

func (r *UserRepository) RevokeActivePasswordResetTokens(ctx context.Context, userID uuid.UUID, now time.Time) (int64, error) {
	var revoked int64
	err := r.do(ctx, true, func(d *dataset) error {
		for id, t := range d.resetTokens {
			if t.UserID == userID && t.IsValid(now) {
				usedAt := now
				t.UsedAt = &usedAt
				d.resetTokens[id] = t
				revoked++
			}
		}
		return nil
	})
	return revoked, err
}

func (r *UserRepository) MarkPasswordResetTokenUsed(ctx context.Context, tokenID uuid.UUID, usedAt time.Time) error {
	return r.do(ctx, true, func(d *dataset) error {
		t, ok := d.resetTokens[tokenID]
		if !ok || t.UsedAt != nil {
			return user.ErrResetTokenNotFound
		}
		t.UsedAt = &usedAt
		d.resetTokens[tokenID] = t
		return nil
	})
}
