package address

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainAddress "storefront-api/internal/domain/address"
	"storefront-api/internal/infrastructure/database/memory"
	appErrors "storefront-api/pkg/errors"
)

func newService(t *testing.T) *Service {
	t.Helper()
	return NewService(memory.NewStore().Addresses())
}

func shipping(isDefault bool) *CreateAddressRequest {
	return &CreateAddressRequest{
		Type:       "SHIPPING",
		FirstName:  "Ann",
		LastName:   "Smith",
		Street:     "1 Main St",
		City:       "Springfield",
		State:      "IL",
		PostalCode: "62701",
		Country:    "US",
		IsDefault:  isDefault,
	}
}

func billing(isDefault bool) *CreateAddressRequest {
	req := shipping(isDefault)
	req.Type = "BILLING"
	return req
}

func defaults(t *testing.T, s *Service, userID uuid.UUID, typ domainAddress.Type) []uuid.UUID {
	t.Helper()
	list, err := s.List(context.Background(), userID)
	require.NoError(t, err)

	var ids []uuid.UUID
	for _, a := range list {
		if a.Type == typ && a.IsDefault {
			ids = append(ids, a.ID)
		}
	}
	return ids
}

func TestCreateValidatesInput(t *testing.T) {
	s := newService(t)
	req := shipping(false)
	req.Type = "HOME"
	req.City = "  "

	_, err := s.Create(context.Background(), uuid.New(), req)

	var appErr *appErrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.CodeValidation, appErr.Code)
	assert.Contains(t, appErr.Fields, "type")
	assert.Contains(t, appErr.Fields, "city")
}

func TestCreateDefaultClearsPreviousDefaultOfSameType(t *testing.T) {
	s := newService(t)
	ctx := context.Background()
	userID := uuid.New()

	first, err := s.Create(ctx, userID, shipping(true))
	require.NoError(t, err)
	bill, err := s.Create(ctx, userID, billing(true))
	require.NoError(t, err)
	second, err := s.Create(ctx, userID, shipping(true))
	require.NoError(t, err)

	assert.Equal(t, []uuid.UUID{second.ID}, defaults(t, s, userID, domainAddress.TypeShipping))
	assert.Equal(t, []uuid.UUID{bill.ID}, defaults(t, s, userID, domainAddress.TypeBilling))

	reloaded, err := s.Get(ctx, userID, first.ID)
	require.NoError(t, err)
	assert.False(t, reloaded.IsDefault)
}

func TestDefaultsAreScopedPerUser(t *testing.T) {
	s := newService(t)
	ctx := context.Background()
	ann, bob := uuid.New(), uuid.New()

	annDefault, err := s.Create(ctx, ann, shipping(true))
	require.NoError(t, err)
	bobDefault, err := s.Create(ctx, bob, shipping(true))
	require.NoError(t, err)

	assert.Equal(t, []uuid.UUID{annDefault.ID}, defaults(t, s, ann, domainAddress.TypeShipping))
	assert.Equal(t, []uuid.UUID{bobDefault.ID}, defaults(t, s, bob, domainAddress.TypeShipping))
}

func TestUpdatePromotesAndClearsOthers(t *testing.T) {
	s := newService(t)
	ctx := context.Background()
	userID := uuid.New()

	current, err := s.Create(ctx, userID, shipping(true))
	require.NoError(t, err)
	other, err := s.Create(ctx, userID, shipping(false))
	require.NoError(t, err)

	yes := true
	city := "Shelbyville"
	updated, err := s.Update(ctx, userID, other.ID, &UpdateAddressRequest{IsDefault: &yes, City: &city})
	require.NoError(t, err)
	assert.True(t, updated.IsDefault)
	assert.Equal(t, "Shelbyville", updated.City)
	assert.Equal(t, "Ann", updated.FirstName)

	assert.Equal(t, []uuid.UUID{other.ID}, defaults(t, s, userID, domainAddress.TypeShipping))

	reloaded, err := s.Get(ctx, userID, current.ID)
	require.NoError(t, err)
	assert.False(t, reloaded.IsDefault)
}

func TestUpdateTypeChangeOfDefaultClearsTargetType(t *testing.T) {
	s := newService(t)
	ctx := context.Background()
	userID := uuid.New()

	ship, err := s.Create(ctx, userID, shipping(true))
	require.NoError(t, err)
	_, err = s.Create(ctx, userID, billing(true))
	require.NoError(t, err)

	billingType := "BILLING"
	moved, err := s.Update(ctx, userID, ship.ID, &UpdateAddressRequest{Type: &billingType})
	require.NoError(t, err)
	assert.Equal(t, domainAddress.TypeBilling, moved.Type)
	assert.True(t, moved.IsDefault)

	assert.Equal(t, []uuid.UUID{ship.ID}, defaults(t, s, userID, domainAddress.TypeBilling))
	assert.Empty(t, defaults(t, s, userID, domainAddress.TypeShipping))
}

func TestUpdateClearsOptionalFields(t *testing.T) {
	s := newService(t)
	ctx := context.Background()
	userID := uuid.New()

	req := shipping(false)
	company, phone := "Acme", "+1 555 0100"
	req.Company, req.Phone = &company, &phone
	created, err := s.Create(ctx, userID, req)
	require.NoError(t, err)
	require.NotNil(t, created.Company)

	empty := ""
	updated, err := s.Update(ctx, userID, created.ID, &UpdateAddressRequest{Company: &empty})
	require.NoError(t, err)
	assert.Nil(t, updated.Company)
	require.NotNil(t, updated.Phone)
	assert.Equal(t, "+1 555 0100", *updated.Phone)
}

func TestUpdateRequiresAField(t *testing.T) {
	s := newService(t)
	ctx := context.Background()
	userID := uuid.New()

	created, err := s.Create(ctx, userID, shipping(false))
	require.NoError(t, err)

	_, err = s.Update(ctx, userID, created.ID, &UpdateAddressRequest{})
	var appErr *appErrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.CodeBadRequest, appErr.Code)
}

func TestSetDefaultIsIdempotent(t *testing.T) {
	s := newService(t)
	ctx := context.Background()
	userID := uuid.New()

	a, err := s.Create(ctx, userID, shipping(true))
	require.NoError(t, err)
	b, err := s.Create(ctx, userID, shipping(false))
	require.NoError(t, err)

	promoted, err := s.SetDefault(ctx, userID, b.ID)
	require.NoError(t, err)
	assert.True(t, promoted.IsDefault)

	again, err := s.SetDefault(ctx, userID, b.ID)
	require.NoError(t, err)
	assert.True(t, again.IsDefault)

	assert.Equal(t, []uuid.UUID{b.ID}, defaults(t, s, userID, domainAddress.TypeShipping))

	reloaded, err := s.Get(ctx, userID, a.ID)
	require.NoError(t, err)
	assert.False(t, reloaded.IsDefault)
}

func TestOtherUsersAddressesAreNotFound(t *testing.T) {
	s := newService(t)
	ctx := context.Background()
	owner, intruder := uuid.New(), uuid.New()

	a, err := s.Create(ctx, owner, shipping(true))
	require.NoError(t, err)

	city := "Elsewhere"
	_, err = s.Get(ctx, intruder, a.ID)
	assert.ErrorIs(t, err, appErrors.ErrAddressNotFound)
	_, err = s.Update(ctx, intruder, a.ID, &UpdateAddressRequest{City: &city})
	assert.ErrorIs(t, err, appErrors.ErrAddressNotFound)
	_, err = s.SetDefault(ctx, intruder, a.ID)
	assert.ErrorIs(t, err, appErrors.ErrAddressNotFound)
	assert.ErrorIs(t, s.Delete(ctx, intruder, a.ID), appErrors.ErrAddressNotFound)

	list, err := s.List(ctx, intruder)
	require.NoError(t, err)
	assert.Empty(t, list)

	still, err := s.Get(ctx, owner, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Springfield", still.City)
}

func TestDelete(t *testing.T) {
	s := newService(t)
	ctx := context.Background()
	userID := uuid.New()

	a, err := s.Create(ctx, userID, shipping(false))
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, userID, a.ID))
	assert.ErrorIs(t, s.Delete(ctx, userID, a.ID), appErrors.ErrAddressNotFound)
	_, err = s.Get(ctx, userID, a.ID)
	assert.ErrorIs(t, err, appErrors.ErrAddressNotFound)
}

func TestConcurrentDefaultCreatesLeaveExactlyOneDefault(t *testing.T) {
	s := newService(t)
	ctx := context.Background()
	userID := uuid.New()

	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Create(ctx, userID, shipping(true))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	list, err := s.List(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, list, n)
	assert.Len(t, defaults(t, s, userID, domainAddress.TypeShipping), 1)
}

func TestConcurrentPromotionsLeaveExactlyOneDefault(t *testing.T) {
	s := newService(t)
	ctx := context.Background()
	userID := uuid.New()

	const n = 10
	ids := make([]uuid.UUID, 0, n)
	for range n {
		a, err := s.Create(ctx, userID, shipping(false))
		require.NoError(t, err)
		ids = append(ids, a.ID)
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.SetDefault(ctx, userID, id)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Len(t, defaults(t, s, userID, domainAddress.TypeShipping), 1)
}
