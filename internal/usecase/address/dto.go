package address

import (
	"time"

	"github.com/google/uuid"

	domainAddress "storefront-api/internal/domain/address"
	"storefront-api/pkg/utils"
)

type CreateAddressRequest struct {
	Type       string  `json:"type" validate:"required,address_type"`
	FirstName  string  `json:"firstName" validate:"required,max=100"`
	LastName   string  `json:"lastName" validate:"required,max=100"`
	Company    *string `json:"company" validate:"omitempty,max=100"`
	Street     string  `json:"street" validate:"required,max=255"`
	City       string  `json:"city" validate:"required,max=100"`
	State      string  `json:"state" validate:"required,max=100"`
	PostalCode string  `json:"postalCode" validate:"required,max=20"`
	Country    string  `json:"country" validate:"required,max=100"`
	Phone      *string `json:"phone" validate:"omitempty,max=20"`
	IsDefault  bool    `json:"isDefault"`
}

// UpdateAddressRequest is a partial update; absent fields stay unchanged.
type UpdateAddressRequest struct {
	Type       *string `json:"type" validate:"omitempty,address_type"`
	FirstName  *string `json:"firstName" validate:"omitempty,min=1,max=100"`
	LastName   *string `json:"lastName" validate:"omitempty,min=1,max=100"`
	Company    *string `json:"company" validate:"omitempty,max=100"`
	Street     *string `json:"street" validate:"omitempty,min=1,max=255"`
	City       *string `json:"city" validate:"omitempty,min=1,max=100"`
	State      *string `json:"state" validate:"omitempty,min=1,max=100"`
	PostalCode *string `json:"postalCode" validate:"omitempty,min=1,max=20"`
	Country    *string `json:"country" validate:"omitempty,min=1,max=100"`
	Phone      *string `json:"phone" validate:"omitempty,max=20"`
	IsDefault  *bool   `json:"isDefault"`
}

type AddressResponse struct {
	ID         uuid.UUID          `json:"id"`
	UserID     uuid.UUID          `json:"userId"`
	Type       domainAddress.Type `json:"type"`
	FirstName  string             `json:"firstName"`
	LastName   string             `json:"lastName"`
	Company    *string            `json:"company"`
	Street     string             `json:"street"`
	City       string             `json:"city"`
	State      string             `json:"state"`
	PostalCode string             `json:"postalCode"`
	Country    string             `json:"country"`
	Phone      *string            `json:"phone"`
	IsDefault  bool               `json:"isDefault"`
	CreatedAt  time.Time          `json:"createdAt"`
	UpdatedAt  time.Time          `json:"updatedAt"`
}

func ToAddressResponse(a *domainAddress.Address) *AddressResponse {
	if a == nil {
		return nil
	}
	return &AddressResponse{
		ID:         a.ID,
		UserID:     a.UserID,
		Type:       a.Type,
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

func (r *CreateAddressRequest) sanitize() {
	r.Type = utils.SanitizeString(r.Type)
	r.FirstName = utils.SanitizeString(r.FirstName)
	r.LastName = utils.SanitizeString(r.LastName)
	r.Company = nonEmpty(utils.SanitizeOptional(r.Company))
	r.Street = utils.SanitizeString(r.Street)
	r.City = utils.SanitizeString(r.City)
	r.State = utils.SanitizeString(r.State)
	r.PostalCode = utils.SanitizeString(r.PostalCode)
	r.Country = utils.SanitizeString(r.Country)
	if r.Phone != nil {
		r.Phone = nonEmpty(ptr(utils.SanitizePhone(*r.Phone)))
	}
}

func (r *CreateAddressRequest) toEntity(userID uuid.UUID) *domainAddress.Address {
	return &domainAddress.Address{
		UserID:     userID,
		Type:       domainAddress.Type(r.Type),
		FirstName:  r.FirstName,
		LastName:   r.LastName,
		Company:    r.Company,
		Street:     r.Street,
		City:       r.City,
		State:      r.State,
		PostalCode: r.PostalCode,
		Country:    r.Country,
		Phone:      r.Phone,
		IsDefault:  r.IsDefault,
	}
}

func (r *UpdateAddressRequest) sanitize() {
	r.Type = utils.SanitizeOptional(r.Type)
	r.FirstName = utils.SanitizeOptional(r.FirstName)
	r.LastName = utils.SanitizeOptional(r.LastName)
	r.Company = utils.SanitizeOptional(r.Company)
	r.Street = utils.SanitizeOptional(r.Street)
	r.City = utils.SanitizeOptional(r.City)
	r.State = utils.SanitizeOptional(r.State)
	r.PostalCode = utils.SanitizeOptional(r.PostalCode)
	r.Country = utils.SanitizeOptional(r.Country)
	if r.Phone != nil {
		r.Phone = ptr(utils.SanitizePhone(*r.Phone))
	}
}

func (r *UpdateAddressRequest) toFields() *domainAddress.UpdateFields {
	f := &domainAddress.UpdateFields{
		FirstName:  r.FirstName,
		LastName:   r.LastName,
		Company:    r.Company,
		Street:     r.Street,
		City:       r.City,
		State:      r.State,
		PostalCode: r.PostalCode,
		Country:    r.Country,
		Phone:      r.Phone,
		IsDefault:  r.IsDefault,
	}
	if r.Type != nil {
		t := domainAddress.Type(*r.Type)
		f.Type = &t
	}
	return f
}

func ptr(s string) *string {
	return &s
}

func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
