package address

import (
	"time"

	"github.com/google/uuid"
)

// Type distinguishes shipping from billing addresses. Default exclusivity
// is tracked per (user, type).
type Type string

const (
	TypeShipping Type = "SHIPPING"
	TypeBilling  Type = "BILLING"
)

func (t Type) IsValid() bool {
	return t == TypeShipping || t == TypeBilling
}

// Address represents an address entity in the domain
type Address struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	Type       Type
	FirstName  string
	LastName   string
	Company    *string
	Street     string
	City       string
	State      string
	PostalCode string
	Country    string
	Phone      *string
	IsDefault  bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// UpdateFields is a partial update. Nil means "leave unchanged"; for
// Company and Phone an empty string clears the value.
type UpdateFields struct {
	Type       *Type
	FirstName  *string
	LastName   *string
	Company    *string
	Street     *string
	City       *string
	State      *string
	PostalCode *string
	Country    *string
	Phone      *string
	IsDefault  *bool
}

func (f *UpdateFields) IsEmpty() bool {
	return f.Type == nil && f.FirstName == nil && f.LastName == nil &&
		f.Company == nil && f.Street == nil && f.City == nil &&
		f.State == nil && f.PostalCode == nil && f.Country == nil &&
		f.Phone == nil && f.IsDefault == nil
}

// Apply writes the present fields onto a.
func (f *UpdateFields) Apply(a *Address) {
	if f.Type != nil {
		a.Type = *f.Type
	}
	if f.FirstName != nil {
		a.FirstName = *f.FirstName
	}
	if f.LastName != nil {
		a.LastName = *f.LastName
	}
	if f.Company != nil {
		a.Company = nullable(*f.Company)
	}
	if f.Street != nil {
		a.Street = *f.Street
	}
	if f.City != nil {
		a.City = *f.City
	}
	if f.State != nil {
		a.State = *f.State
	}
	if f.PostalCode != nil {
		a.PostalCode = *f.PostalCode
	}
	if f.Country != nil {
		a.Country = *f.Country
	}
	if f.Phone != nil {
		a.Phone = nullable(*f.Phone)
	}
	if f.IsDefault != nil {
		a.IsDefault = *f.IsDefault
	}
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
