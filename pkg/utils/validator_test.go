package utils

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "storefront-api/pkg/errors"
)

type signup struct {
	Email      string  `json:"email" validate:"required,email"`
	Password   string  `json:"password" validate:"required,min=6"`
	FirstName  *string `json:"firstName" validate:"omitempty,min=1,max=5"`
	PostalCode string  `json:"postalCode" validate:"required"`
	Type       string  `json:"type" validate:"required,address_type"`
}

func TestValidateStructReportsFieldMessages(t *testing.T) {
	empty := ""
	err := ValidateStruct(&signup{
		Email:     "not-an-email",
		Password:  "123",
		FirstName: &empty,
		Type:      "HOME",
	})
	require.Error(t, err)

	var appErr *appErrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.CodeValidation, appErr.Code)
	assert.Equal(t, "Validation failed", appErr.Message)
	assert.Equal(t, map[string]string{
		"email":      "Invalid email format",
		"password":   "Password must be at least 6 characters long",
		"firstName":  "First name cannot be empty",
		"postalCode": "Postal code is required",
		"type":       "Type must be either SHIPPING or BILLING",
	}, appErr.Fields)
}

func TestValidateStructAcceptsValidInput(t *testing.T) {
	name := "Ann"
	assert.NoError(t, ValidateStruct(&signup{
		Email:      "ann@example.com",
		Password:   "secret",
		FirstName:  &name,
		PostalCode: "10115",
		Type:       "BILLING",
	}))
}

func TestHumanize(t *testing.T) {
	assert.Equal(t, "Postal code", humanize("postalCode"))
	assert.Equal(t, "Email", humanize("email"))
	assert.Equal(t, "Field", humanize(""))
}
