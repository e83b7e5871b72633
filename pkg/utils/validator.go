package utils

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	appErrors "storefront-api/pkg/errors"
)

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	if err := validate.RegisterValidation("address_type", func(fl validator.FieldLevel) bool {
		switch fl.Field().String() {
		case "SHIPPING", "BILLING":
			return true
		}
		return false
	}); err != nil {
		panic(err)
	}
}

// ValidateStruct checks s against its validate tags. Failures come back as
// an *AppError carrying one message per offending json field.
func ValidateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return appErrors.NewAppError(appErrors.CodeValidation, "Invalid input", err)
	}

	fields := make(map[string]string, len(validationErrors))
	for _, fe := range validationErrors {
		if _, seen := fields[fe.Field()]; seen {
			continue
		}
		fields[fe.Field()] = fieldMessage(fe)
	}

	return appErrors.NewValidationError("Validation failed", fields)
}

func fieldMessage(fe validator.FieldError) string {
	name := humanize(fe.Field())

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", name)
	case "email":
		return "Invalid email format"
	case "min":
		if fe.Kind() == reflect.String || isStringPtr(fe) {
			if fe.Param() == "1" {
				return fmt.Sprintf("%s cannot be empty", name)
			}
			return fmt.Sprintf("%s must be at least %s characters long", name, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", name, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters long", name, fe.Param())
	case "address_type":
		return "Type must be either SHIPPING or BILLING"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", name, strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return fmt.Sprintf("%s is invalid", name)
	}
}

func isStringPtr(fe validator.FieldError) bool {
	t := fe.Type()
	return t != nil && t.Kind() == reflect.Pointer && t.Elem().Kind() == reflect.String
}

// humanize turns "postalCode" into "Postal code".
func humanize(field string) string {
	if field == "" {
		return "Field"
	}

	var b strings.Builder
	for i, r := range field {
		switch {
		case i == 0:
			b.WriteString(strings.ToUpper(string(r)))
		case r >= 'A' && r <= 'Z':
			b.WriteByte(' ')
			b.WriteString(strings.ToLower(string(r)))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
