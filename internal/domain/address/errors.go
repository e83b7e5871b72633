package address

import "errors"

var (
	ErrAddressNotFound = errors.New("address not found")
	// ErrDefaultConflict is reported when the store rejects a second default
	// for the same (user, type).
	ErrDefaultConflict = errors.New("default address already exists for this type")
)
