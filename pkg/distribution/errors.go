package distribution

import "errors"

var (
	// ErrDuplicateAccount is returned when the same account appears twice
	// in one balance map (including hex case variants).
	ErrDuplicateAccount = errors.New("duplicate account in balance map")

	// ErrInvalidAccount is returned for malformed or zero addresses.
	ErrInvalidAccount = errors.New("invalid account address")

	// ErrZeroEntitlement is returned for entries with amount <= 0.
	ErrZeroEntitlement = errors.New("entitlement must be positive")
)
