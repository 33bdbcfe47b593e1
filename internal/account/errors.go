package account

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks input that breaks a schema or business rule.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound means the identifier does not resolve to an account.
	ErrNotFound = errors.New("account not found")
	// ErrStorage wraps failures of the underlying document store.
	ErrStorage = errors.New("storage failure")

	ErrNegativeBalance   = fmt.Errorf("%w: initial balance cannot be negative", ErrValidation)
	ErrInvalidID         = fmt.Errorf("%w: malformed account id", ErrValidation)
	ErrInvalidAmount     = fmt.Errorf("%w: amount must be a finite number", ErrValidation)
	ErrBalanceOutOfRange = fmt.Errorf("%w: adjustment would overflow the balance", ErrValidation)
	ErrInvalidName       = fmt.Errorf("%w: name must be between %d and %d characters", ErrValidation, minNameLen, maxNameLen)
)
