package savesystem

import "errors"

var (
	ErrNilEntity         = errors.New("entity is nil")
	ErrAlreadyRegistered = errors.New("entity is already registered")
	ErrInvalidIdentity   = errors.New("entity has an invalid identity")
	ErrMissingTypes      = errors.New("a type registry is required")
	ErrMissingSlot       = errors.New("a save slot is required")
	ErrNegativeInterval  = errors.New("interval must not be negative")
)
