package capture

import "errors"

var (
	ErrFieldUnavailable = errors.New("field not readable")
	ErrUnknownField     = errors.New("unknown field")
	ErrFieldType        = errors.New("field type mismatch")
)
