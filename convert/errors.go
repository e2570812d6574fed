package convert

import "errors"

var (
	ErrUnknownKind     = errors.New("unknown value kind")
	ErrDuplicateKind   = errors.New("converter already registered")
	ErrUnsupportedType = errors.New("unsupported value type")
)
