package snapshot

import "errors"

var (
	ErrMalformedVersion = errors.New("malformed version")
	ErrInvalidIdentity  = errors.New("invalid identity")
)
