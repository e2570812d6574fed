package codec

import (
	"errors"

	"github.com/pixil98/go-savestate/snapshot"
)

var (
	ErrMalformedSnapshot = errors.New("malformed snapshot")

	// ErrMalformedVersion is returned when the version line of a save cannot
	// be parsed. The body is still decoded.
	ErrMalformedVersion = snapshot.ErrMalformedVersion
)
