package events

import "errors"

var (
	ErrNotStarted = errors.New("event server not started")
)
