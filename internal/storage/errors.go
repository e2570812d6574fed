package storage

import "errors"

var (
	ErrSlotEmpty = errors.New("save slot is empty")
)
