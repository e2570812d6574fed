package storage

import "context"

// Slot is one durable save location. Implementations must replace the stored
// payload atomically: a reader sees either the previous payload or the new
// one, never a partial write.
type Slot interface {
	Name() string
	Write(ctx context.Context, data []byte) error
	// Read returns ErrSlotEmpty when nothing has been stored.
	Read(ctx context.Context) ([]byte, error)
	// Delete is a no-op when nothing has been stored.
	Delete(ctx context.Context) error
	Exists(ctx context.Context) (bool, error)
}
