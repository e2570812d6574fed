package storage

import "os"

type FileSlotOpt func(*FileSlot)

// WithSaveName sets the durable file name
func WithSaveName(name string) FileSlotOpt {
	return func(s *FileSlot) {
		s.saveName = name
	}
}

// WithTempName sets the staging file name
func WithTempName(name string) FileSlotOpt {
	return func(s *FileSlot) {
		s.tempName = name
	}
}

// WithFileMode sets the permissions new save files are created with
func WithFileMode(perm os.FileMode) FileSlotOpt {
	return func(s *FileSlot) {
		s.perm = perm
	}
}
