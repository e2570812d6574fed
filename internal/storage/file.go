package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

const (
	DefaultSaveName = "save.save"
	DefaultTempName = "tempsave.save"
)

// FileSlot stores the save as a single file. Writes are staged in a sibling
// temp file and renamed over the durable file once they are on disk.
type FileSlot struct {
	dir      string
	saveName string
	tempName string
	perm     os.FileMode
}

func NewFileSlot(dir string, opts ...FileSlotOpt) *FileSlot {
	s := &FileSlot{
		dir:      dir,
		saveName: DefaultSaveName,
		tempName: DefaultTempName,
		perm:     0644,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *FileSlot) Name() string {
	return s.Path()
}

// Path is the durable save file.
func (s *FileSlot) Path() string {
	return filepath.Join(s.dir, s.saveName)
}

// TempPath is the staging file used while a write is in progress.
func (s *FileSlot) TempPath() string {
	return filepath.Join(s.dir, s.tempName)
}

func (s *FileSlot) Write(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("creating save directory: %w", err)
	}
	return atomicWrite(s.Path(), s.TempPath(), data, s.perm)
}

func (s *FileSlot) Read(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.Path())
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrSlotEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("reading save file: %w", err)
	}
	return data, nil
}

func (s *FileSlot) Delete(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.Remove(s.Path()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing save file: %w", err)
	}
	// A stale temp file is left behind only by a crash mid-write.
	if err := os.Remove(s.TempPath()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to remove stale temp file", "path", s.TempPath(), "error", err)
	}
	return nil
}

func (s *FileSlot) Exists(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	info, err := os.Stat(s.Path())
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking save file: %w", err)
	}
	return !info.IsDir(), nil
}

// atomicWrite writes data to tmp, syncs it, then renames it over path. The
// rename replaces path in one step, so a crash leaves either the old file or
// the new one. On failure tmp is removed and path is untouched.
func atomicWrite(path, tmp string, data []byte, perm os.FileMode) (err error) {
	defer func() {
		if err == nil {
			return
		}
		if removeErr := os.Remove(tmp); removeErr != nil && !errors.Is(removeErr, fs.ErrNotExist) {
			slog.Warn("failed to remove temp file after write failure", "path", tmp, "error", removeErr)
		}
	}()

	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("opening temp file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
