package savesystem

import (
	"context"
	"fmt"

	"github.com/pixil98/go-errors"
	"github.com/pixil98/go-savestate/internal/storage"
)

const (
	defaultSlotName = "main"
)

type BackendType int

const (
	BackendFile BackendType = iota
	BackendSQLite
)

func (bt *BackendType) UnmarshalText(text []byte) error {
	switch string(text) {
	case "file", "":
		*bt = BackendFile
	case "sqlite":
		*bt = BackendSQLite
	default:
		return fmt.Errorf("unknown storage backend: %s", text)
	}
	return nil
}

func (bt BackendType) MarshalText() ([]byte, error) {
	switch bt {
	case BackendFile:
		return []byte("file"), nil
	case BackendSQLite:
		return []byte("sqlite"), nil
	default:
		return nil, fmt.Errorf("unknown storage backend: %d", int(bt))
	}
}

type StorageConfig struct {
	Backend    BackendType `json:"backend" toml:"backend"`
	Dir        string      `json:"dir" toml:"dir"`
	SaveFile   string      `json:"save_file,omitempty" toml:"save_file"`
	TempFile   string      `json:"temp_file,omitempty" toml:"temp_file"`
	SQLitePath string      `json:"sqlite_path,omitempty" toml:"sqlite_path"`
	Slot       string      `json:"slot,omitempty" toml:"slot"`
}

func (c *StorageConfig) validate() error {
	el := errors.NewErrorList()

	switch c.Backend {
	case BackendFile:
		if c.Dir == "" {
			el.Add(fmt.Errorf("storage: dir is required"))
		}
		if c.SaveFile != "" && c.SaveFile == c.TempFile {
			el.Add(fmt.Errorf("storage: save_file and temp_file must differ"))
		}
	case BackendSQLite:
		if c.SQLitePath == "" {
			el.Add(fmt.Errorf("storage: sqlite_path is required"))
		}
	default:
		el.Add(fmt.Errorf("storage: unknown backend %d", int(c.Backend)))
	}

	return el.Err()
}

func (c *StorageConfig) BuildSlot(ctx context.Context) (storage.Slot, error) {
	switch c.Backend {
	case BackendFile:
		var opts []storage.FileSlotOpt
		if c.SaveFile != "" {
			opts = append(opts, storage.WithSaveName(c.SaveFile))
		}
		if c.TempFile != "" {
			opts = append(opts, storage.WithTempName(c.TempFile))
		}
		return storage.NewFileSlot(c.Dir, opts...), nil
	case BackendSQLite:
		name := c.Slot
		if name == "" {
			name = defaultSlotName
		}
		return storage.OpenSQLiteSlot(ctx, c.SQLitePath, name)
	default:
		return nil, fmt.Errorf("unknown storage backend: %d", int(c.Backend))
	}
}
