package savesystem

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/pixil98/go-errors"
	"github.com/pixil98/go-savestate/convert"
	"github.com/pixil98/go-savestate/internal/storage"
	"github.com/pixil98/go-savestate/schema"
	"github.com/pixil98/go-savestate/snapshot"
	"github.com/pixil98/go-service"
)

type Config struct {
	AppVersion       string        `json:"app_version" toml:"app_version"`
	AutosaveInterval string        `json:"autosave_interval" toml:"autosave_interval"`
	TickInterval     string        `json:"tick_interval" toml:"tick_interval"`
	Storage          StorageConfig `json:"storage" toml:"storage"`
	Events           EventsConfig  `json:"events" toml:"events"`
}

// LoadConfig reads a JSON or TOML config file, chosen by extension, and
// validates it.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	c := &Config{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, c)
	case ".json", "":
		err = json.Unmarshal(data, c)
	default:
		return nil, fmt.Errorf("unsupported config format %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", filepath.Base(path), err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return c, nil
}

func (c *Config) Validate() error {
	el := errors.NewErrorList()

	if c.AppVersion == "" {
		el.Add(fmt.Errorf("app_version is required"))
	} else if _, err := snapshot.ParseVersion(c.AppVersion); err != nil {
		el.Add(fmt.Errorf("parsing app_version: %w", err))
	}

	if c.AutosaveInterval != "" {
		d, err := time.ParseDuration(c.AutosaveInterval)
		if err != nil {
			el.Add(fmt.Errorf("parsing autosave_interval: %w", err))
		} else if d < 0 {
			el.Add(fmt.Errorf("autosave_interval must not be negative"))
		}
	}

	if c.TickInterval != "" {
		d, err := time.ParseDuration(c.TickInterval)
		if err != nil {
			el.Add(fmt.Errorf("parsing tick_interval: %w", err))
		} else if d < 10*time.Millisecond {
			el.Add(fmt.Errorf("tick_interval must be at least 10ms"))
		}
	}

	el.Add(c.Storage.validate())
	el.Add(c.Events.validate())

	return el.Err()
}

// BuildSystem creates the slot, the optional event server and the System
// described by the config. The event server, when enabled, is run by the
// System's Start.
func (c *Config) BuildSystem(ctx context.Context, types *schema.Registry, converters *convert.Registry) (*System, error) {
	version, err := snapshot.ParseVersion(c.AppVersion)
	if err != nil {
		return nil, fmt.Errorf("parsing app_version: %w", err)
	}

	opts := Options{
		Types:      types,
		Converters: converters,
		AppVersion: version,
	}
	if opts.AutosaveInterval, err = parseOptionalDuration(c.AutosaveInterval); err != nil {
		return nil, fmt.Errorf("parsing autosave_interval: %w", err)
	}
	if opts.TickInterval, err = parseOptionalDuration(c.TickInterval); err != nil {
		return nil, fmt.Errorf("parsing tick_interval: %w", err)
	}

	slot, err := c.Storage.BuildSlot(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating save slot: %w", err)
	}
	opts.Slot = slot

	if c.Events.Enabled {
		server, notifier, err := c.Events.buildNotifier()
		if err != nil {
			closeSlot(slot)
			return nil, fmt.Errorf("creating event server: %w", err)
		}
		opts.OnComplete = notifier.Notify
		opts.Workers = []service.Worker{server}
	}

	s, err := New(opts)
	if err != nil {
		closeSlot(slot)
		return nil, err
	}
	return s, nil
}

func parseOptionalDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}

func closeSlot(slot storage.Slot) {
	if c, ok := slot.(io.Closer); ok {
		_ = c.Close()
	}
}
