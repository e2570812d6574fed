package savesystem

import (
	"fmt"
	"time"

	"github.com/pixil98/go-errors"
	"github.com/pixil98/go-savestate/internal/events"
)

type EventsConfig struct {
	Enabled       bool   `json:"enabled" toml:"enabled"`
	Host          string `json:"host" toml:"host"`
	Port          int    `json:"port" toml:"port"`
	StartTimeout  string `json:"start_timeout" toml:"start_timeout"`
	SubjectPrefix string `json:"subject_prefix" toml:"subject_prefix"`
}

func (c *EventsConfig) validate() error {
	el := errors.NewErrorList()

	if c.StartTimeout != "" {
		_, err := time.ParseDuration(c.StartTimeout)
		if err != nil {
			el.Add(fmt.Errorf("events: parsing start_timeout: %w", err))
		}
	}
	if c.Port < -1 || c.Port > 65535 {
		el.Add(fmt.Errorf("events: port %d out of range", c.Port))
	}

	return el.Err()
}

func (c *EventsConfig) buildNatsServer() (*events.NatsServer, error) {
	var opts []events.NatsServerOpt
	if c.StartTimeout != "" {
		d, err := time.ParseDuration(c.StartTimeout)
		if err != nil {
			return nil, fmt.Errorf("parsing start_timeout: %w", err)
		}
		opts = append(opts, events.WithStartTimeout(d))
	}
	if c.Host != "" {
		opts = append(opts, events.WithHost(c.Host))
	}
	if c.Port != 0 {
		opts = append(opts, events.WithPort(c.Port))
	}

	return events.NewNatsServer(opts...)
}

func (c *EventsConfig) buildNotifier() (*events.NatsServer, *events.Notifier, error) {
	server, err := c.buildNatsServer()
	if err != nil {
		return nil, nil, err
	}
	return server, events.NewNotifier(server, c.SubjectPrefix), nil
}
