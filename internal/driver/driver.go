// Package driver calls Tick on a set of managers at a fixed interval.
package driver

import (
	"context"
	"log/slog"
	"time"

	"github.com/pixil98/go-service"
)

const (
	DefaultTickLength = time.Second
)

// Manager is anything that wants a periodic chance to do work.
type Manager interface {
	Tick(context.Context) error
}

// ManagerFunc adapts a function to Manager.
type ManagerFunc func(context.Context) error

func (f ManagerFunc) Tick(ctx context.Context) error {
	return f(ctx)
}

type Driver struct {
	tickLength time.Duration
	managers   []Manager
	stopOnErr  bool
}

var _ service.Worker = (*Driver)(nil)

func NewDriver(managers []Manager, opts ...DriverOpt) *Driver {
	d := &Driver{
		tickLength: DefaultTickLength,
		managers:   managers,
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

func (d *Driver) Start(ctx context.Context) error {
	ticker := time.NewTicker(d.tickLength)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			err := d.Tick(ctx)
			if err != nil && d.stopOnErr {
				return err
			}
		}
	}
}

// Tick runs every manager once, in order. A failing manager is logged and
// does not stop the managers after it; the first error is returned.
func (d *Driver) Tick(ctx context.Context) error {
	var first error
	for _, m := range d.managers {
		if err := m.Tick(ctx); err != nil {
			slog.ErrorContext(ctx, "tick failed", "error", err)
			if first == nil {
				first = err
			}
		}
	}
	return first
}
