package driver

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pixil98/go-testutil"
)

type countingManager struct {
	ticks atomic.Int32
	err   error
}

func (m *countingManager) Tick(context.Context) error {
	m.ticks.Add(1)
	return m.err
}

func TestDriver_Tick(t *testing.T) {
	tests := map[string]struct {
		errs   []error
		expErr string
	}{
		"all succeed": {
			errs: []error{nil, nil},
		},
		"failure does not stop later managers": {
			errs:   []error{errors.New("first"), nil},
			expErr: "first",
		},
		"first error wins": {
			errs:   []error{errors.New("first"), errors.New("second")},
			expErr: "first",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			var managers []Manager
			var counters []*countingManager
			for _, err := range tt.errs {
				m := &countingManager{err: err}
				counters = append(counters, m)
				managers = append(managers, m)
			}

			err := NewDriver(managers).Tick(context.Background())
			if tt.expErr != "" {
				testutil.AssertErrorContains(t, err, tt.expErr)
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			for _, m := range counters {
				testutil.AssertEqual(t, "ticks", m.ticks.Load(), int32(1))
			}
		})
	}
}

func TestDriver_Start(t *testing.T) {
	m := &countingManager{}
	d := NewDriver([]Manager{m}, WithTickLength(5*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Start(ctx) }()

	deadline := time.After(5 * time.Second)
	for m.ticks.Load() < 3 {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for ticks")
		case <-time.After(time.Millisecond):
		}
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDriver_StartStopOnError(t *testing.T) {
	calls := 0
	d := NewDriver([]Manager{ManagerFunc(func(context.Context) error {
		calls++
		return errors.New("boom")
	})}, WithTickLength(time.Millisecond), WithStopOnError())

	err := d.Start(context.Background())
	testutil.AssertErrorContains(t, err, "boom")
	testutil.AssertEqual(t, "calls", calls, 1)
}
