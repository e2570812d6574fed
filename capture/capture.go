// Package capture walks an entity's saveable components and moves their
// tagged field values into and out of a snapshot instance.
package capture

import (
	"fmt"
	"log/slog"

	"github.com/pixil98/go-savestate/identity"
	"github.com/pixil98/go-savestate/internal/errlist"
	"github.com/pixil98/go-savestate/schema"
	"github.com/pixil98/go-savestate/snapshot"
)

// Component is a saveable sub-unit of an entity.
type Component interface {
	// SaveType is the logical type name the schema registry knows it by.
	SaveType() string
	// ShouldPersistNow reports whether the component wants to be captured
	// in the current save cycle.
	ShouldPersistNow() bool
	// OnCapture runs before fields are read, so derived values can be
	// prepared.
	OnCapture()
	// OnRestore runs once after saved fields have been applied.
	OnRestore()

	GetField(name string) (any, bool)
	SetField(name string, value any) error
}

// Entity is a live object with a persistent identity.
type Entity interface {
	Identity() identity.Identity
	// SaveComponents returns the entity's components in a stable order.
	SaveComponents() []Component
}

// Engine captures and restores entities using the saved fields declared in
// a schema registry. An Engine belongs to the foreground and is not safe for
// concurrent use.
type Engine struct {
	types *schema.Registry

	capturing bool
	restoring bool
	// unregistered holds component types already reported as unknown.
	unregistered map[string]bool
}

func NewEngine(types *schema.Registry) *Engine {
	return &Engine{types: types}
}

// Capturing reports whether a Capture call is running.
func (e *Engine) Capturing() bool {
	return e.capturing
}

// Restoring reports whether a Restore call is running.
func (e *Engine) Restoring() bool {
	return e.restoring
}

// Capture records the current state of ent into inst. Each captured
// component replaces its saved fields wholesale; components that opt out of
// this cycle keep what they had, and components no longer on the entity are
// left in place. Components whose type is not registered are skipped.
func (e *Engine) Capture(ent Entity, inst *snapshot.Instance) error {
	e.capturing = true
	defer func() { e.capturing = false }()

	el := errlist.New()
	for _, c := range ent.SaveComponents() {
		if c == nil || !c.ShouldPersistNow() {
			continue
		}

		typeName := c.SaveType()
		if !e.types.Has(typeName) {
			e.warnUnregistered(typeName)
			continue
		}

		saved := inst.EnsureComponent(typeName)
		saved.Clear()

		c.OnCapture()

		for _, f := range e.types.SavedFields(typeName) {
			v, ok := c.GetField(f.Name)
			if !ok {
				el.Add(fmt.Errorf("%s.%s: %w", typeName, f.Name, ErrFieldUnavailable))
				continue
			}
			saved.Set(f.Name, v)
		}
	}

	return el.Err()
}

// Restore applies the state saved in inst to ent. Fields missing from the
// save keep their live values and saved fields the schema no longer declares
// are ignored. OnRestore is called exactly once per live component.
func (e *Engine) Restore(ent Entity, inst *snapshot.Instance) error {
	e.restoring = true
	defer func() { e.restoring = false }()

	el := errlist.New()
	for _, c := range ent.SaveComponents() {
		if c == nil {
			continue
		}

		typeName := c.SaveType()
		if saved, ok := inst.Component(typeName); ok {
			for _, f := range e.types.SavedFields(typeName) {
				sf, ok := saved.Field(f.Name)
				if !ok {
					continue
				}
				if err := c.SetField(f.Name, sf.Value); err != nil {
					el.Add(fmt.Errorf("%s.%s: %w", typeName, f.Name, err))
				}
			}
		}

		c.OnRestore()
	}

	return el.Err()
}

func (e *Engine) warnUnregistered(typeName string) {
	if e.unregistered[typeName] {
		return
	}
	if e.unregistered == nil {
		e.unregistered = map[string]bool{}
	}
	e.unregistered[typeName] = true
	slog.Warn("component type is not registered for saving, skipping it", "type", typeName)
}
