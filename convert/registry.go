package convert

import (
	"fmt"
	"slices"
)

// Registry maps value kinds to converters. Build it once at startup; it is
// safe for concurrent reads after that.
type Registry struct {
	converters map[Kind]Converter
}

func NewRegistry() *Registry {
	return &Registry{converters: map[Kind]Converter{}}
}

// Default returns a registry holding every built-in converter.
func Default() *Registry {
	r := NewRegistry()
	for _, c := range []Converter{
		BoolConverter{},
		IntConverter{},
		FloatConverter{},
		StringConverter{},
		Vector2Converter{},
		Vector3Converter{},
		Vector4Converter{},
		QuaternionConverter{},
	} {
		// Built-in kinds are distinct.
		_ = r.Register(c)
	}
	return r
}

// Register adds c. Registering a second converter for the same kind fails.
func (r *Registry) Register(c Converter) error {
	if c == nil {
		return fmt.Errorf("converter is nil")
	}
	if c.Kind() == "" {
		return fmt.Errorf("converter %T has an empty kind", c)
	}
	if _, ok := r.converters[c.Kind()]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateKind, c.Kind())
	}
	r.converters[c.Kind()] = c
	return nil
}

// Lookup returns the converter for kind.
func (r *Registry) Lookup(kind Kind) (Converter, error) {
	c, ok := r.converters[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return c, nil
}

// Has reports whether a converter is registered for kind.
func (r *Registry) Has(kind Kind) bool {
	_, ok := r.converters[kind]
	return ok
}

// Kinds returns the registered kinds, sorted.
func (r *Registry) Kinds() []Kind {
	out := make([]Kind, 0, len(r.converters))
	for k := range r.converters {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
