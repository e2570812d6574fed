// Package schema records which component types are saveable and which of
// their fields are tagged for persistence.
package schema

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/pixil98/go-errors"
	"github.com/pixil98/go-savestate/convert"
)

// FieldDescriptor describes one field of a saveable type.
type FieldDescriptor struct {
	Name string
	Kind convert.Kind

	// Static fields belong to the type rather than an instance and are never
	// saved.
	Static bool
	// Excluded fields are explicitly opted out of persistence.
	Excluded bool
}

// Saved reports whether the field qualifies for persistence.
func (f FieldDescriptor) Saved() bool {
	return !f.Static && !f.Excluded
}

// Field is shorthand for a saved field descriptor.
func Field(name string, kind convert.Kind) FieldDescriptor {
	return FieldDescriptor{Name: name, Kind: kind}
}

// TypeDescriptor describes a saveable component type.
type TypeDescriptor struct {
	Name   string
	Fields []FieldDescriptor
}

// Type is shorthand for building a TypeDescriptor.
func Type(name string, fields ...FieldDescriptor) TypeDescriptor {
	return TypeDescriptor{Name: name, Fields: fields}
}

func (t TypeDescriptor) validate(converters *convert.Registry) error {
	el := errors.NewErrorList()

	if strings.TrimSpace(t.Name) == "" {
		el.Add(fmt.Errorf("type name must be set"))
	}

	seen := map[string]bool{}
	for i, f := range t.Fields {
		if f.Name == "" {
			el.Add(fmt.Errorf("field %d: name must be set", i))
			continue
		}
		if seen[f.Name] {
			el.Add(fmt.Errorf("field %q declared more than once", f.Name))
		}
		seen[f.Name] = true

		if !f.Saved() {
			continue
		}
		if f.Kind == "" {
			el.Add(fmt.Errorf("field %q: kind must be set", f.Name))
		} else if converters != nil && !converters.Has(f.Kind) {
			el.Add(fmt.Errorf("field %q: no converter for kind %q", f.Name, f.Kind))
		}
	}

	return el.Err()
}

// Builder collects type descriptors before the registry is frozen.
type Builder struct {
	converters *convert.Registry
	types      map[string]TypeDescriptor
	problems   []error
}

// NewBuilder returns a builder. When converters is non-nil every saved field
// kind must have a converter registered there.
func NewBuilder(converters *convert.Registry) *Builder {
	return &Builder{
		converters: converters,
		types:      map[string]TypeDescriptor{},
	}
}

// Register adds a saveable type. Problems are reported here and again by
// Build.
func (b *Builder) Register(t TypeDescriptor) error {
	if err := t.validate(b.converters); err != nil {
		err = fmt.Errorf("type %q: %w", t.Name, err)
		b.problems = append(b.problems, err)
		return err
	}
	if _, ok := b.types[t.Name]; ok {
		err := fmt.Errorf("type %q registered more than once", t.Name)
		b.problems = append(b.problems, err)
		return err
	}

	b.types[t.Name] = t
	return nil
}

// Build freezes the registered types.
func (b *Builder) Build() (*Registry, error) {
	el := errors.NewErrorList()
	for _, p := range b.problems {
		el.Add(p)
	}
	if err := el.Err(); err != nil {
		return nil, err
	}

	r := &Registry{
		fields: make(map[string][]FieldDescriptor, len(b.types)),
		index:  make(map[string]map[string]FieldDescriptor, len(b.types)),
	}
	for name, t := range b.types {
		var saved []FieldDescriptor
		idx := map[string]FieldDescriptor{}
		for _, f := range t.Fields {
			if !f.Saved() {
				continue
			}
			saved = append(saved, f)
			idx[f.Name] = f
		}
		slices.SortFunc(saved, func(a, b FieldDescriptor) int { return cmp.Compare(a.Name, b.Name) })
		r.fields[name] = saved
		r.index[name] = idx
		r.names = append(r.names, name)
	}
	slices.Sort(r.names)

	return r, nil
}

// Registry is the immutable lookup of saveable types and their saved fields.
// It is safe for concurrent reads.
type Registry struct {
	names  []string
	fields map[string][]FieldDescriptor
	index  map[string]map[string]FieldDescriptor
}

// New builds a registry from types in one step.
func New(converters *convert.Registry, types ...TypeDescriptor) (*Registry, error) {
	b := NewBuilder(converters)
	for _, t := range types {
		_ = b.Register(t)
	}
	return b.Build()
}

// SavedTypeNames returns every saveable type name, sorted.
func (r *Registry) SavedTypeNames() []string {
	return slices.Clone(r.names)
}

// Has reports whether typeName is a saveable type.
func (r *Registry) Has(typeName string) bool {
	_, ok := r.fields[typeName]
	return ok
}

// SavedFields returns the saved fields of typeName sorted by name. Unknown
// types have no saved fields.
func (r *Registry) SavedFields(typeName string) []FieldDescriptor {
	return slices.Clone(r.fields[typeName])
}

// Field returns the saved field name of typeName.
func (r *Registry) Field(typeName, name string) (FieldDescriptor, bool) {
	f, ok := r.index[typeName][name]
	return f, ok
}
