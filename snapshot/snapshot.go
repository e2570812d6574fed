// Package snapshot holds the in-memory tree of persisted state:
// profile -> instance -> component -> field.
package snapshot

import (
	"cmp"
	"slices"

	"github.com/pixil98/go-savestate/identity"
)

// Field is one saved value.
type Field struct {
	Name  string
	Value any
}

// Component holds the saved fields of one saveable component type.
type Component struct {
	Name   string
	fields map[string]Field
}

func NewComponent(name string) *Component {
	return &Component{Name: name, fields: map[string]Field{}}
}

// Field returns the saved field with the given name.
func (c *Component) Field(name string) (Field, bool) {
	f, ok := c.fields[name]
	return f, ok
}

// Set records a value, replacing any field with the same name.
func (c *Component) Set(name string, value any) {
	if c.fields == nil {
		c.fields = map[string]Field{}
	}
	c.fields[name] = Field{Name: name, Value: value}
}

// Clear removes every field.
func (c *Component) Clear() {
	c.fields = map[string]Field{}
}

func (c *Component) Len() int {
	return len(c.fields)
}

// Fields returns the saved fields sorted by name.
func (c *Component) Fields() []Field {
	out := make([]Field, 0, len(c.fields))
	for _, f := range c.fields {
		out = append(out, f)
	}
	slices.SortFunc(out, func(a, b Field) int { return cmp.Compare(a.Name, b.Name) })
	return out
}

// Instance is everything persisted for one entity.
type Instance struct {
	Identity   identity.Identity
	components map[string]*Component
}

func NewInstance(id identity.Identity) *Instance {
	return &Instance{Identity: id, components: map[string]*Component{}}
}

// Component returns the saved component with the given name.
func (i *Instance) Component(name string) (*Component, bool) {
	c, ok := i.components[name]
	return c, ok
}

// EnsureComponent returns the named component, creating an empty one if the
// instance has none.
func (i *Instance) EnsureComponent(name string) *Component {
	if c, ok := i.components[name]; ok {
		return c
	}
	c := NewComponent(name)
	i.Put(c)
	return c
}

// Put stores c, replacing any component with the same name.
func (i *Instance) Put(c *Component) {
	if i.components == nil {
		i.components = map[string]*Component{}
	}
	i.components[c.Name] = c
}

func (i *Instance) Len() int {
	return len(i.components)
}

// Components returns the saved components sorted by name.
func (i *Instance) Components() []*Component {
	out := make([]*Component, 0, len(i.components))
	for _, c := range i.components {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b *Component) int { return cmp.Compare(a.Name, b.Name) })
	return out
}

// Profile is the full persisted world state.
type Profile struct {
	Version   Version
	instances map[identity.Identity]*Instance
}

func NewProfile() *Profile {
	return &Profile{instances: map[identity.Identity]*Instance{}}
}

// Instance returns the instance saved for id.
func (p *Profile) Instance(id identity.Identity) (*Instance, bool) {
	inst, ok := p.instances[id]
	return inst, ok
}

// Put stores inst under its identity, replacing any previous instance.
// Instances with an invalid identity are never stored.
func (p *Profile) Put(inst *Instance) error {
	if !inst.Identity.Valid() {
		return ErrInvalidIdentity
	}
	if p.instances == nil {
		p.instances = map[identity.Identity]*Instance{}
	}
	p.instances[inst.Identity] = inst
	return nil
}

// Delete removes the instance saved for id, if any.
func (p *Profile) Delete(id identity.Identity) {
	delete(p.instances, id)
}

func (p *Profile) Len() int {
	return len(p.instances)
}

// Instances returns every instance ordered by identity kind then value.
func (p *Profile) Instances() []*Instance {
	out := make([]*Instance, 0, len(p.instances))
	for _, inst := range p.instances {
		out = append(out, inst)
	}
	slices.SortFunc(out, func(a, b *Instance) int { return compareIdentity(a.Identity, b.Identity) })
	return out
}

// Identities returns every stored identity in the same order as Instances.
func (p *Profile) Identities() []identity.Identity {
	out := make([]identity.Identity, 0, len(p.instances))
	for id := range p.instances {
		out = append(out, id)
	}
	slices.SortFunc(out, compareIdentity)
	return out
}

func compareIdentity(a, b identity.Identity) int {
	if c := cmp.Compare(a.Kind, b.Kind); c != 0 {
		return c
	}
	return cmp.Compare(a.Value, b.Value)
}
