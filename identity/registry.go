package identity

import (
	"log/slog"
	"weak"
)

// Result is the outcome of registering a holder.
type Result int

const (
	// NotNecessary means the identity is not policed: stable names are the
	// author's responsibility and invalid identities are never registered.
	NotNecessary Result = iota
	// Success means the holder now owns its identity.
	Success
	// Collision means a different live holder already owns the identity.
	Collision
)

func (r Result) String() string {
	switch r {
	case NotNecessary:
		return "not necessary"
	case Success:
		return "success"
	case Collision:
		return "collision"
	default:
		return "unknown"
	}
}

// Holder is an entity's working copy of its identity. Entities embed it so
// that the registry can track them without keeping them alive.
type Holder struct {
	id Identity
}

// NewHolder wraps an existing identity.
func NewHolder(id Identity) Holder {
	return Holder{id: id}
}

// Identity returns the holder's current identity.
func (h *Holder) Identity() Identity {
	return h.id
}

// Set replaces the working identity. Unregister first if the old identity
// was claimed.
func (h *Holder) Set(id Identity) {
	h.id = id
}

// IdentityHolder returns h. It is promoted to entities that embed a Holder.
func (h *Holder) IdentityHolder() *Holder {
	return h
}

// Claim registers the holder, regenerating its key until it no longer
// collides with another live holder. A generated identity whose value is
// missing or malformed is regenerated before the first attempt.
func (h *Holder) Claim(r *Registry) Result {
	if h.id.Kind == GeneratedKey && !h.id.Valid() {
		h.id.Value = newKey()
	}

	for {
		res := r.Register(h)
		if res != Collision {
			return res
		}
		slog.Warn("identity collision, generating a new key", "identity", h.id.String())
		h.id.Value = newKey()
	}
}

// Registry tracks live holders that claim a generated identity. It holds weak
// references only. It is not safe for concurrent use.
type Registry struct {
	entries map[Identity]weak.Pointer[Holder]
}

func NewRegistry() *Registry {
	return &Registry{entries: map[Identity]weak.Pointer[Holder]{}}
}

// Register records h as the owner of its current identity.
func (r *Registry) Register(h *Holder) Result {
	id := h.id
	if id.Kind != GeneratedKey || !id.Valid() {
		return NotNecessary
	}

	if existing, ok := r.entries[id]; ok {
		owner := existing.Value()
		if owner != nil && owner != h {
			return Collision
		}
	}

	r.entries[id] = weak.Make(h)
	return Success
}

// Unregister removes the holder's current identity from the registry. It is
// a no-op if the identity is not registered.
func (r *Registry) Unregister(h *Holder) {
	delete(r.entries, h.id)
}

// Owner returns the live holder registered for id, if any.
func (r *Registry) Owner(id Identity) (*Holder, bool) {
	p, ok := r.entries[id]
	if !ok {
		return nil, false
	}
	h := p.Value()
	return h, h != nil
}

// Len returns the number of registered identities, including entries whose
// holder has since been collected.
func (r *Registry) Len() int {
	return len(r.entries)
}

// Clear forgets every registration. Call it between runs.
func (r *Registry) Clear() {
	r.entries = map[Identity]weak.Pointer[Holder]{}
}
