package identity

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Kind distinguishes author-assigned names from generated keys.
type Kind int

const (
	// StableName is an arbitrary non-empty string assigned by the author.
	StableName Kind = iota
	// GeneratedKey is a random 128-bit value rendered as 32 lowercase hex
	// digits.
	GeneratedKey
)

func (k Kind) String() string {
	switch k {
	case StableName:
		return "name"
	case GeneratedKey:
		return "key"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

func (k Kind) MarshalText() ([]byte, error) {
	switch k {
	case StableName, GeneratedKey:
		return []byte(k.String()), nil
	default:
		return nil, fmt.Errorf("unknown identity kind: %d", int(k))
	}
}

func (k *Kind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "name":
		*k = StableName
	case "key":
		*k = GeneratedKey
	default:
		return fmt.Errorf("unknown identity kind: %s", text)
	}
	return nil
}

// UnmarshalJSON accepts the text form as well as the bare enum number older
// saves were written with.
func (k *Kind) UnmarshalJSON(b []byte) error {
	var n int
	if err := json.Unmarshal(b, &n); err == nil {
		switch Kind(n) {
		case StableName, GeneratedKey:
			*k = Kind(n)
			return nil
		default:
			return fmt.Errorf("unknown identity kind: %d", n)
		}
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("identity kind must be a string or number: %w", err)
	}
	return k.UnmarshalText([]byte(s))
}

// Identity is the stable key that matches a live entity to its saved instance.
// Two identities are equal only when both kind and value match, so the zero
// value and == behave as expected and Identity can be used as a map key.
type Identity struct {
	Kind  Kind   `json:"kind"`
	Value string `json:"value"`
}

// NewStableName returns an author-assigned identity.
func NewStableName(name string) Identity {
	return Identity{Kind: StableName, Value: name}
}

// NewGeneratedKey returns a fresh random identity.
func NewGeneratedKey() Identity {
	return Identity{Kind: GeneratedKey, Value: newKey()}
}

// keyLength is the length of a generated key: 32 hex digits, no dashes.
const keyLength = 32

func newKey() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Valid reports whether the identity can be used to look up saved state.
func (id Identity) Valid() bool {
	switch id.Kind {
	case StableName:
		return strings.TrimSpace(id.Value) != ""
	case GeneratedKey:
		// Only the canonical spelling counts, so one 128-bit value can never
		// register under two different strings.
		if len(id.Value) != keyLength || strings.ToLower(id.Value) != id.Value {
			return false
		}
		_, err := uuid.Parse(id.Value)
		return err == nil
	default:
		return false
	}
}

// Equals reports whether both kind and value match.
func (id Identity) Equals(other Identity) bool {
	return id == other
}

func (id Identity) String() string {
	return id.Kind.String() + ":" + id.Value
}
