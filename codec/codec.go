// Package codec converts snapshot profiles to and from their stored text
// form: a version line followed by a JSON body.
package codec

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/pixil98/go-savestate/convert"
	"github.com/pixil98/go-savestate/identity"
	"github.com/pixil98/go-savestate/schema"
	"github.com/pixil98/go-savestate/snapshot"
)

type profileRecord struct {
	EntityInstances []instanceRecord `json:"EntityInstances"`
}

type instanceRecord struct {
	Identity   identity.Identity `json:"Identity"`
	Components []componentRecord `json:"Components"`
}

type componentRecord struct {
	Name   string        `json:"Name"`
	Fields []fieldRecord `json:"Fields"`
}

type fieldRecord struct {
	Name  string `json:"Name"`
	Value any    `json:"Value"`
}

type rawProfileRecord struct {
	EntityInstances *[]rawInstanceRecord `json:"EntityInstances"`
}

type rawInstanceRecord struct {
	Identity   *identity.Identity   `json:"Identity"`
	Components []rawComponentRecord `json:"Components"`
}

type rawComponentRecord struct {
	Name   string           `json:"Name"`
	Fields []rawFieldRecord `json:"Fields"`
}

type rawFieldRecord struct {
	Name  string          `json:"Name"`
	Value json.RawMessage `json:"Value"`
}

// Codec serializes profiles. Field values are resolved through the
// converter registered for the kind the schema declares for that field.
type Codec struct {
	types      *schema.Registry
	converters *convert.Registry
}

func New(types *schema.Registry, converters *convert.Registry) *Codec {
	return &Codec{types: types, converters: converters}
}

// Encode renders profile as an indented JSON body. Components and fields the
// schema does not know are left out.
func (c *Codec) Encode(version snapshot.Version, profile *snapshot.Profile) (string, error) {
	rec := profileRecord{EntityInstances: []instanceRecord{}}

	for _, inst := range profile.Instances() {
		ir := instanceRecord{Identity: inst.Identity, Components: []componentRecord{}}

		for _, comp := range inst.Components() {
			if !c.types.Has(comp.Name) {
				slog.Warn("skipping unknown component type", "identity", inst.Identity.String(), "component", comp.Name)
				continue
			}

			cr := componentRecord{Name: comp.Name, Fields: []fieldRecord{}}
			for _, f := range comp.Fields() {
				desc, ok := c.types.Field(comp.Name, f.Name)
				if !ok {
					slog.Warn("skipping unknown field", "identity", inst.Identity.String(), "component", comp.Name, "field", f.Name)
					continue
				}

				conv, err := c.converters.Lookup(desc.Kind)
				if err != nil {
					return "", fmt.Errorf("%s.%s: %w", comp.Name, f.Name, err)
				}
				v, err := conv.Encode(f.Value)
				if err != nil {
					return "", fmt.Errorf("encoding %s.%s of %s: %w", comp.Name, f.Name, inst.Identity, err)
				}
				cr.Fields = append(cr.Fields, fieldRecord{Name: f.Name, Value: v})
			}
			ir.Components = append(ir.Components, cr)
		}
		rec.EntityInstances = append(rec.EntityInstances, ir)
	}

	b, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshalling profile: %w", err)
	}
	return string(b), nil
}

// Decode parses a JSON body written under version. Components and fields
// unknown to the schema are dropped with a warning; anything that cannot be
// parsed fails the whole decode.
func (c *Codec) Decode(version snapshot.Version, body string) (*snapshot.Profile, error) {
	var rec rawProfileRecord
	if err := json.Unmarshal([]byte(body), &rec); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedSnapshot, err)
	}
	if rec.EntityInstances == nil {
		return nil, fmt.Errorf("%w: missing EntityInstances", ErrMalformedSnapshot)
	}

	profile := snapshot.NewProfile()
	profile.Version = version

	for i, ir := range *rec.EntityInstances {
		if ir.Identity == nil {
			return nil, fmt.Errorf("%w: instance %d has no identity", ErrMalformedSnapshot, i)
		}
		id := *ir.Identity
		inst := snapshot.NewInstance(id)

		for _, cr := range ir.Components {
			if !c.types.Has(cr.Name) {
				slog.Warn("saved component type not found", "identity", id.String(), "component", cr.Name)
				continue
			}

			comp := snapshot.NewComponent(cr.Name)
			for _, fr := range cr.Fields {
				desc, ok := c.types.Field(cr.Name, fr.Name)
				if !ok {
					slog.Warn("saved field not found", "identity", id.String(), "component", cr.Name, "field", fr.Name)
					continue
				}

				conv, err := c.converters.Lookup(desc.Kind)
				if err != nil {
					return nil, fmt.Errorf("%w: %s.%s: %w", ErrMalformedSnapshot, cr.Name, fr.Name, err)
				}
				raw := fr.Value
				if len(raw) == 0 {
					raw = json.RawMessage("null")
				}
				v, err := conv.Decode(raw)
				if err != nil {
					return nil, fmt.Errorf("%w: %s.%s of %s: %w", ErrMalformedSnapshot, cr.Name, fr.Name, id, err)
				}
				comp.Set(fr.Name, v)
			}
			inst.Put(comp)
		}

		if _, dup := profile.Instance(id); dup {
			slog.Warn("duplicate saved identity, keeping the later record", "identity", id.String())
		}
		if err := profile.Put(inst); err != nil {
			slog.Warn("dropping saved instance", "identity", id.String(), "error", err)
		}
	}

	return profile, nil
}

// EncodeFile renders the full durable form: the version line followed by
// the body.
func (c *Codec) EncodeFile(version snapshot.Version, profile *snapshot.Profile) ([]byte, error) {
	body, err := c.Encode(version, profile)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := WriteFile(&buf, version, body); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeFile parses the durable form. When only the version line is
// malformed the profile is still returned, with a zero version, alongside
// an error wrapping ErrMalformedVersion.
func (c *Codec) DecodeFile(data []byte) (*snapshot.Profile, error) {
	version, body, versionErr := ReadFile(bytes.NewReader(data))
	if versionErr != nil && !errors.Is(versionErr, ErrMalformedVersion) {
		return nil, versionErr
	}

	profile, err := c.Decode(version, body)
	if err != nil {
		return nil, err
	}
	return profile, versionErr
}

// WriteFile writes the version line and body to w.
func WriteFile(w io.Writer, version snapshot.Version, body string) error {
	if _, err := fmt.Fprintf(w, "%s\n%s", version, body); err != nil {
		return fmt.Errorf("writing save: %w", err)
	}
	return nil
}

// ReadFile splits a durable save into its version and body. A malformed
// version line yields the zero version, the body, and an error wrapping
// ErrMalformedVersion.
func ReadFile(r io.Reader) (snapshot.Version, string, error) {
	br := bufio.NewReader(r)

	line, err := br.ReadString('\n')
	if err != nil && err != io.EOF {
		return snapshot.Version{}, "", fmt.Errorf("reading version line: %w", err)
	}
	rest, err := io.ReadAll(br)
	if err != nil {
		return snapshot.Version{}, "", fmt.Errorf("reading save body: %w", err)
	}

	line = strings.TrimRight(line, "\r\n")
	line = strings.TrimPrefix(line, "\ufeff")
	version, err := snapshot.ParseVersion(line)
	if err != nil {
		return snapshot.Version{}, string(rest), err
	}
	return version, string(rest), nil
}
