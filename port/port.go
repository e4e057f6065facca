// Package port implements the typed, named endpoints nodes declare for
// their input and output collections, and the ordered collections that
// hold them.
package port

import "fmt"

// Port is a typed, named endpoint on a node. Equality between two ports
// is defined by (concrete type, key) — see Equal.
type Port interface {
	// Key is the stable identifier for this port: its declared Name,
	// lowercased, with spaces replaced by underscores.
	Key() string
	// Name is the declared, human-readable port name.
	Name() string
	// Optional reports whether a node may proceed without this port's
	// value present in a given tick.
	Optional() bool
	// CompoundType returns the nested collection a compound (container)
	// port delegates validation to, or nil for a scalar port.
	CompoundType() *Collection
	// CheckValue validates a candidate value for this port.
	CheckValue(value interface{}) (ok bool, reason string)
}

// Equal reports whether two ports have the same concrete type and key.
func Equal(a, b Port) bool {
	if a == nil || b == nil {
		return a == b
	}
	return fmt.Sprintf("%T", a) == fmt.Sprintf("%T", b) && a.Key() == b.Key()
}

// base provides the bookkeeping shared by every concrete port type:
// name/key/optional flag. Concrete port types embed it and supply
// CheckValue (and, for compound ports, CompoundType).
type base struct {
	name     string
	optional bool
}

func newBase(name string, optional bool) base {
	return base{name: name, optional: optional}
}

func (b base) Key() string      { return toKey(b.name) }
func (b base) Name() string     { return b.name }
func (b base) Optional() bool   { return b.optional }
func (b base) CompoundType() *Collection { return nil }

func toKey(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		if r >= 'A' && r <= 'Z' {
			r = r - 'A' + 'a'
		}
		if r == ' ' {
			r = '_'
		}
		out = append(out, r)
	}
	return string(out)
}

// Contextualize returns a copy of p re-keyed under a new name, without
// cloning or otherwise altering its validation behavior. Used when the
// same port type needs a different stable key within a particular
// node's collection (e.g. two "value" ports disambiguated as "value_a"
// and "value_b").
func Contextualize(p Port, newName string) Port {
	return &rekeyed{Port: p, name: newName}
}

type rekeyed struct {
	Port
	name string
}

func (r *rekeyed) Key() string  { return toKey(r.name) }
func (r *rekeyed) Name() string { return r.name }
