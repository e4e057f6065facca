package port

import "fmt"

// Any accepts every non-nil value. Used by nodes that are agnostic to
// the shape of the data flowing through them (e.g. pass-through sinks).
type Any struct{ base }

// NewAny declares an Any-typed port.
func NewAny(name string, optional bool) *Any {
	return &Any{newBase(name, optional)}
}

// CheckValue implements Port.
func (p *Any) CheckValue(value interface{}) (ok bool, reason string) {
	if value == nil {
		return false, "value must not be nil"
	}
	return true, ""
}

// Int accepts Go integer values (any width).
type Int struct{ base }

// NewInt declares an Int-typed port.
func NewInt(name string, optional bool) *Int {
	return &Int{newBase(name, optional)}
}

// CheckValue implements Port.
func (p *Int) CheckValue(value interface{}) (ok bool, reason string) {
	switch value.(type) {
	case int, int8, int16, int32, int64:
		return true, ""
	default:
		return false, fmt.Sprintf("expected an integer, got %T", value)
	}
}

// Float accepts Go float values.
type Float struct{ base }

// NewFloat declares a Float-typed port.
func NewFloat(name string, optional bool) *Float {
	return &Float{newBase(name, optional)}
}

// CheckValue implements Port.
func (p *Float) CheckValue(value interface{}) (ok bool, reason string) {
	switch value.(type) {
	case float32, float64:
		return true, ""
	default:
		return false, fmt.Sprintf("expected a float, got %T", value)
	}
}

// String accepts Go string values.
type String struct{ base }

// NewString declares a String-typed port.
func NewString(name string, optional bool) *String {
	return &String{newBase(name, optional)}
}

// CheckValue implements Port.
func (p *String) CheckValue(value interface{}) (ok bool, reason string) {
	if _, ok := value.(string); !ok {
		return false, fmt.Sprintf("expected a string, got %T", value)
	}
	return true, ""
}

// Bool accepts Go bool values.
type Bool struct{ base }

// NewBool declares a Bool-typed port.
func NewBool(name string, optional bool) *Bool {
	return &Bool{newBase(name, optional)}
}

// CheckValue implements Port.
func (p *Bool) CheckValue(value interface{}) (ok bool, reason string) {
	if _, ok := value.(bool); !ok {
		return false, fmt.Sprintf("expected a bool, got %T", value)
	}
	return true, ""
}

// Array accepts a []interface{} whose every element passes the given
// element port's CheckValue.
type Array struct {
	base
	Elem Port
}

// NewArray declares an Array-typed port delegating element validation
// to elem.
func NewArray(name string, optional bool, elem Port) *Array {
	return &Array{base: newBase(name, optional), Elem: elem}
}

// CheckValue implements Port.
func (p *Array) CheckValue(value interface{}) (ok bool, reason string) {
	arr, ok := value.([]interface{})
	if !ok {
		return false, fmt.Sprintf("expected an array, got %T", value)
	}
	for i, v := range arr {
		if ok, reason := p.Elem.CheckValue(v); !ok {
			return false, fmt.Sprintf("element %d: %s", i, reason)
		}
	}
	return true, ""
}

// Compound accepts a map[string]interface{} that must validate against
// every non-optional port of its nested Collection.
type Compound struct {
	base
	collection *Collection
}

// NewCompound declares a Compound-typed port whose nested shape is
// described by fields.
func NewCompound(name string, optional bool, fields *Collection) *Compound {
	return &Compound{base: newBase(name, optional), collection: fields}
}

// CompoundType implements Port.
func (p *Compound) CompoundType() *Collection { return p.collection }

// CheckValue implements Port.
func (p *Compound) CheckValue(value interface{}) (ok bool, reason string) {
	m, ok := value.(map[string]interface{})
	if !ok {
		return false, fmt.Sprintf("expected a compound value, got %T", value)
	}

	for _, sub := range p.collection.Ports() {
		v, present := m[sub.Key()]
		if !present {
			if sub.Optional() {
				continue
			}
			return false, fmt.Sprintf("missing required field %q", sub.Key())
		}
		if ok, reason := sub.CheckValue(v); !ok {
			return false, fmt.Sprintf("field %q: %s", sub.Key(), reason)
		}
	}
	return true, ""
}
