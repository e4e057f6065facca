package port

import "errors"

// ErrDuplicateKey is returned by Add when a port with the same key is
// already present in the collection.
var ErrDuplicateKey = errors.New("port: duplicate key in collection")

// Collection is a typed, ordered, named set of ports declared as a
// class-level field of a node type. At node construction a Collection
// must be deep-copied (see DeepCopy) so per-instance contextualization
// never mutates the declaring type's shared collection.
type Collection struct {
	order []string
	ports map[string]Port
}

// NewCollection builds a Collection from the given ports, preserving
// declaration order. Panics on a duplicate key — this is a programming
// error in a node's class-level port declaration, not a runtime
// condition.
func NewCollection(ports ...Port) *Collection {
	c := &Collection{ports: make(map[string]Port, len(ports))}
	for _, p := range ports {
		if err := c.Add(p); err != nil {
			panic(err)
		}
	}
	return c
}

// Add appends a port to the collection.
func (c *Collection) Add(p Port) error {
	if c.ports == nil {
		c.ports = make(map[string]Port)
	}
	if _, exists := c.ports[p.Key()]; exists {
		return ErrDuplicateKey
	}
	c.order = append(c.order, p.Key())
	c.ports[p.Key()] = p
	return nil
}

// Get looks up a port by key.
func (c *Collection) Get(key string) (p Port, ok bool) {
	p, ok = c.ports[key]
	return p, ok
}

// Has reports whether p (by type+key) is a member of the collection.
func (c *Collection) Has(p Port) bool {
	existing, ok := c.ports[p.Key()]
	if !ok {
		return false
	}
	return Equal(existing, p)
}

// Ports returns the ports in declaration order. The returned slice must
// be treated as read-only.
func (c *Collection) Ports() []Port {
	out := make([]Port, 0, len(c.order))
	for _, k := range c.order {
		out = append(out, c.ports[k])
	}
	return out
}

// Keys returns the declared keys in order.
func (c *Collection) Keys() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Len returns the number of ports in the collection.
func (c *Collection) Len() int { return len(c.order) }

// DeepCopy returns an independent Collection with the same ports (ports
// themselves are immutable value-like descriptors and are shared, but
// the collection's own order/index storage is copied so contextualizing
// one instance's collection never affects another's).
func (c *Collection) DeepCopy() *Collection {
	cp := &Collection{
		order: make([]string, len(c.order)),
		ports: make(map[string]Port, len(c.ports)),
	}
	copy(cp.order, c.order)
	for k, v := range c.ports {
		cp.ports[k] = v
	}
	return cp
}
