// Package registry implements the two class-name-to-constructor maps
// the engine consumes at the graph-deserialization boundary: node
// classes (settings-configured behaviors) and bridge variants. In
// memory, everything else uses direct references — registry lookup by
// string is confined to this boundary.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/brunotm/flowgraph/bridge"
	"github.com/brunotm/flowgraph/config"
	"github.com/brunotm/flowgraph/port"
)

// ErrUnknownClass is returned by Get when no constructor is registered
// under the given class name.
type ErrUnknownClass string

func (e ErrUnknownClass) Error() string {
	return fmt.Sprintf("registry: unknown class %q", string(e))
}

// NodeConstructor builds a node class's behavior (a Processor or
// Producer, optionally also a ShouldProcessor/CircuitBreaker) and its
// declared port collections from its settings subdictionary — everything
// node.New needs besides the name and location a deserialized document
// supplies separately.
type NodeConstructor func(settings config.Config) (behavior interface{}, portsIn, portsOut *port.Collection, err error)

// Nodes is a name -> constructor map for node classes, the analogue of
// the original's global REGISTRY dict.
type Nodes struct {
	mu           sync.RWMutex
	constructors map[string]NodeConstructor
}

// NewNodes builds an empty node-class registry.
func NewNodes() *Nodes {
	return &Nodes{constructors: make(map[string]NodeConstructor)}
}

// Register adds or replaces the constructor for class.
func (r *Nodes) Register(class string, ctor NodeConstructor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.constructors[class] = ctor
}

// Get builds a new behavior instance and its port collections for class
// with the given settings.
func (r *Nodes) Get(class string, settings config.Config) (behavior interface{}, portsIn, portsOut *port.Collection, err error) {
	r.mu.RLock()
	ctor, ok := r.constructors[class]
	r.mu.RUnlock()
	if !ok {
		return nil, nil, nil, ErrUnknownClass(class)
	}
	return ctor(settings)
}

// Classes returns every registered class name, sorted.
func (r *Nodes) Classes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.constructors))
	for name := range r.constructors {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Bridges holds the bridge variants available for selection, exposed
// alongside bridge.Registry so the serialization/graph boundary can
// build a Registry from a configured, ordered variant list (bridge
// registration order breaks cost ties).
type Bridges struct {
	mu       sync.Mutex
	variants []bridge.Variant
}

// NewBridges builds an empty, ordered bridge-variant registry.
func NewBridges() *Bridges {
	return &Bridges{}
}

// Register appends v, preserving registration order for cost-tie
// breaking.
func (r *Bridges) Register(v bridge.Variant) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.variants = append(r.variants, v)
}

// Build returns a bridge.Registry over every variant registered so far,
// ranked by cost with registration order breaking ties.
func (r *Bridges) Build() *bridge.Registry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return bridge.NewRegistry(r.variants...)
}
