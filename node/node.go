// Package node implements the runtime protocol every dataflow node
// obeys: declared port collections, mutable connection sets, the
// packet-counter convergence loop driving Processor/Producer
// implementations, and the per-node data storage bridging inputs to
// outputs.
package node

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/brunotm/flowgraph/config"
	"github.com/brunotm/flowgraph/connection"
	"github.com/brunotm/flowgraph/location"
	"github.com/brunotm/flowgraph/port"
	"github.com/brunotm/flowgraph/store"
)

// reservedNameSubstrings must not appear in a declared node name: they
// are the separators used by the stable identity string and the
// compact connection serialization.
var reservedNameSubstrings = []string{" -> ", " [", "] ", "."}

// ErrInvalidName is returned by New when name contains a reserved
// substring.
var ErrInvalidName = errors.New("node: name contains a reserved substring")

var _ connection.Node = (*Node)(nil)

// Node is one vertex of the dataflow graph: a stable identity, a
// declared location, typed port collections, settings, and the mutable
// connection sets wiring it to its neighbors. Behavior (how it produces
// or consumes) is supplied separately as a Processor or Producer
// implementation — see Behavior.
type Node struct {
	mu sync.Mutex

	name      string
	class     string
	computeOn location.Location
	portsIn   *port.Collection
	portsOut  *port.Collection
	settings  config.Config

	behavior    interface{}
	isBreaker   bool
	locked      bool
	inputConns  []*connection.Connection
	outputConns []*connection.Connection

	storeSuppliers map[string]store.Supplier
	storeOnce      map[string]*sync.Once
	stores         map[string]store.Store

	runtime *Runtime
}

// New declares a node named name of class (the registry class name
// used at (de)serialization), running the given Behavior (a Processor
// or a Producer; optionally also implementing ShouldProcessor and/or
// CircuitBreaker), with the given port collections, computed at
// computeOn.
func New(name, class string, behavior interface{}, portsIn, portsOut *port.Collection, computeOn location.Location, settings config.Config) (*Node, error) {
	for _, reserved := range reservedNameSubstrings {
		if strings.Contains(name, reserved) {
			return nil, fmt.Errorf("%w: %q contains %q", ErrInvalidName, name, reserved)
		}
	}

	if portsIn == nil {
		portsIn = port.NewCollection()
	}
	if portsOut == nil {
		portsOut = port.NewCollection()
	}

	_, isBreaker := behavior.(CircuitBreaker)

	n := &Node{
		name:           name,
		class:          class,
		computeOn:      computeOn,
		portsIn:        portsIn.DeepCopy(),
		portsOut:       portsOut.DeepCopy(),
		settings:       settings,
		behavior:       behavior,
		isBreaker:      isBreaker,
		storeSuppliers: make(map[string]store.Supplier),
		storeOnce:      make(map[string]*sync.Once),
		stores:         make(map[string]store.Store),
	}
	return n, nil
}

// Identity is the stable "<name> [<ClassName>]" string used for
// equality, serialization and logging.
func (n *Node) Identity() string {
	return fmt.Sprintf("%s [%s]", n.name, n.class)
}

// Name returns the declared node name (without the class suffix).
func (n *Node) Name() string { return n.name }

// Class returns the registry class name.
func (n *Node) Class() string { return n.class }

// ComputeOn returns the location this node is assigned to.
func (n *Node) ComputeOn() location.Location { return n.computeOn }

// Settings returns this node's settings subdictionary.
func (n *Node) Settings() config.Config { return n.settings }

// Behavior returns the user-supplied Processor or Producer driving this
// node.
func (n *Node) Behavior() interface{} { return n.behavior }

// Runtime returns this node's Runtime, built by NewRuntime when the
// graph is locked. Returns nil before then.
func (n *Node) Runtime() *Runtime { return n.runtime }

// PortsIn implements connection.Node.
func (n *Node) PortsIn() *port.Collection { return n.portsIn }

// PortsOut implements connection.Node.
func (n *Node) PortsOut() *port.Collection { return n.portsOut }

// CircuitBreaker implements connection.Node: reports whether the
// behavior declares itself tolerant of a cycle through its own output
// closure by implementing the CircuitBreaker interface.
func (n *Node) CircuitBreaker() bool { return n.isBreaker }

// InputConnections implements connection.Node.
func (n *Node) InputConnections() []*connection.Connection {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]*connection.Connection, len(n.inputConns))
	copy(out, n.inputConns)
	return out
}

// OutputConnections implements connection.Node.
func (n *Node) OutputConnections() []*connection.Connection {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]*connection.Connection, len(n.outputConns))
	copy(out, n.outputConns)
	return out
}

// AppendInputConnection implements connection.Node.
func (n *Node) AppendInputConnection(c *connection.Connection) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.inputConns = append(n.inputConns, c)
}

// AppendOutputConnection implements connection.Node.
func (n *Node) AppendOutputConnection(c *connection.Connection) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.outputConns = append(n.outputConns, c)
}

// RemoveInputConnection implements connection.Node.
func (n *Node) RemoveInputConnection(c *connection.Connection) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i, existing := range n.inputConns {
		if existing.Equal(c) {
			n.inputConns = append(n.inputConns[:i], n.inputConns[i+1:]...)
			return true
		}
	}
	return false
}

// RemoveOutputConnection implements connection.Node.
func (n *Node) RemoveOutputConnection(c *connection.Connection) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i, existing := range n.outputConns {
		if existing.Equal(c) {
			n.outputConns = append(n.outputConns[:i], n.outputConns[i+1:]...)
			return true
		}
	}
	return false
}

// BindStore registers the supplier used to open the named store lazily
// on first Context.Store call. Must be called before Lock.
func (n *Node) BindStore(name string, supplier store.Supplier) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.storeSuppliers[name] = supplier
	n.storeOnce[name] = &sync.Once{}
}

// BindCounterStore registers a durable store backing this node's own
// emission counter, so a restarted producer resumes its clock instead
// of re-emitting counters a downstream consumer already saw.
func (n *Node) BindCounterStore(supplier store.Supplier) {
	n.BindStore(counterStoreName, supplier)
}

// hasCounterStore reports whether BindCounterStore was called.
func (n *Node) hasCounterStore() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	_, ok := n.storeSuppliers[counterStoreName]
	return ok
}

// Lock sets the flag reported by Locked. Nothing else checks it:
// connection.AddInput/RemoveInput still change a locked node's
// connections, and its ports and settings stay mutable.
func (n *Node) Lock() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.locked = true
}

// Locked reports whether Lock has been called.
func (n *Node) Locked() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.locked
}

// openStore opens (and memoizes) the named store, calling Init if the
// store implements store.Initializer.
func (n *Node) openStore(ctx Context, name string) (store.Store, error) {
	n.mu.Lock()
	supplier, ok := n.storeSuppliers[name]
	once := n.storeOnce[name]
	n.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("node: no store bound under name %q", name)
	}

	var err error
	once.Do(func() {
		s := supplier()
		if initializer, ok := s.(store.Initializer); ok {
			if err = initializer.Init(ctx); err != nil {
				return
			}
		}
		n.mu.Lock()
		n.stores[name] = s
		n.mu.Unlock()
	})
	if err != nil {
		return nil, err
	}

	n.mu.Lock()
	s := n.stores[name]
	n.mu.Unlock()
	return s, nil
}
