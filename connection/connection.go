// Package connection implements directed links between node ports and
// the graph discovery operations (cycle detection, BFS closure) that
// operate over them.
package connection

import (
	"errors"
	"fmt"

	"github.com/cespare/xxhash/v2"

	"github.com/brunotm/flowgraph/port"
)

var (
	// ErrUnknownPort is returned when an emit or recv port does not
	// belong to the corresponding node's declared port collection.
	ErrUnknownPort = errors.New("connection: port does not belong to node")
	// ErrDuplicateConnection is returned when an equal connection
	// (same 4-tuple and counter) already exists.
	ErrDuplicateConnection = errors.New("connection: already exists")
	// ErrWouldCycle is returned when adding the input would close a
	// cycle and the receiving node does not declare itself a circuit
	// breaker.
	ErrWouldCycle = errors.New("connection: would create a cycle without a circuit breaker")
	// ErrNotFound is returned by removal when no matching connection
	// exists.
	ErrNotFound = errors.New("connection: not found")
)

// Node is the subset of node behavior the connection package needs to
// wire, validate and discover edges. github.com/brunotm/flowgraph/node.Node
// implements this interface; it is defined here (rather than imported)
// so the two packages do not form an import cycle.
type Node interface {
	// Identity is the stable "<name> [<ClassName>]" string.
	Identity() string
	PortsIn() *port.Collection
	PortsOut() *port.Collection
	// CircuitBreaker reports whether this node tolerates incoming
	// edges that close a cycle through its own output closure.
	CircuitBreaker() bool

	InputConnections() []*Connection
	OutputConnections() []*Connection

	// AppendInputConnection and the methods below are called only by
	// this package; they exist on the interface because Go has no
	// notion of a package-private method set across packages.
	AppendInputConnection(c *Connection)
	AppendOutputConnection(c *Connection)
	RemoveInputConnection(c *Connection) bool
	RemoveOutputConnection(c *Connection) bool
}

// Connection is a directed link from one emitting (node, port) pair to
// one receiving (node, port) pair. Immutable once added to a graph.
type Connection struct {
	EmitNode Node
	RecvNode Node
	EmitPort port.Port
	RecvPort port.Port
	Counter  int
}

// String renders the connection in the compact "a.p -> k -> b.q" form
// used by the human-readable serializer.
func (c *Connection) String() string {
	return fmt.Sprintf("%s.%s -> %d -> %s.%s",
		c.EmitNode.Identity(), c.EmitPort.Key(), c.Counter, c.RecvNode.Identity(), c.RecvPort.Key())
}

// sameTuple reports whether two connections share the same (emit node,
// recv node, emit port, recv port) 4-tuple, ignoring Counter.
func (c *Connection) sameTuple(o *Connection) bool {
	return c.EmitNode.Identity() == o.EmitNode.Identity() &&
		c.RecvNode.Identity() == o.RecvNode.Identity() &&
		port.Equal(c.EmitPort, o.EmitPort) &&
		port.Equal(c.RecvPort, o.RecvPort)
}

// Equal reports full equality: same 4-tuple and same Counter.
func (c *Connection) Equal(o *Connection) bool {
	return c.sameTuple(o) && c.Counter == o.Counter
}

// key hashes the connection's identity (4-tuple + counter) with xxhash.
// Nothing in the package calls it; lookups and discovery dedup compare
// connections and node identities directly.
func (c *Connection) key() uint64 {
	h := xxhash.New()
	fmt.Fprintf(h, "%s|%s|%s|%s|%d",
		c.EmitNode.Identity(), c.RecvNode.Identity(), c.EmitPort.Key(), c.RecvPort.Key(), c.Counter)
	return h.Sum64()
}

// AddInput wires emit.EmitPort -> recv.RecvPort, validating that both
// ports belong to their declared node, rejecting an exact duplicate,
// assigning a counter disambiguating repeated identical (emit, recv,
// emitPort, recvPort) tuples, and rejecting an edge that would close a
// cycle unless recv declares itself a circuit breaker.
func AddInput(emit, recv Node, emitPort, recvPort port.Port) (*Connection, error) {
	if !emit.PortsOut().Has(emitPort) {
		return nil, fmt.Errorf("%w: %s not in %s outputs", ErrUnknownPort, emitPort.Key(), emit.Identity())
	}
	if !recv.PortsIn().Has(recvPort) {
		return nil, fmt.Errorf("%w: %s not in %s inputs", ErrUnknownPort, recvPort.Key(), recv.Identity())
	}

	candidate := &Connection{EmitNode: emit, RecvNode: recv, EmitPort: emitPort, RecvPort: recvPort}

	similar := 0
	for _, existing := range recv.InputConnections() {
		if existing.sameTuple(candidate) {
			similar++
		}
	}
	candidate.Counter = similar

	for _, existing := range recv.InputConnections() {
		if existing.Equal(candidate) {
			return nil, ErrDuplicateConnection
		}
	}

	if !recv.CircuitBreaker() && wouldCycle(emit, recv) {
		return nil, ErrWouldCycle
	}

	emit.AppendOutputConnection(candidate)
	recv.AppendInputConnection(candidate)
	return candidate, nil
}

// wouldCycle reports whether emit is already reachable from recv via
// forward (output) edges — i.e. whether adding recv<-emit would close a
// loop back to recv's own ancestry.
func wouldCycle(emit, recv Node) bool {
	if emit.Identity() == recv.Identity() {
		return true
	}

	visited := map[string]bool{recv.Identity(): true}
	stack := []Node{recv}

	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, out := range n.OutputConnections() {
			next := out.RecvNode
			if next.Identity() == emit.Identity() {
				return true
			}
			if !visited[next.Identity()] {
				visited[next.Identity()] = true
				stack = append(stack, next)
			}
		}
	}
	return false
}

// RemoveInput removes the input wiring emit.emitPort -> recv.recvPort
// with the given connection counter.
func RemoveInput(emit, recv Node, emitPort, recvPort port.Port, counter int) error {
	target := &Connection{EmitNode: emit, RecvNode: recv, EmitPort: emitPort, RecvPort: recvPort, Counter: counter}
	return RemoveInputByConnection(target)
}

// RemoveInputByConnection removes a connection matching c's 4-tuple and
// counter from both its emit and recv node.
func RemoveInputByConnection(c *Connection) error {
	found := false
	for _, existing := range c.RecvNode.InputConnections() {
		if existing.Equal(c) {
			found = true
			break
		}
	}
	if !found {
		return ErrNotFound
	}

	c.EmitNode.RemoveOutputConnection(c)
	c.RecvNode.RemoveInputConnection(c)
	return nil
}
