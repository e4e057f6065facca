package connection

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/brunotm/flowgraph/port"
)

// fakeNode is a minimal Node implementation for exercising the wiring
// and discovery operations without depending on package node.
type fakeNode struct {
	id       string
	in, out  *port.Collection
	breaker  bool
	inputs   []*Connection
	outputs  []*Connection
}

func newFakeNode(id string, in, out *port.Collection) *fakeNode {
	return &fakeNode{id: id, in: in, out: out}
}

func (n *fakeNode) Identity() string            { return n.id }
func (n *fakeNode) PortsIn() *port.Collection    { return n.in }
func (n *fakeNode) PortsOut() *port.Collection   { return n.out }
func (n *fakeNode) CircuitBreaker() bool         { return n.breaker }
func (n *fakeNode) InputConnections() []*Connection  { return n.inputs }
func (n *fakeNode) OutputConnections() []*Connection { return n.outputs }

func (n *fakeNode) AppendInputConnection(c *Connection)  { n.inputs = append(n.inputs, c) }
func (n *fakeNode) AppendOutputConnection(c *Connection) { n.outputs = append(n.outputs, c) }

func (n *fakeNode) RemoveInputConnection(c *Connection) bool {
	for i, e := range n.inputs {
		if e.Equal(c) {
			n.inputs = append(n.inputs[:i], n.inputs[i+1:]...)
			return true
		}
	}
	return false
}

func (n *fakeNode) RemoveOutputConnection(c *Connection) bool {
	for i, e := range n.outputs {
		if e.Equal(c) {
			n.outputs = append(n.outputs[:i], n.outputs[i+1:]...)
			return true
		}
	}
	return false
}

func valuePorts() (out, in *port.Collection) {
	return port.NewCollection(port.NewInt("Value", false)), port.NewCollection(port.NewInt("Value", false))
}

func TestAddInputWiresBothSides(t *testing.T) {
	aOut, aIn := valuePorts()
	bOut, bIn := valuePorts()
	a := newFakeNode("a [Src]", aIn, aOut)
	b := newFakeNode("b [Snk]", bIn, bOut)

	vp, _ := aOut.Get("value")
	rp, _ := bIn.Get("value")

	c, err := AddInput(a, b, vp, rp)
	assert.NoError(t, err)
	assert.Equal(t, 0, c.Counter)
	assert.Len(t, a.OutputConnections(), 1)
	assert.Len(t, b.InputConnections(), 1)
}

func TestAddInputRejectsUnknownPort(t *testing.T) {
	aOut, aIn := valuePorts()
	bOut, bIn := valuePorts()
	a := newFakeNode("a [Src]", aIn, aOut)
	b := newFakeNode("b [Snk]", bIn, bOut)

	foreign := port.NewInt("Other", false)
	rp, _ := bIn.Get("value")

	_, err := AddInput(a, b, foreign, rp)
	assert.ErrorIs(t, err, ErrUnknownPort)
}

func TestAddInputAssignsDistinctCounters(t *testing.T) {
	aOut, aIn := valuePorts()
	bOut, bIn := valuePorts()
	a := newFakeNode("a [Src]", aIn, aOut)
	b := newFakeNode("b [Snk]", bIn, bOut)
	vp, _ := aOut.Get("value")
	rp, _ := bIn.Get("value")

	c1, err := AddInput(a, b, vp, rp)
	assert.NoError(t, err)
	assert.Equal(t, 0, c1.Counter)

	// A second identical (emit, recv, ports) wiring is not a duplicate:
	// it gets the next counter instead of being rejected.
	c2, err := AddInput(a, b, vp, rp)
	assert.NoError(t, err)
	assert.Equal(t, 1, c2.Counter)

	// A connection with the exact same (tuple, counter) pair counts as
	// Equal to c1, which is what AddInput's duplicate check rejects.
	forged := &Connection{EmitNode: a, RecvNode: b, EmitPort: vp, RecvPort: rp, Counter: 0}
	assert.True(t, forged.Equal(c1))
}

func TestAddInputRejectsExactDuplicate(t *testing.T) {
	aOut, aIn := valuePorts()
	bOut, bIn := valuePorts()
	a := newFakeNode("a [Src]", aIn, aOut)
	b := newFakeNode("b [Snk]", bIn, bOut)
	vp, _ := aOut.Get("value")
	rp, _ := bIn.Get("value")

	// Simulate an out-of-band duplicate (e.g. a restored serialized
	// graph) by appending directly, bypassing counter assignment. The
	// next AddInput call counts 1 existing similar tuple and so also
	// assigns counter 1, colliding with this forged entry.
	forged := &Connection{EmitNode: a, RecvNode: b, EmitPort: vp, RecvPort: rp, Counter: 1}
	a.AppendOutputConnection(forged)
	b.AppendInputConnection(forged)

	_, err := AddInput(a, b, vp, rp)
	assert.ErrorIs(t, err, ErrDuplicateConnection)
}

func TestAddInputDetectsCycle(t *testing.T) {
	aOut, aIn := valuePorts()
	bOut, bIn := valuePorts()
	a := newFakeNode("a [Src]", aIn, aOut)
	b := newFakeNode("b [Snk]", bIn, bOut)

	avp, _ := aOut.Get("value")
	arp, _ := aIn.Get("value")
	bvp, _ := bOut.Get("value")
	brp, _ := bIn.Get("value")

	_, err := AddInput(a, b, avp, brp)
	assert.NoError(t, err)

	_, err = AddInput(b, a, bvp, arp)
	assert.ErrorIs(t, err, ErrWouldCycle)
}

func TestCircuitBreakerAllowsCycle(t *testing.T) {
	aOut, aIn := valuePorts()
	bOut, bIn := valuePorts()
	a := newFakeNode("a [Src]", aIn, aOut)
	b := newFakeNode("b [Brk]", bIn, bOut)
	b.breaker = true

	avp, _ := aOut.Get("value")
	arp, _ := aIn.Get("value")
	bvp, _ := bOut.Get("value")
	brp, _ := bIn.Get("value")

	_, err := AddInput(b, a, bvp, arp)
	assert.NoError(t, err)

	_, err = AddInput(a, b, avp, brp)
	assert.NoError(t, err, "breaker node tolerates closing the loop")
}

func TestRemoveInputByConnection(t *testing.T) {
	aOut, aIn := valuePorts()
	bOut, bIn := valuePorts()
	a := newFakeNode("a [Src]", aIn, aOut)
	b := newFakeNode("b [Snk]", bIn, bOut)
	vp, _ := aOut.Get("value")
	rp, _ := bIn.Get("value")

	c, err := AddInput(a, b, vp, rp)
	assert.NoError(t, err)

	assert.NoError(t, RemoveInputByConnection(c))
	assert.Empty(t, a.OutputConnections())
	assert.Empty(t, b.InputConnections())

	assert.ErrorIs(t, RemoveInputByConnection(c), ErrNotFound)
}

func TestConnectionString(t *testing.T) {
	aOut, aIn := valuePorts()
	bOut, bIn := valuePorts()
	a := newFakeNode("a [Src]", aIn, aOut)
	b := newFakeNode("b [Snk]", bIn, bOut)
	vp, _ := aOut.Get("value")
	rp, _ := bIn.Get("value")

	c, err := AddInput(a, b, vp, rp)
	assert.NoError(t, err)
	assert.Equal(t, "a [Src].value -> 0 -> b [Snk].value", c.String())
}
