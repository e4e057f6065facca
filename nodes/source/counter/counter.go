// Package counter implements a Producer emitting a bounded integer
// sequence, the simplest source node: 0..N-1 on its single output
// port, then exhaustion.
package counter

import (
	"github.com/brunotm/flowgraph/config"
	"github.com/brunotm/flowgraph/node"
	"github.com/brunotm/flowgraph/port"
	"github.com/brunotm/flowgraph/registry"
)

// Class is the registry name this node is registered under.
const Class = "Counter"

// Counter emits 0..N-1 on its "value" output port, one per Run call.
type Counter struct {
	n    int
	next int
}

// New builds a Counter behavior and its declared ports from settings.
func New(settings config.Config) (behavior interface{}, portsIn, portsOut *port.Collection, err error) {
	n := settings.Get("n").Int(0)
	c := &Counter{n: n}
	portsOut = port.NewCollection(port.NewInt("value", false))
	return c, nil, portsOut, nil
}

// Register adds the Counter class to reg.
func Register(reg *registry.Nodes) {
	reg.Register(Class, New)
}

func (c *Counter) OnStart(ctx node.Context) error { return nil }
func (c *Counter) OnStop(ctx node.Context) error  { return nil }

// Run emits the next value in 0..N-1, reporting exhaustion once the
// sequence is spent.
func (c *Counter) Run(ctx node.Context) (node.Result, bool, error) {
	if c.next >= c.n {
		return node.Result{}, false, nil
	}
	v := c.next
	c.next++
	return node.Result{Emissions: map[string]interface{}{"value": v}}, true, nil
}
