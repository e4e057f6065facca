// Package sum implements the feedback-loop combiner used by the
// circuit-breaker scenario: Sum(data, delayed) -> data+delayed. It
// stages its result through Context.RetAccu rather than building the
// emissions map directly, demonstrating the windowed-accumulation
// convenience node.Runtime.emit flushes on every call.
package sum

import (
	"github.com/brunotm/flowgraph/config"
	"github.com/brunotm/flowgraph/node"
	"github.com/brunotm/flowgraph/port"
	"github.com/brunotm/flowgraph/registry"
)

// Class is the registry name this node is registered under.
const Class = "Sum"

// Sum emits data+delayed on "value" for every converged pair.
type Sum struct{}

// New builds a Sum behavior and its declared ports.
func New(settings config.Config) (behavior interface{}, portsIn, portsOut *port.Collection, err error) {
	portsIn = port.NewCollection(port.NewInt("data", false), port.NewInt("delayed", false))
	portsOut = port.NewCollection(port.NewInt("value", false))
	return Sum{}, portsIn, portsOut, nil
}

// Register adds the Sum class to reg.
func Register(reg *registry.Nodes) {
	reg.Register(Class, New)
}

func (Sum) OnStart(ctx node.Context) error { return nil }
func (Sum) OnStop(ctx node.Context) error  { return nil }

// Process stages data+delayed via RetAccu instead of returning it
// directly; the runtime flushes the staged value into this call's
// emissions.
func (Sum) Process(ctx node.Context, inputs map[string]interface{}, ctr int64) (node.Result, error) {
	data := inputs["data"].(int)
	delayed := inputs["delayed"].(int)
	ctx.RetAccu("value", data+delayed)
	return node.Result{}, nil
}
