// Package quadratic implements a Processor squaring its input: the
// canonical single-input, single-output transform used throughout the
// scenario suite.
package quadratic

import (
	"github.com/brunotm/flowgraph/config"
	"github.com/brunotm/flowgraph/node"
	"github.com/brunotm/flowgraph/port"
	"github.com/brunotm/flowgraph/registry"
)

// Class is the registry name this node is registered under.
const Class = "Quadratic"

// Quadratic emits value*value on "value" for every converged "value"
// input.
type Quadratic struct{}

// New builds a Quadratic behavior and its declared ports.
func New(settings config.Config) (behavior interface{}, portsIn, portsOut *port.Collection, err error) {
	portsIn = port.NewCollection(port.NewInt("value", false))
	portsOut = port.NewCollection(port.NewInt("value", false))
	return Quadratic{}, portsIn, portsOut, nil
}

// Register adds the Quadratic class to reg.
func Register(reg *registry.Nodes) {
	reg.Register(Class, New)
}

func (Quadratic) OnStart(ctx node.Context) error { return nil }
func (Quadratic) OnStop(ctx node.Context) error  { return nil }

// Process squares the converged "value" input.
func (Quadratic) Process(ctx node.Context, inputs map[string]interface{}, ctr int64) (node.Result, error) {
	v := inputs["value"].(int)
	return node.Result{Emissions: map[string]interface{}{"value": v * v}}, nil
}
