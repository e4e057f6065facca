// Package ctrincrease implements the feedback-delay node closing a
// circuit-breaker cycle: it forwards its input unchanged but tags the
// emission with ctr+1, so the value a downstream breaker reads at its
// next counter is the value produced at this one.
package ctrincrease

import (
	"github.com/brunotm/flowgraph/config"
	"github.com/brunotm/flowgraph/node"
	"github.com/brunotm/flowgraph/port"
	"github.com/brunotm/flowgraph/registry"
)

// Class is the registry name this node is registered under.
const Class = "CtrIncrease"

// CtrIncrease forwards "value" unchanged, tagged one counter ahead.
type CtrIncrease struct{}

// New builds a CtrIncrease behavior and its declared ports.
func New(settings config.Config) (behavior interface{}, portsIn, portsOut *port.Collection, err error) {
	portsIn = port.NewCollection(port.NewInt("value", false))
	portsOut = port.NewCollection(port.NewInt("value", false))
	return CtrIncrease{}, portsIn, portsOut, nil
}

// Register adds the CtrIncrease class to reg.
func Register(reg *registry.Nodes) {
	reg.Register(Class, New)
}

func (CtrIncrease) OnStart(ctx node.Context) error { return nil }
func (CtrIncrease) OnStop(ctx node.Context) error  { return nil }

// Process forwards the converged value, overriding the emission
// counter to ctr+1.
func (CtrIncrease) Process(ctx node.Context, inputs map[string]interface{}, ctr int64) (node.Result, error) {
	return node.Result{
		Emissions:   map[string]interface{}{"value": inputs["value"]},
		OverrideCtr: ctr + 1,
		HasOverride: true,
	}, nil
}
