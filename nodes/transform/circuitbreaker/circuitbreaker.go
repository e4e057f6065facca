// Package circuitbreaker implements the node that closes a feedback
// cycle: it forwards the upstream "data" input alongside a "delayed"
// input fed back from its own downstream closure, bootstrapping
// "delayed" from Fallback on the first counter, before the loop has
// produced anything to receive.
package circuitbreaker

import (
	"github.com/brunotm/flowgraph/config"
	"github.com/brunotm/flowgraph/node"
	"github.com/brunotm/flowgraph/port"
	"github.com/brunotm/flowgraph/registry"
)

// Class is the registry name this node is registered under.
const Class = "CircuitBreaker"

// Breaker exposes "data" and "delayed" downstream, tolerating a cycle
// back into its own "delayed" input.
type Breaker struct {
	delayed      int
	bootstrapped bool
}

// New builds a Breaker behavior and its declared ports. delayed is the
// bootstrap value Fallback reports before the cycle has emitted
// anything.
func New(settings config.Config) (behavior interface{}, portsIn, portsOut *port.Collection, err error) {
	b := &Breaker{delayed: settings.Get("delayed").Int(0)}
	portsIn = port.NewCollection(
		port.NewInt("data", false),
		port.NewInt("delayed", true),
	)
	portsOut = port.NewCollection(
		port.NewInt("data", false),
		port.NewInt("delayed", false),
	)
	return b, portsIn, portsOut, nil
}

// Register adds the CircuitBreaker class to reg.
func Register(reg *registry.Nodes) {
	reg.Register(Class, New)
}

func (b *Breaker) OnStart(ctx node.Context) error { return nil }
func (b *Breaker) OnStop(ctx node.Context) error  { return nil }

// ShouldProcess proceeds as soon as "data" has converged until the first
// counter has been processed; after that it also waits for the cyclic
// "delayed" input.
func (b *Breaker) ShouldProcess(inputs map[string]interface{}) bool {
	if _, ok := inputs["data"]; !ok {
		return false
	}
	if !b.bootstrapped {
		return true
	}
	_, ok := inputs["delayed"]
	return ok
}

// Fallback bootstraps "delayed" before the feedback loop has produced
// a value to receive.
func (b *Breaker) Fallback() map[string]interface{} {
	return map[string]interface{}{"delayed": b.delayed}
}

// Process forwards "data" and, when present, the cyclic "delayed"
// input; otherwise it substitutes Fallback's bootstrap value.
func (b *Breaker) Process(ctx node.Context, inputs map[string]interface{}, ctr int64) (node.Result, error) {
	delayed, ok := inputs["delayed"]
	if !ok {
		delayed = b.Fallback()["delayed"]
	}
	b.bootstrapped = true
	return node.Result{Emissions: map[string]interface{}{
		"data":    inputs["data"],
		"delayed": delayed,
	}}, nil
}
