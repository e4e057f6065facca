// Package nodes aggregates the example node classes shipped alongside
// the engine, so a caller can populate a fresh registry with every
// built-in class in one call.
package nodes

import (
	"github.com/brunotm/flowgraph/nodes/sink/save"
	"github.com/brunotm/flowgraph/nodes/source/counter"
	"github.com/brunotm/flowgraph/nodes/transform/circuitbreaker"
	"github.com/brunotm/flowgraph/nodes/transform/ctrincrease"
	"github.com/brunotm/flowgraph/nodes/transform/quadratic"
	"github.com/brunotm/flowgraph/nodes/transform/sum"
	"github.com/brunotm/flowgraph/registry"
)

// RegisterAll adds every built-in node class to reg.
func RegisterAll(reg *registry.Nodes) {
	counter.Register(reg)
	quadratic.Register(reg)
	sum.Register(reg)
	ctrincrease.Register(reg)
	circuitbreaker.Register(reg)
	save.Register(reg)
}
