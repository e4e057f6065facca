package flowgraph

import (
	"errors"
	"fmt"

	"github.com/brunotm/flowgraph/bridge"
	"github.com/brunotm/flowgraph/graph"
	"github.com/brunotm/flowgraph/node"
	"github.com/brunotm/flowgraph/nodes"
	"github.com/brunotm/flowgraph/registry"
	"github.com/brunotm/flowgraph/serialize"
)

// ErrEmptyGraph is returned by NewGraph when given no nodes.
var ErrEmptyGraph = errors.New("flowgraph: graph has no nodes")

// NewNodeRegistry builds a fresh class registry with every built-in
// example node class (nodes/source/counter, nodes/transform/*,
// nodes/sink/save) registered under its class name.
func NewNodeRegistry() *registry.Nodes {
	reg := registry.NewNodes()
	nodes.RegisterAll(reg)
	return reg
}

// Load instantiates every node in doc via nodeRegistry and wires its
// recorded connections, returning the live node set ready for NewGraph.
func Load(doc serialize.Document, nodeRegistry *registry.Nodes, initialIdentity string) (nodeSet []*node.Node, initial *node.Node, err error) {
	built, initial, err := serialize.FromDocument(doc, nodeRegistry, initialIdentity)
	if err != nil {
		return nil, nil, fmt.Errorf("flowgraph: loading document: %w", err)
	}

	nodeSet = make([]*node.Node, 0, len(built))
	for _, n := range built {
		nodeSet = append(nodeSet, n)
	}
	return nodeSet, initial, nil
}

// NewGraph builds a Graph over nodeSet using a default bridge registry
// (every variant but the opt-in CrossHost). crossProcessURL is passed
// through to the cross-process variants; empty uses the shared
// embedded NATS server.
func NewGraph(nodeSet []*node.Node, crossProcessURL string, opts graph.Options) (*graph.Graph, error) {
	if len(nodeSet) == 0 {
		return nil, ErrEmptyGraph
	}
	return graph.New(nodeSet, bridge.NewDefaultRegistry(crossProcessURL), opts), nil
}
