package serialize

import (
	"fmt"
	"sort"

	"github.com/brunotm/flowgraph/config"
	"github.com/brunotm/flowgraph/connection"
	"github.com/brunotm/flowgraph/location"
	"github.com/brunotm/flowgraph/node"
	"github.com/brunotm/flowgraph/registry"
)

// FromDocument instantiates every node in doc via reg (first pass),
// then wires every recorded connection (second pass), mirroring the
// original's Serializer.from_dict. initialIdentity names the node to
// return as the graph's entry point explicitly; when empty, any node
// declaring no inputs is chosen, ties broken by sorted identity.
func FromDocument(doc Document, reg *registry.Nodes, initialIdentity string) (nodes map[string]*node.Node, initial *node.Node, err error) {
	nodes = make(map[string]*node.Node, len(doc))

	identities := make([]string, 0, len(doc))
	for identity := range doc {
		identities = append(identities, identity)
	}
	sort.Strings(identities)

	for _, identity := range identities {
		itm := doc[identity]

		name, _ := itm.Settings[reservedNameKey].(string)
		if name == "" {
			return nil, nil, fmt.Errorf("serialize: node %q missing %q in settings", identity, reservedNameKey)
		}
		computeOnStr, _ := itm.Settings[reservedComputeOnKey].(string)
		computeOn := location.Parse(computeOnStr)

		userSettings := make(map[string]interface{}, len(itm.Settings))
		for k, v := range itm.Settings {
			if k == reservedNameKey || k == reservedComputeOnKey {
				continue
			}
			userSettings[k] = v
		}

		behavior, portsIn, portsOut, err := reg.Get(itm.Class, config.NewConfig(userSettings))
		if err != nil {
			return nil, nil, fmt.Errorf("serialize: building node %q: %w", identity, err)
		}

		n, err := node.New(name, itm.Class, behavior, portsIn, portsOut, computeOn, config.NewConfig(userSettings))
		if err != nil {
			return nil, nil, fmt.Errorf("serialize: declaring node %q: %w", identity, err)
		}
		nodes[identity] = n
	}

	if initialIdentity != "" {
		initial = nodes[initialIdentity]
		if initial == nil {
			return nil, nil, fmt.Errorf("serialize: initial node %q not found", initialIdentity)
		}
	} else {
		for _, identity := range identities {
			if len(doc[identity].Inputs) == 0 {
				initial = nodes[identity]
				break
			}
		}
		if initial == nil && len(identities) > 0 {
			initial = nodes[identities[0]]
		}
	}

	for _, identity := range identities {
		recvNode := nodes[identity]
		for _, in := range doc[identity].Inputs {
			emitNode, ok := nodes[in.EmitNode]
			if !ok {
				return nil, nil, fmt.Errorf("serialize: connection into %q references unknown emit node %q", identity, in.EmitNode)
			}
			emitPort, ok := emitNode.PortsOut().Get(in.EmitPort)
			if !ok {
				return nil, nil, fmt.Errorf("serialize: %q has no output port %q", in.EmitNode, in.EmitPort)
			}
			recvPort, ok := recvNode.PortsIn().Get(in.RecvPort)
			if !ok {
				return nil, nil, fmt.Errorf("serialize: %q has no input port %q", identity, in.RecvPort)
			}
			if _, err := connection.AddInput(emitNode, recvNode, emitPort, recvPort); err != nil {
				return nil, nil, fmt.Errorf("serialize: wiring %s -> %s: %w", in.EmitNode, identity, err)
			}
		}
	}

	return nodes, initial, nil
}
