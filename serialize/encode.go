package serialize

import (
	"encoding/json"

	"gopkg.in/yaml.v3"

	"github.com/brunotm/flowgraph/node"
)

// ToDocument builds a Document from every node in nodes, the Go
// analogue of the original's Serializer.to_dict(graph=True).
func ToDocument(nodes []*node.Node) Document {
	doc := make(Document, len(nodes))
	for _, n := range nodes {
		doc[n.Identity()] = nodeDoc(n)
	}
	return doc
}

func nodeDoc(n *node.Node) NodeDoc {
	settings := settingsMap(n)
	settings[reservedNameKey] = n.Name()
	settings[reservedComputeOnKey] = n.ComputeOn().String()

	inputs := make([]ConnectionDoc, 0, len(n.InputConnections()))
	for _, c := range n.InputConnections() {
		inputs = append(inputs, ConnectionDoc{
			EmitNode: c.EmitNode.Identity(),
			RecvNode: c.RecvNode.Identity(),
			EmitPort: c.EmitPort.Key(),
			RecvPort: c.RecvPort.Key(),
			Counter:  c.Counter,
		})
	}

	return NodeDoc{Class: n.Class(), Settings: settings, Inputs: inputs}
}

func settingsMap(n *node.Node) map[string]interface{} {
	if raw, ok := n.Settings().Raw().(map[string]interface{}); ok {
		out := make(map[string]interface{}, len(raw)+2)
		for k, v := range raw {
			out[k] = v
		}
		return out
	}
	return make(map[string]interface{}, 2)
}

// MarshalJSON renders doc as indented JSON.
func MarshalJSON(doc Document) ([]byte, error) {
	return json.MarshalIndent(doc, "", "  ")
}

// UnmarshalJSON parses a JSON document.
func UnmarshalJSON(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// MarshalYAML renders doc as YAML.
func MarshalYAML(doc Document) ([]byte, error) {
	return yaml.Marshal(doc)
}

// UnmarshalYAML parses a YAML document.
func UnmarshalYAML(data []byte) (Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// ToCompactDocument builds the human-readable, non-roundtrippable
// rendering of nodes: each connection compressed to its
// "a.p -> k -> b.q" string form.
func ToCompactDocument(nodes []*node.Node) CompactDocument {
	doc := make(CompactDocument, len(nodes))
	for _, n := range nodes {
		inputs := make([]string, 0, len(n.InputConnections()))
		for _, c := range n.InputConnections() {
			inputs = append(inputs, c.String())
		}
		doc[n.Identity()] = CompactNodeDoc{Config: settingsMap(n), Inputs: inputs}
	}
	return doc
}
