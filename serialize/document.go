// Package serialize implements the graph document format nodes and
// connections (de)serialize through: a JSON or YAML object keyed by
// node string-identity, plus a human-readable, non-roundtrippable
// compact form.
package serialize

// reservedNameKey and reservedComputeOnKey are the settings-subtree
// keys a node's name and location travel under, mirroring the
// original's _node_settings embedding "name"/"compute_on" alongside the
// user settings rather than as document-level sibling fields.
const (
	reservedNameKey      = "name"
	reservedComputeOnKey = "compute_on"
)

// ConnectionDoc is one entry of a NodeDoc's Inputs list.
type ConnectionDoc struct {
	EmitNode string `json:"emit_node" yaml:"emit_node"`
	RecvNode string `json:"recv_node" yaml:"recv_node"`
	EmitPort string `json:"emit_port" yaml:"emit_port"`
	RecvPort string `json:"recv_port" yaml:"recv_port"`
	Counter  int    `json:"connection_counter" yaml:"connection_counter"`
}

// NodeDoc is the document entry for one node: its registry class, its
// settings subtree (carrying the reserved name/compute_on keys
// alongside user settings), and its input wiring.
type NodeDoc struct {
	Class    string                 `json:"class" yaml:"class"`
	Settings map[string]interface{} `json:"settings" yaml:"settings"`
	Inputs   []ConnectionDoc        `json:"inputs" yaml:"inputs"`
}

// Document is a full graph: every node keyed by its stable
// "<name> [<ClassName>]" identity.
type Document map[string]NodeDoc

// CompactNodeDoc is the human-readable, non-roundtrippable rendering of
// one node.
type CompactNodeDoc struct {
	Config map[string]interface{} `json:"Config" yaml:"Config"`
	Inputs []string                `json:"Inputs" yaml:"Inputs"`
}

// CompactDocument is the compact form of a full graph.
type CompactDocument map[string]CompactNodeDoc
