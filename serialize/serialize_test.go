package serialize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brunotm/flowgraph/config"
	"github.com/brunotm/flowgraph/connection"
	"github.com/brunotm/flowgraph/location"
	"github.com/brunotm/flowgraph/node"
	"github.com/brunotm/flowgraph/port"
	"github.com/brunotm/flowgraph/registry"
)

type passthrough struct{}

func (passthrough) OnStart(ctx node.Context) error { return nil }
func (passthrough) OnStop(ctx node.Context) error  { return nil }
func (passthrough) Process(ctx node.Context, inputs map[string]interface{}, ctr int64) (node.Result, error) {
	return node.Result{Emissions: map[string]interface{}{"out": inputs["in"]}}, nil
}

func buildTestGraph(t *testing.T) []*node.Node {
	t.Helper()
	a, err := node.New("a", "Pass", passthrough{}, nil, port.NewCollection(port.NewInt("out", false)), location.Location{}, config.NewConfig(map[string]interface{}{"k": "v"}))
	require.NoError(t, err)
	b, err := node.New("b", "Pass", passthrough{}, port.NewCollection(port.NewInt("in", false)), nil, location.Location{}, config.NewConfig(nil))
	require.NoError(t, err)

	emitPort, _ := a.PortsOut().Get("out")
	recvPort, _ := b.PortsIn().Get("in")
	_, err = connection.AddInput(a, b, emitPort, recvPort)
	require.NoError(t, err)

	return []*node.Node{a, b}
}

func TestToDocumentThenFromDocumentRoundTrips(t *testing.T) {
	nodes := buildTestGraph(t)
	doc := ToDocument(nodes)

	reg := registry.NewNodes()
	reg.Register("Pass", func(settings config.Config) (interface{}, *port.Collection, *port.Collection, error) {
		return passthrough{}, port.NewCollection(port.NewInt("in", false)), port.NewCollection(port.NewInt("out", false)), nil
	})

	rebuilt, initial, err := FromDocument(doc, reg, "")
	require.NoError(t, err)
	assert.Len(t, rebuilt, 2)
	require.NotNil(t, initial)
	assert.Equal(t, "a", initial.Name())

	a := rebuilt["a [Pass]"]
	b := rebuilt["b [Pass]"]
	require.NotNil(t, a)
	require.NotNil(t, b)
	assert.Equal(t, "v", a.Settings().Get("k").String(""))
	assert.Len(t, b.InputConnections(), 1)
	assert.Equal(t, "a [Pass]", b.InputConnections()[0].EmitNode.Identity())
}

func TestMarshalJSONRoundTrips(t *testing.T) {
	nodes := buildTestGraph(t)
	doc := ToDocument(nodes)

	data, err := MarshalJSON(doc)
	require.NoError(t, err)

	parsed, err := UnmarshalJSON(data)
	require.NoError(t, err)
	assert.Equal(t, doc, parsed)
}

func TestToCompactDocumentRendersConnectionStrings(t *testing.T) {
	nodes := buildTestGraph(t)
	compact := ToCompactDocument(nodes)

	b := compact["b [Pass]"]
	require.Len(t, b.Inputs, 1)
	assert.Equal(t, "a [Pass].out -> 0 -> b [Pass].in", b.Inputs[0])
}
