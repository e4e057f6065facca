package graph

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brunotm/flowgraph/bridge"
	"github.com/brunotm/flowgraph/config"
	"github.com/brunotm/flowgraph/connection"
	"github.com/brunotm/flowgraph/location"
	"github.com/brunotm/flowgraph/node"
	"github.com/brunotm/flowgraph/port"
)

type countProducer struct {
	n    int
	next int
}

func (p *countProducer) OnStart(ctx node.Context) error { return nil }
func (p *countProducer) OnStop(ctx node.Context) error  { return nil }
func (p *countProducer) Run(ctx node.Context) (node.Result, bool, error) {
	if p.next >= p.n {
		return node.Result{}, false, nil
	}
	v := p.next
	p.next++
	return node.Result{Emissions: map[string]interface{}{"value": v}}, true, nil
}

type squareProcessor struct{}

func (squareProcessor) OnStart(ctx node.Context) error { return nil }
func (squareProcessor) OnStop(ctx node.Context) error  { return nil }
func (squareProcessor) Process(ctx node.Context, inputs map[string]interface{}, ctr int64) (node.Result, error) {
	v := inputs["value"].(int)
	return node.Result{Emissions: map[string]interface{}{"squared": v * v}}, nil
}

type collectSink struct {
	mu   sync.Mutex
	got  []int
	done chan struct{}
	want int
}

func (s *collectSink) OnStart(ctx node.Context) error { return nil }
func (s *collectSink) OnStop(ctx node.Context) error  { return nil }
func (s *collectSink) Process(ctx node.Context, inputs map[string]interface{}, ctr int64) (node.Result, error) {
	s.mu.Lock()
	s.got = append(s.got, inputs["value"].(int))
	done := len(s.got) == s.want
	s.mu.Unlock()
	if done {
		close(s.done)
	}
	return node.Result{}, nil
}

func buildNode(t *testing.T, name string, behavior interface{}, in, out *port.Collection, loc location.Location) *node.Node {
	t.Helper()
	n, err := node.New(name, "T", behavior, in, out, loc, config.NewConfig(nil))
	require.NoError(t, err)
	return n
}

// TestGraphStartAllGroupsAndConvergesAcrossLocations wires a 3-node
// pipeline split across two distinct thread locations (forcing a real
// bridge resolution through the registry rather than a manually-built
// one) and drives it end to end through StartAll/JoinAll.
func TestGraphStartAllGroupsAndConvergesAcrossLocations(t *testing.T) {
	producer := &countProducer{n: 5}
	square := squareProcessor{}
	sink := &collectSink{want: 5, done: make(chan struct{})}

	locA := location.Parse("1")
	locB := location.Parse("2")

	outValue := port.NewCollection(port.NewInt("value", false))
	inValue := port.NewCollection(port.NewInt("value", false))
	outSquared := port.NewCollection(port.NewInt("squared", false))
	inSquared := port.NewCollection(port.NewInt("value", false))

	pNode := buildNode(t, "producer", producer, nil, outValue, locA)
	qNode := buildNode(t, "square", square, inValue, outSquared, locA)
	sNode := buildNode(t, "sink", sink, inSquared, nil, locB)

	emitPort, _ := pNode.PortsOut().Get("value")
	recvPort, _ := qNode.PortsIn().Get("value")
	_, err := connection.AddInput(pNode, qNode, emitPort, recvPort)
	require.NoError(t, err)

	emitPort2, _ := qNode.PortsOut().Get("squared")
	recvPort2, _ := sNode.PortsIn().Get("value")
	_, err = connection.AddInput(qNode, sNode, emitPort2, recvPort2)
	require.NoError(t, err)

	reg := bridge.NewRegistry(
		bridge.NewLocalVariant(),
		bridge.NewSameProcessAsyncVariant(),
	)

	g := New([]*node.Node{pNode, qNode, sNode}, reg, Options{})
	require.NoError(t, g.StartAll())

	select {
	case <-sink.done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for sink to converge")
	}

	sink.mu.Lock()
	assert.Equal(t, []int{0, 1, 4, 9, 16}, sink.got)
	sink.mu.Unlock()

	g.JoinAll()
	assert.True(t, g.IsFinished())
}
