package node

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brunotm/flowgraph/bridge"
	"github.com/brunotm/flowgraph/config"
	"github.com/brunotm/flowgraph/connection"
	"github.com/brunotm/flowgraph/location"
	"github.com/brunotm/flowgraph/port"
)

// countProducer emits 0..n-1 on "value", one per Run call.
type countProducer struct {
	n    int
	next int
}

func (p *countProducer) OnStart(ctx Context) error { return nil }
func (p *countProducer) OnStop(ctx Context) error  { return nil }
func (p *countProducer) Run(ctx Context) (Result, bool, error) {
	if p.next >= p.n {
		return Result{}, false, nil
	}
	v := p.next
	p.next++
	return Result{Emissions: map[string]interface{}{"value": v}}, true, nil
}

// squareProcessor emits value*value on "squared" for every converged
// input.
type squareProcessor struct{}

func (squareProcessor) OnStart(ctx Context) error { return nil }
func (squareProcessor) OnStop(ctx Context) error  { return nil }
func (squareProcessor) Process(ctx Context, inputs map[string]interface{}, ctr int64) (Result, error) {
	v := inputs["value"].(int)
	return Result{Emissions: map[string]interface{}{"squared": v * v}}, nil
}

// collectSink appends every converged "value" to a synchronized slice.
type collectSink struct {
	mu   sync.Mutex
	got  []int
	done chan struct{}
	want int
}

func (s *collectSink) OnStart(ctx Context) error { return nil }
func (s *collectSink) OnStop(ctx Context) error  { return nil }
func (s *collectSink) Process(ctx Context, inputs map[string]interface{}, ctr int64) (Result, error) {
	s.mu.Lock()
	s.got = append(s.got, inputs["value"].(int))
	done := len(s.got) == s.want
	s.mu.Unlock()
	if done {
		close(s.done)
	}
	return Result{}, nil
}

func buildNode(t *testing.T, name string, behavior interface{}, in, out *port.Collection) *Node {
	t.Helper()
	n, err := New(name, "T", behavior, in, out, location.Location{}, config.NewConfig(nil))
	require.NoError(t, err)
	return n
}

func TestProducerThroughProcessorToSinkCounters(t *testing.T) {
	producer := &countProducer{n: 5}
	square := squareProcessor{}
	sink := &collectSink{want: 5, done: make(chan struct{})}

	outValue := port.NewCollection(port.NewInt("value", false))
	inValue := port.NewCollection(port.NewInt("value", false))
	outSquared := port.NewCollection(port.NewInt("squared", false))
	inSquared := port.NewCollection(port.NewInt("value", false))

	pNode := buildNode(t, "producer", producer, nil, outValue)
	qNode := buildNode(t, "square", square, inValue, outSquared)
	sNode := buildNode(t, "sink", sink, inSquared, nil)

	emitPort, _ := pNode.PortsOut().Get("value")
	recvPort, _ := qNode.PortsIn().Get("value")
	_, err := connection.AddInput(pNode, qNode, emitPort, recvPort)
	require.NoError(t, err)

	emitPort2, _ := qNode.PortsOut().Get("squared")
	recvPort2, _ := sNode.PortsIn().Get("value")
	_, err = connection.AddInput(qNode, sNode, emitPort2, recvPort2)
	require.NoError(t, err)

	pr := NewRuntime(pNode)
	qr := NewRuntime(qNode)
	sr := NewRuntime(sNode)

	b1, err := bridge.NewLocalVariant().New(pNode.ComputeOn(), qNode.ComputeOn())
	require.NoError(t, err)
	pr.BindOutputBridge("value", b1)
	qr.BindInputBridge("value", b1)

	b2, err := bridge.NewLocalVariant().New(qNode.ComputeOn(), sNode.ComputeOn())
	require.NoError(t, err)
	qr.BindOutputBridge("squared", b2)
	sr.BindInputBridge("value", b2)

	require.NoError(t, pr.Ready())
	require.NoError(t, qr.Ready())
	require.NoError(t, sr.Ready())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	go func() {
		for _, task := range qr.BridgeTasks(ctx) {
			go task()
		}
		_ = qr.AwaitAllClosed(ctx)
	}()
	go func() {
		for _, task := range sr.BridgeTasks(ctx) {
			go task()
		}
		_ = sr.AwaitAllClosed(ctx)
	}()
	go func() { _ = pr.RunProducer(ctx) }()

	select {
	case <-sink.done:
	case <-ctx.Done():
		t.Fatal("timed out waiting for sink to converge")
	}

	sink.mu.Lock()
	defer sink.mu.Unlock()
	assert.Equal(t, []int{0, 1, 4, 9, 16}, sink.got)

	<-pr.Finished()
	<-qr.Finished()
	<-sr.Finished()
}

func TestShouldProcessDefaultRequiresNonOptionalPorts(t *testing.T) {
	square := squareProcessor{}
	inValue := port.NewCollection(port.NewInt("value", false), port.NewInt("extra", true))
	n := buildNode(t, "n", square, inValue, nil)
	r := NewRuntime(n)

	assert.False(t, r.shouldProcess(map[string]interface{}{"extra": 1}))
	assert.True(t, r.shouldProcess(map[string]interface{}{"value": 1}))
}
