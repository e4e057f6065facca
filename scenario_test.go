package flowgraph_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brunotm/flowgraph/bridge"
	"github.com/brunotm/flowgraph/config"
	"github.com/brunotm/flowgraph/connection"
	"github.com/brunotm/flowgraph/graph"
	"github.com/brunotm/flowgraph/location"
	"github.com/brunotm/flowgraph/node"
	"github.com/brunotm/flowgraph/nodes/sink/save"
	"github.com/brunotm/flowgraph/nodes/source/counter"
	"github.com/brunotm/flowgraph/nodes/transform/circuitbreaker"
	"github.com/brunotm/flowgraph/nodes/transform/ctrincrease"
	"github.com/brunotm/flowgraph/nodes/transform/quadratic"
	"github.com/brunotm/flowgraph/nodes/transform/sum"
	"github.com/brunotm/flowgraph/store"
)

// memStore is a minimal in-memory store.Store used to back sink/save
// nodes in these scenarios without pulling in leveldb.
type memStore struct {
	data map[string][]byte
}

func newMemStore() *memStore { return &memStore{data: make(map[string][]byte)} }

func (m *memStore) Name() string { return "mem" }

func (m *memStore) Get(key []byte) ([]byte, error) {
	v, ok := m.data[string(key)]
	if !ok {
		return nil, store.ErrKeyNotFound
	}
	return v, nil
}

func (m *memStore) Set(key, value []byte) error {
	m.data[string(key)] = value
	return nil
}

func (m *memStore) Delete(key []byte) error {
	delete(m.data, string(key))
	return nil
}

func (m *memStore) Range(from, to []byte, callback func(key, value []byte) error) error {
	return nil
}

func (m *memStore) RangePrefix(prefix []byte, callback func(key, value []byte) error) error {
	return nil
}

// newSaveNode builds a sink/save.Save node bound to a fresh in-memory
// store, returning both the node and the behavior for assertions.
func newSaveNode(t *testing.T, name string, loc location.Location) (*node.Node, *save.Save) {
	t.Helper()
	behavior, portsIn, _, err := save.New(config.NewConfig(nil))
	require.NoError(t, err)
	s := behavior.(*save.Save)

	n, err := node.New(name, save.Class, s, portsIn, nil, loc, config.NewConfig(nil))
	require.NoError(t, err)
	n.BindStore(save.StoreName(), func() store.Store { return newMemStore() })
	return n, s
}

func connect(t *testing.T, emit, recv *node.Node, emitPortName, recvPortName string) {
	t.Helper()
	emitPort, ok := emit.PortsOut().Get(emitPortName)
	require.True(t, ok)
	recvPort, ok := recv.PortsIn().Get(recvPortName)
	require.True(t, ok)
	_, err := connection.AddInput(emit, recv, emitPort, recvPort)
	require.NoError(t, err)
}

// TestScenarioLinearSingleLocationSquaresProducerOutput is spec
// scenario 1: a Producer emitting 0..9, through a squaring Processor,
// into a sink, all on one location.
func TestScenarioLinearSingleLocationSquaresProducerOutput(t *testing.T) {
	run := func(t *testing.T) {
		loc := location.Location{}

		cBehavior, _, cPortsOut, err := counter.New(config.NewConfig(map[string]interface{}{"n": 10}))
		require.NoError(t, err)
		cNode, err := node.New("producer", counter.Class, cBehavior, nil, cPortsOut, loc, config.NewConfig(nil))
		require.NoError(t, err)

		qBehavior, qPortsIn, qPortsOut, err := quadratic.New(config.NewConfig(nil))
		require.NoError(t, err)
		qNode, err := node.New("square", quadratic.Class, qBehavior, qPortsIn, qPortsOut, loc, config.NewConfig(nil))
		require.NoError(t, err)

		sNode, sBehavior := newSaveNode(t, "sink", loc)

		connect(t, cNode, qNode, "value", "value")
		connect(t, qNode, sNode, "value", "value")

		reg := bridge.NewRegistry(bridge.NewLocalVariant())
		g := graph.New([]*node.Node{cNode, qNode, sNode}, reg, graph.Options{})
		require.NoError(t, g.StartAll())
		g.JoinAll()

		want := []interface{}{0, 1, 4, 9, 16, 25, 36, 49, 64, 81}
		assert.Equal(t, want, sBehavior.Values())
		assert.True(t, g.IsFinished())
	}

	t.Run("first run", run)
	t.Run("restart produces identical output", run)
}

// TestScenarioFanOutFeedsTwoSinksFromOneProducer is spec scenario 2: a
// Producer fans out to a passthrough sink and a squaring-then-sink
// branch on a single location.
func TestScenarioFanOutFeedsTwoSinksFromOneProducer(t *testing.T) {
	run := func(t *testing.T) {
		loc := location.Location{}

		cBehavior, _, cPortsOut, err := counter.New(config.NewConfig(map[string]interface{}{"n": 10}))
		require.NoError(t, err)
		cNode, err := node.New("producer", counter.Class, cBehavior, nil, cPortsOut, loc, config.NewConfig(nil))
		require.NoError(t, err)

		s1Node, s1Behavior := newSaveNode(t, "sink1", loc)

		qBehavior, qPortsIn, qPortsOut, err := quadratic.New(config.NewConfig(nil))
		require.NoError(t, err)
		qNode, err := node.New("square", quadratic.Class, qBehavior, qPortsIn, qPortsOut, loc, config.NewConfig(nil))
		require.NoError(t, err)

		s2Node, s2Behavior := newSaveNode(t, "sink2", loc)

		connect(t, cNode, s1Node, "value", "value")
		connect(t, cNode, qNode, "value", "value")
		connect(t, qNode, s2Node, "value", "value")

		reg := bridge.NewRegistry(bridge.NewLocalVariant())
		g := graph.New([]*node.Node{cNode, s1Node, qNode, s2Node}, reg, graph.Options{})
		require.NoError(t, g.StartAll())
		g.JoinAll()

		wantLinear := []interface{}{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
		wantSquared := []interface{}{0, 1, 4, 9, 16, 25, 36, 49, 64, 81}
		assert.Equal(t, wantLinear, s1Behavior.Values())
		assert.Equal(t, wantSquared, s2Behavior.Values())
	}

	t.Run("first run", run)
	t.Run("restart produces identical output", run)
}

// TestScenarioCrossThreadFanOutMatchesSingleLocationOutput is spec
// scenario 3: the same fan-out as scenario 2, but each node pinned to
// a distinct thread within one process, forcing same-process bridges.
func TestScenarioCrossThreadFanOutMatchesSingleLocationOutput(t *testing.T) {
	locProducer := location.Parse("1")
	locSquare := location.Parse("2")
	locSink1 := location.Parse("3")
	locSink2 := location.Parse("1")

	cBehavior, _, cPortsOut, err := counter.New(config.NewConfig(map[string]interface{}{"n": 10}))
	require.NoError(t, err)
	cNode, err := node.New("producer", counter.Class, cBehavior, nil, cPortsOut, locProducer, config.NewConfig(nil))
	require.NoError(t, err)

	s1Node, s1Behavior := newSaveNode(t, "sink1", locSink1)

	qBehavior, qPortsIn, qPortsOut, err := quadratic.New(config.NewConfig(nil))
	require.NoError(t, err)
	qNode, err := node.New("square", quadratic.Class, qBehavior, qPortsIn, qPortsOut, locSquare, config.NewConfig(nil))
	require.NoError(t, err)

	s2Node, s2Behavior := newSaveNode(t, "sink2", locSink2)

	connect(t, cNode, s1Node, "value", "value")
	connect(t, cNode, qNode, "value", "value")
	connect(t, qNode, s2Node, "value", "value")

	reg := bridge.NewDefaultRegistry("")
	g := graph.New([]*node.Node{cNode, s1Node, qNode, s2Node}, reg, graph.Options{})
	require.NoError(t, g.StartAll())
	g.JoinAll()

	wantLinear := []interface{}{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	wantSquared := []interface{}{0, 1, 4, 9, 16, 25, 36, 49, 64, 81}
	assert.Equal(t, wantLinear, s1Behavior.Values())
	assert.Equal(t, wantSquared, s2Behavior.Values())
}

// TestScenarioMixedLocationsFanOutMatchesSingleLocationOutput is spec
// scenario 5: nodes scattered across host:process:thread strings of
// differing shapes, still converging to the same output as the
// single-location run.
func TestScenarioMixedLocationsFanOutMatchesSingleLocationOutput(t *testing.T) {
	locProducer := location.Parse("1:2")
	locSquare := location.Parse("2:1")
	locSink1 := location.Parse("1:1")
	locSink2 := location.Parse("1")

	cBehavior, _, cPortsOut, err := counter.New(config.NewConfig(map[string]interface{}{"n": 10}))
	require.NoError(t, err)
	cNode, err := node.New("producer", counter.Class, cBehavior, nil, cPortsOut, locProducer, config.NewConfig(nil))
	require.NoError(t, err)

	s1Node, s1Behavior := newSaveNode(t, "sink1", locSink1)

	qBehavior, qPortsIn, qPortsOut, err := quadratic.New(config.NewConfig(nil))
	require.NoError(t, err)
	qNode, err := node.New("square", quadratic.Class, qBehavior, qPortsIn, qPortsOut, locSquare, config.NewConfig(nil))
	require.NoError(t, err)

	s2Node, s2Behavior := newSaveNode(t, "sink2", locSink2)

	connect(t, cNode, s1Node, "value", "value")
	connect(t, cNode, qNode, "value", "value")
	connect(t, qNode, s2Node, "value", "value")

	reg := bridge.NewDefaultRegistry("")
	g := graph.New([]*node.Node{cNode, s1Node, qNode, s2Node}, reg, graph.Options{})
	require.NoError(t, g.StartAll())
	g.JoinAll()

	wantLinear := []interface{}{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	wantSquared := []interface{}{0, 1, 4, 9, 16, 25, 36, 49, 64, 81}
	assert.Equal(t, wantLinear, s1Behavior.Values())
	assert.Equal(t, wantSquared, s2Behavior.Values())
}

// TestScenarioCircuitBreakerFeedbackLoopBootstrapsThenAccumulates is
// spec scenario 6: a Producer drives a circuit breaker whose "delayed"
// input is itself fed back one counter later from its own output,
// bootstrapped by Fallback on the very first counter.
func TestScenarioCircuitBreakerFeedbackLoopBootstrapsThenAccumulates(t *testing.T) {
	loc := location.Location{}

	cBehavior, _, cPortsOut, err := counter.New(config.NewConfig(map[string]interface{}{"n": 5}))
	require.NoError(t, err)
	cNode, err := node.New("producer", counter.Class, cBehavior, nil, cPortsOut, loc, config.NewConfig(nil))
	require.NoError(t, err)

	bBehavior, bPortsIn, bPortsOut, err := circuitbreaker.New(config.NewConfig(map[string]interface{}{"delayed": 1000}))
	require.NoError(t, err)
	bNode, err := node.New("breaker", circuitbreaker.Class, bBehavior, bPortsIn, bPortsOut, loc, config.NewConfig(nil))
	require.NoError(t, err)

	sumBehavior, sumPortsIn, sumPortsOut, err := sum.New(config.NewConfig(nil))
	require.NoError(t, err)
	sumNode, err := node.New("sum", sum.Class, sumBehavior, sumPortsIn, sumPortsOut, loc, config.NewConfig(nil))
	require.NoError(t, err)

	ciBehavior, ciPortsIn, ciPortsOut, err := ctrincrease.New(config.NewConfig(nil))
	require.NoError(t, err)
	ciNode, err := node.New("ctrincrease", ctrincrease.Class, ciBehavior, ciPortsIn, ciPortsOut, loc, config.NewConfig(nil))
	require.NoError(t, err)

	sinkNode, sinkBehavior := newSaveNode(t, "sink", loc)

	connect(t, cNode, bNode, "value", "data")
	connect(t, bNode, sumNode, "data", "data")
	connect(t, bNode, sumNode, "delayed", "delayed")
	connect(t, sumNode, sinkNode, "value", "value")
	connect(t, sumNode, ciNode, "value", "value")
	connect(t, ciNode, bNode, "value", "delayed")

	reg := bridge.NewRegistry(bridge.NewLocalVariant())
	g := graph.New([]*node.Node{cNode, bNode, sumNode, ciNode, sinkNode}, reg, graph.Options{})
	require.NoError(t, g.StartAll())
	g.JoinAll()

	want := []interface{}{1000, 1001, 1003, 1006, 1010}
	assert.Equal(t, want, sinkBehavior.Values())
}
