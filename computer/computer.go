// Package computer implements the cooperative worker that drives a
// group of co-located nodes: Computer (one worker thread, goroutine in
// Go's case) and ProcessComputer (one worker process hosting several
// Computers, one per thread location).
package computer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/brunotm/flowgraph/location"
	"github.com/brunotm/flowgraph/log"
	"github.com/brunotm/flowgraph/node"
)

// closeOnce is a single-fire gate: the idiomatic Go replacement for the
// original's acquired-then-released thread.Lock trick, used for
// ready/start/stop/close signaling between the launching goroutine and
// the worker goroutine.
type closeOnce struct {
	once sync.Once
	ch   chan struct{}
}

func newCloseOnce() *closeOnce {
	return &closeOnce{ch: make(chan struct{})}
}

func (g *closeOnce) release()        { g.once.Do(func() { close(g.ch) }) }
func (g *closeOnce) wait() <-chan struct{} { return g.ch }

// Computer owns a group of nodes that share a Location exactly, the
// single-threaded cooperative worker driving their convergence loop.
// It runs its own
// goroutine driving every node's bridge-listener tasks concurrently,
// and exposes ready/start/stop/close gates the launching goroutine
// (graph.Graph) uses to sequence the worker's lifecycle.
type Computer struct {
	location location.Location
	nodes    []*node.Node
	logger   log.Logger

	readyGate *closeOnce
	startGate *closeOnce
	stopGate  *closeOnce
	closeGate *closeOnce

	done chan struct{}

	mu       sync.Mutex
	finished bool
}

// New declares a Computer over nodes, all of which must share loc
// exactly. Call Setup to spawn its worker goroutine.
func New(loc location.Location, nodes []*node.Node) *Computer {
	return &Computer{
		location:  loc,
		nodes:     nodes,
		logger:    log.New("computer", loc.String()),
		readyGate: newCloseOnce(),
		startGate: newCloseOnce(),
		stopGate:  newCloseOnce(),
		closeGate: newCloseOnce(),
		done:      make(chan struct{}),
	}
}

func (c *Computer) String() string { return fmt.Sprintf("Computer:%s", c.location.String()) }

// Setup spawns the worker goroutine and blocks until it reports ready
// (every node's Runtime.Ready has returned).
func (c *Computer) Setup() {
	c.logger.Infow("readying", "nodes", len(c.nodes))
	go c.run()
	<-c.readyGate.wait()
}

// Start releases the start gate, letting readied nodes begin producing
// and consuming.
func (c *Computer) Start() {
	c.logger.Infow("starting")
	c.startGate.release()
}

// Join blocks until the worker goroutine has returned, used when the
// caller knows processing will end on its own (every Producer
// exhausted).
func (c *Computer) Join() {
	c.logger.Infow("joining")
	<-c.done
}

// Stop releases the stop gate (graceful drain: the worker calls every
// node's Finish at once, closing its outputs and running OnStop, then
// waits for the node tasks to end) and joins the worker up to timeout.
func (c *Computer) Stop(timeout time.Duration) {
	c.logger.Infow("stopping")
	c.stopGate.release()
	c.joinTimeout(timeout)
	c.logger.Infow("returning", "finished", c.IsFinished())
}

// Close releases the close gate, cancelling the node-task gather
// outright regardless of drain state, and joins the worker up to
// timeout.
func (c *Computer) Close(timeout time.Duration) {
	c.logger.Infow("closing")
	c.closeGate.release()
	c.joinTimeout(timeout)
	if !c.IsFinished() {
		c.logger.Infow("timeout reached, but still alive")
	}
}

func (c *Computer) joinTimeout(timeout time.Duration) {
	select {
	case <-c.done:
	case <-time.After(timeout):
	}
}

// IsFinished reports whether the worker goroutine has returned.
func (c *Computer) IsFinished() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.finished
}

// Nodes returns the nodes this computer owns.
func (c *Computer) Nodes() []*node.Node { return c.nodes }

// Location returns the shared location these nodes compute on.
func (c *Computer) Location() location.Location { return c.location }

// run is the worker goroutine body: readies every node, signals ready,
// awaits the start gate, then drives the three gather-roots (node
// tasks, stop listener, close listener).
func (c *Computer) run() {
	defer close(c.done)
	defer func() {
		c.mu.Lock()
		c.finished = true
		c.mu.Unlock()
	}()

	for _, n := range c.nodes {
		if err := n.Runtime().Ready(); err != nil {
			c.logger.Errorw("readying node failed", "node", n.Identity(), "error", err)
		}
	}
	c.readyGate.release()

	<-c.startGate.wait()
	for _, n := range c.nodes {
		if err := n.Runtime().Start(); err != nil {
			c.logger.Errorw("starting node failed", "node", n.Identity(), "error", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	for _, n := range c.nodes {
		n := n
		if n.Runtime().IsProducer() {
			g.Go(func() error { return n.Runtime().RunProducer(gctx) })
			continue
		}
		for _, task := range n.Runtime().BridgeTasks(gctx) {
			g.Go(task)
		}
		g.Go(func() error { return n.Runtime().AwaitAllClosed(gctx) })
	}

	finished := make(chan struct{})
	go func() {
		if err := g.Wait(); err != nil {
			c.logger.Errorw("node task failed", "error", err)
		}
		close(finished)
	}()

	select {
	case <-finished:
		c.logger.Infow("all tasks finished, aborting stop and close listeners")
		return
	case <-c.stopGate.wait():
		c.logger.Infow("stop called, stopping nodes")
		for _, n := range c.nodes {
			_ = n.Runtime().Finish()
		}
		select {
		case <-finished:
		case <-c.closeGate.wait():
			c.logger.Infow("close called, cancelling remaining tasks")
			cancel()
			<-finished
		}
	case <-c.closeGate.wait():
		c.logger.Infow("close called, cancelling remaining tasks")
		cancel()
		<-finished
	}
}
