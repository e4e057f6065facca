package computer

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/brunotm/flowgraph/bridge"
	"github.com/brunotm/flowgraph/internal/logdrain"
	"github.com/brunotm/flowgraph/location"
	"github.com/brunotm/flowgraph/log"
	"github.com/brunotm/flowgraph/node"
)

// ProcessComputer owns every node sharing one (host, process) location
// but differing in thread, spawning one Computer per distinct thread
// and forwarding their child-side log records to the launching
// process's logger over the log-drain subject. Go has no analogue to
// forking a real OS subprocess over an in-memory node graph, so the
// "process" boundary here is a dedicated goroutine group; the
// NATS-backed log drain is kept as real wiring (not a stub) because it
// is also how a cross-host deployment would forward these same
// records.
type ProcessComputer struct {
	location location.Location
	nodes    []*node.Node
	logger   log.Logger

	stopTimeout, closeTimeout time.Duration

	readyGate *closeOnce
	startGate *closeOnce
	stopGate  *closeOnce
	closeGate *closeOnce
	done      chan struct{}

	mu        sync.Mutex
	finished  bool
	computers []*Computer
}

// NewProcess declares a ProcessComputer over nodes, all of which must
// share loc's host and process. stopTimeout/closeTimeout bound how long
// child computers are given to drain/teardown before this computer
// moves on.
func NewProcess(loc location.Location, nodes []*node.Node, stopTimeout, closeTimeout time.Duration) *ProcessComputer {
	return &ProcessComputer{
		location:     loc,
		nodes:        nodes,
		logger:       log.New("process_computer", loc.String()),
		stopTimeout:  stopTimeout,
		closeTimeout: closeTimeout,
		readyGate:    newCloseOnce(),
		startGate:    newCloseOnce(),
		stopGate:     newCloseOnce(),
		closeGate:    newCloseOnce(),
		done:         make(chan struct{}),
	}
}

// Setup starts the log drain, spawns the worker goroutine (grouping
// nodes by thread into child Computers), and blocks until every child
// reports ready.
func (p *ProcessComputer) Setup() {
	p.logger.Infow("readying", "nodes", len(p.nodes))
	go p.run()
	<-p.readyGate.wait()
}

// Start releases every child computer's start gate.
func (p *ProcessComputer) Start() {
	p.logger.Infow("starting")
	p.startGate.release()
}

// Join blocks until every child computer has finished on its own.
func (p *ProcessComputer) Join() {
	p.logger.Infow("joining")
	<-p.done
}

// Stop requests a graceful drain of every child computer and joins up
// to timeout.
func (p *ProcessComputer) Stop(timeout time.Duration) {
	p.logger.Infow("stopping")
	p.stopGate.release()
	p.joinTimeout(timeout)
	p.logger.Infow("returning", "finished", p.IsFinished())
}

// Close forces teardown of every child computer and joins up to
// timeout.
func (p *ProcessComputer) Close(timeout time.Duration) {
	p.logger.Infow("closing")
	p.closeGate.release()
	p.joinTimeout(timeout)
	if !p.IsFinished() {
		p.logger.Infow("timeout reached, but still alive")
	}
}

func (p *ProcessComputer) joinTimeout(timeout time.Duration) {
	select {
	case <-p.done:
	case <-time.After(timeout):
	}
}

// IsFinished reports whether the worker goroutine has returned. After a
// close timeout it returns without waiting further, so some child
// computers may still be running.
func (p *ProcessComputer) IsFinished() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.finished
}

// Nodes returns the nodes this process computer owns.
func (p *ProcessComputer) Nodes() []*node.Node { return p.nodes }

// Location returns the shared location these nodes compute on.
func (p *ProcessComputer) Location() location.Location { return p.location }

func (p *ProcessComputer) String() string {
	return fmt.Sprintf("ProcessComputer:%s", p.location.String())
}

func (p *ProcessComputer) checkAllChildrenFinished() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, cmp := range p.computers {
		if !cmp.IsFinished() {
			return false
		}
	}
	return true
}

func (p *ProcessComputer) run() {
	defer close(p.done)
	defer func() {
		p.mu.Lock()
		p.finished = true
		p.mu.Unlock()
	}()

	process := p.location.Process
	if process == "" {
		process = p.location.String()
	}

	url, err := bridge.ConnURL()
	var nc *nats.Conn
	var drain *logdrain.Drain
	if err == nil {
		nc, err = nats.Connect(url)
	}
	if err == nil {
		drain, err = logdrain.StartDrain(nc, process, p.logger)
	}
	if err != nil {
		p.logger.Errorw("starting log drain failed, continuing without it", "error", err)
	}
	defer func() {
		if drain != nil {
			drain.Stop()
		}
		if nc != nil {
			nc.Close()
		}
		bridge.Release()
	}()

	byThread := make(map[string][]*node.Node)
	for _, n := range p.nodes {
		byThread[n.ComputeOn().Thread] = append(byThread[n.ComputeOn().Thread], n)
	}
	threads := make([]string, 0, len(byThread))
	for t := range byThread {
		threads = append(threads, t)
	}
	sort.Strings(threads)

	var computers []*Computer
	for _, t := range threads {
		group := byThread[t]
		p.logger.Infow("resolving computer group", "thread", t, "nodes", len(group))
		cmp := New(group[0].ComputeOn(), group)
		if drain != nil {
			cmp.logger = logdrain.NewQueueHandler(nc, process, "computer", group[0].ComputeOn().String())
		}
		cmp.Setup()
		computers = append(computers, cmp)
	}

	p.mu.Lock()
	p.computers = computers
	p.mu.Unlock()
	p.readyGate.release()

	<-p.startGate.wait()
	p.logger.Infow("starting computers")
	for _, cmp := range computers {
		cmp.Start()
	}

	allDone := make(chan struct{})
	go func() {
		for _, cmp := range computers {
			cmp.Join()
		}
		close(allDone)
	}()

	poll := time.NewTicker(50 * time.Millisecond)
	defer poll.Stop()

	finishedEarly := false
waitLoop:
	for {
		select {
		case <-allDone:
			finishedEarly = true
			break waitLoop
		case <-p.stopGate.wait():
			break waitLoop
		case <-poll.C:
			if p.checkAllChildrenFinished() {
				finishedEarly = true
				break waitLoop
			}
		}
	}

	if finishedEarly {
		p.logger.Infow("all computers have finished, returning")
		return
	}

	p.logger.Infow("stopping computers")
	for _, cmp := range computers {
		cmp.Stop(p.stopTimeout)
	}

	select {
	case <-allDone:
		p.logger.Infow("finished process and returning")
		return
	case <-p.closeGate.wait():
	case <-time.After(p.stopTimeout):
	}

	p.logger.Infow("closing computers")
	for _, cmp := range computers {
		cmp.Close(p.closeTimeout)
	}

	select {
	case <-allDone:
	case <-time.After(p.closeTimeout):
		p.logger.Infow("close timeout reached, some computers may still be alive")
	}

	p.logger.Infow("finished process and returning")
}
