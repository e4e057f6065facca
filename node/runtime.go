package node

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/brunotm/flowgraph/bridge"
	"github.com/brunotm/flowgraph/store"
)

// counterStoreName is the reserved store binding a Producer uses to
// persist its own emission counter, so a restarted producer resumes its
// clock rather than re-emitting counters a downstream consumer already
// saw. Bound via Node.BindCounterStore; optional.
const counterStoreName = "__flowgraph_emit_counter__"

var counterKey = []byte("ctr")

// Stats is the per-call performance accounting the original framework
// exposed via Time_Per_Call/Time_Between_Call, surfaced read-only over
// the admin HTTP surface.
type Stats struct {
	Calls         int64
	TotalDuration time.Duration
	MeanDuration  time.Duration
	MeanGap       time.Duration
}

// Runtime drives one Node's lifecycle: opening its bridges at ready
// time, running its Processor's per-bridge convergence loop or its
// Producer's self-driven sequence, and resolving its termination future
// once no further input can arrive (or the sequence ends).
//
// Concurrent bridge-listener goroutines may all observe the same
// counter arrive on different input ports; the original's single
// cooperative worker made these calls inherently sequential, so
// processMu serializes the read/decide/invoke/discard critical section
// here to preserve that invariant under real Go concurrency.
type Runtime struct {
	node    *Node
	storage *dataStorage
	ctx     *execContext

	processMu sync.Mutex

	emitCtr int64

	finishOnce sync.Once
	finished   chan struct{}

	statsMu  sync.Mutex
	calls    int64
	totalDur time.Duration
	totalGap time.Duration
	lastEnd  time.Time
}

// NewRuntime builds the runtime state for n. Called once per node by
// graph.Graph.LockAll, before the graph's computers are built.
func NewRuntime(n *Node) *Runtime {
	r := &Runtime{
		node:     n,
		storage:  newDataStorage(),
		ctx:      newExecContext(n),
		finished: make(chan struct{}),
	}
	n.runtime = r
	return r
}

// IsProducer reports whether this node drives itself via Producer.Run
// rather than reacting to input bridges.
func (r *Runtime) IsProducer() bool {
	_, ok := r.node.behavior.(Producer)
	return ok
}

// BindInputBridge registers the bridge a Processor reads recvPortKey
// from.
func (r *Runtime) BindInputBridge(recvPortKey string, b bridge.Bridge) {
	r.storage.addInput(recvPortKey, b)
}

// BindOutputBridge registers a bridge fed by emitPortKey. A port with
// fan-out accumulates more than one bridge.
func (r *Runtime) BindOutputBridge(emitPortKey string, b bridge.Bridge) {
	r.storage.addOutput(emitPortKey, b)
}

// Ready opens every bound bridge's sender and receiver side.
func (r *Runtime) Ready() error {
	if err := r.storage.readySend(); err != nil {
		return fmt.Errorf("node: readying sends for %s: %w", r.node.Identity(), err)
	}
	if err := r.storage.readyRecv(); err != nil {
		return fmt.Errorf("node: readying recvs for %s: %w", r.node.Identity(), err)
	}
	if r.node.hasCounterStore() {
		if err := r.loadCounter(); err != nil {
			return fmt.Errorf("node: loading emission counter for %s: %w", r.node.Identity(), err)
		}
	}
	return nil
}

// loadCounter resumes this node's emission clock from its bound
// counter store, so a restarted producer never re-issues a counter a
// downstream consumer already saw.
func (r *Runtime) loadCounter() error {
	s, err := r.ctx.Store(counterStoreName)
	if err != nil {
		return err
	}
	value, err := s.Get(counterKey)
	if err == store.ErrKeyNotFound {
		return nil
	}
	if err != nil {
		return err
	}
	ctr, err := strconv.ParseInt(string(value), 10, 64)
	if err != nil {
		return err
	}
	r.emitCtr = ctr
	return nil
}

// persistCounter best-effort saves the current emission counter. A
// failure is logged, not fatal: losing the persisted counter degrades
// restart behavior, it does not corrupt a running graph.
func (r *Runtime) persistCounter() {
	if !r.node.hasCounterStore() {
		return
	}
	s, err := r.ctx.Store(counterStoreName)
	if err != nil {
		r.ctx.logger.Errorw("opening counter store failed", "error", err)
		return
	}
	if err := s.Set(counterKey, []byte(strconv.FormatInt(r.emitCtr, 10))); err != nil {
		r.ctx.logger.Errorw("persisting emission counter failed", "error", err)
	}
}

// Start calls the behavior's OnStart hook, once, before any input is
// consumed or any value produced.
func (r *Runtime) Start() error {
	switch b := r.node.behavior.(type) {
	case Producer:
		return b.OnStart(r.ctx)
	case Processor:
		return b.OnStart(r.ctx)
	default:
		return fmt.Errorf("node: %s behavior implements neither Processor nor Producer", r.node.Identity())
	}
}

// BridgeTasks returns one task per input bridge, each running the
// _await_input loop: cooperatively update the bridge, then _process the
// delivered counter. The caller (computer.Computer) schedules these as
// its "node tasks" gather-root.
func (r *Runtime) BridgeTasks(ctx context.Context) []func() error {
	tasks := make([]func() error, 0, len(r.storage.in))
	for portKey, b := range r.storage.in {
		portKey, b := portKey, b
		tasks = append(tasks, func() error { return r.awaitInput(ctx, portKey, b) })
	}
	return tasks
}

// awaitInput is _await_input: it loops updating one bridge and
// triggering process() for whatever counter arrives, until the bridge
// closes or ctx is cancelled (cooperative stop).
func (r *Runtime) awaitInput(ctx context.Context, portKey string, b bridge.Bridge) error {
	for {
		ctr, err := b.Update(ctx)
		if err != nil {
			if errors.Is(err, bridge.ErrClosed) {
				return nil
			}
			if ctx.Err() != nil {
				// Cancellation is cooperative and never logged as an error.
				return nil
			}
			r.ctx.logger.Errorw("bridge update failed", "port", portKey, "error", err)
			continue
		}
		r.process(ctr)
	}
}

// process is _process(ctr): reads the converged input values, decides
// whether to invoke the user's Process, and on acceptance emits its
// result and prunes the read cache.
func (r *Runtime) process(ctr int64) {
	r.processMu.Lock()
	defer r.processMu.Unlock()

	current := r.storage.get(ctr)

	if !r.shouldProcess(current) {
		r.ctx.logger.Debugw("should_process declined", "ctr", ctr)
		return
	}

	processor, ok := r.node.behavior.(Processor)
	if !ok {
		r.ctx.logger.Errorw("node behavior does not implement Processor", "ctr", ctr)
		return
	}

	start := time.Now()
	r.ctx.ctr = ctr
	result, err := processor.Process(r.ctx, current, ctr)
	r.recordCall(start)
	if err != nil {
		r.ctx.logger.Errorw("process failed", "ctr", ctr, "error", err)
		return
	}

	r.emit(ctr, result)
	r.storage.discardBefore(ctr)
}

// shouldProcess applies the user's ShouldProcessor override if present,
// otherwise the default: every non-optional input port key is present.
func (r *Runtime) shouldProcess(current map[string]interface{}) bool {
	if sp, ok := r.node.behavior.(ShouldProcessor); ok {
		return sp.ShouldProcess(current)
	}
	for _, p := range r.node.PortsIn().Ports() {
		if p.Optional() {
			continue
		}
		if _, present := current[p.Key()]; !present {
			return false
		}
	}
	return true
}

// emit writes every port of result.Emissions through the data storage,
// tagged with ctr unless the result carries a counter override.
func (r *Runtime) emit(ctr int64, result Result) {
	if accu := r.ctx.RetFlush(); len(accu) > 0 {
		if result.Emissions == nil {
			result.Emissions = accu
		} else {
			for k, v := range accu {
				result.Emissions[k] = v
			}
		}
	}

	emitCtr := ctr
	if result.HasOverride {
		emitCtr = result.OverrideCtr
	}
	for portKey, value := range result.Emissions {
		if err := r.storage.put(portKey, emitCtr, value); err != nil {
			r.ctx.logger.Errorw("emit failed", "port", portKey, "ctr", emitCtr, "error", err)
		}
	}
}

// RunProducer drives a Producer's self-paced sequence until it reports
// exhaustion or ctx is cancelled, then finishes the node. The caller
// schedules this as the node's sole task when IsProducer is true.
func (r *Runtime) RunProducer(ctx context.Context) error {
	producer, ok := r.node.behavior.(Producer)
	if !ok {
		return fmt.Errorf("node: %s behavior does not implement Producer", r.node.Identity())
	}

	for {
		select {
		case <-ctx.Done():
			return r.Finish()
		default:
		}

		start := time.Now()
		result, ok, err := producer.Run(r.ctx)
		r.recordCall(start)
		if err != nil {
			r.ctx.logger.Errorw("run failed", "error", err)
			continue
		}
		if !ok {
			return r.Finish()
		}

		ctr := r.nextCtr()
		r.ctx.ctr = ctr
		r.emit(ctr, result)
	}
}

func (r *Runtime) nextCtr() int64 {
	r.emitCtr++
	r.persistCounter()
	return r.emitCtr
}

// AwaitAllClosed blocks until every input bridge has closed and
// drained, then finishes the node. The caller schedules this as a
// Processor node's "finished future" task; Producer nodes finish
// themselves at the end of RunProducer instead.
func (r *Runtime) AwaitAllClosed(ctx context.Context) error {
	if err := r.storage.onAllClosed(ctx); err != nil {
		return err
	}
	return r.Finish()
}

// Finish closes this node's output bridges (propagating end-of-stream
// downstream), calls its OnStop hook, and resolves its termination
// future. Idempotent.
func (r *Runtime) Finish() error {
	var err error
	r.finishOnce.Do(func() {
		if closeErr := r.storage.closeBridges(); closeErr != nil {
			err = closeErr
		}
		if stopErr := r.callOnStop(); stopErr != nil && err == nil {
			err = stopErr
		}
		close(r.finished)
	})
	return err
}

func (r *Runtime) callOnStop() error {
	switch b := r.node.behavior.(type) {
	case Producer:
		return b.OnStop(r.ctx)
	case Processor:
		return b.OnStop(r.ctx)
	default:
		return nil
	}
}

// Finished returns a channel closed once this node has terminated.
func (r *Runtime) Finished() <-chan struct{} { return r.finished }

// IsFinished reports whether Finish has resolved.
func (r *Runtime) IsFinished() bool {
	select {
	case <-r.finished:
		return true
	default:
		return false
	}
}

func (r *Runtime) recordCall(start time.Time) {
	end := time.Now()
	r.statsMu.Lock()
	defer r.statsMu.Unlock()
	if !r.lastEnd.IsZero() {
		r.totalGap += start.Sub(r.lastEnd)
	}
	r.calls++
	r.totalDur += end.Sub(start)
	r.lastEnd = end
}

// Stats returns a snapshot of this node's call-count and timing
// accounting.
func (r *Runtime) Stats() Stats {
	r.statsMu.Lock()
	defer r.statsMu.Unlock()
	s := Stats{Calls: r.calls, TotalDuration: r.totalDur}
	if r.calls > 0 {
		s.MeanDuration = r.totalDur / time.Duration(r.calls)
	}
	if r.calls > 1 {
		s.MeanGap = r.totalGap / time.Duration(r.calls-1)
	}
	return s
}
