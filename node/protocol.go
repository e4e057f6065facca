package node

// Result is what a Processor's Process or a Producer's Run returns: a
// settings-style mapping of emissions keyed by output port key, plus an
// optional counter override applied to every emitted port for this
// call (used by window operators and by feedback-loop delay nodes that
// must tag a forwarded value with a different counter than the one
// that triggered the call).
type Result struct {
	Emissions   map[string]interface{}
	OverrideCtr int64
	HasOverride bool
}

// Processor is the behavior of a node with declared inputs: it reacts
// to converged packets across its input ports.
type Processor interface {
	// OnStart runs once, in the node's own worker, before any input is
	// consumed.
	OnStart(ctx Context) error
	// OnStop runs once when the node is finishing.
	OnStop(ctx Context) error
	// Process is invoked once per counter for which ShouldProcess
	// returns true against the converged input values.
	Process(ctx Context, inputs map[string]interface{}, ctr int64) (Result, error)
}

// ShouldProcessor lets a Processor override the default convergence
// check (all non-optional input ports present). Most nodes do not need
// this — declaring an input port Optional is normally sufficient — but
// a node that inspects the values themselves (not just presence) can
// implement it.
type ShouldProcessor interface {
	ShouldProcess(inputs map[string]interface{}) bool
}

// Producer is the behavior of a node with no inputs: a restartable,
// lazy, finite sequence of emissions that drives itself rather than
// reacting to bridge updates.
type Producer interface {
	OnStart(ctx Context) error
	OnStop(ctx Context) error
	// Run produces the next Result in the sequence. ok is false once
	// the sequence is exhausted; the node then finishes.
	Run(ctx Context) (result Result, ok bool, err error)
}

// CircuitBreaker is implemented by a Processor that tolerates an input
// connection closing a cycle back to its own output closure. Fallback
// supplies the emissions for any declared-optional cyclic input port
// that has not yet delivered a value — typically only on the very
// first counter the node processes, before the feedback loop has
// produced anything to receive.
type CircuitBreaker interface {
	Fallback() map[string]interface{}
}
