// Package bridge implements the transport variants nodes use to pass
// counted packets across thread, process and host boundaries, and the
// cost-ranked selection that picks the cheapest variant able to serve a
// given pair of locations.
package bridge

import (
	"context"
	"errors"
	"sort"

	"github.com/brunotm/flowgraph/location"
)

// ErrNoVariant is returned by Resolve when no registered variant can
// handle the given (emit, recv) location pair.
var ErrNoVariant = errors.New("bridge: no variant can handle this location pair")

// ErrClosed is returned by Update when the queue closed with nothing
// left to drain — the node runtime's signal to stop awaiting this
// bridge and check OnClose/on_all_closed instead.
var ErrClosed = errors.New("bridge: queue closed")

// Cost ranks bridge variants cheapest-first. Resolve always picks the
// lowest-cost variant among those whose CanHandle returns true.
type Cost int

// The five mandatory variants plus the optional, disabled-by-default
// cross-host variant, ranked in the order the original scheduler
// preferred them.
const (
	CostLocal             Cost = 1
	CostSameProcessAsync  Cost = 2
	CostCrossProcessAsync Cost = 3
	CostSameProcessSync   Cost = 4
	CostCrossProcessSync  Cost = 5
	CostCrossHost         Cost = 6
)

// Bridge is a unidirectional transport for one connection: a FIFO of
// (counter, payload) entries plus a closed signal on the sender side,
// and a lazily-populated read cache on the receiver side. A single
// Bridge instance is shared by both the emitting and the receiving
// node.
type Bridge interface {
	Cost() Cost
	CanHandle(emit, recv location.Location) bool

	// ReadySend performs sender-side setup (allocating transport
	// handles). Idempotent within one run.
	ReadySend() error
	// ReadyRecv performs receiver-side setup. Idempotent; may be a
	// no-op for transports with nothing to allocate on this side.
	ReadyRecv() error

	// Put enqueues a payload under ctr. Never blocks meaningfully.
	Put(ctr int64, payload interface{}) error
	// Close raises the closed signal once. Called by the sender when
	// its node finishes.
	Close() error

	// Closed reports whether Close has been called.
	Closed() bool
	// Empty reports whether the queue currently holds no buffered
	// items still to be drained by Update.
	Empty() bool

	// Update cooperatively waits for the next queued item, stores its
	// payload into the read cache, and returns its counter.
	Update(ctx context.Context) (ctr int64, err error)
	// OnClose blocks until Closed is set and the queue has been fully
	// drained by Update.
	OnClose(ctx context.Context) error

	// Get looks up the read cache populated by Update.
	Get(ctr int64) (value interface{}, found bool)
	// DiscardBefore drops cached entries with counters < ctr.
	DiscardBefore(ctr int64)
}

// Variant constructs a Bridge instance bound to one connection. Each
// registered variant is asked, in cost order, whether it CanHandle the
// (emit, recv) location pair; the first match is instantiated.
type Variant interface {
	Cost() Cost
	CanHandle(emit, recv location.Location) bool
	New(emit, recv location.Location) (Bridge, error)
}

// Registry holds the variants available for selection, cost-ordered.
// CrossHost is typically registered only when graph.Options.EnableCrossHost
// is set.
type Registry struct {
	variants []Variant
}

// NewRegistry builds a registry from the given variants.
func NewRegistry(variants ...Variant) *Registry {
	r := &Registry{variants: append([]Variant{}, variants...)}
	sort.SliceStable(r.variants, func(i, j int) bool { return r.variants[i].Cost() < r.variants[j].Cost() })
	return r
}

// NewDefaultRegistry builds a registry carrying every variant except
// CrossHost (opt-in only, via graph.Options.EnableCrossHost): Local,
// both same-process variants, and both cross-process variants, the
// latter sharing crossProcessURL (empty uses the shared embedded NATS
// server).
func NewDefaultRegistry(crossProcessURL string) *Registry {
	return NewRegistry(
		NewLocalVariant(),
		NewSameProcessAsyncVariant(),
		NewSameProcessSyncVariant(),
		NewCrossProcessAsyncVariant(crossProcessURL),
		NewCrossProcessSyncVariant(crossProcessURL),
	)
}

// Register appends a variant and keeps the registry cost-ordered. Ties
// in cost keep registration order (stable sort).
func (r *Registry) Register(v Variant) {
	r.variants = append(r.variants, v)
	sort.SliceStable(r.variants, func(i, j int) bool { return r.variants[i].Cost() < r.variants[j].Cost() })
}

// Resolve picks the lowest-cost variant able to handle the given
// location pair and constructs a Bridge from it.
func (r *Registry) Resolve(emit, recv location.Location) (Bridge, error) {
	for _, v := range r.variants {
		if v.CanHandle(emit, recv) {
			return v.New(emit, recv)
		}
	}
	return nil, ErrNoVariant
}
