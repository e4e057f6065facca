package bridge

import "github.com/brunotm/flowgraph/location"

func crossThreadSameProcess(emit, recv location.Location) bool {
	return emit.SameProcess(recv) && emit.Thread != recv.Thread
}

// sameProcessAsyncVariant handles emit/recv on different threads of the
// same OS process. In Go both the "async" and "sync" variants below
// reduce to the same in-process queue — there is no asyncio
// joinable-queue-vs-polling distinction once the transport is just
// memory shared between goroutines — so they are kept as distinct,
// separately selectable variants purely for cost-table fidelity with
// the original scheduler.
type sameProcessAsyncVariant struct{}

// NewSameProcessAsyncVariant returns the cost-2 variant used for
// cross-thread, same-process delivery.
func NewSameProcessAsyncVariant() Variant { return sameProcessAsyncVariant{} }

func (sameProcessAsyncVariant) Cost() Cost { return CostSameProcessAsync }

func (sameProcessAsyncVariant) CanHandle(emit, recv location.Location) bool {
	return crossThreadSameProcess(emit, recv)
}

func (sameProcessAsyncVariant) New(emit, recv location.Location) (Bridge, error) {
	return newQueueBridge(CostSameProcessAsync, crossThreadSameProcess), nil
}

// sameProcessSyncVariant is structurally identical but ranked more
// costly; it can never be cheaper than the async variant for the same
// location pair, so it is only ever selected when the async variant has
// been removed from the registry.
type sameProcessSyncVariant struct{}

// NewSameProcessSyncVariant returns the cost-4 variant.
func NewSameProcessSyncVariant() Variant { return sameProcessSyncVariant{} }

func (sameProcessSyncVariant) Cost() Cost { return CostSameProcessSync }

func (sameProcessSyncVariant) CanHandle(emit, recv location.Location) bool {
	return crossThreadSameProcess(emit, recv)
}

func (sameProcessSyncVariant) New(emit, recv location.Location) (Bridge, error) {
	return newQueueBridge(CostSameProcessSync, crossThreadSameProcess), nil
}
