package bridge

import "github.com/brunotm/flowgraph/location"

// localVariant handles the trivial case: emit and recv run on the same
// thread. The transport is the same in-process queue every in-process
// variant shares; there is nothing cheaper to do than a bare handoff.
type localVariant struct{}

// NewLocalVariant returns the cost-1 variant used whenever emit and
// recv share a location exactly.
func NewLocalVariant() Variant { return localVariant{} }

func (localVariant) Cost() Cost { return CostLocal }

func (localVariant) CanHandle(emit, recv location.Location) bool {
	return emit.Equal(recv)
}

func (localVariant) New(emit, recv location.Location) (Bridge, error) {
	return newQueueBridge(CostLocal, location.Location.Equal), nil
}
