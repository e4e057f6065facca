package bridge

import (
	"context"
	"sync"

	"github.com/brunotm/flowgraph/location"
)

// queueBridge implements the Bridge operations shared by every
// in-process variant (Local, SameProcessAsync, SameProcessSync) and
// backs the receiving side of the cross-process variants: a queue plus
// a read cache. ReadySend/ReadyRecv are idempotent no-ops here because
// the queue is allocated eagerly at construction.
type queueBridge struct {
	q         *queue
	cache     *readCache
	cost      Cost
	canHandle func(emit, recv location.Location) bool

	sendOnce sync.Once
	recvOnce sync.Once
}

func newQueueBridge(cost Cost, canHandle func(emit, recv location.Location) bool) *queueBridge {
	return &queueBridge{q: newQueue(), cache: newReadCache(), cost: cost, canHandle: canHandle}
}

func (b *queueBridge) Cost() Cost { return b.cost }

func (b *queueBridge) CanHandle(emit, recv location.Location) bool { return b.canHandle(emit, recv) }

func (b *queueBridge) ReadySend() error {
	b.sendOnce.Do(func() {})
	return nil
}

func (b *queueBridge) ReadyRecv() error {
	b.recvOnce.Do(func() {})
	return nil
}

func (b *queueBridge) Put(ctr int64, payload interface{}) error {
	b.q.push(item{ctr: ctr, payload: payload})
	return nil
}

func (b *queueBridge) Close() error {
	b.q.close()
	return nil
}

func (b *queueBridge) Closed() bool { return b.q.isClosed() }

func (b *queueBridge) Empty() bool { return b.q.isEmpty() }

func (b *queueBridge) Update(ctx context.Context) (int64, error) {
	it, ok, err := b.q.pop(ctx)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrClosed
	}
	b.cache.set(it.ctr, it.payload)
	return it.ctr, nil
}

func (b *queueBridge) OnClose(ctx context.Context) error {
	for !b.q.drained() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		// Cooperative poll: the queue has no "drained" wait-channel of
		// its own since drain is a composite of close+empty; a short
		// yield keeps this a busy-free cooperative wait in practice
		// because close()/pop() both call cond.Broadcast/Signal.
		b.q.waitForChange(ctx)
	}
	return nil
}

func (b *queueBridge) Get(ctr int64) (interface{}, bool) { return b.cache.get(ctr) }

func (b *queueBridge) DiscardBefore(ctr int64) { b.cache.discardBefore(ctr) }
