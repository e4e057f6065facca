package bridge

import (
	"context"
	"sync"
)

// item is one FIFO entry: a packet counter and its payload.
type item struct {
	ctr     int64
	payload interface{}
}

// queue is an unbounded single-producer/single-consumer FIFO with a
// one-shot close signal, backing every bridge variant regardless of
// transport: memory is traded for never blocking a producer, so there
// is no capacity limit here — only the read cache downstream (see
// cache.go) is ever pruned.
type queue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []item
	closed bool
}

func newQueue() *queue {
	q := &queue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// push enqueues an item and wakes any waiting consumer. Never blocks.
func (q *queue) push(it item) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.items = append(q.items, it)
	q.cond.Signal()
}

// close raises the closed signal exactly once.
func (q *queue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		q.cond.Broadcast()
	}
}

// isClosed reports whether close has been called.
func (q *queue) isClosed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// isEmpty reports whether the queue currently holds no buffered items.
func (q *queue) isEmpty() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) == 0
}

// pop blocks until an item is available, the queue closes with nothing
// left to drain, or ctx is done.
func (q *queue) pop(ctx context.Context) (item, bool, error) {
	done := make(chan struct{})
	stop := context.AfterFunc(ctx, func() {
		q.mu.Lock()
		close(done)
		q.cond.Broadcast()
		q.mu.Unlock()
	})
	defer stop()

	q.mu.Lock()
	defer q.mu.Unlock()

	for {
		if len(q.items) > 0 {
			it := q.items[0]
			q.items = q.items[1:]
			return it, true, nil
		}
		if q.closed {
			return item{}, false, nil
		}
		select {
		case <-done:
			return item{}, false, ctx.Err()
		default:
		}
		q.cond.Wait()
	}
}

// drained reports whether the queue is closed and fully drained — the
// condition OnClose waits for.
func (q *queue) drained() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed && len(q.items) == 0
}

// waitForChange blocks until push or close next signals the queue's
// condition variable, or ctx is done. Used by OnClose's cooperative
// poll loop so it never busy-spins.
func (q *queue) waitForChange(ctx context.Context) {
	done := make(chan struct{})
	stop := context.AfterFunc(ctx, func() {
		q.mu.Lock()
		close(done)
		q.cond.Broadcast()
		q.mu.Unlock()
	})
	defer stop()

	q.mu.Lock()
	defer q.mu.Unlock()
	select {
	case <-done:
		return
	default:
	}
	q.cond.Wait()
}
