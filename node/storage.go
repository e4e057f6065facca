package node

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/brunotm/flowgraph/bridge"
)

// dataStorage is the per-node pair of input and output bridge maps,
// bridging converged input values to emitted output values. Input
// bridges are keyed by the receiving port's key (one bridge per input
// port — fan-in across producers is expressed as distinct connections,
// never a shared bridge). Output bridges are keyed by the emitting
// port's key, fanning out to every bridge wired from that port.
type dataStorage struct {
	in  map[string]bridge.Bridge
	out map[string][]bridge.Bridge
}

func newDataStorage() *dataStorage {
	return &dataStorage{
		in:  make(map[string]bridge.Bridge),
		out: make(map[string][]bridge.Bridge),
	}
}

func (d *dataStorage) addInput(portKey string, b bridge.Bridge) {
	d.in[portKey] = b
}

func (d *dataStorage) addOutput(portKey string, b bridge.Bridge) {
	d.out[portKey] = append(d.out[portKey], b)
}

// readySend opens every output bridge's sender side.
func (d *dataStorage) readySend() error {
	for _, bridges := range d.out {
		for _, b := range bridges {
			if err := b.ReadySend(); err != nil {
				return err
			}
		}
	}
	return nil
}

// readyRecv opens every input bridge's receiver side.
func (d *dataStorage) readyRecv() error {
	for _, b := range d.in {
		if err := b.ReadyRecv(); err != nil {
			return err
		}
	}
	return nil
}

// get returns, for every input port whose read cache already holds
// ctr, its value. Ports whose bridge has not yet delivered ctr are
// simply absent from the result — the caller's ShouldProcess decides
// whether that is enough to proceed.
func (d *dataStorage) get(ctr int64) map[string]interface{} {
	out := make(map[string]interface{}, len(d.in))
	for portKey, b := range d.in {
		if v, found := b.Get(ctr); found {
			out[portKey] = v
		}
	}
	return out
}

// put writes data to every output bridge fanning out from portKey.
func (d *dataStorage) put(portKey string, ctr int64, data interface{}) error {
	for _, b := range d.out[portKey] {
		if err := b.Put(ctr, data); err != nil {
			return err
		}
	}
	return nil
}

// discardBefore prunes every input bridge's read cache of entries
// older than ctr.
func (d *dataStorage) discardBefore(ctr int64) {
	for _, b := range d.in {
		b.DiscardBefore(ctr)
	}
}

// onAllClosed blocks until every input bridge has both closed and
// drained. Signals the node that no further inputs will ever arrive.
func (d *dataStorage) onAllClosed(ctx context.Context) error {
	if len(d.in) == 0 {
		return nil
	}
	g, gctx := errgroup.WithContext(ctx)
	for _, b := range d.in {
		b := b
		g.Go(func() error { return b.OnClose(gctx) })
	}
	return g.Wait()
}

// closeBridges closes every output bridge, propagating end-of-stream
// downstream.
func (d *dataStorage) closeBridges() error {
	var mu sync.Mutex
	var firstErr error
	for _, bridges := range d.out {
		for _, b := range bridges {
			if err := b.Close(); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			}
		}
	}
	return firstErr
}
