package bridge

import "sync"

// readCache is the receiver-side map of delivered-but-not-yet-consumed
// counter/payload pairs, populated lazily by Update and pruned by
// DiscardBefore.
type readCache struct {
	mu   sync.Mutex
	vals map[int64]interface{}
}

func newReadCache() *readCache {
	return &readCache{vals: make(map[int64]interface{})}
}

func (c *readCache) set(ctr int64, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals[ctr] = value
}

func (c *readCache) get(ctr int64) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.vals[ctr]
	return v, ok
}

func (c *readCache) discardBefore(ctr int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.vals {
		if k < ctr {
			delete(c.vals, k)
		}
	}
}
