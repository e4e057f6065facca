package node

import (
	"fmt"

	"github.com/brunotm/flowgraph/config"
	"github.com/brunotm/flowgraph/log"
	"github.com/brunotm/flowgraph/store"
)

// Context is the execution handle passed to every user hook
// (OnStart/OnStop/Process/Run): node identity, settings,
// contextual logging, store access, the counter currently being
// processed, and return accumulation. Its method set is a superset of
// store.Context, so a Context satisfies that interface without an
// explicit conversion.
type Context interface {
	// NodeName returns the owning node's stable identity
	// ("<name> [<ClassName>]").
	NodeName() string
	// Config returns the node's settings subdictionary.
	Config() config.Config
	// Logger returns a logger pre-populated with this node's
	// contextual fields.
	Logger() log.Logger
	// Ctr returns the counter currently being processed. Valid only
	// for the duration of one Process/Run call.
	Ctr() int64
	// Store opens (creating on first use) the named durable store
	// backing this node, using the supplier bound with Node.BindStore.
	Store(name string) (store.Store, error)
	// RetAccu stages a partial emission for port, to be included in
	// the map returned by the next RetFlush call. Lets a node build up
	// a multi-port return across several internal steps before a
	// single Process/Run call returns.
	RetAccu(port string, value interface{})
	// RetFlush returns and clears the accumulated emissions staged via
	// RetAccu.
	RetFlush() map[string]interface{}
}

// execContext is the concrete Context implementation threaded through
// one node's runtime loop.
type execContext struct {
	node   *Node
	logger log.Logger
	ctr    int64
	accu   map[string]interface{}
}

func newExecContext(n *Node) *execContext {
	return &execContext{
		node:   n,
		logger: log.New("node", n.Identity(), "location", n.ComputeOn().String()),
	}
}

func (c *execContext) NodeName() string      { return c.node.Identity() }
func (c *execContext) Config() config.Config { return c.node.Settings() }
func (c *execContext) Logger() log.Logger    { return c.logger }
func (c *execContext) Ctr() int64            { return c.ctr }

func (c *execContext) Store(name string) (store.Store, error) {
	s, err := c.node.openStore(c, name)
	if err != nil {
		return nil, fmt.Errorf("node: opening store %q: %w", name, err)
	}
	return s, nil
}

func (c *execContext) RetAccu(port string, value interface{}) {
	if c.accu == nil {
		c.accu = make(map[string]interface{})
	}
	c.accu[port] = value
}

func (c *execContext) RetFlush() map[string]interface{} {
	flushed := c.accu
	c.accu = nil
	return flushed
}
