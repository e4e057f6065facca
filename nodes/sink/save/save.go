// Package save implements the terminal sink every scenario converges
// on: it persists each converged "value" to a bound durable store,
// keyed by counter, and keeps an in-memory order for callers that just
// want to observe what arrived.
package save

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/brunotm/flowgraph/config"
	"github.com/brunotm/flowgraph/node"
	"github.com/brunotm/flowgraph/port"
	"github.com/brunotm/flowgraph/registry"
	"github.com/brunotm/flowgraph/store"
)

// Class is the registry name this node is registered under.
const Class = "Save"

// storeName is the store Save opens via Context.Store, bound onto the
// owning node with Node.BindStore before Lock.
const storeName = "save"

// Save persists every converged "value" to its bound store and
// retains the arrival order in memory.
type Save struct {
	mu     sync.Mutex
	values []interface{}
}

// New builds a Save behavior and its declared ports.
func New(settings config.Config) (behavior interface{}, portsIn, portsOut *port.Collection, err error) {
	portsIn = port.NewCollection(port.NewAny("value", false))
	return &Save{}, portsIn, nil, nil
}

// Register adds the Save class to reg.
func Register(reg *registry.Nodes) {
	reg.Register(Class, New)
}

// StoreName is the name Save's store must be bound under via
// Node.BindStore.
func StoreName() string { return storeName }

func (s *Save) OnStart(ctx node.Context) error { return nil }
func (s *Save) OnStop(ctx node.Context) error  { return nil }

// Process persists the converged "value" keyed by ctr and appends it
// to the in-memory order.
func (s *Save) Process(ctx node.Context, inputs map[string]interface{}, ctr int64) (node.Result, error) {
	value := inputs["value"]

	s.mu.Lock()
	s.values = append(s.values, value)
	s.mu.Unlock()

	var st store.Store
	var err error
	if st, err = ctx.Store(storeName); err != nil {
		return node.Result{}, err
	}
	return node.Result{}, st.Set([]byte(strconv.FormatInt(ctr, 10)), []byte(formatValue(value)))
}

// Values returns every value Save has observed, in arrival order.
func (s *Save) Values() []interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]interface{}, len(s.values))
	copy(out, s.values)
	return out
}

func formatValue(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return fmt.Sprint(v)
	}
}
