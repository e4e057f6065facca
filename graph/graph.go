// Package graph implements the launcher that turns a declared set of
// nodes and connections into running workers: lock the graph, resolve a
// bridge per connection, group nodes into computers by location, and
// sequence the ready/start/join/stop/close phases across all of them.
package graph

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/brunotm/flowgraph/bridge"
	"github.com/brunotm/flowgraph/computer"
	"github.com/brunotm/flowgraph/log"
	"github.com/brunotm/flowgraph/node"
)

// DefaultStopTimeout and DefaultCloseTimeout are the inner timeouts each
// ProcessComputer gives its child computers for graceful drain and
// forced teardown respectively, matching the original's
// stop_timeout/close_timeout defaults. StopAll takes its own timeouts.
const (
	DefaultStopTimeout  = 300 * time.Millisecond
	DefaultCloseTimeout = 500 * time.Millisecond
)

// Options configures a Graph's launch behavior.
type Options struct {
	// EnableCrossHost registers the cross-host bridge variant on this
	// graph's registry. Off by default: cross-host distribution is a
	// Non-goal unless explicitly opted into.
	EnableCrossHost bool
	// CrossHostURL is the broker URL the cross-host variant connects
	// to when EnableCrossHost is set. Empty uses the shared embedded
	// NATS server (single-host testing/demo use only).
	CrossHostURL string
}

// computerHandle is the lifecycle every grouping (computer.Computer,
// computer.ProcessComputer) exposes; Graph drives groups through it
// uniformly without caring which kind backs a given location group.
type computerHandle interface {
	Setup()
	Start()
	Join()
	Stop(timeout time.Duration)
	Close(timeout time.Duration)
	IsFinished() bool
	Nodes() []*node.Node
	String() string
}

// Graph owns every node of one dataflow topology and launches it as a
// set of computers, one per distinct location group.
type Graph struct {
	nodes    []*node.Node
	registry *bridge.Registry
	opts     Options
	logger   log.Logger

	computers []computerHandle
}

// New declares a Graph over nodes, resolving bridges from registry at
// StartAll time. When opts.EnableCrossHost is set, the cross-host
// variant is registered onto registry here, so a caller never needs to
// opt in at two separate call sites.
func New(nodes []*node.Node, registry *bridge.Registry, opts Options) *Graph {
	if opts.EnableCrossHost {
		registry.Register(bridge.NewCrossHostVariant(opts.CrossHostURL))
	}
	return &Graph{nodes: nodes, registry: registry, opts: opts, logger: log.New("component", "graph")}
}

// LockAll freezes every node, builds its Runtime, and resolves a bridge
// per input connection — the "Lock" phase of StartAll, exposed
// separately so callers can inspect the resolved wiring before
// launching (e.g. the admin introspection surface).
func (g *Graph) LockAll() error {
	for _, n := range g.nodes {
		if n.Runtime() == nil {
			node.NewRuntime(n)
		}
	}

	for _, n := range g.nodes {
		for _, c := range n.InputConnections() {
			b, err := g.registry.Resolve(c.EmitNode.(*node.Node).ComputeOn(), c.RecvNode.(*node.Node).ComputeOn())
			if err != nil {
				return fmt.Errorf("graph: resolving bridge for %s: %w", c.String(), err)
			}
			c.EmitNode.(*node.Node).Runtime().BindOutputBridge(c.EmitPort.Key(), b)
			c.RecvNode.(*node.Node).Runtime().BindInputBridge(c.RecvPort.Key(), b)
		}
	}

	for _, n := range g.nodes {
		n.Lock()
	}
	return nil
}

// StartAll locks the graph, groups nodes by location into computers
// (one Computer per thread group, one ProcessComputer per process
// group), and sequences setup then start across every group.
func (g *Graph) StartAll() error {
	if err := g.LockAll(); err != nil {
		return err
	}

	groups := make(map[string][]*node.Node)
	var order []string
	for _, n := range g.nodes {
		key := n.ComputeOn().GroupKey()
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], n)
	}
	sort.Strings(order)

	g.computers = g.computers[:0]
	for _, key := range order {
		group := groups[key]
		loc := group[0].ComputeOn()
		if loc.Process != "" {
			g.logger.Infow("resolving process computer group", "location", loc.String(), "nodes", len(group))
			g.computers = append(g.computers, computer.NewProcess(loc, group, DefaultStopTimeout, DefaultCloseTimeout))
			continue
		}
		g.logger.Infow("resolving computer group", "location", loc.String(), "nodes", len(group))
		g.computers = append(g.computers, computer.New(loc, group))
	}

	for _, cmp := range g.computers {
		cmp.Setup()
	}
	for _, cmp := range g.computers {
		cmp.Start()
	}
	return nil
}

// IsFinished reports whether every computer has finished.
func (g *Graph) IsFinished() bool {
	for _, cmp := range g.computers {
		if !cmp.IsFinished() {
			return false
		}
	}
	return true
}

// JoinAll blocks until every computer has finished on its own (every
// Producer exhausted and every downstream node's inputs closed).
func (g *Graph) JoinAll() {
	for _, cmp := range g.computers {
		cmp.Join()
	}
}

// StopAll gracefully stops every computer (releasing its stop gate and
// joining up to stopTimeout), then forces teardown of any computer
// still alive (releasing its close gate and joining up to
// closeTimeout).
func (g *Graph) StopAll(stopTimeout, closeTimeout time.Duration) {
	for _, cmp := range g.computers {
		cmp.Stop(stopTimeout)
	}
	for _, cmp := range g.computers {
		if !cmp.IsFinished() {
			cmp.Close(closeTimeout)
		}
	}
}

// Nodes returns every node this graph owns.
func (g *Graph) Nodes() []*node.Node { return g.nodes }

// NodeByIdentity returns the node with the given "<name> [<Class>]"
// identity, or nil if none matches.
func (g *Graph) NodeByIdentity(identity string) *node.Node {
	for _, n := range g.nodes {
		if n.Identity() == identity {
			return n
		}
	}
	return nil
}

// ComputerStatus is a read-only snapshot of one running computer,
// surfaced over the admin introspection HTTP routes.
type ComputerStatus struct {
	Location string
	Finished bool
	Nodes    []string
}

// ComputerStatuses snapshots every computer's location, termination
// state, and owned node identities.
func (g *Graph) ComputerStatuses() []ComputerStatus {
	out := make([]ComputerStatus, 0, len(g.computers))
	for _, cmp := range g.computers {
		nodes := cmp.Nodes()
		names := make([]string, 0, len(nodes))
		for _, n := range nodes {
			names = append(names, n.Identity())
		}
		out = append(out, ComputerStatus{
			Location: cmp.String(),
			Finished: cmp.IsFinished(),
			Nodes:    names,
		})
	}
	return out
}

// DotGraph renders this graph's connections as a DOT digraph: one edge
// per connection, labeled with the emitting/receiving port pair.
func (g *Graph) DotGraph() string {
	sb := &strings.Builder{}
	sb.WriteString("digraph FlowGraph {\nrankdir=LR;\n")
	for _, n := range g.nodes {
		for _, c := range n.OutputConnections() {
			fmt.Fprintf(sb, "%q -> %q [label=%q];\n",
				c.EmitNode.Identity(), c.RecvNode.Identity(),
				fmt.Sprintf("%s -> %s", c.EmitPort.Key(), c.RecvPort.Key()))
		}
	}
	sb.WriteString("}\n")
	return sb.String()
}
