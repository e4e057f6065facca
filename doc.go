// Package flowgraph is a dataflow execution engine for streaming
// computation expressed as a DAG of typed, stateful nodes. Nodes are
// wired by connections, transported by cost-ranked bridges, driven by
// per-location cooperative schedulers (computer.Computer /
// computer.ProcessComputer), and brought up and torn down by a graph
// launcher (graph.Graph) following lock -> ready -> start ->
// join/stop -> close.
//
// This package is a thin façade tying the subpackages together for the
// common case: build nodes and connections directly, or load them from
// a serialized document, then hand them to graph.New.
package flowgraph
