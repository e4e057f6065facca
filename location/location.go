// Package location parses and compares the worker placement grammar used
// throughout flowgraph: host:port:process:thread, right-anchored so any
// leading component may be omitted.
package location

import "strings"

// Location names a single worker: a cooperative task in the main thread
// of a process, a dedicated worker thread, or a dedicated worker process,
// optionally on a remote host.
type Location struct {
	Host    string // host[:port], empty means the local host
	Process string // empty means "no dedicated process" (grouped by thread only)
	Thread  string // empty means the main cooperative worker of its process
}

// Parse a location string. Components are read right to left: thread,
// process, port, host. A missing leading component defaults to empty.
// Examples:
//
//	""        -> {Host: "", Process: "", Thread: ""}
//	"1"       -> {Host: "", Process: "", Thread: "1"}
//	"1:2"     -> {Host: "", Process: "1", Thread: "2"}
//	"h:p:1:2" -> {Host: "h:p", Process: "1", Thread: "2"}
func Parse(s string) Location {
	var comps [4]string // [0]=thread [1]=process [2]=port [3]=host

	parts := strings.Split(s, ":")
	for i := 0; i < len(parts) && i < len(comps); i++ {
		comps[i] = parts[len(parts)-1-i]
	}

	host := comps[3]
	if comps[2] != "" {
		host = host + ":" + comps[2]
	}

	return Location{Host: host, Process: comps[1], Thread: comps[0]}
}

// String renders the location back to its canonical grammar form.
func (l Location) String() string {
	if l.Host == "" && l.Process == "" && l.Thread == "" {
		return ""
	}
	return l.Host + ":" + l.Process + ":" + l.Thread
}

// Equal reports whether two locations name the exact same worker.
func (l Location) Equal(o Location) bool {
	return l.Host == o.Host && l.Process == o.Process && l.Thread == o.Thread
}

// SameHost reports whether both locations resolve to the same host.
// An empty host always means "this host", so two empty hosts match.
func (l Location) SameHost(o Location) bool {
	return l.Host == o.Host
}

// SameProcess reports whether both locations share host and process.
func (l Location) SameProcess(o Location) bool {
	return l.SameHost(o) && l.Process == o.Process
}

// IsMainWorker reports whether this location names the main cooperative
// worker of its process (empty location, or empty process and thread).
func (l Location) IsMainWorker() bool {
	return l.Process == "" && l.Thread == ""
}

// GroupKey returns the key used by the graph launcher to group nodes into
// computers: nodes with an explicit Process are grouped into one
// ProcessComputer per process; nodes with no Process are grouped by
// Thread alone, inside the launching process.
func (l Location) GroupKey() string {
	if l.Process != "" {
		return "proc:" + l.Host + ":" + l.Process
	}
	return "thread:" + l.Host + ":" + l.Thread
}
