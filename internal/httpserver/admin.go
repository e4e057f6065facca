package httpserver

import (
	"encoding/json"
	"net/http"

	"github.com/brunotm/flowgraph/graph"
	"github.com/brunotm/flowgraph/node"
)

// nodeStatus is the JSON shape returned by GET /nodes/:name.
type nodeStatus struct {
	Identity string
	Locked   bool
	Finished bool
	Stats    node.Stats
}

// RegisterGraphRoutes binds the engine's admin/introspection routes
// onto s: GET /graph (a DOT topology dump), GET /computers (per-computer
// finished/location state), and GET /nodes/:name (per-node lifecycle
// and call stats). This is the observability surface a running graph
// exposes; it never mutates the graph it reports on.
func RegisterGraphRoutes(s *Server, g *graph.Graph) {
	s.AddHandler("GET", "/graph", func(w http.ResponseWriter, r *http.Request, _ Params) {
		w.Header().Set("Content-Type", "text/vnd.graphviz")
		w.Write([]byte(g.DotGraph()))
	})

	s.AddHandler("GET", "/computers", func(w http.ResponseWriter, r *http.Request, _ Params) {
		writeJSON(w, g.ComputerStatuses())
	})

	s.AddHandler("GET", "/nodes/:name", func(w http.ResponseWriter, r *http.Request, ps Params) {
		n := g.NodeByIdentity(ps.ByName("name"))
		if n == nil {
			http.Error(w, "node not found", http.StatusNotFound)
			return
		}

		status := nodeStatus{Identity: n.Identity(), Locked: n.Locked()}
		if rt := n.Runtime(); rt != nil {
			status.Finished = rt.IsFinished()
			status.Stats = rt.Stats()
		}
		writeJSON(w, status)
	})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
