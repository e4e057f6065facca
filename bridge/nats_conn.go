package bridge

import (
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
)

// connectTimeout bounds how long a variant waits for the embedded NATS
// server to come up.
const connectTimeout = 5 * time.Second

// EmbeddedServer wraps an in-process NATS server used by the
// cross-process and cross-host variants when no external broker URL is
// configured. It exists so a single OS process hosting multiple
// computers (or a test) never needs an externally managed broker.
type EmbeddedServer struct {
	mu     sync.Mutex
	srv    *server.Server
	url    string
	refs   int
}

var embedded = &EmbeddedServer{}

// ConnURL starts the shared embedded server on first use and returns
// its client URL. Subsequent callers reuse the same instance; Release
// shuts it down once every caller has released it.
func ConnURL() (string, error) {
	embedded.mu.Lock()
	defer embedded.mu.Unlock()

	if embedded.srv == nil {
		opts := &server.Options{Host: "127.0.0.1", Port: -1, NoLog: true, NoSigs: true}
		srv, err := server.NewServer(opts)
		if err != nil {
			return "", fmt.Errorf("bridge: starting embedded nats server: %w", err)
		}
		go srv.Start()
		if !srv.ReadyForConnections(connectTimeout) {
			return "", fmt.Errorf("bridge: embedded nats server did not become ready")
		}
		embedded.srv = srv
		embedded.url = srv.ClientURL()
	}
	embedded.refs++
	return embedded.url, nil
}

// Release drops a reference to the embedded server, shutting it down
// once unused.
func Release() {
	embedded.mu.Lock()
	defer embedded.mu.Unlock()

	embedded.refs--
	if embedded.refs <= 0 && embedded.srv != nil {
		embedded.srv.Shutdown()
		embedded.srv = nil
		embedded.refs = 0
	}
}

// dial connects to the given URL, or the embedded server when url is
// empty.
func dial(url string) (*nats.Conn, error) {
	if url == "" {
		u, err := ConnURL()
		if err != nil {
			return nil, err
		}
		url = u
	}
	return nats.Connect(url)
}
