// Package logdrain forwards a ProcessComputer's log records to the
// launching process's logger over a dedicated NATS subject, the Go
// analogue of the original's drain_log_queue: a multiprocessing.Queue
// fed by a QueueHandler in the child and drained by a thread in the
// parent.
package logdrain

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/nats-io/nats.go"

	"github.com/brunotm/flowgraph/log"
)

// Subject returns the dedicated log-drain subject for a process name.
func Subject(process string) string {
	return fmt.Sprintf("_flowgraph.log.%s", process)
}

// entry is the wire record carried over the drain subject.
type entry struct {
	Level  string        `json:"level"`
	Msg    string        `json:"msg"`
	Fields []interface{} `json:"fields"`
}

// QueueHandler is a log.Logger that publishes every record to a NATS
// subject instead of writing locally — bound into a ProcessComputer's
// child computers in place of a direct logger, mirroring the original's
// QueueHandler attached to the `livenodes` logger inside the child
// process.
type QueueHandler struct {
	nc      *nats.Conn
	subject string
	base    []interface{}
}

// NewQueueHandler builds a publishing logger over nc, scoped to
// process's drain subject, with base key/value pairs attached to every
// record.
func NewQueueHandler(nc *nats.Conn, process string, base ...interface{}) *QueueHandler {
	return &QueueHandler{nc: nc, subject: Subject(process), base: base}
}

func (h *QueueHandler) publish(level, msg string, kv []interface{}) {
	fields := make([]interface{}, 0, len(h.base)+len(kv))
	fields = append(fields, h.base...)
	fields = append(fields, kv...)

	payload, err := json.Marshal(entry{Level: level, Msg: msg, Fields: fields})
	if err != nil {
		return
	}
	_ = h.nc.Publish(h.subject, payload)
}

func (h *QueueHandler) Infow(msg string, kv ...interface{})  { h.publish("info", msg, kv) }
func (h *QueueHandler) Warnw(msg string, kv ...interface{})  { h.publish("warn", msg, kv) }
func (h *QueueHandler) Errorw(msg string, kv ...interface{}) { h.publish("error", msg, kv) }
func (h *QueueHandler) Debugw(msg string, kv ...interface{}) { h.publish("debug", msg, kv) }

var _ log.Logger = (*QueueHandler)(nil)

// Drain subscribes to process's drain subject and replays every
// published record through target until Stop is signaled. StartDrain
// creates it from ProcessComputer's worker goroutine; the NATS
// subscription callback does the forwarding, the analogue of the
// original's drain_log_queue thread.
type Drain struct {
	sub    *nats.Subscription
	stopCh chan struct{}
	once   sync.Once
}

// StartDrain subscribes and begins forwarding records to target.
func StartDrain(nc *nats.Conn, process string, target log.Logger) (*Drain, error) {
	d := &Drain{stopCh: make(chan struct{})}

	sub, err := nc.Subscribe(Subject(process), func(msg *nats.Msg) {
		var e entry
		if err := json.Unmarshal(msg.Data, &e); err != nil {
			return
		}
		switch e.Level {
		case "warn":
			target.Warnw(e.Msg, e.Fields...)
		case "error":
			target.Errorw(e.Msg, e.Fields...)
		case "debug":
			target.Debugw(e.Msg, e.Fields...)
		default:
			target.Infow(e.Msg, e.Fields...)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("logdrain: subscribing to %s: %w", Subject(process), err)
	}

	d.sub = sub
	return d, nil
}

// Stop unsubscribes, ending the drain. Idempotent.
func (d *Drain) Stop() {
	d.once.Do(func() {
		if d.sub != nil {
			_ = d.sub.Unsubscribe()
		}
		close(d.stopCh)
	})
}

// Done returns a channel closed once Stop has run.
func (d *Drain) Done() <-chan struct{} { return d.stopCh }
