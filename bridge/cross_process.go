package bridge

import (
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/brunotm/flowgraph/location"
)

func sameHostDifferentProcess(emit, recv location.Location) bool {
	return !emit.SameProcess(recv) && emit.SameHost(recv)
}

func anyLocations(emit, recv location.Location) bool { return true }

// crossProcessAsyncVariant carries data between threads of different
// OS processes (same host) over NATS core pub/sub. Put publishes and
// returns immediately; a background subscription feeds the same
// in-process queue/read-cache machinery every other variant uses, so
// Update/Get/DiscardBefore behave identically regardless of transport.
type crossProcessAsyncVariant struct {
	url string
}

// NewCrossProcessAsyncVariant returns the cost-3 variant. An empty url
// uses the shared embedded NATS server.
func NewCrossProcessAsyncVariant(url string) Variant {
	return crossProcessAsyncVariant{url: url}
}

func (v crossProcessAsyncVariant) Cost() Cost { return CostCrossProcessAsync }

func (v crossProcessAsyncVariant) CanHandle(emit, recv location.Location) bool {
	return sameHostDifferentProcess(emit, recv)
}

func (v crossProcessAsyncVariant) New(emit, recv location.Location) (Bridge, error) {
	return newNATSBridge(v.url, subjectFor(emit, recv), CostCrossProcessAsync, sameHostDifferentProcess)
}

// crossProcessSyncVariant is mechanically identical; kept distinct only
// for cost-table fidelity with the original (see same_process.go).
type crossProcessSyncVariant struct {
	url string
}

// NewCrossProcessSyncVariant returns the cost-5 variant.
func NewCrossProcessSyncVariant(url string) Variant {
	return crossProcessSyncVariant{url: url}
}

func (v crossProcessSyncVariant) Cost() Cost { return CostCrossProcessSync }

func (v crossProcessSyncVariant) CanHandle(emit, recv location.Location) bool {
	return sameHostDifferentProcess(emit, recv)
}

func (v crossProcessSyncVariant) New(emit, recv location.Location) (Bridge, error) {
	return newNATSBridge(v.url, subjectFor(emit, recv), CostCrossProcessSync, sameHostDifferentProcess)
}

// crossHostVariant is identical in mechanism to the cross-process
// variants but matches across distinct hosts too. Excluded from the
// default registry; graph.Options.EnableCrossHost adds it.
type crossHostVariant struct {
	url string
}

// NewCrossHostVariant returns the cost-6, opt-in variant for delivery
// across distinct hosts.
func NewCrossHostVariant(url string) Variant {
	return crossHostVariant{url: url}
}

func (v crossHostVariant) Cost() Cost { return CostCrossHost }

func (v crossHostVariant) CanHandle(emit, recv location.Location) bool { return true }

func (v crossHostVariant) New(emit, recv location.Location) (Bridge, error) {
	return newNATSBridge(v.url, subjectFor(emit, recv), CostCrossHost, anyLocations)
}

func subjectFor(emit, recv location.Location) string {
	return fmt.Sprintf("flowgraph.bridge.%s.%s", sanitizeSubject(emit.String()), sanitizeSubject(recv.String()))
}

func sanitizeSubject(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	if len(out) == 0 {
		return "_"
	}
	return string(out)
}

// natsBridge publishes Put calls onto a NATS subject and feeds a
// background subscription's messages into the same queueBridge every
// in-process variant uses, so the receiver-facing half of the Bridge
// contract (Update/Get/DiscardBefore/OnClose) is identical across
// transports.
type natsBridge struct {
	*queueBridge

	conn    *nats.Conn
	sub     *nats.Subscription
	subject string
}

func newNATSBridge(url, subject string, cost Cost, canHandle func(location.Location, location.Location) bool) (Bridge, error) {
	conn, err := dial(url)
	if err != nil {
		return nil, fmt.Errorf("bridge: connecting to nats: %w", err)
	}

	b := &natsBridge{queueBridge: newQueueBridge(cost, canHandle), conn: conn, subject: subject}

	sub, err := conn.Subscribe(subject, func(msg *nats.Msg) {
		ctr, payload, decodeErr := decodeEnvelope(msg.Data)
		if decodeErr != nil {
			return
		}
		b.q.push(item{ctr: ctr, payload: payload})
	})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("bridge: subscribing to %s: %w", subject, err)
	}
	b.sub = sub

	return b, nil
}

func (b *natsBridge) Put(ctr int64, payload interface{}) error {
	data, err := encodeEnvelope(ctr, payload)
	if err != nil {
		return err
	}
	return b.conn.Publish(b.subject, data)
}

func (b *natsBridge) Close() error {
	_ = b.queueBridge.Close()
	_ = b.sub.Unsubscribe()
	b.conn.Close()
	Release()
	return nil
}
