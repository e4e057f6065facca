package bridge

import "encoding/json"

// envelope is the wire shape for a cross-process/cross-host Put: the
// packet counter travels alongside its payload since NATS carries no
// header the read cache can key on otherwise.
type envelope struct {
	Ctr     int64       `json:"ctr"`
	Payload interface{} `json:"payload"`
}

// encodeEnvelope wraps every value crossing a NATS transport in JSON.
// The graph's own document format uses YAML (see package serialize);
// wire payloads use JSON because it is cheaper to encode per-tick and
// any language a cross-host peer might be written in can decode it
// without a shared schema.
func encodeEnvelope(ctr int64, payload interface{}) ([]byte, error) {
	return json.Marshal(envelope{Ctr: ctr, Payload: payload})
}

func decodeEnvelope(data []byte) (int64, interface{}, error) {
	var e envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return 0, nil, err
	}
	return e.Ctr, e.Payload, nil
}
