package events

import (
	"encoding/json"
	"time"
)

// Event types published during a pipeline run.
const (
	TypePing        = "ping"
	TypeRunStarted  = "run_started"
	TypeBatchLoaded = "batch_loaded"
	TypeTableLoaded = "table_loaded"
	TypeRunFinished = "run_finished"
	TypeScrapeDone  = "scrape_done"
)

// Event is the envelope every SSE message carries. Seq increases by one per
// event published through a Hub, so a client that sees a gap knows it was
// too slow and dropped messages.
type Event struct {
	Type      string          `json:"type"`
	Version   int             `json:"v"`
	Seq       uint64          `json:"seq,omitempty"`
	At        time.Time       `json:"at"`
	RequestID string          `json:"request_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

func (e Event) encode() string {
	b, _ := json.Marshal(e)
	return string(b)
}

func newEvent(reqID, typ string, v int, data any) Event {
	var raw json.RawMessage
	if data != nil {
		if b, err := json.Marshal(data); err == nil {
			raw = b
		}
	}
	return Event{
		Type:      typ,
		Version:   v,
		At:        time.Now().UTC(),
		RequestID: reqID,
		Data:      raw,
	}
}

// MakeEvent encodes an unsequenced event, such as a per-connection ping.
// reqID ties the event to the HTTP request or pipeline run that caused it.
func MakeEvent(reqID, typ string, v int, data any) string {
	return newEvent(reqID, typ, v, data).encode()
}

// Decode parses an encoded envelope.
func Decode(msg string) (Event, error) {
	var e Event
	err := json.Unmarshal([]byte(msg), &e)
	return e, err
}
