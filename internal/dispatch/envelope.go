package dispatch

import (
	"encoding/json"
	"time"
)

// MetaKey is the envelope key added to every outbound payload.
const MetaKey = "_meta"

// Meta lets the remote side correlate a call back to its ledger record.
// Brand and UserID serialize as null when absent.
type Meta struct {
	ExecutionID  string  `json:"execution_id"`
	WorkflowName string  `json:"workflow_name"`
	Brand        *string `json:"brand"`
	UserID       *string `json:"user_id"`
	Timestamp    string  `json:"timestamp"`
}

// FormatTimestamp renders t as UTC ISO-8601 with millisecond precision.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

// BuildEnvelope returns the JSON body {...payload, _meta: meta}.
// A caller-supplied _meta key is replaced. payload is not modified.
func BuildEnvelope(payload map[string]any, meta Meta) ([]byte, error) {
	body := make(map[string]any, len(payload)+1)
	for k, v := range payload {
		body[k] = v
	}
	body[MetaKey] = meta
	return json.Marshal(body)
}
