package dispatch

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildEnvelopeOverridesCallerMeta(t *testing.T) {
	payload := map[string]any{"to": "+1", "_meta": map[string]any{"execution_id": "forged"}}
	brand := "acme"

	raw, err := BuildEnvelope(payload, Meta{
		ExecutionID:  "exec-1",
		WorkflowName: "send-sms",
		Brand:        &brand,
		Timestamp:    FormatTimestamp(time.Date(2026, 1, 2, 3, 4, 5, 6_000_000, time.UTC)),
	})
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	meta := body["_meta"].(map[string]any)
	assert.Equal(t, "exec-1", meta["execution_id"])
	assert.Equal(t, "acme", meta["brand"])
	assert.Nil(t, meta["user_id"])
	assert.Equal(t, "2026-01-02T03:04:05.006Z", meta["timestamp"])
	assert.Equal(t, "+1", body["to"])

	// The caller's map is untouched.
	assert.Equal(t, "forged", payload["_meta"].(map[string]any)["execution_id"])
}

func TestParseOutput(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    any
		wantErr bool
	}{
		{"empty", "", map[string]any{}, false},
		{"whitespace", "  \n", map[string]any{}, false},
		{"null", "null", map[string]any{}, false},
		{"object", `{"ok":true}`, map[string]any{"ok": true}, false},
		{"array", `[1,2]`, []any{float64(1), float64(2)}, false},
		{"invalid", "nope", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseOutput([]byte(tt.body))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
