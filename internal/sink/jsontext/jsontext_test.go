package jsontext

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-runtime/contextfusion/pkg/contextmodel"
)

func TestSink_JSONFormatOmitsAbsentOptionalFields(t *testing.T) {
	var buf bytes.Buffer
	s := New(&buf, FormatJSON)

	ev := contextmodel.ContextEvent{
		ID:          "evt-1",
		Kind:        contextmodel.EventAppSwitch,
		TimestampMs: 42,
		ToContext: contextmodel.ContextSnapshot{
			App: contextmodel.AppInfo{Name: "Finder", BundleID: "com.apple.finder", PID: 100},
		},
	}
	require.NoError(t, s.Deliver(context.Background(), ev))

	line := strings.TrimSpace(buf.String())
	assert.True(t, strings.HasSuffix(buf.String(), "\n"))

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(line), &decoded))
	assert.Equal(t, "app_switch", decoded["event_type"])
	assert.Equal(t, "Finder", decoded["to_context"].(map[string]interface{})["app_name"])
	_, hasFrom := decoded["from_context"]
	assert.False(t, hasFrom)
}

func TestSink_TextFormatAppSwitch(t *testing.T) {
	var buf bytes.Buffer
	s := New(&buf, FormatText)

	ev := contextmodel.ContextEvent{
		Kind: contextmodel.EventAppSwitch,
		ToContext: contextmodel.ContextSnapshot{
			App: contextmodel.AppInfo{Name: "Safari", BundleID: "com.apple.Safari", PID: 5},
		},
	}
	require.NoError(t, s.Deliver(context.Background(), ev))

	out := buf.String()
	assert.Contains(t, out, "app_switch")
	assert.Contains(t, out, "from: None")
	assert.Contains(t, out, "Safari")
}

func TestSink_DefaultsToJSONForUnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	s := New(&buf, Format("bogus"))
	assert.Equal(t, FormatJSON, s.format)
}
