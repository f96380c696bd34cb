package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesJSONWithFields(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf).WithField("component", "test")

	log.Warn().Str("title", "Monitor").Msg("skipping record")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "test", entry["component"])
	assert.Equal(t, "Monitor", entry["title"])
	assert.Equal(t, "skipping record", entry["message"])
}

func TestWithErrorAndFields(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf).WithFields(Fields{"alert_id": 3}).WithError(errors.New("boom"))

	log.Error().Msg("check failed")

	out := buf.String()
	assert.Contains(t, out, `"alert_id":3`)
	assert.Contains(t, out, `"error":"boom"`)
	assert.Equal(t, 1, strings.Count(out, "\n"))
}

func TestNopDiscards(t *testing.T) {
	assert.NotPanics(t, func() {
		Nop().Info().Msg("nothing")
	})
}

func TestComponentLoggersInitDefault(t *testing.T) {
	Default = nil
	l := ForAlerts()
	assert.NotNil(t, l)
	assert.NotNil(t, Default)
}
