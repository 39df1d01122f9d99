package logging

import (
	"bytes"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := WithRun(Component(New(&buf, "debug", FormatJSON), "parser"), "run-1")

	log.Debug().Int("messages", 3).Msg("parsed chat")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "debug", entry["level"])
	assert.Equal(t, "parser", entry["component"])
	assert.Equal(t, "run-1", entry["run_id"])
	assert.Equal(t, "parsed chat", entry["message"])
	assert.EqualValues(t, 3, entry["messages"])
}

func TestNew_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "warn", FormatJSON)

	log.Info().Msg("hidden")
	assert.Zero(t, buf.Len())

	log.Warn().Msg("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestNew_UnknownLevelIsInfo(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "loud", FormatJSON)

	log.Debug().Msg("hidden")
	log.Info().Msg("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestNew_Console(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, "info", FormatConsole).Info().Str("file", "IMG-1.jpg").Msg("unmatched")
	assert.Contains(t, buf.String(), "unmatched")
	assert.Contains(t, buf.String(), "file=")
}
