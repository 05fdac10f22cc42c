package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"trace":   zerolog.TraceLevel,
		"DEBUG":   zerolog.DebugLevel,
		" info ":  zerolog.InfoLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"":        zerolog.InfoLevel,
		"verbose": zerolog.InfoLevel,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLevel(in), "level %q", in)
	}
}

func TestGet_PanicsBeforeInit(t *testing.T) {
	Reset()
	assert.Panics(t, func() { Get() })
}

func TestInit_WritesJSONWithServiceAndComponent(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	var buf bytes.Buffer
	Init(Options{Level: "debug", Output: &buf})

	log := Component("poller")
	log.Debug().Str("order", "1001").Msg("polling")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "driver-tracker", line["service"])
	assert.Equal(t, "poller", line["component"])
	assert.Equal(t, "1001", line["order"])
	assert.Equal(t, "polling", line["message"])
	assert.Equal(t, "debug", line["level"])
}

func TestInit_OnlyFirstCallApplies(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	var first, second bytes.Buffer
	Init(Options{Level: "warn", Output: &first})
	Init(Options{Level: "debug", Output: &second})

	log := Get()
	log.Info().Msg("filtered")
	log.Warn().Msg("kept")

	assert.NotContains(t, first.String(), "filtered")
	assert.Contains(t, first.String(), "kept")
	assert.Zero(t, second.Len())
}
