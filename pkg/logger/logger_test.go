package logx

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/weathernews-agent/server/internal/core"
)

func TestInitProductionWritesJSONAtInfo(t *testing.T) {
	var buf bytes.Buffer
	Init(LoggerOpts{Environment: core.Production, Out: &buf})

	Debug().Msg("hidden")
	Info().Str("session_id", "s1").Msg("visible")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"session_id":"s1"`)
	assert.Contains(t, out, `"message":"visible"`)
}

func TestInitDebugEnablesDebugLevel(t *testing.T) {
	var buf bytes.Buffer
	Init(LoggerOpts{Environment: core.Production, Debug: true, Out: &buf})

	Debug().Msg("now visible")
	assert.Contains(t, buf.String(), "now visible")
}
