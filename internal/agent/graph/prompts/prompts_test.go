package prompts

import (
	"context"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderClassifier(t *testing.T) {
	history := []*schema.Message{
		schema.UserMessage("weather in {Oslo}"),
		schema.AssistantMessage("cold", nil),
	}
	msgs, err := RenderClassifier(context.Background(), history)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, schema.System, msgs[0].Role)
	assert.Contains(t, msgs[0].Content, "WEATHER, NEWS, or BOTH.")
	assert.Equal(t, "weather in {Oslo}", msgs[1].Content)
	assert.Equal(t, schema.Assistant, msgs[2].Role)
}

func TestRenderClassifierEmptyHistory(t *testing.T) {
	msgs, err := RenderClassifier(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, msgs, 1)
}

func TestRenderSynthesis(t *testing.T) {
	out := "Weather in Oslo:\n- Temperature: {cold}"
	msgs, err := RenderSynthesis(context.Background(), out)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, schema.System, msgs[0].Role)
	assert.Contains(t, msgs[0].Content, "do NOT remove or summarize")
	assert.Equal(t, schema.User, msgs[1].Role)
	assert.Equal(t, out, msgs[1].Content)
}
