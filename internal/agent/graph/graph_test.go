package graph

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weathernews-agent/server/internal/agent/graph/conversations"
	"github.com/weathernews-agent/server/internal/agent/graph/nodes"
	"github.com/weathernews-agent/server/internal/agent/model"
	errx "github.com/weathernews-agent/server/internal/core/error"
)

// scriptedModel replies with a fixed message, or err when set, and records every request.
type scriptedModel struct {
	mu    sync.Mutex
	reply string
	err   error
	calls [][]*schema.Message
}

func (m *scriptedModel) Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, input)
	if m.err != nil {
		return nil, m.err
	}
	return &schema.Message{
		Role:    schema.Assistant,
		Content: m.reply,
		ResponseMeta: &schema.ResponseMeta{
			Usage: &schema.TokenUsage{PromptTokens: 100, CompletionTokens: 10, TotalTokens: 110},
		},
	}, nil
}

func (m *scriptedModel) Stream(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func (m *scriptedModel) requests() [][]*schema.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type fakeWeather struct {
	cities []string
}

func (f *fakeWeather) GetWeather(ctx context.Context, city string) string {
	f.cities = append(f.cities, city)
	return "Weather in " + city + ":\n- Temperature: 21 °C"
}

type fakeNews struct {
	queries []string
}

func (f *fakeNews) GetNews(ctx context.Context, query string) string {
	f.queries = append(f.queries, query)
	return "📰 **Title:** Headline"
}

type harness struct {
	classifier *scriptedModel
	synthesis  *scriptedModel
	weather    *fakeWeather
	news       *fakeNews
	mm         *conversations.MessagesManager
	runner     Runner
}

func newHarness(t *testing.T, label string) *harness {
	t.Helper()
	h := &harness{
		classifier: &scriptedModel{reply: label},
		synthesis:  &scriptedModel{reply: "Here is your summary."},
		weather:    &fakeWeather{},
		news:       &fakeNews{},
		mm:         conversations.NewMessagesManager(conversations.NewConversationMemory(3)),
	}
	runner, err := NewRunner(context.Background(), &Dependencies{
		ChatModels: &nodes.ChatModels{
			Classifier:          h.classifier,
			Synthesis:           h.synthesis,
			ClassifierModelName: "gemini-2.5-flash-lite",
			SynthesisModelName:  "gemini-2.5-flash",
		},
		Weather: h.weather,
		News:    h.news,
	}, h.mm)
	require.NoError(t, err)
	h.runner = runner
	return h
}

func (h *harness) invoke(t *testing.T, query string) (string, error) {
	t.Helper()
	return h.runner.Invoke(context.Background(), model.QueryInput{SessionID: "s1", Query: query})
}

func toolOutput(t *testing.T, m *scriptedModel) string {
	t.Helper()
	reqs := m.requests()
	require.NotEmpty(t, reqs)
	last := reqs[len(reqs)-1]
	require.Len(t, last, 2)
	return last[1].Content
}

func TestInvokeWeather(t *testing.T) {
	h := newHarness(t, "WEATHER")

	reply, err := h.invoke(t, "What's the weather in Tokyo")
	require.NoError(t, err)
	assert.Equal(t, "Here is your summary.", reply)

	assert.Equal(t, []string{"Tokyo"}, h.weather.cities)
	assert.Empty(t, h.news.queries)
	assert.Equal(t, "tokyo", h.mm.Memory().LastLocation())

	turns := h.mm.Memory().Turns()
	require.Len(t, turns, 2)
	assert.Equal(t, model.Turn{Role: model.RoleUser, Content: "What's the weather in Tokyo"}, turns[0])
	assert.Equal(t, model.Turn{Role: model.RoleAssistant, Content: "Here is your summary."}, turns[1])
}

func TestInvokeWeatherUsesRememberedLocation(t *testing.T) {
	h := newHarness(t, "WEATHER")

	_, err := h.invoke(t, "weather in Paris")
	require.NoError(t, err)
	_, err = h.invoke(t, "and tomorrow?")
	require.NoError(t, err)

	assert.Equal(t, []string{"Paris", "paris"}, h.weather.cities)
}

func TestInvokeWeatherWithoutLocation(t *testing.T) {
	h := newHarness(t, "WEATHER")

	_, err := h.invoke(t, "is it raining")
	require.NoError(t, err)

	assert.Equal(t, []string{""}, h.weather.cities)
	assert.Empty(t, h.mm.Memory().LastLocation())
}

func TestInvokeNewsPassesRawQuery(t *testing.T) {
	h := newHarness(t, "NEWS")

	_, err := h.invoke(t, "latest tech news in Berlin")
	require.NoError(t, err)

	assert.Equal(t, []string{"latest tech news in Berlin"}, h.news.queries)
	assert.Empty(t, h.weather.cities)
	assert.Empty(t, h.mm.Memory().LastLocation())
	assert.Equal(t, "📰 **Title:** Headline", toolOutput(t, h.synthesis))
}

func TestInvokeBoth(t *testing.T) {
	h := newHarness(t, "BOTH")

	_, err := h.invoke(t, "weather and news in London")
	require.NoError(t, err)

	assert.Equal(t, []string{"London"}, h.weather.cities)
	assert.Equal(t, []string{"weather and news in London"}, h.news.queries)

	out := toolOutput(t, h.synthesis)
	assert.Equal(t, "Weather in London:\n- Temperature: 21 °C\n\n📰 **Title:** Headline", out)
	assert.Len(t, h.mm.Memory().Turns(), 2)
}

func TestInvokeUnknownSkipsTools(t *testing.T) {
	for _, label := range []string{"UNKNOWN", "weather", "I think WEATHER", ""} {
		t.Run(label, func(t *testing.T) {
			h := newHarness(t, label)

			_, err := h.invoke(t, "tell me a joke in French")
			require.NoError(t, err)

			assert.Empty(t, h.weather.cities)
			assert.Empty(t, h.news.queries)
			assert.Equal(t, nodes.UnknownRequestMessage, toolOutput(t, h.synthesis))
		})
	}
}

func TestClassifierSeesFullHistory(t *testing.T) {
	h := newHarness(t, "NEWS")

	_, err := h.invoke(t, "first question")
	require.NoError(t, err)
	_, err = h.invoke(t, "second question")
	require.NoError(t, err)

	reqs := h.classifier.requests()
	require.Len(t, reqs, 2)
	second := reqs[1]
	// system prompt + user, assistant, user
	require.Len(t, second, 4)
	assert.Equal(t, schema.System, second[0].Role)
	assert.Equal(t, "first question", second[1].Content)
	assert.Equal(t, schema.Assistant, second[2].Role)
	assert.Equal(t, "second question", second[3].Content)
}

func TestSynthesisHasNoHistory(t *testing.T) {
	h := newHarness(t, "NEWS")

	for _, q := range []string{"one", "two", "three"} {
		_, err := h.invoke(t, q)
		require.NoError(t, err)
	}

	for _, req := range h.synthesis.requests() {
		require.Len(t, req, 2)
		assert.Equal(t, schema.System, req[0].Role)
		assert.Equal(t, schema.User, req[1].Role)
	}
}

func TestMemoryStaysBounded(t *testing.T) {
	h := newHarness(t, "NEWS")

	for _, q := range []string{"a", "b", "c", "d", "e"} {
		_, err := h.invoke(t, q)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(h.mm.Memory().Turns()), 6)
	}
	turns := h.mm.Memory().Turns()
	require.Len(t, turns, 6)
	assert.Equal(t, "c", turns[0].Content)
}

func TestClassifierFailure(t *testing.T) {
	h := newHarness(t, "WEATHER")
	boom := errors.New("quota exceeded")
	h.classifier.err = boom

	_, err := h.invoke(t, "weather in Rome")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, http.StatusBadGateway, errx.StatusOf(err))

	assert.Empty(t, h.weather.cities)
	assert.Empty(t, h.synthesis.requests())
	turns := h.mm.Memory().Turns()
	require.Len(t, turns, 1)
	assert.Equal(t, model.RoleUser, turns[0].Role)
}

func TestSynthesisFailure(t *testing.T) {
	h := newHarness(t, "WEATHER")
	boom := errors.New("model unavailable")
	h.synthesis.err = boom

	_, err := h.invoke(t, "weather in Rome")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	// the tool ran and tagged the location; no assistant turn was added
	assert.Equal(t, []string{"Rome"}, h.weather.cities)
	assert.Equal(t, "rome", h.mm.Memory().LastLocation())
	for _, turn := range h.mm.Memory().Turns() {
		assert.NotEqual(t, model.RoleAssistant, turn.Role)
	}
}

func TestBuildGraphValidation(t *testing.T) {
	_, err := BuildGraph(context.Background(), nil)
	assert.Error(t, err)

	_, err = BuildGraph(context.Background(), &GraphConfig{
		MessagesManager: conversations.NewMessagesManager(conversations.NewConversationMemory(3)),
	})
	assert.Error(t, err)

	_, err = NewRunner(context.Background(), nil, nil)
	assert.Error(t, err)
}
