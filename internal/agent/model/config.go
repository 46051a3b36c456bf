package model

// ================ Config ================
type ConversationConfig struct {
	TTL      string `envconfig:"CONVERSATION_TTL" default:"30m"`
	MaxTurns int    `envconfig:"CONVERSATION_MAX_TURNS" default:"3"`
}

// ChatModelConfig is shared by the classifier and the synthesizer; each gets
// its own env prefix through the wrapping structs below.
type ChatModelConfig struct {
	Model          string
	MaxTokens      int
	Temperature    float32
	ThinkingBudget int32
}

type ClassifierModelConfig struct {
	Model          string  `envconfig:"CLASSIFIER_MODEL" default:"gemini-2.5-flash-lite"`
	MaxTokens      int     `envconfig:"CLASSIFIER_MAX_TOKENS" default:"16"`
	Temperature    float32 `envconfig:"CLASSIFIER_TEMPERATURE" default:"0"`
	ThinkingBudget int32   `envconfig:"CLASSIFIER_THINKING_BUDGET" default:"0"`
}

func (c ClassifierModelConfig) ChatModel() ChatModelConfig {
	return ChatModelConfig(c)
}

type SynthesisModelConfig struct {
	Model          string  `envconfig:"SYNTHESIS_MODEL" default:"gemini-2.5-flash"`
	MaxTokens      int     `envconfig:"SYNTHESIS_MAX_TOKENS" default:"2000"`
	Temperature    float32 `envconfig:"SYNTHESIS_TEMPERATURE" default:"0"`
	ThinkingBudget int32   `envconfig:"SYNTHESIS_THINKING_BUDGET" default:"0"`
}

func (c SynthesisModelConfig) ChatModel() ChatModelConfig {
	return ChatModelConfig(c)
}

type WeatherConfig struct {
	GeocodingURL string `envconfig:"WEATHER_GEOCODING_URL" default:"https://geocoding-api.open-meteo.com"`
	ForecastURL  string `envconfig:"WEATHER_FORECAST_URL" default:"https://api.open-meteo.com"`
}

type NewsConfig struct {
	// APIKey may be empty; the news tool then answers with a warning instead of failing startup.
	APIKey  string `envconfig:"NEWS_API_KEY"`
	BaseURL string `envconfig:"NEWS_BASE_URL" default:"https://newsapi.org"`
}
