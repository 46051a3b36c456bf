package nodes

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	einomodel "github.com/cloudwego/eino/components/model"
	"google.golang.org/genai"

	"github.com/weathernews-agent/server/internal/agent/model"
	logx "github.com/weathernews-agent/server/pkg/logger"
)

// ChatModelConfig holds the configuration for chat model creation
type ChatModelConfig struct {
	APIKey     string
	BaseURL    string
	Classifier model.ChatModelConfig
	Synthesis  model.ChatModelConfig
}

// ChatModels holds the two models used per turn. Any einomodel.BaseChatModel
// works, which keeps the graph testable without a provider.
type ChatModels struct {
	Classifier          einomodel.BaseChatModel
	Synthesis           einomodel.BaseChatModel
	ClassifierModelName string
	SynthesisModelName  string
}

// NewGeminiClient creates the shared Gemini API client.
func NewGeminiClient(ctx context.Context, apiKey, baseURL string) (*genai.Client, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		clientCfg.HTTPOptions.BaseURL = baseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}
	return client, nil
}

// NewGeminiChatModel creates one Gemini chat model on an existing client.
func NewGeminiChatModel(ctx context.Context, client *genai.Client, cfg model.ChatModelConfig) (*gemini.ChatModel, error) {
	temperature := cfg.Temperature
	maxTokens := cfg.MaxTokens
	chatModel, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       cfg.Model,
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
		ThinkingConfig: &genai.ThinkingConfig{
			IncludeThoughts: false,
			ThinkingBudget:  genai.Ptr(cfg.ThinkingBudget),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("error creating %s model: %w", cfg.Model, err)
	}
	return chatModel, nil
}

// NewChatModels creates the classifier and synthesis models with the given configuration
func NewChatModels(ctx context.Context, config ChatModelConfig) (*ChatModels, error) {
	client, err := NewGeminiClient(ctx, config.APIKey, config.BaseURL)
	if err != nil {
		return nil, err
	}

	classifier, err := NewGeminiChatModel(ctx, client, config.Classifier)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating classifier model")
		return nil, err
	}

	synthesis, err := NewGeminiChatModel(ctx, client, config.Synthesis)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating synthesis model")
		return nil, err
	}

	return &ChatModels{
		Classifier:          classifier,
		Synthesis:           synthesis,
		ClassifierModelName: config.Classifier.Model,
		SynthesisModelName:  config.Synthesis.Model,
	}, nil
}
