package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/cobra"

	"github.com/weathernews-agent/server/internal/agent/model"
	"github.com/weathernews-agent/server/internal/core"
	"github.com/weathernews-agent/server/internal/rag"
	logx "github.com/weathernews-agent/server/pkg/logger"
	pkgredis "github.com/weathernews-agent/server/pkg/redis"
)

// AppConfig defines all configurable parameters of the agent,
// sourced from environment variables (loaded from .env for local runs).
type AppConfig struct {
	Environment string `envconfig:"ENVIRONMENT" default:"development"`

	// Infrastructure
	Redis pkgredis.Config

	// LLM provider
	APIKey  string `envconfig:"GEMINI_API_KEY" required:"true"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`

	// Agent configs
	Classifier   model.ClassifierModelConfig
	Synthesis    model.SynthesisModelConfig
	Conversation model.ConversationConfig
	Weather      model.WeatherConfig
	News         model.NewsConfig

	RAG rag.Config
}

// ConversationTTL parses CONVERSATION_TTL.
func (c AppConfig) ConversationTTL() (time.Duration, error) {
	ttl, err := time.ParseDuration(c.Conversation.TTL)
	if err != nil {
		return 0, fmt.Errorf("invalid CONVERSATION_TTL '%s': %w", c.Conversation.TTL, err)
	}
	return ttl, nil
}

var debug bool

var rootCmd = &cobra.Command{
	Use:           "weather-news-agent",
	Short:         "Weather & news assistant with conversational memory",
	Long:          `Routes each message to a weather lookup, a news lookup, both or neither, and answers through a language model. Also hosts a small RAG question-answering demo.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug logging")
}

// loadConfig reads .env (optional), binds the environment and initialises logging.
func loadConfig() (AppConfig, error) {
	if err := godotenv.Load(".env"); err != nil {
		logx.Warn().Err(err).Msg("Could not load .env file")
	}

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, fmt.Errorf("failed to process environment config: %w", err)
	}

	logx.Init(logx.LoggerOpts{
		Environment: core.ParseEnvironment(cfg.Environment),
		Debug:       debug,
	})
	return cfg, nil
}

func main() {
	logx.Init()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logx.Error().Err(err).Msg("Command failed")
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
