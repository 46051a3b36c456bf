package graph

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/weathernews-agent/server/internal/agent/graph/conversations"
	"github.com/weathernews-agent/server/internal/agent/graph/nodes"
	"github.com/weathernews-agent/server/internal/agent/graph/observers"
	"github.com/weathernews-agent/server/internal/agent/graph/tools"
	"github.com/weathernews-agent/server/internal/agent/model"
	errx "github.com/weathernews-agent/server/internal/core/error"
	logx "github.com/weathernews-agent/server/pkg/logger"
)

// maxRunSteps bounds a single turn; the longest path has eight nodes.
const maxRunSteps = 20

// Runner is a thin wrapper to execute the compiled graph with the public QueryInput.
type Runner interface {
	Invoke(ctx context.Context, in model.QueryInput) (string, error)
}

// Config holds everything needed to compose the shared dependencies end-to-end.
// This is a convenience layer over Dependencies that also constructs ChatModels
// and the tool clients.
type Config struct {
	APIKey     string
	BaseURL    string
	Classifier model.ClassifierModelConfig
	Synthesis  model.SynthesisModelConfig
	Weather    model.WeatherConfig
	News       model.NewsConfig
}

// Dependencies are shared by every session's graph.
type Dependencies struct {
	ChatModels *nodes.ChatModels
	Weather    model.WeatherProvider
	News       model.NewsProvider
}

// GraphConfig holds all configuration needed to build one session's graph
type GraphConfig struct {
	Dependencies
	MessagesManager *conversations.MessagesManager
}

// GraphBuilder handles the construction of the agent conversation graph
type GraphBuilder struct {
	config *GraphConfig
	graph  *compose.Graph[model.QueryInput, *schema.Message]
}

type graphRunner struct {
	runnable compose.Runnable[model.QueryInput, *schema.Message]
}

func (r *graphRunner) Invoke(ctx context.Context, in model.QueryInput) (string, error) {
	out, err := r.runnable.Invoke(ctx, in, compose.WithCallbacks(observers.NewAllCallbacks()))
	if err != nil {
		return "", errx.WrapModel(err)
	}
	if out == nil {
		return "", nil
	}
	if total, ok := out.Extra["usage_cost_total_usd"]; ok {
		logx.Debug().
			Str("session_id", in.SessionID).
			Interface("total_cost_usd", total).
			Msg("Turn completed")
	}
	return out.Content, nil
}

// NewDependencies creates the Gemini chat models and the weather and news clients.
func NewDependencies(ctx context.Context, cfg Config) (*Dependencies, error) {
	cms, err := nodes.NewChatModels(ctx, nodes.ChatModelConfig{
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.BaseURL,
		Classifier: cfg.Classifier.ChatModel(),
		Synthesis:  cfg.Synthesis.ChatModel(),
	})
	if err != nil {
		return nil, err
	}

	return &Dependencies{
		ChatModels: cms,
		Weather:    tools.NewWeatherClient(cfg.Weather),
		News:       tools.NewNewsClient(cfg.News),
	}, nil
}

// NewRunner builds the graph for one session's memory and returns a Runner.
func NewRunner(ctx context.Context, deps *Dependencies, mm *conversations.MessagesManager) (Runner, error) {
	if deps == nil {
		return nil, fmt.Errorf("graph dependencies are nil")
	}
	runnable, err := BuildGraph(ctx, &GraphConfig{
		Dependencies:    *deps,
		MessagesManager: mm,
	})
	if err != nil {
		return nil, err
	}
	return &graphRunner{runnable: runnable}, nil
}

// BuildGraph constructs and returns the compiled agent graph
func BuildGraph(ctx context.Context, config *GraphConfig) (compose.Runnable[model.QueryInput, *schema.Message], error) {
	if config == nil {
		return nil, fmt.Errorf("graph config is nil")
	}
	if config.ChatModels == nil || config.ChatModels.Classifier == nil || config.ChatModels.Synthesis == nil {
		return nil, fmt.Errorf("chat models are not properly initialized")
	}
	if config.MessagesManager == nil {
		return nil, fmt.Errorf("messages manager is nil")
	}
	if config.Weather == nil || config.News == nil {
		return nil, fmt.Errorf("tool providers are nil")
	}

	builder := &GraphBuilder{
		config: config,
		graph: compose.NewGraph[model.QueryInput, *schema.Message](
			compose.WithGenLocalState(func(ctx context.Context) *model.TurnState {
				return &model.TurnState{}
			}),
		),
	}

	if err := builder.addNodes(); err != nil {
		return nil, err
	}
	if err := builder.addEdges(); err != nil {
		return nil, err
	}
	if err := builder.addBranches(); err != nil {
		return nil, err
	}

	return builder.compile(ctx)
}

// addNodes adds all processing nodes to the graph
func (b *GraphBuilder) addNodes() error {
	mm := b.config.MessagesManager
	cms := b.config.ChatModels

	steps := []struct {
		name string
		add  func() error
	}{
		{nodes.NodeInputConverter, func() error {
			return b.graph.AddLambdaNode(nodes.NodeInputConverter,
				nodes.NewInputConverterNode(mm),
				compose.WithStatePreHandler(nodes.NewInputConverterPreHandler()),
			)
		}},
		{nodes.NodeClassifierChatModel, func() error {
			return b.graph.AddChatModelNode(nodes.NodeClassifierChatModel,
				cms.Classifier,
				compose.WithStatePostHandler(nodes.NewClassifierChatModelPostHandler(cms.ClassifierModelName)),
			)
		}},
		{nodes.NodeIntentParser, func() error {
			return b.graph.AddLambdaNode(nodes.NodeIntentParser,
				nodes.NewIntentParserNode(),
				compose.WithStatePostHandler(nodes.NewIntentParserPostHandler()),
			)
		}},
		{nodes.NodeWeatherTool, func() error {
			return b.graph.AddLambdaNode(nodes.NodeWeatherTool, nodes.NewWeatherToolNode(mm, b.config.Weather))
		}},
		{nodes.NodeNewsTool, func() error {
			return b.graph.AddLambdaNode(nodes.NodeNewsTool, nodes.NewNewsToolNode(b.config.News))
		}},
		{nodes.NodeBothTools, func() error {
			return b.graph.AddLambdaNode(nodes.NodeBothTools, nodes.NewBothToolsNode(mm, b.config.Weather, b.config.News))
		}},
		{nodes.NodeUnknownIntent, func() error {
			return b.graph.AddLambdaNode(nodes.NodeUnknownIntent, nodes.NewUnknownIntentNode())
		}},
		{nodes.NodeSynthesisAssembler, func() error {
			return b.graph.AddLambdaNode(nodes.NodeSynthesisAssembler, nodes.NewSynthesisAssemblerNode())
		}},
		{nodes.NodeSynthesisChatModel, func() error {
			return b.graph.AddChatModelNode(nodes.NodeSynthesisChatModel,
				cms.Synthesis,
				compose.WithStatePostHandler(nodes.NewSynthesisChatModelPostHandler(mm, cms.SynthesisModelName)),
			)
		}},
	}

	for _, step := range steps {
		if err := step.add(); err != nil {
			logx.Error().Err(err).Str("node", step.name).Msg("Error adding node")
			return fmt.Errorf("error adding node %s: %w", step.name, err)
		}
	}
	return nil
}

// addEdges creates the main flow connections between nodes
func (b *GraphBuilder) addEdges() error {
	edges := [][2]string{
		{compose.START, nodes.NodeInputConverter},
		{nodes.NodeInputConverter, nodes.NodeClassifierChatModel},
		{nodes.NodeClassifierChatModel, nodes.NodeIntentParser},
		{nodes.NodeWeatherTool, nodes.NodeSynthesisAssembler},
		{nodes.NodeNewsTool, nodes.NodeSynthesisAssembler},
		{nodes.NodeBothTools, nodes.NodeSynthesisAssembler},
		{nodes.NodeUnknownIntent, nodes.NodeSynthesisAssembler},
		{nodes.NodeSynthesisAssembler, nodes.NodeSynthesisChatModel},
		{nodes.NodeSynthesisChatModel, compose.END},
	}

	for _, edge := range edges {
		if err := b.graph.AddEdge(edge[0], edge[1]); err != nil {
			logx.Error().Err(err).Str("from", edge[0]).Str("to", edge[1]).Msg("Error adding edge")
			return fmt.Errorf("error adding edge %s -> %s: %w", edge[0], edge[1], err)
		}
	}
	return nil
}

// addBranches creates conditional routing branches
func (b *GraphBuilder) addBranches() error {
	intentBranch := compose.NewGraphBranch(
		nodes.NewIntentCondition(),
		nodes.IntentBranchTargets(),
	)
	if err := b.graph.AddBranch(nodes.NodeIntentParser, intentBranch); err != nil {
		logx.Error().Err(err).Msg("Error adding intent branch")
		return fmt.Errorf("error adding intent branch: %w", err)
	}
	return nil
}

// compile finalizes and compiles the graph
func (b *GraphBuilder) compile(ctx context.Context) (compose.Runnable[model.QueryInput, *schema.Message], error) {
	runnable, err := b.graph.Compile(ctx, compose.WithMaxRunSteps(maxRunSteps))
	if err != nil {
		logx.Error().Err(err).Msg("Error compiling graph")
		return nil, fmt.Errorf("error compiling graph: %w", err)
	}

	logx.Debug().Msg("Graph compiled successfully")
	return runnable, nil
}
