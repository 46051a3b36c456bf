package nodes

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/weathernews-agent/server/internal/agent/graph/conversations"
	"github.com/weathernews-agent/server/internal/agent/graph/parsers"
	"github.com/weathernews-agent/server/internal/agent/graph/prompts"
	"github.com/weathernews-agent/server/internal/agent/model"
	logx "github.com/weathernews-agent/server/pkg/logger"
)

const (
	NodeInputConverter      = "InputConverter"
	NodeClassifierChatModel = "ClassifierChatModel"
	NodeIntentParser        = "IntentParser"
	NodeWeatherTool         = "WeatherTool"
	NodeNewsTool            = "NewsTool"
	NodeBothTools           = "BothTools"
	NodeUnknownIntent       = "UnknownIntent"
	NodeSynthesisAssembler  = "SynthesisAssembler"
	NodeSynthesisChatModel  = "SynthesisChatModel"
)

// UnknownRequestMessage is the tool output when the classifier label is not recognised.
const UnknownRequestMessage = "I could not determine the request."

// ToolOutputSeparator joins the weather and news blocks of a BOTH turn.
const ToolOutputSeparator = "\n\n"

// NewInputConverterPreHandler creates the pre-handler for InputConverter node
func NewInputConverterPreHandler() func(context.Context, model.QueryInput, *model.TurnState) (model.QueryInput, error) {
	return func(ctx context.Context, in model.QueryInput, s *model.TurnState) (model.QueryInput, error) {
		s.SessionID = in.SessionID
		s.Query = in.Query
		s.Intent = ""
		s.City = ""
		s.TotalCostUSD = 0
		return in, nil
	}
}

// NewInputConverterNode records the query as a user turn and builds the
// classifier request from the full turn history.
func NewInputConverterNode(mm *conversations.MessagesManager) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, input model.QueryInput) ([]*schema.Message, error) {
		mm.RecordQuery(input.Query)

		messages, err := prompts.RenderClassifier(ctx, mm.History())
		if err != nil {
			return nil, fmt.Errorf("render classifier prompt: %w", err)
		}
		return messages, nil
	})
}

// NewClassifierChatModelPostHandler computes and logs usage cost for the classifier model.
func NewClassifierChatModelPostHandler(modelName string) func(context.Context, *schema.Message, *model.TurnState) (*schema.Message, error) {
	return func(ctx context.Context, out *schema.Message, state *model.TurnState) (*schema.Message, error) {
		recordUsage(out, state, NodeClassifierChatModel, modelName)
		return out, nil
	}
}

// NewIntentParserNode turns the classifier reply into an Intent.
func NewIntentParserNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, resp *schema.Message) (model.Intent, error) {
		if resp == nil {
			logx.Warn().Msg("classifier returned no message")
			return model.IntentUnknown, nil
		}
		return parsers.ParseIntent(resp.Content), nil
	})
}

// NewIntentParserPostHandler stores the intent in state.
func NewIntentParserPostHandler() func(context.Context, model.Intent, *model.TurnState) (model.Intent, error) {
	return func(ctx context.Context, out model.Intent, state *model.TurnState) (model.Intent, error) {
		state.Intent = out
		logx.Debug().
			Str("session_id", state.SessionID).
			Str("intent", out.String()).
			Msg("Intent classified")
		return out, nil
	}
}

// NewIntentCondition routes the parsed intent to its tool node.
func NewIntentCondition() func(context.Context, model.Intent) (string, error) {
	return func(ctx context.Context, intent model.Intent) (string, error) {
		switch intent {
		case model.IntentWeather:
			return NodeWeatherTool, nil
		case model.IntentNews:
			return NodeNewsTool, nil
		case model.IntentBoth:
			return NodeBothTools, nil
		default:
			return NodeUnknownIntent, nil
		}
	}
}

// IntentBranchTargets lists every node the intent branch may select.
func IntentBranchTargets() map[string]bool {
	return map[string]bool{
		NodeWeatherTool:   true,
		NodeNewsTool:      true,
		NodeBothTools:     true,
		NodeUnknownIntent: true,
	}
}

// NewWeatherToolNode resolves the city from the original query and looks up the weather.
func NewWeatherToolNode(mm *conversations.MessagesManager, weather model.WeatherProvider) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, _ model.Intent) (string, error) {
		city, err := resolveCity(ctx, mm)
		if err != nil {
			return "", err
		}
		return weather.GetWeather(ctx, city), nil
	})
}

// NewNewsToolNode passes the raw query to the news tool; no location is resolved.
func NewNewsToolNode(news model.NewsProvider) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, _ model.Intent) (string, error) {
		query, err := currentQuery(ctx)
		if err != nil {
			return "", err
		}
		return news.GetNews(ctx, query), nil
	})
}

// NewBothToolsNode calls weather then news and joins their outputs with a blank line.
func NewBothToolsNode(mm *conversations.MessagesManager, weather model.WeatherProvider, news model.NewsProvider) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, _ model.Intent) (string, error) {
		city, err := resolveCity(ctx, mm)
		if err != nil {
			return "", err
		}
		query, err := currentQuery(ctx)
		if err != nil {
			return "", err
		}
		return weather.GetWeather(ctx, city) + ToolOutputSeparator + news.GetNews(ctx, query), nil
	})
}

// NewUnknownIntentNode skips the tools.
func NewUnknownIntentNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, intent model.Intent) (string, error) {
		logx.Debug().Str("intent", intent.String()).Msg("No tool matched - skipping tool calls")
		return UnknownRequestMessage, nil
	})
}

// NewSynthesisAssemblerNode builds the one-shot synthesis request from the tool output.
func NewSynthesisAssemblerNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, toolOutput string) ([]*schema.Message, error) {
		messages, err := prompts.RenderSynthesis(ctx, toolOutput)
		if err != nil {
			return nil, fmt.Errorf("render synthesis prompt: %w", err)
		}
		return messages, nil
	})
}

// NewSynthesisChatModelPostHandler logs usage and saves the final reply as an assistant turn.
func NewSynthesisChatModelPostHandler(mm *conversations.MessagesManager, modelName string) func(context.Context, *schema.Message, *model.TurnState) (*schema.Message, error) {
	return func(ctx context.Context, out *schema.Message, state *model.TurnState) (*schema.Message, error) {
		if out == nil {
			return nil, fmt.Errorf("synthesis model returned no message")
		}
		recordUsage(out, state, NodeSynthesisChatModel, modelName)

		mm.SaveResponse(out.Content)
		logx.Debug().
			Str("session_id", state.SessionID).
			Str("intent", state.Intent.String()).
			Float64("total_cost_usd", state.TotalCostUSD).
			Msg("Assistant response saved to memory")
		return out, nil
	}
}

// resolveCity runs location resolution for the turn's query and records the city in state.
func resolveCity(ctx context.Context, mm *conversations.MessagesManager) (string, error) {
	var city string
	err := compose.ProcessState(ctx, func(_ context.Context, state *model.TurnState) error {
		city = mm.ResolveLocation(state.Query)
		state.City = city
		logx.Debug().
			Str("session_id", state.SessionID).
			Str("city", city).
			Msg("Location resolved")
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to access state: %w", err)
	}
	return city, nil
}

func currentQuery(ctx context.Context) (string, error) {
	var query string
	err := compose.ProcessState(ctx, func(_ context.Context, state *model.TurnState) error {
		query = state.Query
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to access state: %w", err)
	}
	return query, nil
}
