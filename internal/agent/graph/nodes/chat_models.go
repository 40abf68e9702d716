package nodes

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	einomodel "github.com/cloudwego/eino/components/model"
	"google.golang.org/genai"

	"github.com/study-buddy-core/server/internal/agent/model"
	logx "github.com/study-buddy-core/server/pkg/logger"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// ChatModelConfig holds the configuration for chat model creation
type ChatModelConfig struct {
	Providers model.ProviderConfig
	Response  model.ResponseModelConfig
	Breaker   model.BreakerConfig
}

// NewChatModel creates the reply model for the configured provider, guarded
// by a circuit breaker.
func NewChatModel(ctx context.Context, config ChatModelConfig) (einomodel.ToolCallingChatModel, error) {
	var (
		cm  einomodel.ToolCallingChatModel
		err error
	)
	switch strings.ToLower(config.Response.Provider) {
	case "", ProviderGemini:
		cm, err = newGeminiChatModel(ctx, config.Providers, config.Response)
	case ProviderOpenAI:
		cm, err = NewOpenAIChatModel(OpenAIConfig{
			APIKey:      config.Providers.OpenAIAPIKey,
			BaseURL:     config.Providers.OpenAIBaseURL,
			Model:       config.Response.Model,
			MaxTokens:   config.Response.MaxTokens,
			Temperature: config.Response.Temperature,
		})
	default:
		return nil, fmt.Errorf("unknown chat model provider %q", config.Response.Provider)
	}
	if err != nil {
		return nil, err
	}

	logx.Debug().
		Str("provider", config.Response.Provider).
		Str("model", config.Response.Model).
		Msg("Chat model ready")
	return NewBreakerChatModel(cm, "llm-"+strings.ToLower(config.Response.Provider), config.Breaker), nil
}

func newGeminiChatModel(ctx context.Context, providers model.ProviderConfig, cfg model.ResponseModelConfig) (*gemini.ChatModel, error) {
	if providers.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is not set")
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  providers.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if providers.GeminiBaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = providers.GeminiBaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}

	gcfg := &gemini.Config{
		Client:      client,
		Model:       cfg.Model,
		Temperature: &cfg.Temperature,
		MaxTokens:   &cfg.MaxTokens,
	}
	// A negative budget leaves thinking to the model's default.
	if cfg.ThinkingBudget >= 0 {
		gcfg.ThinkingConfig = &genai.ThinkingConfig{
			ThinkingBudget: genai.Ptr(cfg.ThinkingBudget),
		}
	}

	cm, err := gemini.NewChatModel(ctx, gcfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Response model")
		return nil, fmt.Errorf("error creating Response model: %w", err)
	}
	return cm, nil
}
