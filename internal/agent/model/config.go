package model

import "time"

// ================ Config ================
type ConversationConfig struct {
	TTL        time.Duration `envconfig:"CONVERSATION_TTL" default:"24h"`
	MaxHistory int           `envconfig:"CONVERSATION_MAX_HISTORY" default:"10"`
	Tools      struct {
		MaxCalls int `envconfig:"CONVERSATION_TOOL_MAX_CALLS" default:"4"`
	}
}

type ResponseModelConfig struct {
	Provider       string  `envconfig:"RESPONSE_PROVIDER" default:"gemini"`
	Model          string  `envconfig:"RESPONSE_MODEL" default:"gemini-2.5-flash"`
	MaxTokens      int     `envconfig:"RESPONSE_MAX_TOKENS" default:"1024"`
	Temperature    float32 `envconfig:"RESPONSE_TEMPERATURE" default:"0.7"`
	ThinkingBudget int32   `envconfig:"RESPONSE_THINKING_BUDGET" default:"0"`
}

type ProviderConfig struct {
	GeminiAPIKey  string `envconfig:"GEMINI_API_KEY"`
	GeminiBaseURL string `envconfig:"GEMINI_BASE_URL"`
	OpenAIAPIKey  string `envconfig:"OPENAI_API_KEY"`
	OpenAIBaseURL string `envconfig:"OPENAI_BASE_URL"`
}

type BreakerConfig struct {
	MaxFailures uint32        `envconfig:"LLM_BREAKER_MAX_FAILURES" default:"5"`
	OpenTimeout time.Duration `envconfig:"LLM_BREAKER_OPEN_TIMEOUT" default:"30s"`
}
