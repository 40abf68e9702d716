// Command terminal runs the study buddy as an interactive console chat with
// in-memory history and notes.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/jonboulle/clockwork"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"google.golang.org/genai"

	"github.com/study-buddy-core/server/internal/agent/graph"
	"github.com/study-buddy-core/server/internal/agent/graph/nodes"
	"github.com/study-buddy-core/server/internal/agent/model"
	"github.com/study-buddy-core/server/internal/agent/repo"
	"github.com/study-buddy-core/server/internal/core"
	"github.com/study-buddy-core/server/internal/emotion"
	"github.com/study-buddy-core/server/internal/notes"
	logx "github.com/study-buddy-core/server/pkg/logger"
)

type Config struct {
	LogLevel string `envconfig:"LOG_LEVEL" default:"warn"`

	Providers    model.ProviderConfig
	Response     model.ResponseModelConfig
	Breaker      model.BreakerConfig
	Conversation model.ConversationConfig
	Emotion      emotion.Config
	Notes        notes.Config
}

func main() {
	_ = godotenv.Load(".env")

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		fmt.Fprintf(os.Stderr, "❌ Invalid configuration: %v\n", err)
		os.Exit(1)
	}
	logx.Init(logx.LoggerOpts{Environment: core.Development, Level: cfg.LogLevel})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "❌ Fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg Config) error {
	chatModel, err := nodes.NewChatModel(ctx, nodes.ChatModelConfig{
		Providers: cfg.Providers,
		Response:  cfg.Response,
		Breaker:   cfg.Breaker,
	})
	if err != nil {
		return err
	}
	fmt.Println("✅ Chat model configured")

	classifier, err := emotion.NewClassifier(cfg.Emotion)
	if err != nil {
		return err
	}
	if c, ok := classifier.(io.Closer); ok {
		defer c.Close()
	}

	clock := clockwork.NewRealClock()
	history := repo.NewMemoryHistoryStore()
	graphCfg := graph.Config{
		ChatModel:    chatModel,
		ModelName:    cfg.Response.Model,
		Conversation: cfg.Conversation,
		HistoryStore: history,
		Classifier:   classifier,
		NotesTopK:    cfg.Notes.TopK,
		Clock:        clock,
	}

	var uploader noteUploader
	if cfg.Providers.GeminiAPIKey != "" {
		client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: cfg.Providers.GeminiAPIKey, Backend: genai.BackendGeminiAPI})
		if err != nil {
			return fmt.Errorf("create embedding client: %w", err)
		}
		embedder, err := notes.NewGeminiEmbedder(client, cfg.Notes.EmbeddingModel)
		if err != nil {
			return err
		}
		svc := notes.NewService(notes.NewMemoryStore(), embedder, cfg.Notes)
		graphCfg.Notes = svc
		uploader = svc
	}

	runner, err := graph.BuildResponseGraph(ctx, graphCfg)
	if err != nil {
		return err
	}

	return NewTerminal(runner, history, uploader, os.Stdin, os.Stdout, clock).Run(ctx)
}
