package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"google.golang.org/genai"

	"github.com/study-buddy-core/server/internal/adapter/httpserver"
	"github.com/study-buddy-core/server/internal/adapter/metrics"
	"github.com/study-buddy-core/server/internal/adapter/postgres"
	"github.com/study-buddy-core/server/internal/agent/graph"
	"github.com/study-buddy-core/server/internal/agent/graph/nodes"
	"github.com/study-buddy-core/server/internal/agent/model"
	"github.com/study-buddy-core/server/internal/agent/repo"
	"github.com/study-buddy-core/server/internal/app"
	"github.com/study-buddy-core/server/internal/auth"
	"github.com/study-buddy-core/server/internal/core"
	"github.com/study-buddy-core/server/internal/emotion"
	"github.com/study-buddy-core/server/internal/notes"
	"github.com/study-buddy-core/server/internal/progress"
	logx "github.com/study-buddy-core/server/pkg/logger"
	pkgredis "github.com/study-buddy-core/server/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

// AppConfig defines every configurable parameter of the server, sourced
// from environment variables (loaded from .env for local runs).
type AppConfig struct {
	Environment core.Environment `envconfig:"APP_ENV" default:"development"`
	LogLevel    string           `envconfig:"LOG_LEVEL"`

	// Infrastructure
	Redis    pkgredis.Config
	Postgres postgres.Config

	// LLM providers
	Providers model.ProviderConfig
	Response  model.ResponseModelConfig
	Breaker   model.BreakerConfig

	Conversation model.ConversationConfig
	Emotion      emotion.Config
	Notes        notes.Config
	Auth         auth.Config
	HTTP         httpserver.Config
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not load .env file: %v\n", err)
	}

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to process environment config: %v\n", err)
		os.Exit(1)
	}
	logx.Init(logx.LoggerOpts{Environment: cfg.Environment, Level: cfg.LogLevel})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logx.Fatal().Err(err).Msg("Server stopped with error")
	}
	logx.Info().Msg("Server stopped")
}

func run(ctx context.Context, cfg AppConfig) error {
	clock := clockwork.NewRealClock()

	reg := metrics.NewRegistry()
	httpMetrics := metrics.NewHTTPMetrics(reg)
	chatMetrics := metrics.NewChatMetrics(reg)
	dbMetrics := metrics.NewDBMetrics(reg)

	rdb, err := cfg.Redis.New(ctx)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer rdb.Close()
	logx.Info().Msg("Connected to Redis")

	pool, err := postgres.Connect(ctx, cfg.Postgres, dbMetrics)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()
	if err := postgres.RunMigrationsWithLock(ctx, pool); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	chatModel, err := nodes.NewChatModel(ctx, nodes.ChatModelConfig{
		Providers: cfg.Providers,
		Response:  cfg.Response,
		Breaker:   cfg.Breaker,
	})
	if err != nil {
		return fmt.Errorf("create chat model: %w", err)
	}

	classifier, err := emotion.NewClassifier(cfg.Emotion)
	if err != nil {
		return fmt.Errorf("create emotion classifier: %w", err)
	}
	if c, ok := classifier.(io.Closer); ok {
		defer c.Close()
	}

	progressRepo := postgres.NewProgressRepo(pool)
	progressSvc := progress.NewService(progressRepo, progressRepo, clock)

	graphCfg := graph.Config{
		ChatModel:    chatModel,
		ModelName:    cfg.Response.Model,
		Conversation: cfg.Conversation,
		HistoryStore: repo.NewRedisHistoryStore(rdb, cfg.Conversation.TTL),
		Classifier:   classifier,
		Progress:     progressSvc,
		NotesTopK:    cfg.Notes.TopK,
		Clock:        clock,
	}
	appDeps := app.Deps{
		History:  graphCfg.HistoryStore,
		Progress: progressSvc,
		Metrics:  chatMetrics,
		Clock:    clock,
	}

	notesSvc, err := newNotesService(ctx, cfg, rdb)
	if err != nil {
		return err
	}
	if notesSvc != nil {
		graphCfg.Notes = notesSvc
		appDeps.Notes = notesSvc
	}

	runner, err := graph.BuildResponseGraph(ctx, graphCfg)
	if err != nil {
		return fmt.Errorf("build response graph: %w", err)
	}
	summarizer, err := graph.NewSummarizer(ctx, chatModel)
	if err != nil {
		return fmt.Errorf("build summarizer: %w", err)
	}
	appDeps.Runner = runner
	appDeps.Summarizer = summarizer

	studySvc, err := app.NewService(appDeps)
	if err != nil {
		return err
	}

	authSvc, err := newAuthService(cfg.Auth, postgres.NewUserRepo(pool), clock)
	if err != nil {
		return err
	}

	srv, err := httpserver.NewServer(cfg.HTTP, httpserver.Deps{
		App:         studySvc,
		Auth:        authSvc,
		Metrics:     metrics.Handler(reg),
		HTTPMetrics: httpMetrics,
		ChatMetrics: chatMetrics,
		HealthChecks: []httpserver.HealthCheck{
			{Name: "redis", Check: func(ctx context.Context) error { return rdb.Ping(ctx).Err() }},
			{Name: httpserver.HealthCheckPostgres, Check: pool.Ping},
		},
		FrontendURL:      cfg.Auth.FrontendURL,
		Production:       cfg.Environment.IsProduction(),
		GeminiConfigured: cfg.Providers.GeminiAPIKey != "",
	})
	if err != nil {
		return fmt.Errorf("create http server: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-gctx.Done()
		logx.Info().Msg("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// newNotesService wires note storage when an embedding backend is available.
// Without a Gemini key notes are disabled and nil is returned.
func newNotesService(ctx context.Context, cfg AppConfig, rdb goredis.Cmdable) (*notes.Service, error) {
	if cfg.Providers.GeminiAPIKey == "" {
		logx.Warn().Msg("GEMINI_API_KEY not set; note upload and retrieval are disabled")
		return nil, nil
	}

	clientCfg := &genai.ClientConfig{APIKey: cfg.Providers.GeminiAPIKey, Backend: genai.BackendGeminiAPI}
	if cfg.Providers.GeminiBaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = cfg.Providers.GeminiBaseURL
	}
	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("create embedding client: %w", err)
	}
	embedder, err := notes.NewGeminiEmbedder(client, cfg.Notes.EmbeddingModel)
	if err != nil {
		return nil, err
	}

	var store notes.Store
	switch cfg.Notes.Store {
	case notes.StoreMemory:
		store = notes.NewMemoryStore()
	case notes.StoreRedis, "":
		store = notes.NewRedisStore(rdb)
	default:
		return nil, fmt.Errorf("unknown notes store %q", cfg.Notes.Store)
	}
	logx.Info().Str("store", cfg.Notes.Store).Str("embedding_model", cfg.Notes.EmbeddingModel).Msg("Notes enabled")
	return notes.NewService(store, embedder, cfg.Notes), nil
}

func newAuthService(cfg auth.Config, users auth.Repository, clock clockwork.Clock) (*auth.Service, error) {
	issuer, err := auth.NewTokenIssuer(cfg.SecretKey, cfg.TokenTTL(), clock)
	if err != nil {
		return nil, fmt.Errorf("create token issuer: %w", err)
	}
	var google auth.IdentityProvider
	if cfg.GoogleClientID != "" && cfg.GoogleClientSecret != "" {
		google = auth.NewGoogleProvider(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURI)
	} else {
		logx.Warn().Msg("Google OAuth credentials not set; Google login is disabled")
	}
	return auth.NewService(users, issuer, google, clock), nil
}
