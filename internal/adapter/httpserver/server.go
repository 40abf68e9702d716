// Package httpserver exposes the study buddy over HTTP and WebSocket using echo.
package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/sessions"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/study-buddy-core/server/internal/adapter/metrics"
	"github.com/study-buddy-core/server/internal/agent/model"
	"github.com/study-buddy-core/server/internal/app"
	"github.com/study-buddy-core/server/internal/auth"
	"github.com/study-buddy-core/server/internal/emotion"
	"github.com/study-buddy-core/server/internal/progress"
	logx "github.com/study-buddy-core/server/pkg/logger"
)

type appService interface {
	Chat(ctx context.Context, req app.ChatRequest) (app.ChatResponse, error)
	History(ctx context.Context, sessionID string) (app.HistoryResponse, error)
	ClearSession(ctx context.Context, sessionID string) error
	TestModel(ctx context.Context) (string, error)
	DetectEmotion(text string) emotion.Verdict
	Personas() map[string]model.Persona
	UploadNotes(ctx context.Context, userID, filename string, data []byte) (app.NoteUploadResponse, error)
	AskNotes(ctx context.Context, req app.NoteQuestion) (app.NoteAnswer, error)
	SummarizeNotes(ctx context.Context, userID, personaID string) (app.SummaryResponse, error)
	TrackProgress(ctx context.Context, userID string, r progress.Record) (progress.Record, error)
	ProgressStats(ctx context.Context, userID string) (progress.Stats, error)
	SessionProgress(ctx context.Context, userID, sessionID string) (progress.Record, error)
	UpdateComprehension(ctx context.Context, userID, sessionID string, level int) (progress.Record, error)
	EmotionTrends(ctx context.Context, userID string, days int) (progress.Trends, error)
}

type authService interface {
	Register(ctx context.Context, in auth.RegisterInput) (auth.TokenResponse, error)
	Login(ctx context.Context, in auth.LoginInput) (auth.TokenResponse, error)
	GoogleLoginURL(state string) (string, error)
	GoogleCallback(ctx context.Context, code string) (auth.TokenResponse, error)
	CurrentUser(ctx context.Context, token string) (auth.User, error)
}

// Config is the HTTP surface configuration.
type Config struct {
	Port          string        `envconfig:"PORT" default:"8000"`
	SessionSecret string        `envconfig:"SESSION_SECRET" default:"change-me-session-secret-32bytes"`
	CORSOrigins   []string      `envconfig:"CORS_ORIGINS" default:"http://localhost:8080,http://127.0.0.1:8080,http://localhost:5173,http://localhost:5000"`
	RateLimit     float64       `envconfig:"RATE_LIMIT_RPS" default:"5"`
	RateBurst     int           `envconfig:"RATE_LIMIT_BURST" default:"20"`
	MaxUploadSize string        `envconfig:"MAX_UPLOAD_SIZE" default:"20M"`
	ChatTimeout   time.Duration `envconfig:"CHAT_TIMEOUT" default:"60s"`
}

// Deps are the collaborators of the server. Only App and Auth are required.
type Deps struct {
	App          appService
	Auth         authService
	Metrics      http.Handler
	HTTPMetrics  *metrics.HTTPMetrics
	ChatMetrics  *metrics.ChatMetrics
	HealthChecks []HealthCheck
	FrontendURL  string
	Production   bool
	// GeminiConfigured is reported by /api/health.
	GeminiConfigured bool
}

type Server struct {
	echo   *echo.Echo
	config Config

	app  appService
	auth authService

	metricsHandler http.Handler
	httpMetrics    *metrics.HTTPMetrics
	chatMetrics    *metrics.ChatMetrics

	upgrader         websocket.Upgrader
	pongWait         time.Duration
	sessionStore     *sessions.CookieStore
	healthChecks     []HealthCheck
	frontendURL      string
	production       bool
	geminiConfigured bool
	startTime        time.Time
}

func NewServer(cfg Config, deps Deps) (*Server, error) {
	if deps.App == nil || deps.Auth == nil {
		return nil, errors.New("app and auth services are required")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	srv := &Server{
		echo:             e,
		config:           cfg,
		app:              deps.App,
		auth:             deps.Auth,
		metricsHandler:   deps.Metrics,
		httpMetrics:      deps.HTTPMetrics,
		chatMetrics:      deps.ChatMetrics,
		pongWait:         wsPongWait,
		sessionStore:     setupSessionStore(cfg.SessionSecret, deps.Production),
		healthChecks:     deps.HealthChecks,
		frontendURL:      deps.FrontendURL,
		production:       deps.Production,
		geminiConfigured: deps.GeminiConfigured,
		startTime:        time.Now(),
	}
	srv.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     NewCheckOrigin(srv.allowedOrigins(), !deps.Production),
	}
	e.HTTPErrorHandler = srv.handleError

	srv.registerRoutes()

	return srv, nil
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Start() error {
	logx.Info().Str("port", s.config.Port).Msg("Starting server")
	if err := s.echo.Start(":" + s.config.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}

// allowedOrigins is the configured CORS list plus the frontend.
func (s *Server) allowedOrigins() []string {
	origins := make([]string, 0, len(s.config.CORSOrigins)+1)
	seen := map[string]bool{}
	for _, o := range append(append([]string{}, s.config.CORSOrigins...), s.frontendURL) {
		o = extractOrigin(o)
		if o == "" || seen[o] {
			continue
		}
		seen[o] = true
		origins = append(origins, o)
	}
	return origins
}

const (
	sessionName          = "study-buddy-session"
	sessionKeyOAuthState = "oauth_state"
	sessionMaxAge        = 10 * time.Minute
)

func setupSessionStore(secret string, production bool) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(sessionMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   production,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}
