package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/study-buddy-core/server/internal/agent/model"
	"github.com/study-buddy-core/server/internal/app"
	"github.com/study-buddy-core/server/internal/auth"
	errx "github.com/study-buddy-core/server/internal/core/error"
	"github.com/study-buddy-core/server/internal/emotion"
	"github.com/study-buddy-core/server/internal/progress"
)

var errNotImplemented = errors.New("not implemented")

type mockAppService struct {
	chatFn                func(ctx context.Context, req app.ChatRequest) (app.ChatResponse, error)
	historyFn             func(ctx context.Context, sessionID string) (app.HistoryResponse, error)
	clearSessionFn        func(ctx context.Context, sessionID string) error
	testModelFn           func(ctx context.Context) (string, error)
	uploadNotesFn         func(ctx context.Context, userID, filename string, data []byte) (app.NoteUploadResponse, error)
	askNotesFn            func(ctx context.Context, req app.NoteQuestion) (app.NoteAnswer, error)
	summarizeNotesFn      func(ctx context.Context, userID, personaID string) (app.SummaryResponse, error)
	trackProgressFn       func(ctx context.Context, userID string, r progress.Record) (progress.Record, error)
	progressStatsFn       func(ctx context.Context, userID string) (progress.Stats, error)
	sessionProgressFn     func(ctx context.Context, userID, sessionID string) (progress.Record, error)
	updateComprehensionFn func(ctx context.Context, userID, sessionID string, level int) (progress.Record, error)
	emotionTrendsFn       func(ctx context.Context, userID string, days int) (progress.Trends, error)
}

func (m *mockAppService) Chat(ctx context.Context, req app.ChatRequest) (app.ChatResponse, error) {
	if m.chatFn != nil {
		return m.chatFn(ctx, req)
	}
	return app.ChatResponse{}, errNotImplemented
}

func (m *mockAppService) History(ctx context.Context, sessionID string) (app.HistoryResponse, error) {
	if m.historyFn != nil {
		return m.historyFn(ctx, sessionID)
	}
	return app.HistoryResponse{}, errx.NotFound(nil, "Session not found")
}

func (m *mockAppService) ClearSession(ctx context.Context, sessionID string) error {
	if m.clearSessionFn != nil {
		return m.clearSessionFn(ctx, sessionID)
	}
	return nil
}

func (m *mockAppService) TestModel(ctx context.Context) (string, error) {
	if m.testModelFn != nil {
		return m.testModelFn(ctx)
	}
	return "", errNotImplemented
}

func (m *mockAppService) DetectEmotion(text string) emotion.Verdict {
	return emotion.Detect(text)
}

func (m *mockAppService) Personas() map[string]model.Persona {
	return model.PersonaMap()
}

func (m *mockAppService) UploadNotes(ctx context.Context, userID, filename string, data []byte) (app.NoteUploadResponse, error) {
	if m.uploadNotesFn != nil {
		return m.uploadNotesFn(ctx, userID, filename, data)
	}
	return app.NoteUploadResponse{}, errNotImplemented
}

func (m *mockAppService) AskNotes(ctx context.Context, req app.NoteQuestion) (app.NoteAnswer, error) {
	if m.askNotesFn != nil {
		return m.askNotesFn(ctx, req)
	}
	return app.NoteAnswer{}, errNotImplemented
}

func (m *mockAppService) SummarizeNotes(ctx context.Context, userID, personaID string) (app.SummaryResponse, error) {
	if m.summarizeNotesFn != nil {
		return m.summarizeNotesFn(ctx, userID, personaID)
	}
	return app.SummaryResponse{}, errNotImplemented
}

func (m *mockAppService) TrackProgress(ctx context.Context, userID string, r progress.Record) (progress.Record, error) {
	if m.trackProgressFn != nil {
		return m.trackProgressFn(ctx, userID, r)
	}
	return progress.Record{}, errNotImplemented
}

func (m *mockAppService) ProgressStats(ctx context.Context, userID string) (progress.Stats, error) {
	if m.progressStatsFn != nil {
		return m.progressStatsFn(ctx, userID)
	}
	return progress.Stats{}, errNotImplemented
}

func (m *mockAppService) SessionProgress(ctx context.Context, userID, sessionID string) (progress.Record, error) {
	if m.sessionProgressFn != nil {
		return m.sessionProgressFn(ctx, userID, sessionID)
	}
	return progress.Record{}, errNotImplemented
}

func (m *mockAppService) UpdateComprehension(ctx context.Context, userID, sessionID string, level int) (progress.Record, error) {
	if m.updateComprehensionFn != nil {
		return m.updateComprehensionFn(ctx, userID, sessionID, level)
	}
	return progress.Record{}, errNotImplemented
}

func (m *mockAppService) EmotionTrends(ctx context.Context, userID string, days int) (progress.Trends, error) {
	if m.emotionTrendsFn != nil {
		return m.emotionTrendsFn(ctx, userID, days)
	}
	return progress.Trends{}, errNotImplemented
}

// mockAuthService accepts the token "good" as user u1.
type mockAuthService struct {
	registerFn       func(ctx context.Context, in auth.RegisterInput) (auth.TokenResponse, error)
	loginFn          func(ctx context.Context, in auth.LoginInput) (auth.TokenResponse, error)
	googleCallbackFn func(ctx context.Context, code string) (auth.TokenResponse, error)
	googleDisabled   bool
}

var testUser = auth.User{ID: "u1", Email: "ada@example.com", IsActive: true, AuthProvider: auth.ProviderLocal}

func (m *mockAuthService) Register(ctx context.Context, in auth.RegisterInput) (auth.TokenResponse, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, in)
	}
	return auth.TokenResponse{}, errNotImplemented
}

func (m *mockAuthService) Login(ctx context.Context, in auth.LoginInput) (auth.TokenResponse, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, in)
	}
	return auth.TokenResponse{}, errNotImplemented
}

func (m *mockAuthService) GoogleLoginURL(state string) (string, error) {
	if m.googleDisabled {
		return "", errx.New(nil, http.StatusNotImplemented, "Google login is not configured")
	}
	return "https://accounts.example.com/o/oauth2/auth?state=" + state, nil
}

func (m *mockAuthService) GoogleCallback(ctx context.Context, code string) (auth.TokenResponse, error) {
	if m.googleCallbackFn != nil {
		return m.googleCallbackFn(ctx, code)
	}
	return auth.TokenResponse{}, errNotImplemented
}

func (m *mockAuthService) CurrentUser(_ context.Context, token string) (auth.User, error) {
	if token == "good" {
		return testUser, nil
	}
	return auth.User{}, errx.Unauthorized("Could not validate credentials")
}

// --- Test helpers ---

func testConfig() Config {
	return Config{
		Port:          "0",
		SessionSecret: "test-secret-key-32-bytes-long!!!",
		CORSOrigins:   []string{"http://localhost:8080"},
		MaxUploadSize: "1M",
	}
}

func withConfig(fn func(*Config)) func(*Config, *Deps) {
	return func(c *Config, _ *Deps) { fn(c) }
}

func withHealthChecks(checks ...HealthCheck) func(*Config, *Deps) {
	return func(_ *Config, d *Deps) { d.HealthChecks = checks }
}

func withDeps(fn func(*Deps)) func(*Config, *Deps) {
	return func(_ *Config, d *Deps) { fn(d) }
}

func newTestServer(t *testing.T, appSvc appService, authSvc authService, opts ...func(*Config, *Deps)) *Server {
	t.Helper()
	if appSvc == nil {
		appSvc = &mockAppService{}
	}
	if authSvc == nil {
		authSvc = &mockAuthService{}
	}
	cfg := testConfig()
	deps := Deps{App: appSvc, Auth: authSvc, FrontendURL: "http://localhost:8080"}
	for _, opt := range opts {
		opt(&cfg, &deps)
	}
	srv, err := NewServer(cfg, deps)
	require.NoError(t, err)
	return srv
}

// do runs a request through the full router. A non-nil body is sent as JSON.
func do(t *testing.T, srv *Server, method, target string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func authHeader() []string {
	return []string{"Authorization", "Bearer good"}
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}
