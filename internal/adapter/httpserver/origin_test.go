package httpserver

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewCheckOrigin(t *testing.T) {
	allowed := []string{"http://localhost:8080", "https://study.example.com"}

	tests := []struct {
		name   string
		origin string
		dev    bool
		want   bool
	}{
		{"empty origin", "", false, true},
		{"listed origin", "https://study.example.com", false, true},
		{"listed origin with path", "https://study.example.com/app", false, true},
		{"unlisted origin", "https://evil.example.com", false, false},
		{"localhost in production", "http://localhost:3000", false, false},
		{"localhost in development", "http://localhost:3000", true, true},
		{"loopback in development", "http://127.0.0.1:5173", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/chat/ws", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			assert.Equal(t, tt.want, NewCheckOrigin(allowed, tt.dev)(req))
		})
	}
}

func TestAllowedOrigins_IncludesFrontend(t *testing.T) {
	srv := newTestServer(t, nil, nil, withDeps(func(d *Deps) { d.FrontendURL = "https://study.example.com/" }))
	assert.Equal(t, []string{"http://localhost:8080", "https://study.example.com"}, srv.allowedOrigins())
}
