package httpserver

import (
	"net/http"
	"net/url"
	"slices"

	logx "github.com/study-buddy-core/server/pkg/logger"
)

// NewCheckOrigin returns a CheckOrigin function for the chat socket. Empty
// origins (non-browser clients) and the listed origins are accepted; in
// development any localhost origin is accepted too.
func NewCheckOrigin(allowed []string, isDevelopment bool) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if slices.Contains(allowed, extractOrigin(origin)) {
			return true
		}
		if isDevelopment && isLocalhostOrigin(origin) {
			return true
		}

		logx.Warn().Str("origin", origin).Str("remote_addr", r.RemoteAddr).Msg("WebSocket origin rejected")
		return false
	}
}

func extractOrigin(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

func isLocalhostOrigin(origin string) bool {
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	host := u.Hostname()
	return host == "localhost" || host == "127.0.0.1"
}
