package web

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tmarsh/go-spotify-now-playing/internal/config"
)

// A server built without credentials must still start and serve the fallback
// payload on every API route. The client fails before touching the network,
// so no fake upstream is needed.
func TestServerDegradedWithoutCredentials(t *testing.T) {
	server, err := NewServer(ServerConfig{Credentials: config.Credentials{}})
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}

	tests := []struct {
		path string
		want string
	}{
		{"/api/spotify", `{"isPlaying":false}`},
		{"/api/now-playing", `{"isPlaying":false}`},
		{"/api/spotify/top", `{"topTracks":[],"topArtists":[]}`},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if rec.Code != http.StatusOK {
				t.Fatalf("GET %s status = %d, want 200", tt.path, rec.Code)
			}
			if body := strings.TrimSpace(rec.Body.String()); body != tt.want {
				t.Errorf("GET %s body = %s, want %s", tt.path, body, tt.want)
			}
			if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
				t.Errorf("GET %s Content-Type = %q, want application/json", tt.path, ct)
			}
		})
	}
}

func TestServerOperationalRoutes(t *testing.T) {
	server, err := NewServer(ServerConfig{Credentials: config.Credentials{}})
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("GET /healthz status = %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("GET /metrics status = %d, want 200", rec.Code)
	}
}
