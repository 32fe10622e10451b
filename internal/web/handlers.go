package web

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/tmarsh/go-spotify-now-playing/internal/metrics"
	"github.com/tmarsh/go-spotify-now-playing/internal/spotify"
)

// NowPlayingResponse is the widget-facing payload for the currently-playing
// route. The zero value is the fallback: isPlaying false, everything else
// omitted.
type NowPlayingResponse struct {
	IsPlaying   bool   `json:"isPlaying"`
	Title       string `json:"title,omitempty"`
	Artist      string `json:"artist,omitempty"`
	Album       string `json:"album,omitempty"`
	AlbumArtURL string `json:"albumArtUrl,omitempty"`
	SongURL     string `json:"songUrl,omitempty"`
	Progress    int    `json:"progress,omitempty"`
	Duration    int    `json:"duration,omitempty"`
}

// TopItemsResponse carries the top-tracks route payload. Items are relayed
// exactly as Spotify sent them.
type TopItemsResponse struct {
	TopTracks  []json.RawMessage `json:"topTracks"`
	TopArtists []json.RawMessage `json:"topArtists"`
}

// Handlers contains the JSON API handlers. Every route answers HTTP 200:
// upstream failures degrade to the route's fallback payload so the widget
// never renders a broken state.
type Handlers struct {
	spotify *spotify.Client
	limiter *rate.Limiter
	log     *zap.Logger
	metrics *metrics.Recorder
}

// NewHandlers creates a Handlers instance. The limiter bounds how fast the
// proxy will hit Spotify across all callers.
func NewHandlers(client *spotify.Client, limiter *rate.Limiter, log *zap.Logger, rec *metrics.Recorder) *Handlers {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handlers{
		spotify: client,
		limiter: limiter,
		log:     log,
		metrics: rec,
	}
}

// NowPlaying handles GET /api/spotify and GET /api/now-playing.
func (h *Handlers) NowPlaying(w http.ResponseWriter, r *http.Request) {
	if !h.limiter.Allow() {
		h.metrics.Fallback("now_playing", "rate_limited")
		respondJSON(w, NowPlayingResponse{})
		return
	}

	ctx := r.Context()

	token, err := h.spotify.Token(ctx)
	if err != nil {
		h.log.Warn("token acquisition failed", zap.Error(err))
		h.metrics.Fallback("now_playing", "token")
		respondJSON(w, NowPlayingResponse{})
		return
	}

	playing, err := h.spotify.CurrentlyPlaying(ctx, token)
	if err != nil {
		h.log.Warn("currently-playing fetch failed", zap.Error(err))
		h.metrics.Fallback("now_playing", "fetch")
		respondJSON(w, NowPlayingResponse{})
		return
	}

	if playing == nil || playing.Item == nil {
		respondJSON(w, NowPlayingResponse{})
		return
	}

	respondJSON(w, normalizeNowPlaying(playing))
}

// normalizeNowPlaying projects the upstream player state into the widget
// shape. Artist names are joined with ", ".
func normalizeNowPlaying(p *spotify.CurrentlyPlaying) NowPlayingResponse {
	item := p.Item

	names := make([]string, 0, len(item.Artists))
	for _, a := range item.Artists {
		names = append(names, a.Name)
	}

	resp := NowPlayingResponse{
		IsPlaying: p.IsPlaying,
		Title:     item.Name,
		Artist:    strings.Join(names, ", "),
		Album:     item.Album.Name,
		SongURL:   item.ExternalURLs.Spotify,
		Progress:  p.ProgressMs,
		Duration:  item.DurationMs,
	}

	if len(item.Album.Images) > 0 {
		resp.AlbumArtURL = item.Album.Images[0].URL
	}

	return resp
}

// TopTracks handles GET /api/spotify/top. Tracks and artists are fetched
// concurrently with independent retry budgets; their output fields are
// disjoint, so join order does not matter.
func (h *Handlers) TopTracks(w http.ResponseWriter, r *http.Request) {
	empty := TopItemsResponse{
		TopTracks:  []json.RawMessage{},
		TopArtists: []json.RawMessage{},
	}

	if !h.limiter.Allow() {
		h.metrics.Fallback("top_tracks", "rate_limited")
		respondJSON(w, empty)
		return
	}

	ctx := r.Context()

	token, err := h.spotify.Token(ctx)
	if err != nil {
		h.log.Warn("token acquisition failed", zap.Error(err))
		h.metrics.Fallback("top_tracks", "token")
		respondJSON(w, empty)
		return
	}

	type result struct {
		items []json.RawMessage
		err   error
	}

	tracksCh := make(chan result, 1)
	artistsCh := make(chan result, 1)

	go func() {
		items, err := h.spotify.TopTracks(ctx, token)
		tracksCh <- result{items, err}
	}()
	go func() {
		items, err := h.spotify.TopArtists(ctx, token)
		artistsCh <- result{items, err}
	}()

	tracks := <-tracksCh
	artists := <-artistsCh

	if tracks.err != nil || artists.err != nil {
		h.log.Warn("top items fetch failed",
			zap.NamedError("tracks", tracks.err),
			zap.NamedError("artists", artists.err))
		h.metrics.Fallback("top_tracks", "fetch")
		respondJSON(w, empty)
		return
	}

	respondJSON(w, TopItemsResponse{
		TopTracks:  tracks.items,
		TopArtists: artists.items,
	})
}

// Health handles GET /healthz.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{"status": "ok"})
}

// respondJSON writes v as an HTTP 200 JSON response.
func respondJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(v)
}
