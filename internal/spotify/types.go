package spotify

import "encoding/json"

// TrackItem is the track object inside a currently-playing response.
type TrackItem struct {
	Name       string `json:"name"`
	DurationMs int    `json:"duration_ms"`
	Artists    []struct {
		Name string `json:"name"`
	} `json:"artists"`
	Album struct {
		Name   string `json:"name"`
		Images []struct {
			URL string `json:"url"`
		} `json:"images"`
	} `json:"album"`
	ExternalURLs struct {
		Spotify string `json:"spotify"`
	} `json:"external_urls"`
}

// CurrentlyPlaying mirrors the player endpoint response. Item is nil when
// nothing is playing.
type CurrentlyPlaying struct {
	IsPlaying  bool       `json:"is_playing"`
	ProgressMs int        `json:"progress_ms"`
	Item       *TrackItem `json:"item"`
}

// topItemsPage is one page of a top-tracks or top-artists response. Items
// stay raw so handlers can pass them through without field loss.
type topItemsPage struct {
	Items []json.RawMessage `json:"items"`
}
