// Package spotify talks to the Spotify Web API using a pre-provisioned
// refresh token. The token exchange and every resource read run under the
// same bounded-retry discipline with exponential backoff; each call carries
// its own attempt budget.
package spotify

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/tmarsh/go-spotify-now-playing/internal/config"
	"github.com/tmarsh/go-spotify-now-playing/internal/metrics"
)

const (
	defaultAuthURL = "https://accounts.spotify.com/api/token"
	defaultAPIURL  = "https://api.spotify.com/v1"
	userAgent      = "go-spotify-now-playing/1.0"
)

const (
	pathCurrentlyPlaying = "/me/player/currently-playing"
	pathTopTracks        = "/me/top/tracks"
	pathTopArtists       = "/me/top/artists"
)

// Sentinel errors.
var (
	// ErrMissingCredentials is returned when the client was built without a
	// complete credential set.
	ErrMissingCredentials = errors.New("spotify credentials not configured")

	// ErrTokenExhausted is returned when the token endpoint never returns
	// success within the retry budget.
	ErrTokenExhausted = errors.New("token endpoint never returned success")

	// ErrFetchExhausted is returned when a resource endpoint never returns
	// success within the retry budget.
	ErrFetchExhausted = errors.New("resource endpoint never returned success")

	// ErrBadPayload is returned when an upstream body does not deserialize
	// into the expected shape.
	ErrBadPayload = errors.New("unexpected upstream payload shape")
)

// ClientConfig configures a Client. Only Credentials is required; zero
// values fall back to production defaults. Tests override the URLs and the
// retry policy.
type ClientConfig struct {
	Credentials config.Credentials
	AuthURL     string
	APIURL      string
	HTTPClient  *http.Client
	Retry       RetryPolicy
	Logger      *zap.Logger
	Metrics     *metrics.Recorder
}

// Client is a Spotify Web API client scoped to a single account's refresh
// token. It holds no mutable state; concurrent use is safe.
type Client struct {
	creds      config.Credentials
	authURL    string
	apiURL     string
	httpClient *http.Client
	retry      RetryPolicy
	log        *zap.Logger
	metrics    *metrics.Recorder
}

// NewClient creates a Client from the provided configuration.
func NewClient(cfg ClientConfig) *Client {
	c := &Client{
		creds:      cfg.Credentials,
		authURL:    cfg.AuthURL,
		apiURL:     cfg.APIURL,
		httpClient: cfg.HTTPClient,
		retry:      cfg.Retry,
		log:        cfg.Logger,
		metrics:    cfg.Metrics,
	}

	if c.authURL == "" {
		c.authURL = defaultAuthURL
	}
	if c.apiURL == "" {
		c.apiURL = defaultAPIURL
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if c.retry.MaxAttempts == 0 {
		c.retry = DefaultRetryPolicy
	}
	if c.log == nil {
		c.log = zap.NewNop()
	}

	return c
}

// Token exchanges the refresh token for a fresh access token. Every call
// re-authenticates from scratch; tokens are never cached across calls.
func (c *Client) Token(ctx context.Context) (*oauth2.Token, error) {
	if !c.creds.Complete() {
		return nil, ErrMissingCredentials
	}

	basic := base64.StdEncoding.EncodeToString([]byte(c.creds.ClientID + ":" + c.creds.ClientSecret))
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {c.creds.RefreshToken},
	}

	var lastErr error
	for attempt := 1; attempt <= c.retry.MaxAttempts; attempt++ {
		if attempt > 1 {
			c.metrics.UpstreamRetry("token")
			if err := c.wait(ctx, c.retry.Backoff(attempt-1)); err != nil {
				return nil, err
			}
		}

		token, err := c.requestToken(ctx, basic, form)
		if err == nil {
			c.metrics.UpstreamRequest("token", "ok")
			return token, nil
		}

		lastErr = err
		c.metrics.UpstreamRequest("token", "failure")
		c.log.Warn("token exchange attempt failed",
			zap.Int("attempt", attempt),
			zap.Error(err))
	}

	return nil, fmt.Errorf("%w after %d attempts: %v", ErrTokenExhausted, c.retry.MaxAttempts, lastErr)
}

// requestToken performs a single refresh-grant exchange.
func (c *Client) requestToken(ctx context.Context, basic string, form url.Values) (*oauth2.Token, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.authURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Authorization", "Basic "+basic)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("token endpoint returned %d", resp.StatusCode)
	}

	var token oauth2.Token
	if err := json.Unmarshal(body, &token); err != nil {
		return nil, fmt.Errorf("parsing token response: %w", err)
	}

	return &token, nil
}

// CurrentlyPlaying reads the player state, bypassing HTTP caches. A nil
// result with a nil error means nothing is playing: the player endpoint
// answered 204, or a client-error status, or an empty item.
func (c *Client) CurrentlyPlaying(ctx context.Context, token *oauth2.Token) (*CurrentlyPlaying, error) {
	status, body, err := c.get(ctx, pathCurrentlyPlaying, token, true)
	if err != nil {
		return nil, err
	}

	if status == http.StatusNoContent || status >= 400 {
		return nil, nil
	}

	var playing CurrentlyPlaying
	if err := json.Unmarshal(body, &playing); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}

	return &playing, nil
}

// TopTracks returns the account's top tracks exactly as Spotify sent them.
func (c *Client) TopTracks(ctx context.Context, token *oauth2.Token) ([]json.RawMessage, error) {
	return c.topItems(ctx, pathTopTracks, token)
}

// TopArtists returns the account's top artists exactly as Spotify sent them.
func (c *Client) TopArtists(ctx context.Context, token *oauth2.Token) ([]json.RawMessage, error) {
	return c.topItems(ctx, pathTopArtists, token)
}

func (c *Client) topItems(ctx context.Context, path string, token *oauth2.Token) ([]json.RawMessage, error) {
	status, body, err := c.get(ctx, path, token, false)
	if err != nil {
		return nil, err
	}

	if status >= 400 {
		return nil, fmt.Errorf("%s returned %d", path, status)
	}

	var page topItemsPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}

	if page.Items == nil {
		page.Items = []json.RawMessage{}
	}

	return page.Items, nil
}

// get performs one authenticated read with retry. Transport errors and 5xx
// statuses burn attempts; 204 and 4xx come back unretried so the caller can
// map them, since a client error will not change on a retry.
func (c *Client) get(ctx context.Context, path string, token *oauth2.Token, noStore bool) (int, []byte, error) {
	var lastErr error
	for attempt := 1; attempt <= c.retry.MaxAttempts; attempt++ {
		if attempt > 1 {
			c.metrics.UpstreamRetry(path)
			if err := c.wait(ctx, c.retry.Backoff(attempt-1)); err != nil {
				return 0, nil, err
			}
		}

		status, body, err := c.getOnce(ctx, path, token, noStore)
		if err == nil {
			c.metrics.UpstreamRequest(path, outcomeLabel(status))
			return status, body, nil
		}

		lastErr = err
		c.metrics.UpstreamRequest(path, "failure")
		c.log.Warn("resource fetch attempt failed",
			zap.String("path", path),
			zap.Int("attempt", attempt),
			zap.Error(err))
	}

	return 0, nil, fmt.Errorf("%w after %d attempts: %v", ErrFetchExhausted, c.retry.MaxAttempts, lastErr)
}

// getOnce performs a single authenticated GET.
func (c *Client) getOnce(ctx context.Context, path string, token *oauth2.Token, noStore bool) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+path, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if noStore {
		req.Header.Set("Cache-Control", "no-store")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return 0, nil, fmt.Errorf("%s returned %d", path, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("reading response body: %w", err)
	}

	return resp.StatusCode, body, nil
}

// wait blocks for d or until ctx is done.
func (c *Client) wait(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

func outcomeLabel(status int) string {
	switch {
	case status == http.StatusNoContent:
		return "no_content"
	case status < 300:
		return "ok"
	default:
		return "client_error"
	}
}
