// Package config loads service configuration from the environment.
package config

import (
	"os"

	"github.com/joho/godotenv"
)

// DefaultAddr is the default listen address.
const DefaultAddr = "127.0.0.1:8080"

// Credentials holds the Spotify app credentials plus the pre-provisioned
// refresh token the service exchanges for access tokens. All three are
// opaque strings fixed for the process lifetime.
type Credentials struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
}

// Complete reports whether all three credentials are set. An incomplete set
// is not fatal: the server still runs and every API response degrades to its
// fallback payload.
func (c Credentials) Complete() bool {
	return c.ClientID != "" && c.ClientSecret != "" && c.RefreshToken != ""
}

// Config is the full service configuration.
type Config struct {
	Addr        string
	Credentials Credentials
}

// Load reads configuration from the environment, after a best-effort load of
// a local .env file. Missing variables never cause an error here.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		Addr: os.Getenv("ADDR"),
		Credentials: Credentials{
			ClientID:     os.Getenv("SPOTIFY_CLIENT_ID"),
			ClientSecret: os.Getenv("SPOTIFY_CLIENT_SECRET"),
			RefreshToken: os.Getenv("SPOTIFY_REFRESH_TOKEN"),
		},
	}

	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}

	return cfg
}
