// Command spotify-now-playing serves the portfolio site's Spotify widget
// API: a currently-playing endpoint and a top-tracks endpoint, both backed
// by a pre-provisioned refresh token.
package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/tmarsh/go-spotify-now-playing/internal/config"
	"github.com/tmarsh/go-spotify-now-playing/internal/web"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer logger.Sync()

	// Incomplete credentials are degraded behavior, not a startup failure:
	// the widget shows its idle state until the environment is fixed.
	if !cfg.Credentials.Complete() {
		logger.Warn("spotify credentials incomplete; every response will use the fallback payload")
	}

	server, err := web.NewServer(web.ServerConfig{
		Addr:        cfg.Addr,
		Credentials: cfg.Credentials,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	return server.Run()
}
