// Package pagesource assembles the page.Source stack for one running
// server: a forge client and scanner feeding a forgesource.Source, with an
// optional cachelayer.Layer wrapped around it. Where the layer composition
// is a compile-time generic chain, here it is a plain runtime wrap: Go
// interfaces already give page.Source the dynamic dispatch that needs.
package pagesource

import (
	"context"
	"log/slog"
	"time"

	"github.com/mrrpnya/pageshelf/internal/cache"
	"github.com/mrrpnya/pageshelf/internal/cachelayer"
	"github.com/mrrpnya/pageshelf/internal/forge"
	"github.com/mrrpnya/pageshelf/internal/forgesource"
	"github.com/mrrpnya/pageshelf/internal/page"
	"github.com/mrrpnya/pageshelf/internal/scanner"
)

// Config carries everything needed to stand up the upstream source and,
// optionally, the cache wrapping it.
type Config struct {
	ForgeBaseURL string
	ForgeToken   string

	TargetBranches []string
	DefaultBranch  string
	PollInterval   time.Duration

	CacheEnabled bool
	Cache        cache.Cache

	Logger *slog.Logger
}

// Stack is the running page-source pipeline: the live scanner plus the
// page.Source built on top of it (cache-wrapped if configured).
type Stack struct {
	Source  page.Source
	Scanner *scanner.Scanner
}

// Build wires the forge client, starts the scanner, and returns the
// resulting page.Source, wrapped in a cachelayer.Layer when cfg.Cache is
// enabled.
func Build(ctx context.Context, cfg Config) (*Stack, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	client := forge.New(cfg.ForgeBaseURL, cfg.ForgeToken)

	sc, err := scanner.Start(client, cfg.TargetBranches, cfg.PollInterval, logger)
	if err != nil {
		return nil, err
	}

	var src page.Source = forgesource.New(client, sc, cfg.DefaultBranch, logger)
	if cfg.CacheEnabled && cfg.Cache != nil {
		src = cachelayer.Wrap(src, cfg.Cache, logger)
	}

	return &Stack{Source: src, Scanner: sc}, nil
}

// Stop shuts down the background scanner.
func (s *Stack) Stop(ctx context.Context) error {
	return s.Scanner.Stop(ctx)
}
