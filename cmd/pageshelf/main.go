// Command pageshelf serves static content published to branches on a
// Forgejo-family forge, resolving requests by path or by subdomain and
// optionally caching pages and assets in Redis.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mrrpnya/pageshelf/internal/cache"
	"github.com/mrrpnya/pageshelf/internal/config"
	"github.com/mrrpnya/pageshelf/internal/dispatch"
	"github.com/mrrpnya/pageshelf/internal/httpserver"
	"github.com/mrrpnya/pageshelf/internal/metrics"
	"github.com/mrrpnya/pageshelf/internal/pagesource"
	"github.com/mrrpnya/pageshelf/internal/resolver"
	"github.com/mrrpnya/pageshelf/web"
)

// Set at build time with: -ldflags "-X main.version=1.0.0"
var version = "dev"

// CLI is the root command definition and global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"config.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Serve ServeCmd `cmd:"" default:"1" help:"Run the page server"`
}

// AfterApply installs the process-wide logger once flags are parsed.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// ServeCmd runs the server until it receives SIGINT/SIGTERM.
type ServeCmd struct{}

func (s *ServeCmd) Run(root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	return runServe(cfg)
}

func main() {
	cli := &CLI{}
	parser := kong.Parse(cli,
		kong.Description("pageshelf: read-only static page gateway for a Forgejo forge."),
		kong.Vars{"version": version},
	)
	if err := parser.Run(cli); err != nil {
		slog.Error("pageshelf exited with error", "error", err)
		os.Exit(1)
	}
}

func runServe(cfg *config.Server) error {
	logger := slog.Default()

	registry := prometheus.NewRegistry()
	metrics.Register(registry)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var c cache.Cache
	if cfg.Cache.Enabled {
		c = newCache(cfg.Cache, logger)
	}

	stack, err := pagesource.Build(ctx, pagesource.Config{
		ForgeBaseURL:   cfg.Upstream.URL,
		ForgeToken:     cfg.Upstream.Token,
		TargetBranches: cfg.Upstream.TargetBranches,
		DefaultBranch:  cfg.DefaultBranch,
		PollInterval:   cfg.Upstream.PollInterval(),
		CacheEnabled:   cfg.Cache.Enabled,
		Cache:          c,
		Logger:         logger,
	})
	if err != nil {
		return fmt.Errorf("build page source: %w", err)
	}

	res := resolver.New(resolver.Config{
		HomeHost:        cfg.HomeHost,
		PageHosts:       cfg.PageHosts,
		DefaultRepo:     cfg.DefaultRepo,
		DefaultBranch:   cfg.DefaultBranch,
		DefaultOwner:    cfg.DefaultUser,
		ExternalEnabled: cfg.AllowDomains,
	})

	templates, err := web.Load()
	if err != nil {
		return fmt.Errorf("load templates: %w", err)
	}

	handler := dispatch.New(res, stack.Source, templates, dispatch.ServerInfo{
		Name:        cfg.Name,
		Description: cfg.Description,
		HomeURL:     cfg.HomeURL,
	}, logger)

	httpSrv := httpserver.New(handler, registry, logger)
	if err := httpSrv.Start(ctx, cfg.Port, cfg.AdminPort); err != nil {
		return fmt.Errorf("start http servers: %w", err)
	}

	logger.Info("pageshelf started", "name", cfg.Name, "port", cfg.Port, "admin_port", cfg.AdminPort)

	<-ctx.Done()
	logger.Info("shutdown signal received, stopping")

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()

	var stopErrs []error
	if err := httpSrv.Stop(stopCtx); err != nil {
		stopErrs = append(stopErrs, err)
	}
	if err := stack.Stop(stopCtx); err != nil {
		stopErrs = append(stopErrs, err)
	}
	for _, err := range stopErrs {
		logger.Error("error during shutdown", "error", err)
	}

	logger.Info("pageshelf stopped")
	return nil
}

func newCache(cfg config.Cache, logger *slog.Logger) cache.Cache {
	opts := cache.DefaultRedisOptions()
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if cfg.MaxConnections > 0 {
		opts.MaxConnections = cfg.MaxConnections
	}
	rc := cache.NewRedisCache(cfg.Address, cfg.Port, cfg.Password, cfg.TTL(), opts)
	logger.Info("cache enabled", "address", cfg.Address, "port", cfg.Port)
	return rc
}
