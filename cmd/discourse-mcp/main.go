// Command discourse-mcp serves a Discourse forum's REST API as MCP tools and
// resources over stdio.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/server"
	flag "github.com/spf13/pflag"

	"github.com/forumhq/discourse-mcp/internal/config"
	"github.com/forumhq/discourse-mcp/internal/discourse"
	"github.com/forumhq/discourse-mcp/internal/registrar"
	"github.com/forumhq/discourse-mcp/internal/resources"
	"github.com/forumhq/discourse-mcp/internal/site"
	"github.com/forumhq/discourse-mcp/internal/tools"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "discourse-mcp:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Default()

	flag.StringVar(&cfg.Site, "site", "", "tether to this Discourse site and hide the selection tool")
	flag.BoolVar(&cfg.AllowWrites, "allow-writes", false, "enable tools that mutate the remote site")
	flag.StringVar(&cfg.ToolsMode, "tools-mode", cfg.ToolsMode, "procedure source: local or discover")
	flag.StringVar(&cfg.APIKey, "api-key", "", "admin-style API key")
	flag.StringVar(&cfg.APIUsername, "api-username", "", "username the admin key acts as")
	flag.StringVar(&cfg.UserAPIKey, "user-api-key", "", "user-scoped API key")
	flag.StringVar(&cfg.UserAPIClientID, "user-api-client-id", "", "client id paired with the user API key")
	flag.StringVar(&cfg.BasicUser, "basic-user", "", "HTTP Basic username (additive)")
	flag.StringVar(&cfg.BasicPass, "basic-pass", "", "HTTP Basic password (additive)")
	flag.StringVar(&cfg.SitesFile, "sites-file", "", "YAML file with per-site credential overrides")
	flag.StringVar(&cfg.SearchPrefix, "search-prefix", "", "prepended to every search query")
	flag.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "per-request timeout")
	flag.DurationVar(&cfg.RateLimitInterval, "rate-limit-interval", cfg.RateLimitInterval, "minimum interval between same-kind write operations")
	flag.IntVar(&cfg.MaxResponseBytes, "max-response-bytes", cfg.MaxResponseBytes, "tool responses larger than this are truncated")
	flag.DurationVar(&cfg.CacheTTL, "cache-ttl", cfg.CacheTTL, "TTL for cached idempotent reads")
	flag.StringSliceVar(&cfg.AllowedUploadDirs, "allow-upload-dir", nil, "directory (or glob) uploads may be read from; repeatable")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	logger := newLogger(*logLevel)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		return err
	}

	var overrides []site.Registration
	if cfg.SitesFile != "" {
		var err error
		overrides, err = config.LoadSiteFile(cfg.SitesFile)
		if err != nil {
			return err
		}
	}

	clientOpts := []discourse.Option{
		discourse.WithTimeout(cfg.Timeout),
		discourse.WithUserAgent("discourse-mcp/" + version),
	}
	if cfg.BasicUser != "" {
		clientOpts = append(clientOpts, discourse.WithBasicAuth(cfg.BasicUser, cfg.BasicPass))
	}

	sites, err := site.NewState(cfg.Credential(), overrides,
		site.WithClientOptions(clientOpts...),
		site.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	tc := &tools.Context{
		Sites:             sites,
		Logger:            logger,
		Limiter:           discourse.NewRateLimiter(cfg.RateLimitInterval),
		AllowWrites:       cfg.AllowWrites,
		SearchPrefix:      cfg.SearchPrefix,
		MaxResponseBytes:  cfg.MaxResponseBytes,
		CacheTTL:          cfg.CacheTTL,
		AllowedUploadDirs: cfg.AllowedUploadDirs,
	}

	tethered := cfg.Site != ""
	if tethered {
		base, client, err := sites.BuildClientForSite(cfg.Site)
		if err != nil {
			return err
		}
		if _, err := client.Get(context.Background(), "/about.json"); err != nil {
			return fmt.Errorf("probing tethered site %s: %w", base, err)
		}
		sites.Select(base)
		logger.Info("tethered to site", "site", base)
	}

	s := server.NewMCPServer("discourse", version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithRecovery(),
	)

	registrar.Register(s, tc, registrar.Policy{
		AllowWrites:  cfg.AllowWrites,
		AdminPresent: sites.HasAdminAuth(),
		Tethered:     tethered,
		Mode:         registrar.ToolsMode(cfg.ToolsMode),
	}, logger)
	resources.Register(s, tc)

	return server.ServeStdio(s)
}

// newLogger writes to stderr; stdout carries the MCP stream.
func newLogger(level string) *slog.Logger {
	var l slog.Level
	switch level {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}
