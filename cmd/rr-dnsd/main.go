// Command rr-dnsd runs a caching, iterative DNS resolver: it listens
// on UDP, answers from its in-memory cache when it can, and otherwise
// walks the delegation hierarchy from the configured root hints (or
// forwards to a configured upstream) to resolve the name itself.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aeden/rrwalk/internal/dns/cache"
	"github.com/aeden/rrwalk/internal/dns/client"
	"github.com/aeden/rrwalk/internal/dns/common/clock"
	"github.com/aeden/rrwalk/internal/dns/common/log"
	"github.com/aeden/rrwalk/internal/dns/config"
	"github.com/aeden/rrwalk/internal/dns/resolver"
	"github.com/aeden/rrwalk/internal/dns/server"
)

const version = "0.1.0-dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	if err := log.Configure(cfg.Env, cfg.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "logging configuration error: %v\n", err)
		os.Exit(1)
	}
	logger := log.GetLogger()

	logger.Info(map[string]any{
		"version":        version,
		"env":            cfg.Env,
		"port":           cfg.Port,
		"root_hints":     len(cfg.Root.Servers),
		"forwarding":     cfg.Forward.Enabled,
		"max_hops":       cfg.MaxHops,
		"negative_cache": cfg.Cache.NegativeSize,
	}, "starting rrwalk")

	srv, err := build(cfg, logger)
	if err != nil {
		logger.Fatal(map[string]any{"error": err.Error()}, "failed to build application")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info(map[string]any{"signal": sig.String()}, "shutdown signal received")
		cancel()
	}()

	if err := srv.Start(ctx); err != nil {
		logger.Fatal(map[string]any{"error": err.Error()}, "failed to start server")
	}

	<-ctx.Done()
	if err := srv.Stop(); err != nil {
		logger.Warn(map[string]any{"error": err.Error()}, "error during shutdown")
	}
	logger.Info(nil, "rrwalk stopped")
}

// build wires together the cache, resolver, and server dispatcher from
// cfg, the one place the whole dependency graph is assembled.
func build(cfg *config.AppConfig, logger log.Logger) (*server.Server, error) {
	clk := clock.RealClock{}
	recordCache := cache.New(clk)

	dial := func(addr string) (resolver.Querier, error) {
		return client.Dial(addr)
	}

	rootHints := make([]resolver.RootHint, len(cfg.Root.Servers))
	for i, hint := range cfg.Root.Servers {
		rootHints[i] = resolver.RootHint(hint.Address)
	}

	var forwardUpstream string
	if cfg.Forward.Enabled {
		forwardUpstream = cfg.Forward.Upstream
	}

	res, err := resolver.New(resolver.Options{
		Cache:             recordCache,
		Dial:              dial,
		Clock:             clk,
		Logger:            logger,
		RootHints:         rootHints,
		ForwardUpstream:   forwardUpstream,
		MaxHops:           cfg.MaxHops,
		NegativeCacheSize: cfg.Cache.NegativeSize,
	})
	if err != nil {
		return nil, fmt.Errorf("build resolver: %w", err)
	}

	addr := fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	return server.New(addr, res, logger), nil
}
