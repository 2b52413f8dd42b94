// CLAUDE:SUMMARY CLI entry point for domsnap — DOM snapshot daemon with one-shot, MCP stdio, and HTTP modes.
// Command domsnap captures canonical DOM snapshots and diffs for agent
// browser sessions.
//
// Usage:
//
//	domsnap -config domsnap.yaml            # daemon from YAML config
//	domsnap -url https://example.com        # one-shot capture to ./.domsnap
//	domsnap -mcp -config domsnap.yaml       # serve MCP tools on stdio
//	domsnap -http :8090                     # artifact inspection HTTP surface
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "modernc.org/sqlite"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/domsnap/service"
)

func main() {
	configPath := flag.String("config", "", "path to domsnap.yaml config file")
	singleURL := flag.String("url", "", "capture a single URL once and exit")
	httpAddr := flag.String("http", "", "HTTP listen address (overrides config)")
	mcpStdio := flag.Bool("mcp", false, "serve MCP tools on stdio")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	var level slog.Level
	switch *logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, *configPath, *singleURL, *httpAddr, *mcpStdio); err != nil {
		logger.Error("domsnap: fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, configPath, singleURL, httpAddr string, mcpStdio bool) error {
	cfg, err := resolveConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if httpAddr != "" {
		cfg.HTTPAddr = httpAddr
	}

	svc := service.New(cfg, logger)
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start: %w", err)
	}
	defer svc.Close()

	if singleURL != "" {
		return runSingle(ctx, svc, singleURL)
	}

	if !mcpStdio && cfg.HTTPAddr == "" {
		fmt.Fprintln(os.Stderr, "usage: domsnap -config <file> [-mcp] [-http <addr>] | -url <url>")
		os.Exit(1)
	}

	if cfg.HTTPAddr != "" {
		httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: svc.Routes()}
		go func() {
			logger.Info("domsnap: http listening", "addr", cfg.HTTPAddr)
			if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("domsnap: http", "error", err)
			}
		}()
		defer httpSrv.Shutdown(context.Background())
	}

	if mcpStdio {
		srv := mcp.NewServer(&mcp.Implementation{
			Name:    "domsnap",
			Version: "1.0.0",
		}, nil)
		svc.RegisterMCP(srv)
		logger.Info("domsnap: mcp serving on stdio")
		return srv.Run(ctx, &mcp.StdioTransport{})
	}

	<-ctx.Done()
	return nil
}

// runSingle opens one session, captures once, and prints where the
// artifacts landed.
func runSingle(ctx context.Context, svc *service.Service, url string) error {
	id, err := svc.Open(ctx, "", url)
	if err != nil {
		return err
	}
	res, err := svc.Capture(ctx, id, "open")
	if err != nil {
		return err
	}
	if res == nil {
		return fmt.Errorf("capture skipped: page context unavailable")
	}
	fmt.Println(res.Summary())
	return nil
}

func resolveConfig(configPath string) (*service.Config, error) {
	if configPath != "" {
		return service.LoadConfigFile(configPath)
	}
	return &service.Config{}, nil
}
