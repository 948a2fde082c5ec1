// CLAUDE:SUMMARY CLI entry point for tokenwatch: live page monitor with HTTP API, one-shot estimate or transcript, MCP stdio server.
// Command tokenwatch watches the token budget of AI chat conversations.
//
// Usage:
//
//	tokenwatch -config tokenwatch.yaml                          # monitor + HTTP API from YAML config
//	tokenwatch -url https://chatgpt.com/c/...                   # monitor one live page (stdout sink)
//	tokenwatch -html page.html -page-url https://claude.ai/chat  # one-shot estimate, JSON on stdout
//	tokenwatch -html page.html -page-url ... -transcript         # one-shot Markdown transcript
//	tokenwatch -html page.html -page-url ... -debug              # platform detection details
//	tokenwatch -mcp                                             # MCP server on stdio
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/tokenwatch/tokenwatch"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "", "path to tokenwatch.yaml config file")
	pageURL := flag.String("url", "", "monitor a single live page (browser source, stdout sink)")
	htmlFile := flag.String("html", "", "estimate a saved HTML page and exit")
	htmlURL := flag.String("page-url", "", "URL the saved page was captured from (platform detection)")
	asTranscript := flag.Bool("transcript", false, "with -html: print a Markdown transcript instead of the estimate")
	debug := flag.Bool("debug", false, "with -html: print platform detection details instead of the estimate")
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

	cfg := &tokenwatch.Config{}
	if *configPath != "" {
		loaded, err := tokenwatch.LoadConfigFile(*configPath)
		if err != nil {
			logger.Error("tokenwatch: config", "error", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	var err error
	switch {
	case *htmlFile != "":
		err = runOnce(ctx, logger, cfg, *htmlFile, *htmlURL, *asTranscript, *debug)
	case *mcpStdio:
		err = runMCP(ctx, logger, cfg)
	case *pageURL != "":
		cfg.Page = tokenwatch.PageConfig{URL: *pageURL, Source: "browser"}
		err = runServe(ctx, logger, cfg)
	case *configPath != "":
		err = runServe(ctx, logger, cfg)
	default:
		fmt.Fprintln(os.Stderr, "usage: tokenwatch -config <file> | -url <url> | -html <file> [-page-url <url>] [-transcript|-debug] | -mcp")
		os.Exit(2)
	}
	if err != nil {
		logger.Error("tokenwatch: fatal", "error", err)
		os.Exit(1)
	}
}

func runOnce(ctx context.Context, logger *slog.Logger, cfg *tokenwatch.Config, path, url string, md, debug bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if cfg.DBPath == "" {
		cfg.DBPath = ":memory:"
	}
	svc, err := tokenwatch.New(cfg, logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	req := tokenwatch.PageRequest{URL: url, HTML: string(data)}
	var out any
	switch {
	case md:
		text, err := svc.Transcript(ctx, req)
		if err != nil {
			return err
		}
		fmt.Print(text)
		return nil
	case debug:
		out, err = svc.Debug(ctx, req)
	default:
		out, err = svc.EstimatePage(ctx, req)
	}
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func runMCP(ctx context.Context, logger *slog.Logger, cfg *tokenwatch.Config) error {
	// stdout carries the protocol.
	if len(cfg.Sinks) == 0 {
		cfg.Sinks = []tokenwatch.SinkConfig{{Type: "stderr"}}
	}
	svc, err := tokenwatch.New(cfg, logger)
	if err != nil {
		return err
	}
	defer svc.Close()
	if err := svc.Start(ctx); err != nil {
		return err
	}

	srv := mcp.NewServer(&mcp.Implementation{Name: "tokenwatch", Version: version}, nil)
	svc.RegisterMCP(srv)
	logger.Info("tokenwatch: MCP on stdio")
	return srv.Run(ctx, &mcp.StdioTransport{})
}

func runServe(ctx context.Context, logger *slog.Logger, cfg *tokenwatch.Config) error {
	svc, err := tokenwatch.New(cfg, logger)
	if err != nil {
		return err
	}
	defer svc.Close()
	if err := svc.Start(ctx); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           svc.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info("tokenwatch: HTTP listening", "addr", cfg.Listen)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
