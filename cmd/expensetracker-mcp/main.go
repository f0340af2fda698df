// Command expensetracker-mcp serves the expense tools over MCP on stdio.
// Stdout carries the protocol, so logs go to stderr.
package main

import (
	"log/slog"
	"os"

	"expensetracker/internal/cli"
	"expensetracker/internal/log"
	"expensetracker/internal/mcpserver"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		cli.Fatal(cli.SetupLogger(os.Stderr, slog.LevelInfo, "text"), "Invalid configuration", err)
	}
	logger := cli.SetupLogger(os.Stderr, cfg.SlogLevel(), cfg.LogFormat)

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	result, err := cli.OpenBackend(ctx, cfg, logger)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize backend", err)
	}

	svc := cli.NewExpenseService(cfg, result, nil, logger)
	mcpLogger := log.New(logger.Handler(), log.ComponentMCP)
	s := mcpserver.NewServer(svc, version, mcpLogger)

	logger.Info("Starting MCP server",
		"version", version,
		"backend", cfg.DataBackend,
		"categories_path", cfg.CategoriesPath)

	serveErr := mcpserver.ServeStdio(ctx, s, os.Stdin, os.Stdout, mcpLogger)
	if err := result.Cleanup(); err != nil {
		logger.Error("Backend cleanup failed", "error", err)
	}
	if serveErr != nil {
		cli.Fatal(logger, "MCP server error", serveErr)
	}
	logger.Info("MCP server stopped")
}
