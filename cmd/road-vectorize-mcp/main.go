package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/ironsheep/road-vectorize-mcp/internal/server"
	"github.com/ironsheep/road-vectorize-mcp/internal/vectorize"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("road-vectorize-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			fmt.Println("road-vectorize-mcp - MCP server turning road masks into line networks")
			fmt.Println()
			fmt.Println("Usage: road-vectorize-mcp [options]")
			fmt.Println()
			fmt.Println("Options:")
			fmt.Println("  --version, -v    Print version information")
			fmt.Println("  --help, -h       Print this help message")
			fmt.Println()
			fmt.Println("Environment variables:")
			fmt.Println("  VECTORIZE_MCP_LOG_LEVEL=debug|info|warn|error    Log level (default info)")
			fmt.Println("  VECTORIZE_MCP_WORKERS=N                          Parallel tiles in vectorize_batch (default: CPU count)")
			fmt.Println()
			fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
			fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
			return
		}
	}

	// Log to stderr (stdout is for MCP protocol)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLevel(os.Getenv("VECTORIZE_MCP_LOG_LEVEL")),
	}))
	vectorize.SetLogger(logger.With("component", "vectorize"))

	workers := 0
	if v := os.Getenv("VECTORIZE_MCP_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			logger.Error("invalid VECTORIZE_MCP_WORKERS", "value", v)
			os.Exit(2)
		}
		workers = n
	}

	logger.Debug("starting", "version", Version, "built", BuildTime, "commit", GitCommit, "workers", workers)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(server.Config{Workers: workers, Logger: logger})

	// Run blocks on stdin, so a signal is handled here rather than waiting
	// for the next request.
	errc := make(chan error, 1)
	go func() { errc <- srv.Run(ctx) }()

	select {
	case err := <-errc:
		if err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
	}
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
