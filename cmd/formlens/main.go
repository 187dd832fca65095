package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/formlens/formlens/internal/config"
	"github.com/formlens/formlens/internal/form"
	"github.com/formlens/formlens/internal/mcp"
	"github.com/formlens/formlens/internal/overlay"
	"github.com/formlens/formlens/internal/recognize"
	"github.com/formlens/formlens/internal/schema"
	"github.com/formlens/formlens/internal/server"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

// setupLogger builds the process logger. In stdio mode all output goes to
// stderr so it never interferes with the MCP protocol on stdout.
func setupLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	out := os.Stdout
	if !cfg.IsServerMode() {
		out = os.Stderr
	}

	logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

// buildService assembles the form service from the configuration.
func buildService(cfg *config.Config, logger *slog.Logger) *form.Service {
	return form.New(form.Config{
		Recognizer:  recognize.NewTesseractRecognizer(cfg.Languages...),
		RenderScale: cfg.RenderScale,
		Schema: schema.Config{
			SectionGap:   cfg.SectionGap,
			MinChoiceRun: cfg.MinChoiceRun,
		},
		Overlay: overlay.Config{
			FontSizeMax: cfg.FontSizeMax,
			FontSizeMin: cfg.FontSizeMin,
		},
		Logger: logger,
	})
}

// runServerMode serves HTTP until a shutdown signal arrives
func runServerMode(cfg *config.Config, svc *form.Service, logger *slog.Logger) {
	handler := server.NewHandler(svc, cfg.ServerName, cfg.Version, cfg.MaxFileSize, logger)
	srv := server.New(cfg, handler, logger)

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- srv.Start()
	}()

	select {
	case sig := <-signalCh:
		logger.Info("received signal, shutting down", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("shutdown failed", "error", err)
			os.Exit(1)
		}
		<-serverErrCh

	case err := <-serverErrCh:
		if err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}

	logger.Info("server stopped")
}

// runStdioMode serves MCP over stdin/stdout; the parent process controls
// the lifecycle
func runStdioMode(cfg *config.Config, svc *form.Service) {
	mcpServer, err := mcp.NewServer(cfg, svc)
	if err != nil {
		log.Fatalf("Failed to create MCP server: %v", err)
	}

	if err := mcpServer.Run(context.Background()); err != nil {
		// Only log to stderr in debug mode to avoid protocol interference
		if os.Getenv("DEBUG") != "" {
			log.Printf("Server error: %v", err)
		}
		os.Exit(1)
	}
}

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			printVersion()
			return
		}
	}

	// Load configuration from flags first
	cfg, err := config.LoadFromFlags()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := setupLogger(cfg)

	// Set version if it was provided during build
	if version != "dev" {
		cfg.Version = version
	}

	if cfg.IsDebug() && cfg.IsServerMode() {
		logger.Debug("starting", "config", cfg.String())
	}

	svc := buildService(cfg, logger)

	if cfg.IsServerMode() {
		runServerMode(cfg, svc, logger)
	} else {
		runStdioMode(cfg, svc)
	}
}

// printVersion prints version information
func printVersion() {
	fmt.Printf("Formlens\n")
	fmt.Printf("Version: %s\n", version)
	fmt.Printf("Build Time: %s\n", buildTime)
	fmt.Printf("Git Commit: %s\n", gitCommit)
	fmt.Printf("Built with: %s\n", runtime.Version())
}
