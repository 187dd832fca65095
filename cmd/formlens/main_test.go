package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/formlens/formlens/internal/config"
)

const testVersion = "1.2.3"

func TestPrintVersion(t *testing.T) {
	// Save original stdout
	originalStdout := os.Stdout

	// Create a pipe to capture output
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("Failed to create pipe: %v", err)
	}

	// Redirect stdout to the pipe
	os.Stdout = w

	// Set version variables for testing
	oldVersion := version
	oldBuildTime := buildTime
	oldGitCommit := gitCommit

	version = testVersion
	buildTime = "2023-12-01_10:30:00"
	gitCommit = "abc123"

	defer func() {
		// Restore original values
		version = oldVersion
		buildTime = oldBuildTime
		gitCommit = oldGitCommit
		os.Stdout = originalStdout
	}()

	// Call printVersion in a goroutine
	done := make(chan struct{})
	go func() {
		defer close(done)
		printVersion()
		w.Close()
	}()

	// Read the output
	var buf bytes.Buffer
	io.Copy(&buf, r)
	<-done

	output := buf.String()

	// Verify output contains expected information
	expectedStrings := []string{
		"Formlens",
		"Version: " + testVersion,
		"Build Time: 2023-12-01_10:30:00",
		"Git Commit: abc123",
		"Built with:",
	}

	for _, expected := range expectedStrings {
		if !strings.Contains(output, expected) {
			t.Errorf("printVersion() output missing expected string: %s\nActual output:\n%s", expected, output)
		}
	}
}

func TestSetupLogger(t *testing.T) {
	originalDefault := slog.Default()
	defer slog.SetDefault(originalDefault)

	tests := []struct {
		name      string
		logLevel  string
		mode      string
		wantDebug bool
	}{
		{
			name:      "debug level enables debug logging",
			logLevel:  "debug",
			mode:      "server",
			wantDebug: true,
		},
		{
			name:      "info level disables debug logging",
			logLevel:  "info",
			mode:      "server",
			wantDebug: false,
		},
		{
			name:      "stdio mode builds a logger too",
			logLevel:  "warn",
			mode:      "stdio",
			wantDebug: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{Mode: tt.mode, LogLevel: tt.logLevel}
			logger := setupLogger(cfg)
			if logger == nil {
				t.Fatal("setupLogger() returned nil")
			}
			if got := logger.Enabled(context.Background(), slog.LevelDebug); got != tt.wantDebug {
				t.Errorf("debug enabled = %v, want %v", got, tt.wantDebug)
			}
		})
	}
}

func TestBuildService(t *testing.T) {
	cfg := config.DefaultConfig()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	svc := buildService(cfg, logger)
	if svc == nil {
		t.Fatal("buildService() returned nil")
	}
}

func TestVersionFlagDetection(t *testing.T) {
	tests := []struct {
		arg  string
		want bool
	}{
		{"-version", true},
		{"--version", true},
		{"-v", true},
		{"--mode=server", false},
		{"version", false},
	}

	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			got := tt.arg == "-version" || tt.arg == "--version" || tt.arg == "-v"
			if got != tt.want {
				t.Errorf("version detection for %q = %v, want %v", tt.arg, got, tt.want)
			}
		})
	}
}
