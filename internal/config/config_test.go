package config

import (
	"os"
	"path/filepath"
	"testing"
)

func validServerConfig(dir string) *Config {
	return &Config{
		Mode:              "server",
		Host:              "127.0.0.1",
		Port:              8080,
		DocumentDirectory: dir,
		MaxFileSize:       1024,
		RenderScale:       2.0,
		Languages:         []string{"eng"},
		SectionGap:        100,
		MinChoiceRun:      3,
		FontSizeMax:       10,
		FontSizeMin:       6,
		LogLevel:          "info",
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	// Test default values
	if cfg.Mode != "stdio" {
		t.Errorf("Expected default mode to be 'stdio', got '%s'", cfg.Mode)
	}

	if cfg.Host != "127.0.0.1" {
		t.Errorf("Expected default host to be '127.0.0.1', got '%s'", cfg.Host)
	}

	if cfg.Port != 8080 {
		t.Errorf("Expected default port to be 8080, got %d", cfg.Port)
	}

	if cfg.Version != "1.0.0" {
		t.Errorf("Expected default version to be '1.0.0', got '%s'", cfg.Version)
	}

	if cfg.ServerName != "formlens" {
		t.Errorf("Expected default server name to be 'formlens', got '%s'", cfg.ServerName)
	}

	if cfg.LogLevel != "info" {
		t.Errorf("Expected default log level to be 'info', got '%s'", cfg.LogLevel)
	}

	if cfg.MaxFileSize != 100*1024*1024 {
		t.Errorf("Expected default max file size to be 100MB, got %d", cfg.MaxFileSize)
	}

	if cfg.RenderScale != 2.0 {
		t.Errorf("Expected default render scale to be 2.0, got %g", cfg.RenderScale)
	}

	if len(cfg.Languages) != 1 || cfg.Languages[0] != "eng" {
		t.Errorf("Expected default languages to be [eng], got %v", cfg.Languages)
	}

	if cfg.SectionGap != 100.0 {
		t.Errorf("Expected default section gap to be 100, got %g", cfg.SectionGap)
	}

	if cfg.MinChoiceRun != 3 {
		t.Errorf("Expected default min choice run to be 3, got %d", cfg.MinChoiceRun)
	}

	if cfg.FontSizeMax != 10 || cfg.FontSizeMin != 6 {
		t.Errorf("Expected default font bounds 6..10, got %d..%d", cfg.FontSizeMin, cfg.FontSizeMax)
	}

	// Test that document directory is set to current working directory by default
	currentDir, _ := os.Getwd()
	if cfg.DocumentDirectory != currentDir {
		t.Errorf("Expected default document directory to be '%s', got '%s'", currentDir, cfg.DocumentDirectory)
	}
}

func TestConfigValidate(t *testing.T) {
	tmpDir := t.TempDir()

	mutate := func(f func(*Config)) *Config {
		cfg := validServerConfig(tmpDir)
		f(cfg)
		return cfg
	}

	tests := []struct {
		name    string
		config  *Config
		wantErr bool
	}{
		{
			name:    "valid config - stdio mode",
			config:  DefaultConfig(),
			wantErr: false,
		},
		{
			name:    "valid config - server mode",
			config:  validServerConfig(tmpDir),
			wantErr: false,
		},
		{
			name:    "invalid mode",
			config:  mutate(func(c *Config) { c.Mode = "invalid" }),
			wantErr: true,
		},
		{
			name:    "invalid port - too low (server mode)",
			config:  mutate(func(c *Config) { c.Port = 0 }),
			wantErr: true,
		},
		{
			name:    "invalid port - too high (server mode)",
			config:  mutate(func(c *Config) { c.Port = 70000 }),
			wantErr: true,
		},
		{
			name: "invalid port ignored in stdio mode",
			config: mutate(func(c *Config) {
				c.Mode = "stdio"
				c.Port = 0
			}),
			wantErr: false,
		},
		{
			name:    "empty document directory",
			config:  mutate(func(c *Config) { c.DocumentDirectory = "" }),
			wantErr: true,
		},
		{
			name:    "zero max file size",
			config:  mutate(func(c *Config) { c.MaxFileSize = 0 }),
			wantErr: true,
		},
		{
			name:    "negative render scale",
			config:  mutate(func(c *Config) { c.RenderScale = -1 }),
			wantErr: true,
		},
		{
			name:    "no languages",
			config:  mutate(func(c *Config) { c.Languages = nil }),
			wantErr: true,
		},
		{
			name:    "zero section gap",
			config:  mutate(func(c *Config) { c.SectionGap = 0 }),
			wantErr: true,
		},
		{
			name:    "choice run below two",
			config:  mutate(func(c *Config) { c.MinChoiceRun = 1 }),
			wantErr: true,
		},
		{
			name: "inverted font bounds",
			config: mutate(func(c *Config) {
				c.FontSizeMin = 12
				c.FontSizeMax = 6
			}),
			wantErr: true,
		},
		{
			name:    "invalid log level",
			config:  mutate(func(c *Config) { c.LogLevel = "verbose" }),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Config.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfigAddress(t *testing.T) {
	cfg := &Config{Host: "192.168.1.1", Port: 9090}
	expected := "192.168.1.1:9090"
	if got := cfg.Address(); got != expected {
		t.Errorf("Config.Address() = %v, want %v", got, expected)
	}
}

func TestConfigIsDebug(t *testing.T) {
	tests := []struct {
		logLevel string
		want     bool
	}{
		{"debug", true},
		{"info", false},
		{"warn", false},
		{"error", false},
	}

	for _, tt := range tests {
		t.Run(tt.logLevel, func(t *testing.T) {
			cfg := &Config{LogLevel: tt.logLevel}
			if got := cfg.IsDebug(); got != tt.want {
				t.Errorf("Config.IsDebug() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConfigString(t *testing.T) {
	cfg := &Config{
		Mode:              "server",
		Host:              "localhost",
		Port:              8081,
		DocumentDirectory: "/tmp/forms",
		LogLevel:          "debug",
		MaxFileSize:       2048,
	}

	got := cfg.String()
	expected := "Config{Mode: server, Host: localhost, Port: 8081, DocumentDirectory: /tmp/forms, LogLevel: debug, MaxFileSize: 2048}"
	if got != expected {
		t.Errorf("Config.String() = %v, want %v", got, expected)
	}
}

func TestConfigValidateDirectoryCreation(t *testing.T) {
	// Use a directory that doesn't exist yet
	tmpDir := t.TempDir()
	newDir := filepath.Join(tmpDir, "sub", "forms")

	cfg := validServerConfig(newDir)
	if err := cfg.Validate(); err != nil {
		t.Errorf("Config.Validate() should create missing directory, got error: %v", err)
	}

	// Directory should now exist
	if _, err := os.Stat(newDir); os.IsNotExist(err) {
		t.Errorf("Config.Validate() did not create directory %s", newDir)
	}
}

func TestConfigIsServerMode(t *testing.T) {
	tests := []struct {
		mode string
		want bool
	}{
		{"server", true},
		{"stdio", false},
	}

	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			cfg := &Config{Mode: tt.mode}
			if got := cfg.IsServerMode(); got != tt.want {
				t.Errorf("Config.IsServerMode() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSplitLanguages(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"eng", []string{"eng"}},
		{"eng,chi_sim", []string{"eng", "chi_sim"}},
		{" eng , deu ", []string{"eng", "deu"}},
		{"", []string{"eng"}},
		{",,", []string{"eng"}},
	}

	for _, tt := range tests {
		got := splitLanguages(tt.input)
		if len(got) != len(tt.want) {
			t.Errorf("splitLanguages(%q) = %v, want %v", tt.input, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("splitLanguages(%q) = %v, want %v", tt.input, got, tt.want)
				break
			}
		}
	}
}
