package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// Mode constants
	ModeStdio  = "stdio"
	ModeServer = "server"

	// Default values
	DefaultPort         = 8080
	DefaultHost         = "127.0.0.1"
	DefaultLogLevel     = "info"
	DefaultMaxFileSize  = 100 * 1024 * 1024 // 100MB
	DefaultRenderScale  = 2.0
	DefaultLanguages    = "eng"
	DefaultSectionGap   = 100.0
	DefaultMinChoiceRun = 3
	DefaultFontSizeMax  = 10
	DefaultFontSizeMin  = 6

	// Directory permissions
	DefaultDirPerm = 0o750
)

// Config holds all configuration for the form service
type Config struct {
	// Server configuration
	Mode string // "server" or "stdio"
	Host string
	Port int

	// Document configuration
	DocumentDirectory string
	MaxFileSize       int64 // Maximum upload size in bytes

	// Recognition configuration
	RenderScale float64
	Languages   []string

	// Schema configuration
	SectionGap   float64
	MinChoiceRun int

	// Overlay configuration
	FontSizeMax int
	FontSizeMin int

	// Application configuration
	Version    string
	ServerName string
	LogLevel   string
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		// Fallback to current directory if working directory cannot be determined
		currentDir = "."
	}

	return &Config{
		Mode:              ModeStdio, // Default to stdio mode for MCP compatibility
		Host:              DefaultHost,
		Port:              DefaultPort,
		DocumentDirectory: currentDir,
		MaxFileSize:       DefaultMaxFileSize,
		RenderScale:       DefaultRenderScale,
		Languages:         []string{DefaultLanguages},
		SectionGap:        DefaultSectionGap,
		MinChoiceRun:      DefaultMinChoiceRun,
		FontSizeMax:       DefaultFontSizeMax,
		FontSizeMin:       DefaultFontSizeMin,
		Version:           "1.0.0",
		ServerName:        "formlens",
		LogLevel:          DefaultLogLevel,
	}
}

// LoadFromFlags parses command line flags and returns a configuration
func LoadFromFlags() (*Config, error) {
	cfg := DefaultConfig()

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()
	setupUsageMessage()

	// Check for version flag before parsing
	if err := checkVersionFlag(); err != nil {
		return nil, err
	}

	pflag.Parse()

	populateConfigFromViper(cfg)

	// Expand paths if needed
	if cfg.DocumentDirectory != "" {
		if expandedPath, err := filepath.Abs(cfg.DocumentDirectory); err == nil {
			cfg.DocumentDirectory = expandedPath
		}
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(cfg *Config) {
	// Set environment variable prefix
	viper.SetEnvPrefix("FORMLENS")
	viper.AutomaticEnv()

	// Define flags with Viper
	viper.SetDefault("mode", cfg.Mode)
	viper.SetDefault("host", cfg.Host)
	viper.SetDefault("port", cfg.Port)
	viper.SetDefault("dir", cfg.DocumentDirectory)
	viper.SetDefault("loglevel", cfg.LogLevel)
	viper.SetDefault("maxfilesize", cfg.MaxFileSize)
	viper.SetDefault("renderscale", cfg.RenderScale)
	viper.SetDefault("languages", strings.Join(cfg.Languages, ","))
	viper.SetDefault("sectiongap", cfg.SectionGap)
	viper.SetDefault("minchoicerun", cfg.MinChoiceRun)
	viper.SetDefault("fontsizemax", cfg.FontSizeMax)
	viper.SetDefault("fontsizemin", cfg.FontSizeMin)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(cfg *Config) {
	pflag.String("mode", cfg.Mode, "Server mode: 'stdio' for MCP standard I/O, 'server' for HTTP server")
	pflag.String("host", cfg.Host, "Server host address (server mode only)")
	pflag.Int("port", cfg.Port, "Server port (server mode only)")
	pflag.String("dir", cfg.DocumentDirectory, "Directory containing documents (stdio mode)")
	pflag.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	pflag.Int64("maxfilesize", cfg.MaxFileSize, "Maximum upload size in bytes")
	pflag.Float64("renderscale", cfg.RenderScale, "Raster oversampling factor for recognition")
	pflag.String("languages", strings.Join(cfg.Languages, ","), "OCR languages, comma separated")
	pflag.Float64("sectiongap", cfg.SectionGap, "Vertical gap that starts a new schema section, in points")
	pflag.Int("minchoicerun", cfg.MinChoiceRun, "Minimum checkbox run collapsed into a dropdown")
	pflag.Int("fontsizemax", cfg.FontSizeMax, "Largest overlay font size in points")
	pflag.Int("fontsizemin", cfg.FontSizeMin, "Smallest overlay font size in points")
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper() {
	_ = viper.BindPFlag("mode", pflag.Lookup("mode"))
	_ = viper.BindPFlag("host", pflag.Lookup("host"))
	_ = viper.BindPFlag("port", pflag.Lookup("port"))
	_ = viper.BindPFlag("dir", pflag.Lookup("dir"))
	_ = viper.BindPFlag("loglevel", pflag.Lookup("loglevel"))
	_ = viper.BindPFlag("maxfilesize", pflag.Lookup("maxfilesize"))
	_ = viper.BindPFlag("renderscale", pflag.Lookup("renderscale"))
	_ = viper.BindPFlag("languages", pflag.Lookup("languages"))
	_ = viper.BindPFlag("sectiongap", pflag.Lookup("sectiongap"))
	_ = viper.BindPFlag("minchoicerun", pflag.Lookup("minchoicerun"))
	_ = viper.BindPFlag("fontsizemax", pflag.Lookup("fontsizemax"))
	_ = viper.BindPFlag("fontsizemin", pflag.Lookup("fontsizemin"))
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nFormlens - document form-field discovery and overlay service\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                                          "+
			"# stdio mode, current directory (default)\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --dir=/path/to/forms                     "+
			"# stdio mode with custom directory\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=server --port=8081                # HTTP server mode\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=server --host=0.0.0.0 --port=8081 # server on all interfaces\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  FORMLENS_MODE         Server mode\n")
		fmt.Fprintf(os.Stderr, "  FORMLENS_HOST         Server host\n")
		fmt.Fprintf(os.Stderr, "  FORMLENS_PORT         Server port\n")
		fmt.Fprintf(os.Stderr, "  FORMLENS_DIR          Document directory\n")
		fmt.Fprintf(os.Stderr, "  FORMLENS_LOGLEVEL     Log level\n")
		fmt.Fprintf(os.Stderr, "  FORMLENS_MAXFILESIZE  Maximum upload size\n")
		fmt.Fprintf(os.Stderr, "  FORMLENS_RENDERSCALE  Raster oversampling factor\n")
		fmt.Fprintf(os.Stderr, "  FORMLENS_LANGUAGES    OCR languages\n")
		fmt.Fprintf(os.Stderr, "  FORMLENS_SECTIONGAP   Schema section gap\n")
		fmt.Fprintf(os.Stderr, "  FORMLENS_MINCHOICERUN Checkbox grouping threshold\n")
		fmt.Fprintf(os.Stderr, "  FORMLENS_FONTSIZEMAX  Largest overlay font size\n")
		fmt.Fprintf(os.Stderr, "  FORMLENS_FONTSIZEMIN  Smallest overlay font size\n")
	}
}

// checkVersionFlag checks if version flag was requested
func checkVersionFlag() error {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return fmt.Errorf("version requested")
		}
	}
	return nil
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(cfg *Config) {
	cfg.Mode = viper.GetString("mode")
	cfg.Host = viper.GetString("host")
	cfg.Port = viper.GetInt("port")
	cfg.DocumentDirectory = viper.GetString("dir")
	cfg.LogLevel = viper.GetString("loglevel")
	cfg.MaxFileSize = viper.GetInt64("maxfilesize")
	cfg.RenderScale = viper.GetFloat64("renderscale")
	cfg.Languages = splitLanguages(viper.GetString("languages"))
	cfg.SectionGap = viper.GetFloat64("sectiongap")
	cfg.MinChoiceRun = viper.GetInt("minchoicerun")
	cfg.FontSizeMax = viper.GetInt("fontsizemax")
	cfg.FontSizeMin = viper.GetInt("fontsizemin")
}

// splitLanguages parses a comma separated language list, dropping blanks
func splitLanguages(s string) []string {
	var languages []string
	for _, lang := range strings.Split(s, ",") {
		if lang = strings.TrimSpace(lang); lang != "" {
			languages = append(languages, lang)
		}
	}
	if len(languages) == 0 {
		languages = []string{DefaultLanguages}
	}
	return languages
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate mode
	if c.Mode != ModeStdio && c.Mode != ModeServer {
		return errors.New("mode must be either 'stdio' or 'server'")
	}

	// Validate port range (only for server mode)
	if c.Mode == ModeServer && (c.Port < 1 || c.Port > 65535) {
		return errors.New("port must be between 1 and 65535")
	}

	// Validate document directory
	if c.DocumentDirectory == "" {
		return errors.New("document directory cannot be empty")
	}

	// Check if document directory exists, create if it doesn't
	if _, err := os.Stat(c.DocumentDirectory); os.IsNotExist(err) {
		if err := os.MkdirAll(c.DocumentDirectory, DefaultDirPerm); err != nil {
			return fmt.Errorf("cannot create document directory %s: %w", c.DocumentDirectory, err)
		}
	} else if err != nil {
		return fmt.Errorf("cannot access document directory %s: %w", c.DocumentDirectory, err)
	}

	// Validate max file size
	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	// Validate recognition settings
	if c.RenderScale <= 0 {
		return errors.New("render scale must be positive")
	}
	if len(c.Languages) == 0 {
		return errors.New("at least one OCR language is required")
	}

	// Validate schema settings
	if c.SectionGap <= 0 {
		return errors.New("section gap must be positive")
	}
	if c.MinChoiceRun < 2 {
		return errors.New("minimum choice run must be at least 2")
	}

	// Validate overlay font bounds
	if c.FontSizeMin < 1 || c.FontSizeMax < c.FontSizeMin {
		return errors.New("font size bounds must satisfy 1 <= min <= max")
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	return nil
}

// Address returns the server address as host:port
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, Host: %s, Port: %d, DocumentDirectory: %s, LogLevel: %s, MaxFileSize: %d}",
		c.Mode, c.Host, c.Port, c.DocumentDirectory, c.LogLevel, c.MaxFileSize)
}

// IsServerMode returns true if the server is running in HTTP server mode
func (c *Config) IsServerMode() bool {
	return c.Mode == ModeServer
}
