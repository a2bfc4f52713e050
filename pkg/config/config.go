package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables that override file and default settings
const (
	EnvPort      = "PORT"
	EnvPublicDir = "PAGESERVE_PUBLIC_DIR"
)

// Config represents the application configuration
type Config struct {
	Server       ServerConfig      `yaml:"server"`
	Dir          DirConfig         `yaml:"dir"`
	Pages        PagesConfig       `yaml:"pages"`
	Location     LocationConfig    `yaml:"location"`
	ContentTypes map[string]string `yaml:"content_types"`
	Logging      LogConfig         `yaml:"logging"`
}

// ServerConfig contains settings for the HTTP listener
type ServerConfig struct {
	Addr              string `yaml:"addr"`
	ShutdownTimeout   int    `yaml:"shutdown_timeout"`    // in seconds
	ReadHeaderTimeout int    `yaml:"read_header_timeout"` // in seconds
}

// DirConfig contains the directories the server reads from
type DirConfig struct {
	Public string `yaml:"public"`
}

// PagesConfig contains the filenames served by the alias routes
type PagesConfig struct {
	Home       string `yaml:"home"`
	Controller string `yaml:"controller"`
}

// LocationConfig contains redirect targets
type LocationConfig struct {
	Home string `yaml:"home"`
}

// LogConfig contains settings for logging
type LogConfig struct {
	LogToFile   bool            `yaml:"log_to_file"`
	LogFilePath string          `yaml:"log_file_path"`
	MaxSize     int             `yaml:"max_size"`    // maximum size in megabytes
	MaxBackups  int             `yaml:"max_backups"` // maximum number of old log files to retain
	MaxAge      int             `yaml:"max_age"`     // maximum number of days to retain old log files
	Compress    bool            `yaml:"compress"`    // compress determines if the rotated log files should be compressed
	AccessLog   AccessLogConfig `yaml:"access_log"`
}

// AccessLogConfig contains settings for the per-request access log
type AccessLogConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// LoadDefault returns a configuration with default values
func LoadDefault() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:              ":3000",
			ShutdownTimeout:   5,
			ReadHeaderTimeout: 10,
		},
		Dir: DirConfig{
			Public: "public",
		},
		Pages: PagesConfig{
			Home:       "home/index.html",
			Controller: "controller/index.html",
		},
		Location: LocationConfig{
			Home: "/home",
		},
		ContentTypes: map[string]string{
			".html": "text/html",
			".css":  "text/css",
			".js":   "text/javascript",
		},
		Logging: LogConfig{
			LogToFile:   false,
			LogFilePath: "pageserve.log",
			MaxSize:     10,
			MaxBackups:  3,
			MaxAge:      28,
			Compress:    true,
			AccessLog: AccessLogConfig{
				Enabled: false,
				Path:    "access.log",
			},
		},
	}
}

// Default returns a configuration with default values
// This is an alias for LoadDefault
func Default() *Config {
	return LoadDefault()
}

// Load reads configuration from a file and merges it with default values
func Load(configPath string) (*Config, error) {
	cfg := LoadDefault()

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var fileCfg Config
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Merge server configuration
	if fileCfg.Server.Addr != "" {
		cfg.Server.Addr = fileCfg.Server.Addr
	}
	if fileCfg.Server.ShutdownTimeout > 0 {
		cfg.Server.ShutdownTimeout = fileCfg.Server.ShutdownTimeout
	}
	if fileCfg.Server.ReadHeaderTimeout > 0 {
		cfg.Server.ReadHeaderTimeout = fileCfg.Server.ReadHeaderTimeout
	}

	if fileCfg.Dir.Public != "" {
		cfg.Dir.Public = fileCfg.Dir.Public
	}

	// Merge alias pages and redirect location
	if fileCfg.Pages.Home != "" {
		cfg.Pages.Home = fileCfg.Pages.Home
	}
	if fileCfg.Pages.Controller != "" {
		cfg.Pages.Controller = fileCfg.Pages.Controller
	}
	if fileCfg.Location.Home != "" {
		cfg.Location.Home = fileCfg.Location.Home
	}

	// A content_types section replaces the default table entirely
	if len(fileCfg.ContentTypes) > 0 {
		cfg.ContentTypes = fileCfg.ContentTypes
	}

	// Merge logging configuration
	if fileCfg.Logging.LogToFile {
		cfg.Logging.LogToFile = fileCfg.Logging.LogToFile
	}
	if fileCfg.Logging.LogFilePath != "" {
		cfg.Logging.LogFilePath = fileCfg.Logging.LogFilePath
	}
	if fileCfg.Logging.MaxSize > 0 {
		cfg.Logging.MaxSize = fileCfg.Logging.MaxSize
	}
	if fileCfg.Logging.MaxBackups > 0 {
		cfg.Logging.MaxBackups = fileCfg.Logging.MaxBackups
	}
	if fileCfg.Logging.MaxAge > 0 {
		cfg.Logging.MaxAge = fileCfg.Logging.MaxAge
	}
	if fileCfg.Logging.Compress {
		cfg.Logging.Compress = fileCfg.Logging.Compress
	}
	if fileCfg.Logging.AccessLog.Enabled {
		cfg.Logging.AccessLog.Enabled = fileCfg.Logging.AccessLog.Enabled
	}
	if fileCfg.Logging.AccessLog.Path != "" {
		cfg.Logging.AccessLog.Path = fileCfg.Logging.AccessLog.Path
	}

	cfg.ApplyEnv()

	return cfg, nil
}

// LoadOrDefault attempts to load configuration from a file
// If the file doesn't exist or can't be parsed, it returns default configuration
func LoadOrDefault(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to load config from %s: %v\n", configPath, err)
		fmt.Fprintf(os.Stderr, "Using default configuration\n")
		cfg = LoadDefault()
		cfg.ApplyEnv()
	}
	return cfg
}

// LoadEnvFile loads variables from a dotenv file into the process environment.
// Variables already set in the environment win. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides settings from environment variables
func (c *Config) ApplyEnv() {
	if port := os.Getenv(EnvPort); port != "" {
		c.Server.Addr = ":" + port
	}
	if dir := os.Getenv(EnvPublicDir); dir != "" {
		c.Dir.Public = dir
	}
}

// Validate checks that the configuration can drive the server
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("server.addr must not be empty")
	}
	if c.Dir.Public == "" {
		return errors.New("dir.public must not be empty")
	}
	if c.Pages.Home == "" || c.Pages.Controller == "" {
		return errors.New("pages.home and pages.controller must not be empty")
	}
	if !strings.HasPrefix(c.Location.Home, "/") {
		return fmt.Errorf("location.home must start with '/', got %q", c.Location.Home)
	}
	for ext, mediaType := range c.ContentTypes {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("content_types key %q must start with '.'", ext)
		}
		if mediaType == "" {
			return fmt.Errorf("content_types[%q] must not be empty", ext)
		}
	}
	return nil
}
