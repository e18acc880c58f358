package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server" envconfig:"SERVER"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Data     DataConfig     `yaml:"data" envconfig:"DATA"`
	Graph    GraphConfig    `yaml:"graph" envconfig:"GRAPH"`
	Security SecurityConfig `yaml:"security" envconfig:"SECURITY"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL"`
	Output   string `yaml:"output" envconfig:"OUTPUT"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// DataConfig locates the FIGARO TSV sources.
type DataConfig struct {
	Dir         string `yaml:"dir" envconfig:"DIR"`
	ExportsFile string `yaml:"exports_file" envconfig:"EXPORTS_FILE"`
	ImportsFile string `yaml:"imports_file" envconfig:"IMPORTS_FILE"`
}

// ExportsPath returns the resolved path of the exports source.
func (d DataConfig) ExportsPath() string {
	return filepath.Join(d.Dir, d.ExportsFile)
}

// ImportsPath returns the resolved path of the imports source.
func (d DataConfig) ImportsPath() string {
	return filepath.Join(d.Dir, d.ImportsFile)
}

// GraphConfig holds graph-shaping policies. Zero-value edges and self-loops
// are both ambiguous in the upstream dataset, so they are policy knobs rather
// than hard-coded behavior.
type GraphConfig struct {
	DefaultLevel      int  `yaml:"default_level" envconfig:"DEFAULT_LEVEL"`
	DropZeroEdges     bool `yaml:"drop_zero_edges" envconfig:"DROP_ZERO_EDGES"`
	SuppressSelfLoops bool `yaml:"suppress_self_loops" envconfig:"SUPPRESS_SELF_LOOPS"`
}

// SecurityConfig contains request-protection configuration.
type SecurityConfig struct {
	RateLimit RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration.
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS"`
	Burst   int     `yaml:"burst" envconfig:"BURST"`
}

// Load builds configuration in three layers: compiled defaults, then an
// optional YAML config file, then environment variables. Later layers win,
// and a layer only touches the keys it actually provides.
func Load() (*Config, error) {
	cfg := Default()

	if configFile := findConfigFile(); configFile != "" {
		if err := applyFile(cfg, configFile); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := envconfig.Process("FIGFLOW", cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// applyFile overlays values from a YAML file onto cfg. Keys absent from the
// file keep their current values.
func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}
	if c.Data.Dir == "" {
		return fmt.Errorf("data directory must be set")
	}
	if c.Graph.DefaultLevel < 1 || c.Graph.DefaultLevel > 4 {
		return fmt.Errorf("invalid default rollup level: %d", c.Graph.DefaultLevel)
	}
	return nil
}

// findConfigFile checks the common config file locations.
func findConfigFile() string {
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}
	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}
	return ""
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			RequestTimeout:  30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Output:   "console",
			FilePath: "logs/figflow.log",
		},
		Data: DataConfig{
			Dir:         "data/figaro",
			ExportsFile: "estat_naio_10_fgte.tsv",
			ImportsFile: "estat_naio_10_fgti.tsv",
		},
		Graph: GraphConfig{
			DefaultLevel: 2,
		},
		Security: SecurityConfig{
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     100,
				Burst:   50,
			},
		},
	}
}
