package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/retail/logger"
	"github.com/rustyeddy/retail/store"
)

// Config is the complete pipeline configuration.
type Config struct {
	Datalake DatalakeConfig `json:"datalake" yaml:"datalake"`
	Store    StoreConfig    `json:"store" yaml:"store"`
	Load     LoadConfig     `json:"load" yaml:"load"`
	Log      LogConfig      `json:"log" yaml:"log"`
}

// DatalakeConfig locates the incoming folder and the lake root.
type DatalakeConfig struct {
	Root     string `json:"root" yaml:"root"`
	Incoming string `json:"incoming" yaml:"incoming"`
	Compress bool   `json:"compress" yaml:"compress"` // xz the raw copies
}

// StoreConfig contains the SQLite settings.
type StoreConfig struct {
	DBPath string `json:"db_path" yaml:"db_path"`
}

// LoadConfig controls the bulk import.
type LoadConfig struct {
	BatchSize int `json:"batch_size" yaml:"batch_size"`
	Retries   int `json:"retries" yaml:"retries"`
}

// LogConfig selects log level and format ("console" or "json").
type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
}

// Environment variables read by ApplyEnv.
const (
	EnvDBPath       = "RETAIL_DB_PATH"
	EnvDatalakeRoot = "RETAIL_DATALAKE_ROOT"
	EnvIncomingDir  = "RETAIL_INCOMING_DIR"
	EnvBatchSize    = "RETAIL_BATCH_SIZE"
	EnvLogLevel     = "RETAIL_LOG_LEVEL"
)

// LoadFromFile loads configuration from a file (YAML, falling back to JSON)
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		cfg = Default()
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration as YAML or JSON depending on extension.
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}

	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// ApplyEnv loads envFile if it exists and overrides fields from the
// RETAIL_* environment variables. Variables already set in the process
// environment win over the file.
func (c *Config) ApplyEnv(envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	if v := os.Getenv(EnvDBPath); v != "" {
		c.Store.DBPath = v
	}
	if v := os.Getenv(EnvDatalakeRoot); v != "" {
		c.Datalake.Root = v
	}
	if v := os.Getenv(EnvIncomingDir); v != "" {
		c.Datalake.Incoming = v
	}
	if v := os.Getenv(EnvBatchSize); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvBatchSize, err)
		}
		c.Load.BatchSize = n
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Datalake.Root == "" {
		return fmt.Errorf("datalake.root is required")
	}
	if c.Store.DBPath == "" {
		return fmt.Errorf("store.db_path is required")
	}
	if c.Load.BatchSize <= 0 {
		return fmt.Errorf("load.batch_size must be positive")
	}
	if c.Load.Retries < 0 {
		return fmt.Errorf("load.retries must not be negative")
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if f := c.Log.Format; f != "" && f != logger.FormatConsole && f != logger.FormatJSON {
		return fmt.Errorf("log.format must be 'console' or 'json'")
	}
	return nil
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Datalake: DatalakeConfig{
			Root:     "./datalake",
			Incoming: "./data",
		},
		Store: StoreConfig{
			DBPath: "./retail.db",
		},
		Load: LoadConfig{
			BatchSize: store.DefaultBatchSize,
		},
		Log: LogConfig{
			Level:  "info",
			Format: logger.FormatConsole,
		},
	}
}
