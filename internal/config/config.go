// Package config loads cybolt's configuration, layered highest-precedence
// first: command-line flags, CYBOLT_* environment variables, a cybolt.yaml
// file, then built-in defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ImportMode selects which importer entry point cmd/cybolt invokes.
type ImportMode string

const (
	ModeSerial          ImportMode = "serial"
	ModeBatchedParallel ImportMode = "batched-parallel"
	ModeParser          ImportMode = "parser"
)

// Config is cybolt's full parameter set: connection, batching/worker
// tuning, and the ambient logging knobs.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	UseSSL   bool

	BatchSize  int
	Workers    int
	MaxBatches int
	ImportMode ImportMode

	LogLevel  string
	LogFormat string
}

// LoadDefaults returns cybolt's built-in defaults.
func LoadDefaults() *Config {
	return &Config{
		Host:       "localhost",
		Port:       7687,
		Username:   "",
		Password:   "",
		UseSSL:     false,
		BatchSize:  1000,
		Workers:    32,
		MaxBatches: 20,
		ImportMode: ModeBatchedParallel,
		LogLevel:   "info",
		LogFormat:  "text",
	}
}

// LoadFromEnv returns the defaults overlaid with any CYBOLT_* environment
// variables that are set.
func LoadFromEnv() *Config {
	c := LoadDefaults()

	c.Host = getEnv("CYBOLT_HOST", c.Host)
	c.Port = getEnvInt("CYBOLT_PORT", c.Port)
	c.Username = getEnv("CYBOLT_USER", c.Username)
	c.Password = getEnv("CYBOLT_PASSWORD", c.Password)
	c.UseSSL = getEnvBool("CYBOLT_SSL", c.UseSSL)
	c.BatchSize = getEnvInt("CYBOLT_BATCH_SIZE", c.BatchSize)
	c.Workers = getEnvInt("CYBOLT_WORKERS", c.Workers)
	c.MaxBatches = getEnvInt("CYBOLT_MAX_BATCHES", c.MaxBatches)
	c.LogLevel = getEnv("CYBOLT_LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("CYBOLT_LOG_FORMAT", c.LogFormat)

	if mode := getEnv("CYBOLT_MODE", string(c.ImportMode)); mode != "" {
		c.ImportMode = ImportMode(mode)
	}

	return c
}

// yamlConfig mirrors the subset of Config a cybolt.yaml file may set. Fields
// are pointers/zero-checked so an absent key in the file leaves the default
// (or env-derived value) untouched.
type yamlConfig struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	Username   string `yaml:"username"`
	Password   string `yaml:"password"`
	UseSSL     *bool  `yaml:"use_ssl"`
	BatchSize  int    `yaml:"batch_size"`
	Workers    int    `yaml:"workers"`
	MaxBatches int    `yaml:"max_batches"`
	ImportMode string `yaml:"import_mode"`
	LogLevel   string `yaml:"log_level"`
	LogFormat  string `yaml:"log_format"`
}

// LoadFromFile starts from the defaults, overlays any non-zero fields found
// in the YAML file at path, then re-applies any CYBOLT_* environment
// variables that are set, so a config file only fills in what the
// environment does not. A missing file is not an error: the env-derived
// config is returned unchanged.
func LoadFromFile(path string) (*Config, error) {
	c := LoadFromEnv()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	var y yamlConfig
	if err := yaml.Unmarshal(data, &y); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if y.Host != "" {
		c.Host = y.Host
	}
	if y.Port > 0 {
		c.Port = y.Port
	}
	if y.Username != "" {
		c.Username = y.Username
	}
	if y.Password != "" {
		c.Password = y.Password
	}
	if y.UseSSL != nil {
		c.UseSSL = *y.UseSSL
	}
	if y.BatchSize > 0 {
		c.BatchSize = y.BatchSize
	}
	if y.Workers > 0 {
		c.Workers = y.Workers
	}
	if y.MaxBatches > 0 {
		c.MaxBatches = y.MaxBatches
	}
	if y.ImportMode != "" {
		c.ImportMode = ImportMode(y.ImportMode)
	}
	if y.LogLevel != "" {
		c.LogLevel = y.LogLevel
	}
	if y.LogFormat != "" {
		c.LogFormat = y.LogFormat
	}

	// Environment variables outrank the file.
	c.Host = getEnv("CYBOLT_HOST", c.Host)
	c.Port = getEnvInt("CYBOLT_PORT", c.Port)
	c.Username = getEnv("CYBOLT_USER", c.Username)
	c.Password = getEnv("CYBOLT_PASSWORD", c.Password)
	c.UseSSL = getEnvBool("CYBOLT_SSL", c.UseSSL)
	c.BatchSize = getEnvInt("CYBOLT_BATCH_SIZE", c.BatchSize)
	c.Workers = getEnvInt("CYBOLT_WORKERS", c.Workers)
	c.MaxBatches = getEnvInt("CYBOLT_MAX_BATCHES", c.MaxBatches)
	c.LogLevel = getEnv("CYBOLT_LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("CYBOLT_LOG_FORMAT", c.LogFormat)
	c.ImportMode = ImportMode(getEnv("CYBOLT_MODE", string(c.ImportMode)))

	return c, nil
}

// FindConfigFile searches, in priority order, the current working
// directory, the directory the binary runs from, and the user's home
// directory. It returns "" if no candidate exists.
func FindConfigFile() string {
	var candidates []string

	candidates = append(candidates, "cybolt.yaml")

	if exe, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(exe), "cybolt.yaml"))
	}

	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates,
			filepath.Join(home, ".cybolt", "config.yaml"),
			filepath.Join(home, ".config", "cybolt", "config.yaml"),
		)
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// Validate checks for the configuration errors cybolt treats as fatal:
// invalid host, zero/negative batch size, workers, or max-batches, or an
// unrecognized import_mode.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Host) == "" {
		return fmt.Errorf("config: host must not be empty")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config: port %d out of range", c.Port)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("config: batch_size must be positive, got %d", c.BatchSize)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("config: workers must be positive, got %d", c.Workers)
	}
	if c.MaxBatches <= 0 {
		return fmt.Errorf("config: max_batches must be positive, got %d", c.MaxBatches)
	}
	switch c.ImportMode {
	case ModeSerial, ModeBatchedParallel, ModeParser:
	default:
		return fmt.Errorf("config: unrecognized import_mode %q", c.ImportMode)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		val = strings.ToLower(val)
		return val == "true" || val == "1" || val == "yes" || val == "on"
	}
	return defaultVal
}
