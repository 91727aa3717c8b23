package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	ServiceName      string        `yaml:"service_name"`
	LogLevel         string        `yaml:"log_level"`
	LogFile          string        `yaml:"log_file"`
	APIBaseURL       string        `yaml:"api_base_url"`
	TableCount       int           `yaml:"table_count"`
	RefreshInterval  time.Duration `yaml:"refresh_interval"`
	RequestTimeout   time.Duration `yaml:"request_timeout"`
	ReceiptDir       string        `yaml:"receipt_dir"`
	Currency         string        `yaml:"currency"`
	CurrencyExponent int32         `yaml:"currency_exponent"`

	Websocket struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"websocket"`

	MetricsConfig struct {
		Enabled bool   `yaml:"enabled"`
		Port    int    `yaml:"port"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`

	Backend struct {
		Port           int    `yaml:"port"`
		DatabaseDriver string `yaml:"database_driver"`
		DatabaseURL    string `yaml:"database_url"`
		SeedMenu       bool   `yaml:"seed_menu"`
	} `yaml:"backend"`
}

// Default returns the configuration used when no file is present
func Default() *Config {
	cfg := &Config{
		ServiceName:      "maitred",
		LogLevel:         "info",
		LogFile:          "maitred.log",
		APIBaseURL:       "http://localhost:3001",
		TableCount:       20,
		RefreshInterval:  5 * time.Second,
		RequestTimeout:   10 * time.Second,
		ReceiptDir:       "Receipt",
		Currency:         "원",
		CurrencyExponent: 0,
	}
	cfg.Websocket.Enabled = true
	cfg.MetricsConfig.Enabled = false
	cfg.MetricsConfig.Port = 9090
	cfg.MetricsConfig.Path = "/metrics"
	cfg.Backend.Port = 3001
	cfg.Backend.DatabaseDriver = "sqlite3"
	cfg.Backend.DatabaseURL = "maitred.db"
	cfg.Backend.SeedMenu = true
	return cfg
}

// Load reads path over the defaults and then applies environment overrides.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.ServiceName = getEnv("MAITRED_SERVICE_NAME", c.ServiceName)
	c.LogLevel = getEnv("MAITRED_LOG_LEVEL", c.LogLevel)
	c.LogFile = getEnv("MAITRED_LOG_FILE", c.LogFile)
	c.APIBaseURL = getEnv("MAITRED_API_URL", c.APIBaseURL)
	c.ReceiptDir = getEnv("MAITRED_RECEIPT_DIR", c.ReceiptDir)
	c.Currency = getEnv("MAITRED_CURRENCY", c.Currency)
	c.Backend.DatabaseDriver = getEnv("MAITRED_DB_DRIVER", c.Backend.DatabaseDriver)
	c.Backend.DatabaseURL = getEnv("MAITRED_DB_URL", c.Backend.DatabaseURL)

	var err error
	if c.TableCount, err = getEnvInt("MAITRED_TABLE_COUNT", c.TableCount); err != nil {
		return err
	}
	if c.Backend.Port, err = getEnvInt("MAITRED_BACKEND_PORT", c.Backend.Port); err != nil {
		return err
	}
	if c.MetricsConfig.Port, err = getEnvInt("MAITRED_METRICS_PORT", c.MetricsConfig.Port); err != nil {
		return err
	}
	if c.RefreshInterval, err = getEnvDuration("MAITRED_REFRESH_INTERVAL", c.RefreshInterval); err != nil {
		return err
	}
	if c.RequestTimeout, err = getEnvDuration("MAITRED_REQUEST_TIMEOUT", c.RequestTimeout); err != nil {
		return err
	}
	return nil
}

// Validate rejects settings the POS cannot run with
func (c *Config) Validate() error {
	if c.APIBaseURL == "" {
		return errors.New("api_base_url is required")
	}
	if c.TableCount <= 0 {
		return fmt.Errorf("table_count must be positive, got %d", c.TableCount)
	}
	if c.RefreshInterval <= 0 {
		return fmt.Errorf("refresh_interval must be positive, got %s", c.RefreshInterval)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %s", c.RequestTimeout)
	}
	if c.CurrencyExponent < 0 {
		return fmt.Errorf("currency_exponent must not be negative, got %d", c.CurrencyExponent)
	}
	switch c.Backend.DatabaseDriver {
	case "sqlite3", "postgres":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Backend.DatabaseDriver)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
