package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/raykavin/pricechart/pkg/core"
	"gopkg.in/yaml.v3"
)

const envPrefix = "PRICECHART_"

// Config holds the application configuration
type Config struct {
	Chart core.ChartConfiguration `yaml:"chart"`

	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
		// Width of a new session before the browser reports its container
		Width int `yaml:"width"`
	} `yaml:"server"`

	Store struct {
		Driver string `yaml:"driver"`
		Path   string `yaml:"path"`
	} `yaml:"store"`

	Log struct {
		Level      string `yaml:"level"`
		JSON       bool   `yaml:"json"`
		File       string `yaml:"file"`
		MaxSizeMB  int    `yaml:"max_size_mb"`
		MaxBackups int    `yaml:"max_backups"`
	} `yaml:"log"`
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	cfg := &Config{Chart: core.DefaultChartConfiguration()}
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 8080
	cfg.Server.Width = 960
	cfg.Store.Driver = "buntdb"
	cfg.Store.Path = "data/pricechart.db"
	cfg.Log.Level = "info"
	cfg.Log.MaxSizeMB = 50
	cfg.Log.MaxBackups = 3
	return cfg
}

// Load reads the YAML file, a missing file is not an error, then applies
// the .env file and PRICECHART_* environment overrides
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if len(data) > 0 {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	// variables already set in the environment win over the .env file
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() error {
	if v, ok := env("CHART_KIND"); ok {
		kind, err := core.ParseChartKind(v)
		if err != nil {
			return err
		}
		c.Chart.ChartKind = kind
	}
	if v, ok := env("TIME_RANGE"); ok {
		timeRange, err := core.ParseTimeRange(v)
		if err != nil {
			return err
		}
		c.Chart.TimeRange = timeRange
	}
	if v, ok := env("THEME"); ok {
		theme, err := core.ParseTheme(v)
		if err != nil {
			return err
		}
		c.Chart.Theme = theme
	}
	if err := envInt("HEIGHT", &c.Chart.HeightPx); err != nil {
		return err
	}

	if v, ok := env("HOST"); ok {
		c.Server.Host = v
	}
	if err := envInt("PORT", &c.Server.Port); err != nil {
		return err
	}
	if err := envInt("WIDTH", &c.Server.Width); err != nil {
		return err
	}

	if v, ok := env("STORE_DRIVER"); ok {
		c.Store.Driver = strings.ToLower(v)
	}
	if v, ok := env("STORE_PATH"); ok {
		c.Store.Path = v
	}

	if v, ok := env("LOG_LEVEL"); ok {
		c.Log.Level = v
	}
	if v, ok := env("LOG_FILE"); ok {
		c.Log.File = v
	}
	if v, ok := env("LOG_JSON"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sLOG_JSON: %w", envPrefix, err)
		}
		c.Log.JSON = b
	}

	return nil
}

// Validate checks the configuration values
func (c *Config) Validate() error {
	if err := c.Chart.Validate(); err != nil {
		return fmt.Errorf("chart: %w", err)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port out of range: %d", core.ErrInvalidConfig, c.Server.Port)
	}
	if c.Server.Width <= 0 {
		return fmt.Errorf("%w: server.width must be positive", core.ErrInvalidConfig)
	}
	switch c.Store.Driver {
	case "buntdb", "sqlite":
	default:
		return fmt.Errorf("%w: unknown store driver %q", core.ErrInvalidConfig, c.Store.Driver)
	}
	if c.Store.Path == "" {
		return fmt.Errorf("%w: store.path is required", core.ErrInvalidConfig)
	}
	return nil
}

// Address returns the listen address of the chart server
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func env(name string) (string, bool) {
	v := strings.TrimSpace(os.Getenv(envPrefix + name))
	return v, v != ""
}

func envInt(name string, target *int) error {
	v, ok := env(name)
	if !ok {
		return nil
	}

	i, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s%s: %w", envPrefix, name, err)
	}
	*target = i
	return nil
}
