package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Data     DataConfig     `yaml:"data"`
	Provider ProviderConfig `yaml:"provider"`
	Report   ReportConfig   `yaml:"report"`
}

// DataConfig holds on-disk layout settings
type DataConfig struct {
	Dir string `yaml:"dir"` // one <YYYYMMDD>.json per trading day
}

// ProviderConfig holds upstream data-source settings
type ProviderConfig struct {
	RateLimit int           `yaml:"rate_limit"` // requests per minute
	Timeout   time.Duration `yaml:"timeout"`
}

// ReportConfig holds summary/draft output settings
type ReportConfig struct {
	DraftDir     string `yaml:"draft_dir"`     // review drafts, <dir>/YYYYMM/
	LeaderLimit  int    `yaml:"leader_limit"`  // max leader trajectories rendered
	CurveWidth   int    `yaml:"curve_width"`   // emotion curve bar width in cells
	AnomalyLimit int    `yaml:"anomaly_limit"` // volume-anomaly rows in drafts
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Data: DataConfig{
			Dir: "data",
		},
		Provider: ProviderConfig{
			RateLimit: 40,
			Timeout:   15 * time.Second,
		},
		Report: ReportConfig{
			DraftDir:     "reviews",
			LeaderLimit:  10,
			CurveWidth:   40,
			AnomalyLimit: 20,
		},
	}
}

// Load loads configuration from a YAML file
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Use defaults if file doesn't exist
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if dir := os.Getenv("FUPAN_DATA_DIR"); dir != "" {
		cfg.Data.Dir = dir
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Data.Dir == "" {
		return fmt.Errorf("data.dir must not be empty")
	}
	if c.Provider.RateLimit < 1 {
		return fmt.Errorf("provider.rate_limit must be at least 1")
	}
	if c.Report.CurveWidth < 10 {
		return fmt.Errorf("report.curve_width must be at least 10")
	}
	return nil
}
