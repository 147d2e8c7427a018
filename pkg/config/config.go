// Package config provides configuration management for gridflow. Runtime
// settings (directories, worker counts, retry budgets, search nodes) come
// from an optional YAML file with GRIDFLOW_* environment overrides applied
// on top. Search facets are handled separately in facets.go because their
// JSON layout is a fixed external contract shared with the persisted
// metadata documents.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shahbhuwan/gridflow/pkg/errors"
	"gopkg.in/yaml.v3"
)

// DefaultNodes is the ordered list of redundant ESGF index nodes. The order
// is a priority order: the first node to return any results wins.
var DefaultNodes = []string{
	"https://esgf-node.llnl.gov/esg-search/search",
	"https://esgf-node.ipsl.upmc.fr/esg-search/search",
	"https://esgf-data.dkrz.de/esg-search/search",
	"https://esgf-index1.ceda.ac.uk/esg-search/search",
}

// Default configuration values.
const (
	// DefaultWorkers is the default worker pool size.
	DefaultWorkers = 4

	// DefaultRetries bounds both the per-file attempt budget and the
	// number of batch retry rounds.
	DefaultRetries = 5

	// DefaultTimeout is the default HTTP timeout for search requests.
	DefaultTimeout = 30 * time.Second

	// DefaultPageLimit is the search page size.
	DefaultPageLimit = 1000
)

// Config represents the application configuration.
type Config struct {
	// Search node configuration. Priority order, highest first.
	Nodes []string `yaml:"nodes"`

	// General settings
	Settings Settings `yaml:"settings"`
}

// Settings represents general application settings.
type Settings struct {
	// Directory settings
	DownloadDir string `yaml:"download_dir,omitempty" envconfig:"DOWNLOAD_DIR"`
	MetadataDir string `yaml:"metadata_dir,omitempty" envconfig:"METADATA_DIR"`
	LogDir      string `yaml:"log_dir,omitempty" envconfig:"LOG_DIR"`

	// SaveMode is "flat" or "structured".
	SaveMode string `yaml:"save_mode" envconfig:"SAVE_MODE"`

	// Network settings
	Workers      int           `yaml:"workers" envconfig:"WORKERS"`
	Retries      int           `yaml:"retries" envconfig:"RETRIES"`
	Timeout      time.Duration `yaml:"timeout" envconfig:"TIMEOUT"`
	PageLimit    int           `yaml:"page_limit" envconfig:"PAGE_LIMIT"`
	MaxDownloads int           `yaml:"max_downloads" envconfig:"MAX_DOWNLOADS"`
	VerifySSL    bool          `yaml:"verify_ssl" envconfig:"VERIFY_SSL"`

	// Credentials for restricted data. Prefer the environment over the
	// YAML file for the password.
	Username string `yaml:"username,omitempty" envconfig:"USERNAME"`
	Password string `yaml:"password,omitempty" envconfig:"PASSWORD"`

	// Output settings
	LogLevel string `yaml:"log_level" envconfig:"LOG_LEVEL"` // minimal, normal, verbose, debug
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Nodes: append([]string(nil), DefaultNodes...),
		Settings: Settings{
			DownloadDir: "./cmip6_data",
			MetadataDir: "./metadata",
			LogDir:      "./logs",
			SaveMode:    "flat",
			Workers:     DefaultWorkers,
			Retries:     DefaultRetries,
			Timeout:     DefaultTimeout,
			PageLimit:   DefaultPageLimit,
			VerifySSL:   true,
			LogLevel:    "normal",
		},
	}
}

// LoadConfig loads configuration from a YAML file, layered over defaults,
// and applies GRIDFLOW_* environment overrides last.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, errors.ErrEmptyConfigPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInvalidConfigPath, err.Error())
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read config file %s", absPath)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(errors.ErrConfigParse, err.Error())
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault behaves like LoadConfig but falls back to defaults (plus
// environment overrides) when no config path is given.
func LoadOrDefault(path string) (*Config, error) {
	if path != "" {
		return LoadConfig(path)
	}
	cfg := DefaultConfig()
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if err := envconfig.Process("gridflow", &cfg.Settings); err != nil {
		return errors.Wrap(errors.ErrConfigParse, err.Error())
	}
	return nil
}

// Validate checks the configuration for values the pipeline cannot run with.
func (c *Config) Validate() error {
	if len(c.Nodes) == 0 {
		return errors.Wrap(errors.ErrConfigValidation, "at least one search node is required")
	}
	if c.Settings.Workers <= 0 {
		return errors.Wrap(errors.ErrConfigValidation, fmt.Sprintf("workers must be positive, got %d", c.Settings.Workers))
	}
	if c.Settings.Retries < 0 {
		return errors.Wrap(errors.ErrConfigValidation, fmt.Sprintf("retries cannot be negative, got %d", c.Settings.Retries))
	}
	switch c.Settings.SaveMode {
	case "flat", "structured":
	default:
		return errors.Wrap(errors.ErrConfigValidation, fmt.Sprintf("save_mode must be flat or structured, got %q", c.Settings.SaveMode))
	}
	return nil
}
