package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Defaults for the tunable knobs.
const (
	DefaultBatchSize      = 1000
	DefaultWorkers        = 4
	DefaultFuzzyThreshold = 80
)

// Config holds all runtime configuration for a chargeload run.
type Config struct {
	DSN       string
	FilePath  string
	DirPath   string
	Pattern   string
	Output    string // "postgres", "json", "csv", or "parquet"
	OutputDir string
	LogFormat string // "text" or "json"
	Verbose   bool

	BatchSize      int `yaml:"batch_size"`
	Workers        int `yaml:"workers"`
	FuzzyThreshold int `yaml:"fuzzy_threshold"`

	// Facility optionally supplies metadata explicitly instead of
	// extracting it from file content or the filename.
	Facility *FacilityMeta `yaml:"facility"`
}

// FacilityMeta is caller-supplied facility metadata. Any field left empty
// falls back to the extraction chain.
type FacilityMeta struct {
	FacilityName string `yaml:"facility_name"`
	City         string `yaml:"city"`
	State        string `yaml:"state"`
	Address      string `yaml:"address"`
	SourceURL    string `yaml:"source_url"`
}

// yamlConfig is the on-disk YAML structure.
type yamlConfig struct {
	BatchSize      int           `yaml:"batch_size"`
	Workers        int           `yaml:"workers"`
	FuzzyThreshold int           `yaml:"fuzzy_threshold"`
	Facility       *FacilityMeta `yaml:"facility"`
}

// LoadFromFile reads a YAML config file and merges its values into Config.
// Zero values in the file leave the existing settings untouched.
func (c *Config) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	if yc.BatchSize > 0 {
		c.BatchSize = yc.BatchSize
	}
	if yc.Workers > 0 {
		c.Workers = yc.Workers
	}
	if yc.FuzzyThreshold > 0 {
		c.FuzzyThreshold = yc.FuzzyThreshold
	}
	if yc.Facility != nil {
		c.Facility = yc.Facility
	}
	return nil
}

// ApplyDefaults fills unset tunables.
func (c *Config) ApplyDefaults() {
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
	}
	if c.FuzzyThreshold <= 0 {
		c.FuzzyThreshold = DefaultFuzzyThreshold
	}
	if c.Output == "" {
		c.Output = "postgres"
	}
	if c.Pattern == "" {
		c.Pattern = "*"
	}
}

// Validate checks fields shared by all commands.
func (c *Config) Validate() error {
	if c.FuzzyThreshold < 0 || c.FuzzyThreshold > 100 {
		return fmt.Errorf("fuzzy threshold must be 0-100, got %d", c.FuzzyThreshold)
	}
	switch c.Output {
	case "postgres":
		if c.DSN == "" {
			return fmt.Errorf("--dsn or DATABASE_URL is required for the postgres backend")
		}
	case "json", "csv", "parquet":
		if c.OutputDir == "" {
			return fmt.Errorf("--out-dir is required for the %s backend", c.Output)
		}
	default:
		return fmt.Errorf("unknown output backend %q", c.Output)
	}
	return nil
}

// ValidateFile additionally requires an accessible input file.
func (c *Config) ValidateFile() error {
	if c.FilePath == "" {
		return fmt.Errorf("--file is required")
	}
	if _, err := os.Stat(c.FilePath); err != nil {
		return fmt.Errorf("file not accessible: %w", err)
	}
	return c.Validate()
}

// ValidateDir additionally requires an accessible input directory.
func (c *Config) ValidateDir() error {
	if c.DirPath == "" {
		return fmt.Errorf("--dir is required")
	}
	info, err := os.Stat(c.DirPath)
	if err != nil {
		return fmt.Errorf("directory not accessible: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", c.DirPath)
	}
	return c.Validate()
}
