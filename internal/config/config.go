//-------------------------------------------------------------------------
//
// ecomflow - e-commerce warehouse ETL pipeline
//
// Portions copyright (c) 2025 - 2026, Datamill Labs
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package config handles configuration management for ecomflow.
// Configuration is loaded from config files and CLI flags (no environment
// variables). CLI flags take precedence over config file values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for ecomflow.
type Config struct {
	// Connection is the PostgreSQL connection string.
	Connection string `mapstructure:"connection"`

	// LogLevel controls logging verbosity (debug, info, warn, error).
	LogLevel string `mapstructure:"log_level"`

	// Generate holds configuration for the generate subcommand.
	Generate GenerateConfig `mapstructure:"generate"`

	// Run holds configuration for the run subcommand.
	Run RunConfig `mapstructure:"run"`
}

// GenerateConfig holds configuration for raw data generation.
type GenerateConfig struct {
	// Customers is the number of customer rows to generate.
	Customers int `mapstructure:"customers"`

	// Products is the number of product rows to generate.
	Products int `mapstructure:"products"`

	// Transactions is the number of transaction rows to generate.
	Transactions int `mapstructure:"transactions"`

	// Seed makes generation reproducible when non-zero.
	Seed uint64 `mapstructure:"seed"`

	// StartDate is the first possible transaction date (YYYY-MM-DD).
	StartDate string `mapstructure:"start_date"`

	// DaySpan is the number of days transactions are spread over.
	DaySpan int `mapstructure:"day_span"`

	// OutputDir is where the CSV feeds are written.
	OutputDir string `mapstructure:"output_dir"`
}

// RunConfig holds configuration for pipeline runs.
type RunConfig struct {
	// InputDir is the directory containing the raw CSV feeds.
	InputDir string `mapstructure:"input_dir"`

	// AsOf anchors recency metrics (RFC 3339 or YYYY-MM-DD). Empty means
	// the run start time.
	AsOf string `mapstructure:"as_of"`

	// DateRangeStart/DateRangeEnd optionally override the calendar
	// dimension bounds (YYYY-MM-DD). Both must be set together.
	DateRangeStart string `mapstructure:"date_range_start"`
	DateRangeEnd   string `mapstructure:"date_range_end"`

	// ReportFile is where the run report JSON is written. Empty disables
	// the file; the report is always stored in the database.
	ReportFile string `mapstructure:"report_file"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Generate: GenerateConfig{
			Customers:    500,
			Products:     200,
			Transactions: 5000,
			StartDate:    "2023-01-01",
			DaySpan:      365,
			OutputDir:    "data/raw",
		},
		Run: RunConfig{
			InputDir: "data/raw",
		},
	}
}

// Load reads configuration from config files.
// Config file locations (in order of precedence):
// 1. Path specified by configFile parameter
// 2. ./ecomflow.yaml
// 3. ~/.config/ecomflow/config.yaml
func Load(configFile string) (*Config, error) {
	v := viper.New()

	v.SetConfigName("ecomflow")
	v.SetConfigType("yaml")

	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "ecomflow"))
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	}

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := DefaultConfig()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.Connection == "" {
		return fmt.Errorf("connection string is required")
	}
	return nil
}

// ValidateGenerate checks configuration required for the generate command.
func (c *Config) ValidateGenerate() error {
	if c.Generate.Customers < 1 {
		return fmt.Errorf("generate.customers must be at least 1")
	}
	if c.Generate.Products < 1 {
		return fmt.Errorf("generate.products must be at least 1")
	}
	if c.Generate.Transactions < 1 {
		return fmt.Errorf("generate.transactions must be at least 1")
	}
	if c.Generate.DaySpan < 1 {
		return fmt.Errorf("generate.day_span must be at least 1")
	}
	if c.Generate.OutputDir == "" {
		return fmt.Errorf("generate.output_dir is required")
	}
	if _, err := time.Parse("2006-01-02", c.Generate.StartDate); err != nil {
		return fmt.Errorf("generate.start_date must be YYYY-MM-DD: %w", err)
	}
	return nil
}

// ValidateRun checks configuration required for the run command.
func (c *Config) ValidateRun() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Run.InputDir == "" {
		return fmt.Errorf("run.input_dir is required")
	}
	if c.Run.AsOf != "" {
		if _, err := ParseTime(c.Run.AsOf); err != nil {
			return fmt.Errorf("run.as_of must be RFC 3339 or YYYY-MM-DD: %w", err)
		}
	}
	if (c.Run.DateRangeStart == "") != (c.Run.DateRangeEnd == "") {
		return fmt.Errorf("run.date_range_start and run.date_range_end must be set together")
	}
	if c.Run.DateRangeStart != "" {
		start, err := time.Parse("2006-01-02", c.Run.DateRangeStart)
		if err != nil {
			return fmt.Errorf("run.date_range_start must be YYYY-MM-DD: %w", err)
		}
		end, err := time.Parse("2006-01-02", c.Run.DateRangeEnd)
		if err != nil {
			return fmt.Errorf("run.date_range_end must be YYYY-MM-DD: %w", err)
		}
		if end.Before(start) {
			return fmt.Errorf("run.date_range_end must not precede run.date_range_start")
		}
	}
	return nil
}

// ParseTime parses an RFC 3339 timestamp or a bare date.
func ParseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
