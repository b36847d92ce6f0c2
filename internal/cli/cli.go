//-------------------------------------------------------------------------
//
// ecomflow - e-commerce warehouse ETL pipeline
//
// Portions copyright (c) 2025 - 2026, Datamill Labs
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package cli implements the command-line interface for ecomflow.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/datamill-io/ecomflow/internal/config"
	"github.com/datamill-io/ecomflow/internal/logging"
	"github.com/datamill-io/ecomflow/pkg/version"
)

var (
	// Global flags
	cfgFile    string
	connection string
	logLevel   string

	// Global config
	cfg *config.Config

	rootCmd = &cobra.Command{
		Use:   "ecomflow",
		Short: "Batch ETL pipeline for an e-commerce PostgreSQL warehouse",
		Long: `ecomflow runs a linear batch ETL pipeline against PostgreSQL: raw
CSV feeds land verbatim in a staging schema, a quality gate validates and
partitions them, a normalizer builds the 3NF production schema, a warehouse
builder denormalizes it into a star schema, and an aggregator pre-computes
the rollups a BI dashboard reads.

Each stage commits atomically before the next one starts; a run either
finishes with a data-quality report or aborts with a stage-identified
fatal error.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default: ./ecomflow.yaml)")
	rootCmd.PersistentFlags().StringVar(&connection, "connection", "",
		"PostgreSQL connection string")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"log level (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(reportCmd)
}

func initConfig() error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return err
	}

	// Override with CLI flags
	if connection != "" {
		cfg.Connection = connection
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	// Reinitialize logger with config
	logging.Init(logging.Config{
		Level:  cfg.LogLevel,
		Pretty: true,
	})

	return nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println(version.Info())
	},
}
