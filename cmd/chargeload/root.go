package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/gyeh/chargefeed/internal/config"
)

var (
	cfg        config.Config
	configFile string
)

var rootCmd = &cobra.Command{
	Use:   "chargeload",
	Short: "Hospital price transparency file normalizer",
	Long:  "Detects, parses, and normalizes hospital standard-charge files (CSV, JSON, NDJSON) into a uniform cash-price dataset.",
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfg.DSN, "dsn", os.Getenv("DATABASE_URL"), "Postgres connection string (or set DATABASE_URL)")
	pf.StringVar(&cfg.LogFormat, "log-format", "text", "Log format: text or json")
	pf.BoolVar(&cfg.Verbose, "verbose", false, "Enable debug logging")
	pf.StringVar(&configFile, "config", "", "Path to YAML config file")
}

// loadConfig overlays the YAML file (when given) onto flag values and
// fills defaults. Non-zero file values win over flags for the tunables.
func loadConfig() error {
	if configFile != "" {
		if err := cfg.LoadFromFile(configFile); err != nil {
			return err
		}
	}
	cfg.ApplyDefaults()
	return nil
}
