package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gyeh/chargefeed/internal/exitcode"
	"github.com/gyeh/chargefeed/internal/ingest"
	"github.com/gyeh/chargefeed/internal/logging"
)

var ingestDirCmd = &cobra.Command{
	Use:   "ingest-dir",
	Short: "Ingest every supported file in a directory",
	RunE:  runIngestDir,
}

func init() {
	f := ingestDirCmd.Flags()
	f.StringVar(&cfg.DirPath, "dir", "", "Directory of price transparency files (required)")
	f.StringVar(&cfg.Pattern, "pattern", "", "Glob pattern to filter files (default *)")
	f.IntVar(&cfg.Workers, "workers", 0, "Concurrent files in flight")
	f.StringVar(&cfg.Output, "output", "", "Output backend: postgres, json, csv, or parquet")
	f.StringVar(&cfg.OutputDir, "out-dir", "", "Output directory for file backends")
	f.IntVar(&cfg.BatchSize, "batch-size", 0, "Records per write batch")
	f.IntVar(&cfg.FuzzyThreshold, "fuzzy-threshold", 0, "Minimum fuzzy score for column mapping (0-100)")
	_ = ingestDirCmd.MarkFlagRequired("dir")
	rootCmd.AddCommand(ingestDirCmd)
}

func runIngestDir(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat, cfg.Verbose)
	ctx := context.Background()

	if err := loadConfig(); err != nil {
		log.Error().Err(err).Msg("config load failed")
		os.Exit(exitcode.UsageError)
	}
	if err := cfg.ValidateDir(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}

	out, err := openSink(ctx)
	if err != nil {
		log.Error().Err(err).Msg("output backend unavailable")
		os.Exit(exitcode.DBConnError)
	}
	pipeline := ingest.New(out, log, &cfg)
	results, err := pipeline.ProcessDir(ctx, cfg.DirPath, cfg.Pattern, cfg.Workers)
	if err != nil {
		log.Error().Err(err).Msg("directory ingest failed")
		os.Exit(exitcode.ValidationError)
	}
	if err := out.Close(); err != nil {
		log.Error().Err(err).Msg("flush failed")
		os.Exit(exitcode.WriteError)
	}

	failed := ingest.FailureCount(results)
	for _, r := range results {
		if r.Err != nil {
			log.Error().Err(r.Err).Str("file", r.Path).Msg("file failed")
			continue
		}
		fmt.Printf("%s: %s, %d/%d records (%.1fs)\n",
			r.Path, r.Result.FacilityID, r.Result.SuccessfulRecords,
			r.Result.TotalRecords, r.Result.ProcessingTime.Seconds())
	}
	fmt.Printf("Directory complete: %d files, %d failed\n", len(results), failed)

	if failed == len(results) {
		os.Exit(exitcode.ExtractError)
	}
	if failed > 0 {
		os.Exit(exitcode.PartialSuccess)
	}
	return nil
}
