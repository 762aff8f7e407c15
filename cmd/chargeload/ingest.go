package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/gyeh/chargefeed/internal/exitcode"
	"github.com/gyeh/chargefeed/internal/ingest"
	"github.com/gyeh/chargefeed/internal/logging"
	"github.com/gyeh/chargefeed/internal/sink"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest a single price transparency file",
	RunE:  runIngest,
}

func init() {
	f := ingestCmd.Flags()
	f.StringVar(&cfg.FilePath, "file", "", "Path to CSV, JSON, or NDJSON file (required)")
	f.StringVar(&cfg.Output, "output", "", "Output backend: postgres, json, csv, or parquet")
	f.StringVar(&cfg.OutputDir, "out-dir", "", "Output directory for file backends")
	f.IntVar(&cfg.BatchSize, "batch-size", 0, "Records per write batch")
	f.IntVar(&cfg.FuzzyThreshold, "fuzzy-threshold", 0, "Minimum fuzzy score for column mapping (0-100)")
	_ = ingestCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat, cfg.Verbose)
	ctx := context.Background()

	if err := loadConfig(); err != nil {
		log.Error().Err(err).Msg("config load failed")
		os.Exit(exitcode.UsageError)
	}
	if err := cfg.ValidateFile(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}

	out, err := openSink(ctx)
	if err != nil {
		log.Error().Err(err).Msg("output backend unavailable")
		os.Exit(exitcode.DBConnError)
	}
	pipeline := ingest.New(out, log, &cfg)
	result, err := pipeline.ProcessFile(ctx, cfg.FilePath)
	if err != nil {
		exitPipelineError(log, err)
	}
	if err := out.Close(); err != nil {
		log.Error().Err(err).Msg("flush failed")
		os.Exit(exitcode.WriteError)
	}

	fmt.Printf("Ingest complete: %s, %d/%d records (%.1fs)\n",
		result.FacilityID, result.SuccessfulRecords, result.TotalRecords,
		result.ProcessingTime.Seconds())
	return nil
}

func openSink(ctx context.Context) (sink.Writer, error) {
	kind := sink.Kind(cfg.Output)
	target := cfg.OutputDir
	if kind == sink.KindPostgres {
		target = cfg.DSN
	}
	return sink.New(ctx, kind, target)
}

// exitPipelineError maps a pipeline phase onto the process exit code.
func exitPipelineError(log zerolog.Logger, err error) {
	var pe *ingest.PipelineError
	if errors.As(err, &pe) {
		log.Error().Err(pe.Err).Str("phase", pe.Phase).Msg("ingest failed")
		switch pe.Phase {
		case "detect", "facility":
			os.Exit(exitcode.ValidationError)
		case "extract":
			os.Exit(exitcode.ExtractError)
		default:
			os.Exit(exitcode.WriteError)
		}
	}
	log.Error().Err(err).Msg("ingest failed")
	os.Exit(exitcode.ExtractError)
}
