// Package ingest orchestrates one file's journey through the pipeline:
// format detection, facility resolution, streaming extraction,
// deduplication, and batched writes to the configured sink.
package ingest

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gyeh/chargefeed/internal/colmap"
	"github.com/gyeh/chargefeed/internal/config"
	"github.com/gyeh/chargefeed/internal/dedupe"
	"github.com/gyeh/chargefeed/internal/detect"
	"github.com/gyeh/chargefeed/internal/extract"
	"github.com/gyeh/chargefeed/internal/model"
	"github.com/gyeh/chargefeed/internal/sink"
	"github.com/gyeh/chargefeed/internal/stream"
)

// PipelineError wraps an error with the phase where it occurred.
type PipelineError struct {
	Phase string
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s: %s", e.Phase, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// Pipeline processes hospital price files into a sink. The sink is
// injected at construction; the pipeline owns no global state, so one
// Pipeline can serve concurrent file tasks.
type Pipeline struct {
	Sink           sink.Writer
	Log            zerolog.Logger
	BatchSize      int
	FuzzyThreshold int
	Facility       *config.FacilityMeta
}

// New builds a Pipeline from config.
func New(s sink.Writer, log zerolog.Logger, cfg *config.Config) *Pipeline {
	return &Pipeline{
		Sink:           s,
		Log:            log,
		BatchSize:      cfg.BatchSize,
		FuzzyThreshold: cfg.FuzzyThreshold,
		Facility:       cfg.Facility,
	}
}

// ProcessFile runs the full pipeline for a single file. Row-level
// problems degrade to counters on the result; file-level problems
// (missing file, undetectable format, unresolved facility metadata,
// sink failure) return a PipelineError.
func (p *Pipeline) ProcessFile(ctx context.Context, path string) (*model.IngestResult, error) {
	start := time.Now()
	runID := uuid.New()
	log := p.Log.With().Str("run_id", runID.String()).Str("file", filepath.Base(path)).Logger()

	info, err := os.Stat(path)
	if err != nil {
		return nil, &PipelineError{Phase: "detect", Err: err}
	}

	format := detect.File(path)
	if format == detect.Unknown {
		return nil, &PipelineError{Phase: "detect", Err: fmt.Errorf("unsupported file format")}
	}
	log.Info().
		Str("format", string(format)).
		Int64("size_bytes", info.Size()).
		Msg("processing file")

	facility, err := ResolveFacility(path, format, p.Facility)
	if err != nil {
		return nil, &PipelineError{Phase: "facility", Err: err}
	}

	if err := p.Sink.WriteFacility(ctx, facility); err != nil {
		return nil, &PipelineError{Phase: "write", Err: err}
	}

	result := &model.IngestResult{
		FacilityID: facility.FacilityID,
		FilePath:   path,
		Format:     string(format),
		IngestedAt: time.Now().UTC(),
	}

	var records []*model.PricedProcedure
	switch format {
	case detect.CSV:
		records, err = p.extractCSV(path, facility.FacilityID, log, result)
	case detect.JSON:
		records, err = p.extractJSON(path, facility.FacilityID, log, result)
	case detect.NDJSON:
		records, err = p.extractNDJSON(path, facility.FacilityID, log, result)
	}
	if err != nil {
		return nil, &PipelineError{Phase: "extract", Err: err}
	}

	deduped := dedupe.Dedupe(records)
	log.Info().
		Int("extracted", len(records)).
		Int("deduplicated", len(deduped)).
		Msg("deduplication complete")

	if err := p.writeBatches(ctx, deduped); err != nil {
		return nil, &PipelineError{Phase: "write", Err: err}
	}

	result.SuccessfulRecords = int64(len(deduped))
	result.TotalRecords = result.SuccessfulRecords + result.FailedRecords
	result.ProcessingTime = time.Since(start)

	log.Info().
		Int64("total", result.TotalRecords).
		Int64("successful", result.SuccessfulRecords).
		Int64("failed", result.FailedRecords).
		Strs("error_sample", result.ErrorSample()).
		Dur("duration", result.ProcessingTime).
		Msg("file complete")

	return result, nil
}

// writeBatches hands deduplicated records to the sink in bounded-size
// batches, sequentially, with one final partial batch.
func (p *Pipeline) writeBatches(ctx context.Context, records []*model.PricedProcedure) error {
	batchSize := p.BatchSize
	if batchSize <= 0 {
		batchSize = config.DefaultBatchSize
	}
	for start := 0; start < len(records); start += batchSize {
		end := start + batchSize
		if end > len(records) {
			end = len(records)
		}
		if err := p.Sink.WriteBatch(ctx, records[start:end]); err != nil {
			return fmt.Errorf("write batch at %d: %w", start, err)
		}
	}
	return nil
}

// extractCSV accumulates one file's candidate records. Filtered and
// malformed rows both count as failed; only genuine errors carry a
// message.
func (p *Pipeline) extractCSV(path, facilityID string, log zerolog.Logger, result *model.IngestResult) ([]*model.PricedProcedure, error) {
	rows, err := stream.OpenCSV(path)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	mapping := colmap.Build(rows.Header(), p.FuzzyThreshold)
	if missing := mapping.MissingFields(); len(missing) > 0 {
		log.Warn().Strs("missing", missing).Msg("critical fields unmapped, extracting best-effort")
	}

	ext := extract.NewCSVExtractor(facilityID, mapping)
	var records []*model.PricedProcedure

	for {
		row, err := rows.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.FailedRecords++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %s", rows.RowNum(), err))
			continue
		}

		rec, err := ext.Row(row)
		if err != nil {
			result.FailedRecords++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %s", rows.RowNum(), err))
			continue
		}
		if rec == nil {
			result.FailedRecords++
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// extractJSON accumulates candidates from the charge array. Filtered
// items are skipped without counting; malformed items count as failed.
func (p *Pipeline) extractJSON(path, facilityID string, log zerolog.Logger, result *model.IngestResult) ([]*model.PricedProcedure, error) {
	items, err := stream.OpenJSONArray(path, "")
	if err != nil {
		return nil, err
	}
	defer items.Close()

	ext := extract.NewJSONExtractor(facilityID)
	var records []*model.PricedProcedure

	for {
		raw, err := items.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return records, err
		}

		recs, err := ext.Item(raw)
		if err != nil {
			result.FailedRecords++
			result.Errors = append(result.Errors, fmt.Sprintf("item %d: %s", items.ItemNum(), err))
			continue
		}
		records = append(records, recs...)

		if n := items.ItemNum(); n%100000 == 0 {
			log.Debug().Int64("items", n).Msg("streaming progress")
		}
	}
	return records, nil
}

func (p *Pipeline) extractNDJSON(path, facilityID string, log zerolog.Logger, result *model.IngestResult) ([]*model.PricedProcedure, error) {
	items, err := stream.OpenNDJSON(path)
	if err != nil {
		return nil, err
	}
	defer items.Close()

	ext := extract.NewJSONExtractor(facilityID)
	var records []*model.PricedProcedure

	for n := int64(0); ; n++ {
		raw, err := items.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return records, err
		}

		recs, err := ext.Item(raw)
		if err != nil {
			result.FailedRecords++
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: %s", n+1, err))
			continue
		}
		records = append(records, recs...)
	}
	return records, nil
}
