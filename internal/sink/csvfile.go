package sink

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/gyeh/chargefeed/internal/model"
)

var (
	facilityHeader = []string{
		"facility_id", "facility_name", "city", "state", "address",
		"source_url", "file_version", "last_updated", "ingested_at",
	}
	procedureHeader = []string{
		"facility_id", "codes", "description", "cash_price",
		"gross_charge", "negotiated_min", "negotiated_max",
		"currency", "ingested_at",
	}
)

// CSVFile streams records into facilities.csv and procedures.csv as they
// arrive; codes are JSON-encoded into a single column.
type CSVFile struct {
	mu         sync.Mutex
	facilities *csvFile
	procedures *csvFile
}

type csvFile struct {
	f *os.File
	w *csv.Writer
}

// NewCSVFile creates the output directory and both files with headers.
func NewCSVFile(dir string) (*CSVFile, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	fac, err := newCSVFile(filepath.Join(dir, "facilities.csv"), facilityHeader)
	if err != nil {
		return nil, err
	}
	proc, err := newCSVFile(filepath.Join(dir, "procedures.csv"), procedureHeader)
	if err != nil {
		fac.f.Close()
		return nil, err
	}
	return &CSVFile{facilities: fac, procedures: proc}, nil
}

func newCSVFile(path string, header []string) (*csvFile, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		f.Close()
		return nil, fmt.Errorf("write header %s: %w", path, err)
	}
	return &csvFile{f: f, w: w}, nil
}

func (w *CSVFile) WriteFacility(_ context.Context, f *model.Facility) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	row := []string{
		f.FacilityID, f.FacilityName, f.City, f.State, deref(f.Address),
		f.SourceURL, deref(f.FileVersion), deref(f.LastUpdated),
		f.IngestedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if err := w.facilities.w.Write(row); err != nil {
		return fmt.Errorf("write facility row: %w", err)
	}
	return nil
}

func (w *CSVFile) WriteBatch(_ context.Context, recs []*model.PricedProcedure) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, rec := range recs {
		codes, err := json.Marshal(rec.Codes)
		if err != nil {
			return fmt.Errorf("marshal codes: %w", err)
		}
		row := []string{
			rec.FacilityID, string(codes), rec.Description,
			decStr(rec.CashPrice), decStr(rec.GrossCharge),
			decStr(rec.NegotiatedMin), decStr(rec.NegotiatedMax),
			rec.Currency, rec.IngestedAt.Format("2006-01-02T15:04:05Z07:00"),
		}
		if err := w.procedures.w.Write(row); err != nil {
			return fmt.Errorf("write procedure row: %w", err)
		}
	}
	return nil
}

// Close flushes both writers and closes the files.
func (w *CSVFile) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	var first error
	for _, cf := range []*csvFile{w.facilities, w.procedures} {
		cf.w.Flush()
		if err := cf.w.Error(); err != nil && first == nil {
			first = err
		}
		if err := cf.f.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func decStr(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.String()
}

var _ Writer = (*CSVFile)(nil)
