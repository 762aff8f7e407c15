package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/parquet-go/parquet-go"
	"github.com/shopspring/decimal"

	"github.com/gyeh/chargefeed/internal/model"
)

const parquetFlushInterval = 100_000

// procedureRow is the Parquet-flattened form of a PricedProcedure.
// Codes are JSON-encoded into one column; prices are doubles since
// Parquet carries no convenient decimal logical type at this scale.
type procedureRow struct {
	FacilityID    string   `parquet:"facility_id"`
	Codes         string   `parquet:"codes"`
	Description   string   `parquet:"description"`
	CashPrice     float64  `parquet:"cash_price"`
	GrossCharge   *float64 `parquet:"gross_charge,optional"`
	NegotiatedMin *float64 `parquet:"negotiated_min,optional"`
	NegotiatedMax *float64 `parquet:"negotiated_max,optional"`
	Currency      string   `parquet:"currency"`
	IngestedAt    int64    `parquet:"ingested_at,timestamp(microsecond)"`
}

// Parquet writes procedures to procedures.parquet with Snappy
// compression, flushing row groups periodically to bound memory.
// Facilities are written as a JSON sidecar since a row-group format
// buys nothing for a handful of facility records.
type Parquet struct {
	dir string

	mu         sync.Mutex
	file       *os.File
	writer     *parquet.GenericWriter[procedureRow]
	count      int
	facilities []*model.Facility
}

// NewParquet creates the output directory and the procedures file.
func NewParquet(dir string) (*Parquet, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	f, err := os.Create(filepath.Join(dir, "procedures.parquet"))
	if err != nil {
		return nil, fmt.Errorf("create parquet file: %w", err)
	}

	w := parquet.NewGenericWriter[procedureRow](f,
		parquet.Compression(&parquet.Snappy),
	)
	return &Parquet{dir: dir, file: f, writer: w}, nil
}

func (p *Parquet) WriteFacility(_ context.Context, f *model.Facility) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.facilities = append(p.facilities, f)
	return nil
}

func (p *Parquet) WriteBatch(_ context.Context, recs []*model.PricedProcedure) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	rows := make([]procedureRow, 0, len(recs))
	for _, rec := range recs {
		codes, err := json.Marshal(rec.Codes)
		if err != nil {
			return fmt.Errorf("marshal codes: %w", err)
		}
		row := procedureRow{
			FacilityID:  rec.FacilityID,
			Codes:       string(codes),
			Description: rec.Description,
			Currency:    rec.Currency,
			IngestedAt:  rec.IngestedAt.UnixMicro(),
		}
		if rec.CashPrice != nil {
			row.CashPrice = rec.CashPrice.InexactFloat64()
		}
		row.GrossCharge = floatPtr(rec.GrossCharge)
		row.NegotiatedMin = floatPtr(rec.NegotiatedMin)
		row.NegotiatedMax = floatPtr(rec.NegotiatedMax)
		rows = append(rows, row)
	}

	if _, err := p.writer.Write(rows); err != nil {
		return fmt.Errorf("write parquet rows: %w", err)
	}

	p.count += len(rows)
	if p.count >= parquetFlushInterval {
		if err := p.writer.Flush(); err != nil {
			return fmt.Errorf("flush parquet row group: %w", err)
		}
		p.count = 0
	}
	return nil
}

// Close finalizes the parquet file and writes the facility sidecar.
func (p *Parquet) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.writer.Close(); err != nil {
		p.file.Close()
		return fmt.Errorf("close parquet writer: %w", err)
	}
	if err := p.file.Close(); err != nil {
		return err
	}
	return writeJSON(filepath.Join(p.dir, "facilities.json"), p.facilities)
}

func floatPtr(d *decimal.Decimal) *float64 {
	if d == nil {
		return nil
	}
	f := d.InexactFloat64()
	return &f
}

var _ Writer = (*Parquet)(nil)
