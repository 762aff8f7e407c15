package stream

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// maxMetadataRows bounds how far the header heuristic scans. Observed
// hospital CSVs put at most a couple of metadata rows above the header.
const maxMetadataRows = 5

// headerKeywords is the vocabulary the header-row heuristic looks for.
var headerKeywords = []string{
	"description", "code", "charge", "price", "procedure",
	"service", "billing", "standard_charge", "setting", "gross", "discounted",
}

// CSVRows streams one CSV data row at a time as a header-keyed map.
// Only a single row is resident in memory at any point.
type CSVRows struct {
	rc     io.ReadCloser
	csv    *csv.Reader
	header []string
	rowNum int64
}

// OpenCSV opens a hospital CSV, skips any leading metadata rows found by
// the header heuristic, and positions the stream at the first data row.
func OpenCSV(path string) (*CSVRows, error) {
	leading, err := LeadingRows(path, maxMetadataRows)
	if err != nil {
		return nil, err
	}
	skip := HeaderRowIndex(leading)

	rc, err := Open(path)
	if err != nil {
		return nil, err
	}

	cr := csv.NewReader(rc)
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	r := &CSVRows{rc: rc, csv: cr}

	for i := 0; i < skip; i++ {
		if _, err := cr.Read(); err != nil {
			rc.Close()
			return nil, fmt.Errorf("skip metadata row %d: %w", i, err)
		}
		r.rowNum++
	}

	header, err := cr.Read()
	if err != nil {
		rc.Close()
		return nil, fmt.Errorf("read header row: %w", err)
	}
	r.rowNum++
	for i, h := range header {
		header[i] = strings.TrimSpace(h)
	}
	r.header = header

	return r, nil
}

// Header returns the trimmed column names.
func (r *CSVRows) Header() []string { return r.header }

// RowNum returns the 1-based number of the last physical row read.
func (r *CSVRows) RowNum() int64 { return r.rowNum }

// Next returns the next data row keyed by header name. Rows shorter than
// the header are padded with empty strings. Returns io.EOF when done.
func (r *CSVRows) Next() (map[string]string, error) {
	for {
		row, err := r.csv.Read()
		if err != nil {
			return nil, err
		}
		r.rowNum++

		if len(row) == 0 || (len(row) == 1 && row[0] == "") {
			continue
		}

		m := make(map[string]string, len(r.header))
		for i, col := range r.header {
			if i < len(row) {
				m[col] = row[i]
			} else {
				m[col] = ""
			}
		}
		return m, nil
	}
}

// Close releases the underlying file.
func (r *CSVRows) Close() error { return r.rc.Close() }

// LeadingRows reads up to max rows from the top of a CSV file, for the
// header heuristic and for facility metadata extraction.
func LeadingRows(path string, max int) ([][]string, error) {
	rc, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	cr := csv.NewReader(rc)
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	var rows [][]string
	for len(rows) < max {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read leading rows: %w", err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// HeaderRowIndex locates the header row within the leading rows of a
// hospital CSV. Two signals mark a header: the first cell equals
// "description" with a "setting" cell somewhere on the row (the common
// transparency layout), or more than 30% of cells contain a known header
// keyword. Defaults to row 0. This is a heuristic table matched against
// observed hospital files, not a general CSV-dialect detector.
func HeaderRowIndex(rows [][]string) int {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}

		if strings.EqualFold(strings.TrimSpace(row[0]), "description") {
			for _, cell := range row {
				if strings.Contains(strings.ToLower(cell), "setting") {
					return i
				}
			}
		}

		hits := 0
		for _, cell := range row {
			lower := strings.ToLower(cell)
			for _, kw := range headerKeywords {
				if strings.Contains(lower, kw) {
					hits++
					break
				}
			}
		}
		if float64(hits)/float64(len(row)) > 0.3 {
			return i
		}
	}
	return 0
}
