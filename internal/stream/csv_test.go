package stream

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestOpenCSVPlainHeader(t *testing.T) {
	path := writeTemp(t, "charges.csv",
		"description,code_1,code_1_type,cash_price\n"+
			"MRI brain,70553,CPT,1250.00\n"+
			"Office visit,99213,CPT,150.00\n")

	rows, err := OpenCSV(path)
	if err != nil {
		t.Fatalf("OpenCSV: %v", err)
	}
	defer rows.Close()

	want := []string{"description", "code_1", "code_1_type", "cash_price"}
	if !reflect.DeepEqual(rows.Header(), want) {
		t.Fatalf("Header() = %v, want %v", rows.Header(), want)
	}

	row, err := rows.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if row["description"] != "MRI brain" || row["cash_price"] != "1250.00" {
		t.Errorf("unexpected first row: %v", row)
	}

	if _, err := rows.Next(); err != nil {
		t.Fatalf("Next: %v", err)
	}
	if _, err := rows.Next(); err != io.EOF {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}

func TestOpenCSVSkipsMetadataRows(t *testing.T) {
	path := writeTemp(t, "charges.csv",
		"hospital_name,last_updated_on,version\n"+
			"General Hospital,2024-07-01,2.0.0\n"+
			"description,code_1,code_1_type,cash_price,setting\n"+
			"MRI brain,70553,CPT,1250.00,outpatient\n")

	rows, err := OpenCSV(path)
	if err != nil {
		t.Fatalf("OpenCSV: %v", err)
	}
	defer rows.Close()

	if got := rows.Header()[0]; got != "description" {
		t.Fatalf("header starts with %q, metadata rows not skipped", got)
	}

	row, err := rows.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if row["setting"] != "outpatient" {
		t.Errorf("unexpected row: %v", row)
	}
}

func TestNextPadsShortRows(t *testing.T) {
	path := writeTemp(t, "charges.csv",
		"description,code,code_type,cash_price\n"+
			"MRI brain,70553\n")

	rows, err := OpenCSV(path)
	if err != nil {
		t.Fatalf("OpenCSV: %v", err)
	}
	defer rows.Close()

	row, err := rows.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if row["code_type"] != "" || row["cash_price"] != "" {
		t.Errorf("short row not padded: %v", row)
	}
	if row["code"] != "70553" {
		t.Errorf("row = %v", row)
	}
}

func TestRowNumCountsPhysicalRows(t *testing.T) {
	path := writeTemp(t, "charges.csv",
		"description,code,code_type,cash_price\n"+
			"MRI brain,70553,CPT,1250.00\n")

	rows, err := OpenCSV(path)
	if err != nil {
		t.Fatalf("OpenCSV: %v", err)
	}
	defer rows.Close()

	if rows.RowNum() != 1 {
		t.Fatalf("RowNum after header = %d, want 1", rows.RowNum())
	}
	if _, err := rows.Next(); err != nil {
		t.Fatalf("Next: %v", err)
	}
	if rows.RowNum() != 2 {
		t.Errorf("RowNum after first data row = %d, want 2", rows.RowNum())
	}
}

func TestHeaderRowIndex(t *testing.T) {
	tests := []struct {
		name string
		rows [][]string
		want int
	}{
		{
			"header first",
			[][]string{{"description", "code", "cash_price"}},
			0,
		},
		{
			"description plus setting",
			[][]string{
				{"General Hospital", "2024-07-01"},
				{"description", "code|1", "setting"},
			},
			1,
		},
		{
			"keyword density",
			[][]string{
				{"some", "metadata", "values"},
				{"more", "metadata"},
				{"description", "billing_code", "gross charge", "discounted cash"},
			},
			2,
		},
		{
			"no signal defaults to zero",
			[][]string{{"a", "b"}, {"c", "d"}},
			0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HeaderRowIndex(tt.rows); got != tt.want {
				t.Errorf("HeaderRowIndex = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestLeadingRowsBounded(t *testing.T) {
	var b strings.Builder
	b.WriteString("a,b,c\n")
	for i := 0; i < 20; i++ {
		b.WriteString("1,2,3\n")
	}
	path := writeTemp(t, "big.csv", b.String())

	rows, err := LeadingRows(path, 5)
	if err != nil {
		t.Fatalf("LeadingRows: %v", err)
	}
	if len(rows) != 5 {
		t.Errorf("LeadingRows returned %d rows, want 5", len(rows))
	}
}

func TestOpenSkipsBOM(t *testing.T) {
	path := writeTemp(t, "bom.csv",
		"\xef\xbb\xbfdescription,code,code_type,cash_price\n"+
			"MRI,70553,CPT,100\n")

	rows, err := OpenCSV(path)
	if err != nil {
		t.Fatalf("OpenCSV: %v", err)
	}
	defer rows.Close()

	if got := rows.Header()[0]; got != "description" {
		t.Errorf("first header = %q, BOM not stripped", got)
	}
}

// rowSource synthesizes CSV rows on demand so the full stream never
// exists in memory, and records how many bytes were pulled from it.
type rowSource struct {
	header string
	rows   int
	next   int
	buf    []byte
	pulled int64
}

func (s *rowSource) Read(p []byte) (int, error) {
	for len(s.buf) == 0 {
		if s.next > s.rows {
			return 0, io.EOF
		}
		if s.next == 0 {
			s.buf = []byte(s.header + "\n")
		} else {
			s.buf = []byte(fmt.Sprintf("Procedure %d,%d,CPT,%d.00,outpatient\n",
				s.next, 70000+s.next%1000, 100+s.next%900))
		}
		s.next++
	}
	n := copy(p, s.buf)
	s.buf = s.buf[n:]
	s.pulled += int64(n)
	return n, nil
}

func (s *rowSource) Close() error { return nil }

func TestCSVRowsStreamRowAtATime(t *testing.T) {
	const rowCount = 250000
	src := &rowSource{
		header: "description,code|1,code|1|type,standard_charge|discounted_cash,setting",
		rows:   rowCount,
	}

	cr := csv.NewReader(src)
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		t.Fatalf("read header: %v", err)
	}
	rows := &CSVRows{rc: src, csv: cr, header: header, rowNum: 1}

	if _, err := rows.Next(); err != nil {
		t.Fatalf("Next: %v", err)
	}
	if src.pulled > 64*1024 {
		t.Fatalf("first row pulled %d bytes from the source, want a bounded read-ahead", src.pulled)
	}

	count := 1
	for {
		_, err := rows.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next at row %d: %v", count, err)
		}
		count++
	}
	if count != rowCount {
		t.Fatalf("streamed %d rows, want %d", count, rowCount)
	}
}
