package detect

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/pgzip"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func writeGzip(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", name, err)
	}
	zw := pgzip.NewWriter(f)
	if _, err := zw.Write([]byte(content)); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	return path
}

const csvContent = "description,code_1,code_1_type,cash_price,setting\n" +
	"MRI brain,70553,CPT,1250.00,outpatient\n" +
	"Office visit,99213,CPT,150.00,outpatient\n"

const jsonContent = `{"hospital_name":"Test","standard_charge_information":[{"description":"MRI"}]}`

const ndjsonContent = `{"description":"MRI brain","code":"70553"}
{"description":"Office visit","code":"99213"}
`

func TestFileByExtension(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    Format
	}{
		{"charges.csv", csvContent, CSV},
		{"charges.json", jsonContent, JSON},
		{"charges.ndjson", ndjsonContent, NDJSON},
		{"charges.jsonl", ndjsonContent, NDJSON},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.name, tt.content)
			if got := File(path); got != tt.want {
				t.Errorf("File(%s) = %s, want %s", tt.name, got, tt.want)
			}
		})
	}
}

func TestFileJSONExtensionWithNDJSONContent(t *testing.T) {
	// Some hospitals publish newline-delimited records under a .json name.
	path := writeFile(t, "charges.json", ndjsonContent)
	if got := File(path); got != NDJSON {
		t.Errorf("File() = %s, want %s", got, NDJSON)
	}
}

func TestFileContentSniffing(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    Format
	}{
		{"charges.txt", csvContent, CSV},
		{"charges.dat", jsonContent, JSON},
		{"notes.txt", "just some plain text\nwith no structure\n", Unknown},
		{"ragged.txt", "a,b\n1,2,3,4,5\nx\n", Unknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.name, tt.content)
			if got := File(path); got != tt.want {
				t.Errorf("File(%s) = %s, want %s", tt.name, got, tt.want)
			}
		})
	}
}

func TestFileGzip(t *testing.T) {
	path := writeGzip(t, "charges.csv.gz", csvContent)
	if got := File(path); got != CSV {
		t.Errorf("File(csv.gz) = %s, want %s", got, CSV)
	}

	path = writeGzip(t, "charges.json.gz", jsonContent)
	if got := File(path); got != JSON {
		t.Errorf("File(json.gz) = %s, want %s", got, JSON)
	}
}

func TestFileMissing(t *testing.T) {
	if got := File(filepath.Join(t.TempDir(), "nope.bin")); got != Unknown {
		t.Errorf("File(missing) = %s, want %s", got, Unknown)
	}
}

func TestIsSupported(t *testing.T) {
	csv := writeFile(t, "charges.csv", csvContent)
	if !IsSupported(csv) {
		t.Error("csv file reported unsupported")
	}
	txt := writeFile(t, "readme.txt", "hello world\n")
	if IsSupported(txt) {
		t.Error("plain text reported supported")
	}
}
