// Package detect classifies hospital price transparency files as CSV,
// JSON, or NDJSON from their extension and, failing that, a bounded
// content sample. Detection never reads more than two lines or ~1KB.
package detect

import (
	"bufio"
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/gyeh/chargefeed/internal/stream"
)

// Format is the detected file format.
type Format string

const (
	CSV     Format = "csv"
	JSON    Format = "json"
	NDJSON  Format = "ndjson"
	Unknown Format = "unknown"
)

const sampleSize = 1024

// File detects the format of the file at path. A trailing .gz is
// ignored: the file is classified by what it decompresses to.
func File(path string) Format {
	name := strings.ToLower(path)
	name = strings.TrimSuffix(name, ".gz")

	switch filepath.Ext(name) {
	case ".csv":
		return CSV
	case ".ndjson", ".jsonl":
		return NDJSON
	case ".json":
		return jsonKind(path)
	}

	// No recognized extension: sample the first 1KB of content.
	r, err := stream.Open(path)
	if err != nil {
		return Unknown
	}
	defer r.Close()

	buf := make([]byte, sampleSize)
	n, _ := r.Read(buf)
	sample := string(buf[:n])

	if looksLikeCSV(sample) {
		return CSV
	}
	trimmed := strings.TrimSpace(sample)
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		return jsonKind(path)
	}
	return Unknown
}

// IsSupported reports whether path detects as a format the pipeline can
// process.
func IsSupported(path string) bool {
	switch File(path) {
	case CSV, JSON, NDJSON:
		return true
	}
	return false
}

// looksLikeCSV checks for commas and newlines with a consistent per-line
// comma count above 3 across the first three sampled lines. The last of
// those may be a row the 1KB sample cut short; it is counted like any
// other line.
func looksLikeCSV(sample string) bool {
	if !strings.Contains(sample, ",") || !strings.Contains(sample, "\n") {
		return false
	}
	lines := strings.Split(sample, "\n")
	if len(lines) > 3 {
		lines = lines[:3]
	}
	counts := make(map[int]struct{})
	var first int
	for i, line := range lines {
		c := strings.Count(line, ",")
		if i == 0 {
			first = c
		}
		counts[c] = struct{}{}
	}
	return len(counts) == 1 && first > 3
}

// jsonKind distinguishes a regular JSON document from NDJSON by trying to
// parse the first two non-empty lines as independent JSON values.
func jsonKind(path string) Format {
	r, err := stream.Open(path)
	if err != nil {
		return JSON
	}
	defer r.Close()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var lines []string
	for scanner.Scan() && len(lines) < 2 {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			lines = append(lines, line)
		}
	}

	if len(lines) == 2 {
		var a, b json.RawMessage
		if json.Unmarshal([]byte(lines[0]), &a) == nil &&
			json.Unmarshal([]byte(lines[1]), &b) == nil {
			return NDJSON
		}
	}
	if len(lines) > 0 &&
		(strings.HasPrefix(lines[0], "{") || strings.HasPrefix(lines[0], "[")) {
		return JSON
	}
	return JSON
}
