package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gyeh/chargefeed/internal/model"
)

// JSONFile accumulates everything in memory and writes one facilities
// file and one procedures file on Close. Suitable for inspection and
// fixtures, not for files larger than memory.
type JSONFile struct {
	dir string

	mu         sync.Mutex
	facilities []*model.Facility
	records    []*model.PricedProcedure
}

// NewJSONFile creates the output directory if needed.
func NewJSONFile(dir string) (*JSONFile, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &JSONFile{dir: dir}, nil
}

func (w *JSONFile) WriteFacility(_ context.Context, f *model.Facility) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.facilities = append(w.facilities, f)
	return nil
}

func (w *JSONFile) WriteBatch(_ context.Context, recs []*model.PricedProcedure) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.records = append(w.records, recs...)
	return nil
}

// Close writes facilities.json and procedures.json.
func (w *JSONFile) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := writeJSON(filepath.Join(w.dir, "facilities.json"), w.facilities); err != nil {
		return err
	}
	return writeJSON(filepath.Join(w.dir, "procedures.json"), w.records)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

var _ Writer = (*JSONFile)(nil)
