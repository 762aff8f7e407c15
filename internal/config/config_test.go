package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFromFileMergesTunables(t *testing.T) {
	path := writeConfig(t,
		"batch_size: 500\nworkers: 8\nfuzzy_threshold: 70\n"+
			"facility:\n  facility_name: General Hospital\n  city: Austin\n  state: TX\n  address: 100 Main St\n")

	var c Config
	if err := c.LoadFromFile(path); err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if c.BatchSize != 500 || c.Workers != 8 || c.FuzzyThreshold != 70 {
		t.Errorf("tunables = %d/%d/%d", c.BatchSize, c.Workers, c.FuzzyThreshold)
	}
	if c.Facility == nil || c.Facility.FacilityName != "General Hospital" {
		t.Errorf("Facility = %+v", c.Facility)
	}
}

func TestLoadFromFileZeroValuesIgnored(t *testing.T) {
	path := writeConfig(t, "batch_size: 0\n")

	c := Config{BatchSize: 250}
	if err := c.LoadFromFile(path); err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if c.BatchSize != 250 {
		t.Errorf("BatchSize = %d, zero file value should not clobber", c.BatchSize)
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	var c Config
	if err := c.LoadFromFile("/nonexistent/config.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadFromFileMalformed(t *testing.T) {
	path := writeConfig(t, "batch_size: [not a number\n")
	var c Config
	if err := c.LoadFromFile(path); err == nil {
		t.Fatal("expected error for malformed YAML")
	}
}

func TestApplyDefaults(t *testing.T) {
	var c Config
	c.ApplyDefaults()
	if c.BatchSize != DefaultBatchSize {
		t.Errorf("BatchSize = %d", c.BatchSize)
	}
	if c.Workers != DefaultWorkers {
		t.Errorf("Workers = %d", c.Workers)
	}
	if c.FuzzyThreshold != DefaultFuzzyThreshold {
		t.Errorf("FuzzyThreshold = %d", c.FuzzyThreshold)
	}
	if c.Output != "postgres" {
		t.Errorf("Output = %q", c.Output)
	}
	if c.Pattern != "*" {
		t.Errorf("Pattern = %q", c.Pattern)
	}
}

func TestValidateBackends(t *testing.T) {
	base := func() Config {
		var c Config
		c.ApplyDefaults()
		return c
	}

	c := base()
	if err := c.Validate(); err == nil {
		t.Error("postgres backend without DSN should fail")
	}

	c = base()
	c.DSN = "postgresql://localhost/prices"
	if err := c.Validate(); err != nil {
		t.Errorf("postgres backend with DSN: %v", err)
	}

	c = base()
	c.Output = "json"
	if err := c.Validate(); err == nil {
		t.Error("file backend without out-dir should fail")
	}

	c = base()
	c.Output = "parquet"
	c.OutputDir = "/tmp/out"
	if err := c.Validate(); err != nil {
		t.Errorf("parquet backend with out-dir: %v", err)
	}

	c = base()
	c.Output = "xml"
	c.DSN = "x"
	if err := c.Validate(); err == nil {
		t.Error("unknown backend should fail")
	}

	c = base()
	c.DSN = "x"
	c.FuzzyThreshold = 150
	if err := c.Validate(); err == nil {
		t.Error("out-of-range fuzzy threshold should fail")
	}
}

func TestValidateFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "charges.csv")
	if err := os.WriteFile(path, []byte("a,b\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	var c Config
	c.ApplyDefaults()
	c.DSN = "postgresql://localhost/prices"

	if err := c.ValidateFile(); err == nil {
		t.Error("missing --file should fail")
	}

	c.FilePath = path
	if err := c.ValidateFile(); err != nil {
		t.Errorf("ValidateFile: %v", err)
	}

	c.FilePath = filepath.Join(t.TempDir(), "gone.csv")
	if err := c.ValidateFile(); err == nil {
		t.Error("inaccessible file should fail")
	}
}

func TestValidateDir(t *testing.T) {
	dir := t.TempDir()

	var c Config
	c.ApplyDefaults()
	c.DSN = "postgresql://localhost/prices"

	if err := c.ValidateDir(); err == nil {
		t.Error("missing --dir should fail")
	}

	c.DirPath = dir
	if err := c.ValidateDir(); err != nil {
		t.Errorf("ValidateDir: %v", err)
	}

	file := filepath.Join(dir, "f.csv")
	if err := os.WriteFile(file, []byte("a\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	c.DirPath = file
	if err := c.ValidateDir(); err == nil {
		t.Error("plain file as --dir should fail")
	}
}
