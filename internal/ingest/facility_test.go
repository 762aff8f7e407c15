package ingest

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/gyeh/chargefeed/internal/config"
	"github.com/gyeh/chargefeed/internal/detect"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

const facilityJSON = `{
  "hospital_name": "General Hospital",
  "hospital_address": ["100 Main St, Austin, TX 78701"],
  "version": "2.0.0",
  "last_updated_on": "2024-07-01",
  "standard_charge_information": []
}`

const facilityCSV = "hospital_name,last_updated_on,version,hospital_location,hospital_address\n" +
	`General Hospital,2024-07-01,2.0.0,"Austin, TX","100 Main St, Austin, TX 78701"` + "\n" +
	"description,code|1,code|1|type,standard_charge|discounted_cash,setting\n" +
	"MRI brain,70553,CPT,1250.00,outpatient\n"

func TestResolveFacilityFromJSON(t *testing.T) {
	path := writeTemp(t, "charges.json", facilityJSON)

	fac, err := ResolveFacility(path, detect.JSON, nil)
	if err != nil {
		t.Fatalf("ResolveFacility: %v", err)
	}
	if fac.FacilityName != "General Hospital" {
		t.Errorf("FacilityName = %q", fac.FacilityName)
	}
	if fac.City != "Austin" || fac.State != "TX" {
		t.Errorf("location = %s, %s", fac.City, fac.State)
	}
	if fac.Address == nil || *fac.Address != "100 Main St, Austin, TX 78701" {
		t.Errorf("Address = %v", fac.Address)
	}
	if fac.FileVersion == nil || *fac.FileVersion != "2.0.0" {
		t.Errorf("FileVersion = %v", fac.FileVersion)
	}
	if fac.LastUpdated == nil || *fac.LastUpdated != "2024-07-01" {
		t.Errorf("LastUpdated = %v", fac.LastUpdated)
	}
	if fac.FacilityID != "gene-hosp" {
		t.Errorf("FacilityID = %q", fac.FacilityID)
	}
}

func TestResolveFacilityFromCSVMetadata(t *testing.T) {
	path := writeTemp(t, "charges.csv", facilityCSV)

	fac, err := ResolveFacility(path, detect.CSV, nil)
	if err != nil {
		t.Fatalf("ResolveFacility: %v", err)
	}
	if fac.FacilityName != "General Hospital" {
		t.Errorf("FacilityName = %q", fac.FacilityName)
	}
	if fac.City != "Austin" || fac.State != "TX" {
		t.Errorf("location = %s, %s", fac.City, fac.State)
	}
}

func TestResolveFacilityOverrideWins(t *testing.T) {
	path := writeTemp(t, "charges.json", facilityJSON)

	fac, err := ResolveFacility(path, detect.JSON, &config.FacilityMeta{
		FacilityName: "Baylor Scott & White Medical Center",
		City:         "Temple",
		State:        "tx",
		Address:      "2401 S 31st St, Temple, TX 76508",
	})
	if err != nil {
		t.Fatalf("ResolveFacility: %v", err)
	}
	if fac.FacilityName != "Baylor Scott & White Medical Center" {
		t.Errorf("FacilityName = %q, override ignored", fac.FacilityName)
	}
	if fac.State != "TX" {
		t.Errorf("State = %q, want uppercased override", fac.State)
	}
	if fac.City != "Temple" {
		t.Errorf("City = %q", fac.City)
	}
}

func TestResolveFacilityNameFromFilename(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "741234567_general-hospital_standardcharges.json")
	if err := os.WriteFile(path,
		[]byte(`{"hospital_address": ["100 Main St, Austin, TX 78701"], "standard_charge_information": []}`),
		0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	fac, err := ResolveFacility(path, detect.JSON, nil)
	if err != nil {
		t.Fatalf("ResolveFacility: %v", err)
	}
	if fac.FacilityName != "General Hospital" {
		t.Errorf("FacilityName = %q, want name from filename convention", fac.FacilityName)
	}
}

func TestResolveFacilityMissingMetadata(t *testing.T) {
	path := writeTemp(t, "charges.json", `{"standard_charge_information": []}`)

	_, err := ResolveFacility(path, detect.JSON, nil)
	if err == nil {
		t.Fatal("expected error for unresolvable metadata")
	}
}

func TestResolveFacilityIDStable(t *testing.T) {
	slugRe := regexp.MustCompile(`^[a-z0-9-]+$`)

	first := writeTemp(t, "charges.json", facilityJSON)
	second := writeTemp(t, "charges.json", facilityJSON)

	a, err := ResolveFacility(first, detect.JSON, nil)
	if err != nil {
		t.Fatalf("ResolveFacility: %v", err)
	}
	b, err := ResolveFacility(second, detect.JSON, nil)
	if err != nil {
		t.Fatalf("ResolveFacility: %v", err)
	}
	if a.FacilityID != b.FacilityID {
		t.Errorf("same name resolved to %q and %q", a.FacilityID, b.FacilityID)
	}
	if !slugRe.MatchString(a.FacilityID) {
		t.Errorf("FacilityID %q is not a valid slug", a.FacilityID)
	}
}
