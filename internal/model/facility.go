package model

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var facilityIDRe = regexp.MustCompile(`^[a-z0-9-]+$`)

// Facility identifies one hospital whose price file was ingested.
// FacilityID is derived deterministically from the facility name
// (normalize.DeriveFacilityID), so the same name always maps to the
// same id across runs.
type Facility struct {
	FacilityID   string    `json:"facility_id"`
	FacilityName string    `json:"facility_name"`
	City         string    `json:"city"`
	State        string    `json:"state"`
	Address      *string   `json:"address,omitempty"`
	SourceURL    string    `json:"source_url"`
	FileVersion  *string   `json:"file_version,omitempty"`
	LastUpdated  *string   `json:"last_updated,omitempty"`
	IngestedAt   time.Time `json:"ingested_at"`
}

// Validate checks the structural invariants on a facility record.
func (f *Facility) Validate() error {
	if !facilityIDRe.MatchString(f.FacilityID) {
		return fmt.Errorf("facility_id %q must be lowercase alphanumeric with hyphens", f.FacilityID)
	}
	if f.FacilityName == "" {
		return fmt.Errorf("facility_name is required")
	}
	if len(f.State) != 2 || f.State != strings.ToUpper(f.State) {
		return fmt.Errorf("state %q must be a 2-letter uppercase code", f.State)
	}
	if f.City == "" {
		return fmt.Errorf("city is required")
	}
	return nil
}
