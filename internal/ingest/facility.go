package ingest

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/gyeh/chargefeed/internal/config"
	"github.com/gyeh/chargefeed/internal/detect"
	"github.com/gyeh/chargefeed/internal/model"
	"github.com/gyeh/chargefeed/internal/normalize"
	"github.com/gyeh/chargefeed/internal/stream"
)

var (
	stateRe    = regexp.MustCompile(`\b([A-Z]{2})\b`)
	stateZipRe = regexp.MustCompile(`\b([A-Z]{2})\s+\d{5}`)

	titleCaser = cases.Title(language.AmericanEnglish)
)

// facilityMeta accumulates metadata through the resolution chain:
// caller-supplied values, then file content, then the filename.
type facilityMeta struct {
	name        string
	city        string
	state       string
	address     string
	sourceURL   string
	fileVersion string
	lastUpdated string
}

// ResolveFacility determines the facility record for one file. The
// required fields (name, city, state, address) must resolve through the
// chain; location fields are never silently defaulted, so an unresolved
// field fails the whole file with a descriptive error.
func ResolveFacility(path string, format detect.Format, override *config.FacilityMeta) (*model.Facility, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	meta := facilityMeta{sourceURL: abs}

	if override != nil {
		applyOverride(&meta, override)
	}

	switch format {
	case detect.JSON, detect.NDJSON:
		fillFromJSONMeta(&meta, path)
	case detect.CSV:
		fillFromCSVMeta(&meta, path)
	}

	if meta.name == "" {
		meta.name = nameFromFilename(path)
	}

	var missing []string
	for _, f := range []struct{ name, val string }{
		{"facility_name", meta.name},
		{"city", meta.city},
		{"state", meta.state},
		{"address", meta.address},
	} {
		if f.val == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf(
			"failed to extract required metadata fields %v from %s; ensure the file contains metadata or supply it explicitly",
			missing, filepath.Base(path))
	}

	// Normalize the published last-updated value to an ISO date when it
	// parses; hospitals use a handful of formats.
	if t := normalize.ParseDate(meta.lastUpdated); t != nil {
		meta.lastUpdated = t.Format("2006-01-02")
	}

	fac := &model.Facility{
		FacilityID:   normalize.DeriveFacilityID(meta.name),
		FacilityName: meta.name,
		City:         meta.city,
		State:        meta.state,
		Address:      optStr(meta.address),
		SourceURL:    meta.sourceURL,
		FileVersion:  optStr(meta.fileVersion),
		LastUpdated:  optStr(meta.lastUpdated),
		IngestedAt:   time.Now().UTC(),
	}
	if err := fac.Validate(); err != nil {
		return nil, fmt.Errorf("facility metadata invalid: %w", err)
	}
	return fac, nil
}

func applyOverride(meta *facilityMeta, o *config.FacilityMeta) {
	meta.name = o.FacilityName
	meta.city = o.City
	meta.state = strings.ToUpper(o.State)
	meta.address = o.Address
	if o.SourceURL != "" {
		meta.sourceURL = o.SourceURL
	}
}

// fillFromJSONMeta runs the bounded header scan and maps its fields,
// deriving city and state from the published address.
func fillFromJSONMeta(meta *facilityMeta, path string) {
	scanned, err := stream.ScanJSONMeta(path)
	if err != nil {
		return
	}
	if meta.name == "" {
		meta.name = scanned.HospitalName
	}
	if meta.address == "" && scanned.HospitalAddress != "" {
		meta.address = scanned.HospitalAddress
		city, state := cityStateFromAddress(scanned.HospitalAddress)
		if meta.city == "" {
			meta.city = city
		}
		if meta.state == "" {
			meta.state = state
		}
	}
	if meta.fileVersion == "" {
		meta.fileVersion = scanned.Version
	}
	if meta.lastUpdated == "" {
		meta.lastUpdated = scanned.LastUpdatedOn
	}
}

// fillFromCSVMeta reads the metadata rows above the header, if any, and
// interprets them as a header-names row followed by a values row (the
// CMS layout).
func fillFromCSVMeta(meta *facilityMeta, path string) {
	rows, err := stream.LeadingRows(path, 5)
	if err != nil {
		return
	}
	headerIdx := stream.HeaderRowIndex(rows)
	if headerIdx < 2 || len(rows) < 2 {
		return
	}

	keys, values := rows[0], rows[1]
	hospitalish := false
	for _, cell := range keys {
		if strings.Contains(strings.ToLower(cell), "hospital") {
			hospitalish = true
			break
		}
	}
	if !hospitalish {
		return
	}

	for i, k := range keys {
		if i >= len(values) {
			break
		}
		key := strings.ToLower(strings.TrimSpace(k))
		val := strings.TrimSpace(values[i])
		if val == "" {
			continue
		}

		switch key {
		case "hospital_name":
			if meta.name == "" {
				meta.name = val
			}
		case "last_updated_on":
			if meta.lastUpdated == "" {
				meta.lastUpdated = val
			}
		case "version":
			if meta.fileVersion == "" {
				meta.fileVersion = val
			}
		case "hospital_location":
			city, state := cityStateFromLocation(val)
			if meta.city == "" {
				meta.city = city
			}
			if meta.state == "" {
				meta.state = state
			}
		case "hospital_address":
			if meta.address == "" {
				meta.address = val
			}
			if meta.city == "" || meta.state == "" {
				city, state := cityStateFromAddress(val)
				if meta.city == "" {
					meta.city = city
				}
				if meta.state == "" {
					meta.state = state
				}
			}
		}
	}
}

// cityStateFromLocation parses a "City, ST" location value.
func cityStateFromLocation(loc string) (city, state string) {
	parts := strings.Split(loc, ",")
	if len(parts) < 2 {
		return "", ""
	}
	city = strings.TrimSpace(parts[0])
	if m := stateRe.FindStringSubmatch(parts[1]); m != nil {
		state = m[1]
	}
	return city, state
}

// cityStateFromAddress parses a full street address. Comma-separated
// addresses yield the second-to-last segment as city and the state code
// from the last segment; otherwise a "ST 12345" pattern anchors the
// state with the preceding word as city.
func cityStateFromAddress(addr string) (city, state string) {
	parts := strings.Split(addr, ",")
	if len(parts) >= 3 {
		city = strings.TrimSpace(parts[len(parts)-2])
		if m := stateRe.FindStringSubmatch(parts[len(parts)-1]); m != nil {
			state = m[1]
		}
		return city, state
	}
	if len(parts) == 2 {
		city = strings.TrimSpace(parts[0])
		if m := stateRe.FindStringSubmatch(parts[1]); m != nil {
			state = m[1]
		}
		return city, state
	}

	if m := stateZipRe.FindStringSubmatchIndex(addr); m != nil {
		state = addr[m[2]:m[3]]
		before := strings.Fields(strings.TrimSpace(addr[:m[0]]))
		if len(before) > 0 {
			city = before[len(before)-1]
		}
	}
	return city, state
}

// nameFromFilename derives a facility name from the publishing
// convention <number>_<NAME-WITH-HYPHENS>_standardcharges.<ext>, falling
// back to the whole stem.
func nameFromFilename(path string) string {
	stem := filepath.Base(path)
	stem = strings.TrimSuffix(stem, ".gz")
	stem = strings.TrimSuffix(stem, filepath.Ext(stem))

	parts := strings.Split(stem, "_")
	if len(parts) >= 3 && strings.EqualFold(parts[len(parts)-1], "standardcharges") {
		name := strings.Join(parts[1:len(parts)-1], " ")
		return titleCaser.String(strings.ReplaceAll(name, "-", " "))
	}

	name := strings.NewReplacer("-", " ", "_", " ").Replace(stem)
	return titleCaser.String(name)
}

func optStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
