// Package extract converts raw CSV rows and JSON items into canonical
// PricedProcedure records, applying code-type normalization, the
// standardized-code filter, the outpatient-only filter, and the
// cash-price gate. A record that fails any gate is discarded, never
// emitted in partial form.
package extract

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gyeh/chargefeed/internal/colmap"
	"github.com/gyeh/chargefeed/internal/model"
)

// absentTokens are cell values that mean "no code here".
var absentTokens = map[string]struct{}{
	"":     {},
	"N/A":  {},
	"NULL": {},
	"NONE": {},
}

// CSVExtractor converts mapped CSV rows into normalized records.
type CSVExtractor struct {
	FacilityID string
	Mapping    colmap.Mapping

	// now is swappable for tests; defaults to time.Now.
	now func() time.Time
}

// NewCSVExtractor builds an extractor bound to one file's column mapping.
func NewCSVExtractor(facilityID string, mapping colmap.Mapping) *CSVExtractor {
	return &CSVExtractor{FacilityID: facilityID, Mapping: mapping, now: time.Now}
}

// Row converts one raw row into a record. A (nil, nil) return means the
// row was filtered: no standardized codes, no positive cash price, or a
// non-outpatient setting. An error return means the assembled record
// failed final validation.
func (e *CSVExtractor) Row(row map[string]string) (*model.PricedProcedure, error) {
	codes := e.extractCodes(row)
	if len(codes) == 0 {
		return nil, nil
	}

	var cash *decimal.Decimal
	if e.Mapping.CashPrice != "" {
		cash = ParseMoney(row[e.Mapping.CashPrice])
	}
	if cash == nil {
		return nil, nil
	}

	var gross, min, max *decimal.Decimal
	if e.Mapping.GrossCharge != "" {
		gross = ParseMoney(row[e.Mapping.GrossCharge])
	}
	if e.Mapping.MinNegotiated != "" {
		min = ParseMoney(row[e.Mapping.MinNegotiated])
	}
	if e.Mapping.MaxNegotiated != "" {
		max = ParseMoney(row[e.Mapping.MaxNegotiated])
	}

	description := DefaultDescription
	if e.Mapping.Description != "" {
		if v := strings.TrimSpace(row[e.Mapping.Description]); v != "" {
			description = v
		}
	}

	if e.Mapping.Setting != "" {
		setting := strings.ToLower(strings.TrimSpace(row[e.Mapping.Setting]))
		if setting != "" && setting != SettingOutpatient {
			return nil, nil
		}
	}

	rec := &model.PricedProcedure{
		FacilityID:    e.FacilityID,
		Codes:         codes,
		Description:   description,
		CashPrice:     cash,
		GrossCharge:   gross,
		NegotiatedMin: min,
		NegotiatedMax: max,
		Currency:      model.DefaultCurrency,
		IngestedAt:    e.now().UTC(),
	}
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	return rec, nil
}

// extractCodes walks the discovered code-column groups and accumulates
// standardized codes. Groups without a type column tag their codes
// "unknown", which the standardized filter then drops.
func (e *CSVExtractor) extractCodes(row map[string]string) model.CodeSet {
	codes := make(model.CodeSet)

	for _, group := range e.Mapping.CodeColumns {
		code := strings.TrimSpace(row[group.Code])
		if _, absent := absentTokens[strings.ToUpper(code)]; absent {
			continue
		}

		tag := "unknown"
		if group.Type != "" {
			if raw := strings.TrimSpace(row[group.Type]); raw != "" {
				tag = model.NormalizeCodeType(raw)
			}
		}
		if !model.IsStandardTag(tag) {
			continue
		}
		codes.Add(tag, code)
	}

	return codes
}
