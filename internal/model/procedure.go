package model

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultCurrency is assumed for all published charges; hospital files do
// not carry a currency field.
const DefaultCurrency = "USD"

// CodeSet maps a standardized code-type tag to the code strings published
// under it. A PricedProcedure always carries at least one code.
type CodeSet map[string][]string

// Canonical renders the set as "tag:[a b];tag:[c]" with tags and codes
// sorted, so structurally identical sets compare equal regardless of the
// order codes appeared in the source file.
func (c CodeSet) Canonical() string {
	tags := make([]string, 0, len(c))
	for tag := range c {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	var b strings.Builder
	for i, tag := range tags {
		if i > 0 {
			b.WriteByte(';')
		}
		codes := append([]string(nil), c[tag]...)
		sort.Strings(codes)
		b.WriteString(tag)
		b.WriteString(":[")
		b.WriteString(strings.Join(codes, " "))
		b.WriteByte(']')
	}
	return b.String()
}

// Add appends a code under the given tag.
func (c CodeSet) Add(tag, code string) {
	c[tag] = append(c[tag], code)
}

// PricedProcedure is the canonical normalized record for one priced
// service line ("medical operation" downstream). A record only exists
// when it carries a positive cash price and at least one standardized
// code; both gates are enforced during extraction and re-checked by
// Validate.
type PricedProcedure struct {
	FacilityID    string           `json:"facility_id"`
	Codes         CodeSet          `json:"codes"`
	Description   string           `json:"description"`
	CashPrice     *decimal.Decimal `json:"cash_price"`
	GrossCharge   *decimal.Decimal `json:"gross_charge,omitempty"`
	NegotiatedMin *decimal.Decimal `json:"negotiated_min,omitempty"`
	NegotiatedMax *decimal.Decimal `json:"negotiated_max,omitempty"`
	Currency      string           `json:"currency"`
	IngestedAt    time.Time        `json:"ingested_at"`
}

// Validate checks the structural invariants on a normalized record.
func (p *PricedProcedure) Validate() error {
	if p.FacilityID == "" {
		return fmt.Errorf("facility_id is required")
	}
	if len(p.Codes) == 0 {
		return fmt.Errorf("codes must not be empty")
	}
	for tag, codes := range p.Codes {
		if !IsStandardTag(tag) {
			return fmt.Errorf("non-standardized code type %q", tag)
		}
		if len(codes) == 0 {
			return fmt.Errorf("code type %q has no codes", tag)
		}
	}
	if p.CashPrice == nil || !p.CashPrice.IsPositive() {
		return fmt.Errorf("cash_price must be present and positive")
	}
	for name, v := range map[string]*decimal.Decimal{
		"gross_charge":   p.GrossCharge,
		"negotiated_min": p.NegotiatedMin,
		"negotiated_max": p.NegotiatedMax,
	} {
		if v != nil && v.IsNegative() {
			return fmt.Errorf("%s must not be negative, got %s", name, v)
		}
	}
	if p.NegotiatedMin != nil && p.NegotiatedMax != nil && p.NegotiatedMin.GreaterThan(*p.NegotiatedMax) {
		return fmt.Errorf("negotiated_min %s exceeds negotiated_max %s", p.NegotiatedMin, p.NegotiatedMax)
	}
	if len(p.Currency) != 3 || p.Currency != strings.ToUpper(p.Currency) {
		return fmt.Errorf("currency %q must be a 3-letter uppercase code", p.Currency)
	}
	return nil
}
