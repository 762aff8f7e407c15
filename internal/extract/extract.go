package extract

import (
	"github.com/shopspring/decimal"

	"github.com/gyeh/chargefeed/internal/normalize"
)

const (
	// DefaultDescription is the sentinel used when a source row carries
	// no description.
	DefaultDescription = "Unknown"

	// SettingOutpatient is the only care setting this pipeline retains.
	SettingOutpatient = "outpatient"
)

// ParseMoney is the shared numeric-cleaning routine for both extractors.
func ParseMoney(raw string) *decimal.Decimal {
	return normalize.ParseMoney(raw)
}
