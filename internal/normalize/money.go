package normalize

import (
	"strings"

	"github.com/shopspring/decimal"
)

// moneySentinels are tokens hospitals publish in place of an absent price.
var moneySentinels = map[string]struct{}{
	"N/A":  {},
	"NULL": {},
	"NONE": {},
	"-":    {},
}

// ParseMoney converts a raw price cell to an exact decimal. Currency
// symbols, thousands separators, and surrounding whitespace are stripped
// first. Blank cells, sentinel tokens, unparseable values, and
// non-positive amounts all come back as nil: a zero or negative published
// price carries no information, so it is treated the same as absent.
func ParseMoney(raw string) *decimal.Decimal {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.ReplaceAll(cleaned, "$", "")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return nil
	}
	if _, ok := moneySentinels[strings.ToUpper(cleaned)]; ok {
		return nil
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return nil
	}
	if !d.IsPositive() {
		return nil
	}
	return &d
}

// ParseMoneyFloat converts an already-numeric price (JSON numbers decode
// as float64) through the same positivity gate as ParseMoney.
func ParseMoneyFloat(v float64) *decimal.Decimal {
	d := decimal.NewFromFloat(v)
	if !d.IsPositive() {
		return nil
	}
	return &d
}
