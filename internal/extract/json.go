package extract

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gyeh/chargefeed/internal/model"
	"github.com/gyeh/chargefeed/internal/normalize"
)

// chargeItem mirrors one element of the standard_charge_information
// array. Unknown fields are ignored.
type chargeItem struct {
	Description     string           `json:"description"`
	CodeInformation []codeInfo       `json:"code_information"`
	StandardCharges []standardCharge `json:"standard_charges"`
}

type codeInfo struct {
	Type string `json:"type"`
	Code string `json:"code"`
}

type standardCharge struct {
	Setting        string     `json:"setting"`
	DiscountedCash priceValue `json:"discounted_cash"`
	GrossCharge    priceValue `json:"gross_charge"`
	Minimum        priceValue `json:"minimum"`
	Maximum        priceValue `json:"maximum"`
}

// priceValue accepts a price published as either a JSON number or a
// numeric string; hospitals emit both. Values route through the shared
// cleaning routine, so sentinels and non-positive amounts decode to a
// nil decimal instead of an error.
type priceValue struct {
	dec *decimal.Decimal
}

func (p *priceValue) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		p.dec = normalize.ParseMoney(s)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	p.dec = normalize.ParseMoneyFloat(f)
	return nil
}

// JSONExtractor converts raw charge-array items into normalized records.
type JSONExtractor struct {
	FacilityID string

	now func() time.Time
}

// NewJSONExtractor builds an extractor for one file.
func NewJSONExtractor(facilityID string) *JSONExtractor {
	return &JSONExtractor{FacilityID: facilityID, now: time.Now}
}

// Item converts one raw array element into records. An element wrapped in
// an outer array is unwrapped one level; non-object elements are skipped.
// Filtered items (wrong setting, no positive cash price, no standardized
// codes) produce no record and no error; a malformed element or a record
// failing final validation returns the error.
func (e *JSONExtractor) Item(raw json.RawMessage) ([]*model.PricedProcedure, error) {
	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "[") {
		var inner []json.RawMessage
		if err := json.Unmarshal(raw, &inner); err != nil {
			return nil, err
		}
		var recs []*model.PricedProcedure
		for _, sub := range inner {
			rec, err := e.one(sub)
			if err != nil {
				return recs, err
			}
			if rec != nil {
				recs = append(recs, rec)
			}
		}
		return recs, nil
	}

	rec, err := e.one(raw)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, nil
	}
	return []*model.PricedProcedure{rec}, nil
}

func (e *JSONExtractor) one(raw json.RawMessage) (*model.PricedProcedure, error) {
	if !strings.HasPrefix(strings.TrimSpace(string(raw)), "{") {
		return nil, nil
	}

	var item chargeItem
	if err := json.Unmarshal(raw, &item); err != nil {
		return nil, err
	}

	// Setting and prices both come from the first standard_charges entry;
	// most hospitals publish exactly one.
	var charge *standardCharge
	if len(item.StandardCharges) > 0 {
		charge = &item.StandardCharges[0]
	}

	if charge != nil {
		setting := strings.ToLower(strings.TrimSpace(charge.Setting))
		if setting != "" && setting != SettingOutpatient {
			return nil, nil
		}
	}

	var cash, gross, min, max *decimal.Decimal
	if charge != nil {
		cash = charge.DiscountedCash.dec
		gross = charge.GrossCharge.dec
		min = charge.Minimum.dec
		max = charge.Maximum.dec
	}
	if cash == nil {
		return nil, nil
	}

	codes := make(model.CodeSet)
	for _, ci := range item.CodeInformation {
		code := strings.TrimSpace(ci.Code)
		if code == "" {
			continue
		}
		tag := model.NormalizeCodeType(ci.Type)
		if !model.IsStandardTag(tag) {
			continue
		}
		codes.Add(tag, code)
	}
	if len(codes) == 0 {
		return nil, nil
	}

	description := DefaultDescription
	if v := strings.TrimSpace(item.Description); v != "" {
		description = v
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
