package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func validProcedure() *PricedProcedure {
	return &PricedProcedure{
		FacilityID:  "bsw-med-ctr",
		Codes:       CodeSet{TagHCPCS: {"70553"}},
		Description: "MRI brain with contrast",
		CashPrice:   dec("1250.00"),
		Currency:    DefaultCurrency,
		IngestedAt:  time.Now().UTC(),
	}
}

func TestCodeSetCanonical(t *testing.T) {
	a := CodeSet{TagHCPCS: {"99213", "70553"}, TagRC: {"450"}}
	b := CodeSet{TagRC: {"450"}, TagHCPCS: {"70553", "99213"}}
	if a.Canonical() != b.Canonical() {
		t.Fatalf("order-insensitive sets differ: %q vs %q", a.Canonical(), b.Canonical())
	}
	want := "HCPCS:[70553 99213];RC:[450]"
	if got := a.Canonical(); got != want {
		t.Errorf("Canonical() = %q, want %q", got, want)
	}

	c := CodeSet{TagHCPCS: {"99213"}}
	if a.Canonical() == c.Canonical() {
		t.Error("distinct sets share a canonical form")
	}
}

func TestProcedureValidate(t *testing.T) {
	if err := validProcedure().Validate(); err != nil {
		t.Fatalf("valid record rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*PricedProcedure)
	}{
		{"missing facility", func(p *PricedProcedure) { p.FacilityID = "" }},
		{"no codes", func(p *PricedProcedure) { p.Codes = CodeSet{} }},
		{"non-standard tag", func(p *PricedProcedure) { p.Codes = CodeSet{"CDM": {"12345"}} }},
		{"empty code list", func(p *PricedProcedure) { p.Codes = CodeSet{TagHCPCS: {}} }},
		{"nil cash price", func(p *PricedProcedure) { p.CashPrice = nil }},
		{"zero cash price", func(p *PricedProcedure) { p.CashPrice = dec("0") }},
		{"negative gross", func(p *PricedProcedure) { p.GrossCharge = dec("-1") }},
		{"min above max", func(p *PricedProcedure) {
			p.NegotiatedMin = dec("300")
			p.NegotiatedMax = dec("100")
		}},
		{"bad currency", func(p *PricedProcedure) { p.Currency = "usd" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validProcedure()
			tt.mutate(p)
			if err := p.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestProcedureValidateRangeAllowed(t *testing.T) {
	p := validProcedure()
	p.NegotiatedMin = dec("100")
	p.NegotiatedMax = dec("300")
	p.GrossCharge = dec("2000")
	if err := p.Validate(); err != nil {
		t.Fatalf("record with full range rejected: %v", err)
	}
}
