package colmap

import "regexp"

// Known header variants per canonical field, ordered by preference: the
// first exact match wins, so combined CMS-style names ("standard_charge|
// discounted_cash") outrank bare fallbacks ("cash").
var (
	descriptionPatterns = []string{
		"description",
		"service_description",
		"procedure_description",
		"item_description",
		"charge_description",
		"cpt_description",
		"service",
		"procedure",
	}

	cashPricePatterns = []string{
		"standard_charge|discounted_cash",
		"discounted_cash",
		"cash_price",
		"self_pay",
		"selfpay",
		"cash_discount",
		"discounted_price",
		"standard_charge_discounted_cash",
		"cash",
		"de_identified_minimum", // some hospitals publish cash in the min column
	}

	grossChargePatterns = []string{
		"standard_charge|gross",
		"gross",
		"gross_charge",
		"standard_charge",
		"charge_amount",
		"list_price",
		"standard_charge_gross",
		"gross_price",
	}

	minNegotiatedPatterns = []string{
		"standard_charge|min",
		"min",
		"minimum",
		"negotiated_min",
		"min_negotiated",
		"deidentified_min",
		"de_identified_min",
		"standard_charge_min",
		"min_price",
	}

	maxNegotiatedPatterns = []string{
		"standard_charge|max",
		"max",
		"maximum",
		"negotiated_max",
		"max_negotiated",
		"deidentified_max",
		"de_identified_max",
		"standard_charge_max",
		"max_price",
	}

	settingPatterns = []string{
		"setting",
		"patient_setting",
		"care_setting",
		"service_setting",
		"location",
		"place_of_service",
	}
)

// codeFamily is one known hospital convention for naming code columns.
// isType marks families that name the code-type half of a pair.
type codeFamily struct {
	name   string
	re     *regexp.Regexp
	isType bool
}

// codeFamilies is scanned in order; the first family to match a header
// claims it. Covers pipe-numbered (code|1, code|1|type), underscore-
// numbered (code_1, code_1_type), generic billing_code[_n], code-type-
// specific prefixes (cpt_code, rev_code, ...), the nested
// code_information marker, and bare code/code_type/type.
var codeFamilies = []codeFamily{
	{name: "pipe_numbered", re: regexp.MustCompile(`^code\|(\d+)$`)},
	{name: "pipe_numbered_type", re: regexp.MustCompile(`^code\|(\d+)\|type$`), isType: true},
	{name: "underscore_numbered", re: regexp.MustCompile(`^code_(\d+)$`)},
	{name: "underscore_numbered_type", re: regexp.MustCompile(`^code_(\d+)_type$`), isType: true},
	{name: "billing_code", re: regexp.MustCompile(`^billing_code(_\d+)?$`)},
	{name: "billing_code_type", re: regexp.MustCompile(`^billing_code_type(_\d+)?$`), isType: true},
	{name: "code_type_specific", re: regexp.MustCompile(`^(cpt|hcpcs|drg|icd10|rev|ndc)_code(_\d+)?$`)},
	{name: "code_information", re: regexp.MustCompile(`^code_information`)},
	{name: "simple_code", re: regexp.MustCompile(`^code$`)},
	{name: "simple_type", re: regexp.MustCompile(`^(code_type|type)$`), isType: true},
}
