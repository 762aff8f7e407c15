package model

import "strings"

// Standardized code-type tags. Everything else a hospital publishes
// (CDM, APC, DRG variants, NDC, internal numbering) is hospital-specific
// and is dropped during extraction.
const (
	TagHCPCS    = "HCPCS"
	TagRC       = "RC"
	TagICD10    = "ICD-10"
	TagICD10CM  = "ICD-10-CM"
	TagICD10PCS = "ICD-10-PCS"
)

// StandardTags lists the retained code-type tags in canonical order.
var StandardTags = []string{TagHCPCS, TagRC, TagICD10, TagICD10CM, TagICD10PCS}

// codeTypeSynonyms folds the spellings observed across hospital files onto
// the standardized tags. CPT collapses into HCPCS (CPT is a subset of HCPCS);
// REV is an alternative spelling of Revenue Code.
var codeTypeSynonyms = map[string]string{
	"CPT":        TagHCPCS,
	"HCPCS":      TagHCPCS,
	"RC":         TagRC,
	"REV":        TagRC,
	"ICD10":      TagICD10,
	"ICD-10":     TagICD10,
	"ICD-10-CM":  TagICD10CM,
	"ICD-10-PCS": TagICD10PCS,
	"ICD10CM":    TagICD10CM,
	"ICD10PCS":   TagICD10PCS,
}

// NormalizeCodeType maps a raw code-type string onto its standardized tag.
// Unknown types pass through uppercased so they can be reported before
// being filtered by IsStandardTag.
func NormalizeCodeType(raw string) string {
	up := strings.ToUpper(strings.TrimSpace(raw))
	if tag, ok := codeTypeSynonyms[up]; ok {
		return tag
	}
	return up
}

// IsStandardTag reports whether tag is one of the retained standardized
// code-type tags.
func IsStandardTag(tag string) bool {
	switch strings.ToUpper(tag) {
	case TagHCPCS, TagRC, TagICD10, TagICD10CM, TagICD10PCS:
		return true
	}
	return false
}
