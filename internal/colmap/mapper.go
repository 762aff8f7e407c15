// Package colmap heuristically maps the raw column headers of a hospital
// CSV onto the canonical fields the extractor reads. Hospitals do not
// agree on header names, so every canonical field carries an ordered
// variant table tried exactly first and fuzzily second.
package colmap

import (
	"sort"
	"strings"
)

// DefaultFuzzyThreshold is the minimum 0-100 similarity score a fuzzy
// header match must reach.
const DefaultFuzzyThreshold = 80

// CodeColumns is one discovered code/code-type column pair. Type is empty
// when the file publishes codes without a type column.
type CodeColumns struct {
	Code string
	Type string
}

// Mapping holds the resolved header name for each canonical field.
// An empty string means the field could not be mapped; that is never an
// error at this stage, extraction proceeds best-effort.
type Mapping struct {
	Description   string
	CashPrice     string
	GrossCharge   string
	MinNegotiated string
	MaxNegotiated string
	Setting       string
	CodeColumns   []CodeColumns
}

// Build resolves a Mapping from the raw header row. fuzzyThreshold <= 0
// selects DefaultFuzzyThreshold.
func Build(headers []string, fuzzyThreshold int) Mapping {
	if fuzzyThreshold <= 0 {
		fuzzyThreshold = DefaultFuzzyThreshold
	}
	m := newMatcher(headers, fuzzyThreshold)

	return Mapping{
		Description:   m.find(descriptionPatterns),
		CashPrice:     m.find(cashPricePatterns),
		GrossCharge:   m.find(grossChargePatterns),
		MinNegotiated: m.find(minNegotiatedPatterns),
		MaxNegotiated: m.find(maxNegotiatedPatterns),
		Setting:       m.find(settingPatterns),
		CodeColumns:   findCodeColumns(headers),
	}
}

// Validation reports which canonical fields resolved.
type Validation struct {
	Description   bool
	HasCodes      bool
	HasPrice      bool
	CashPrice     bool
	GrossCharge   bool
	MinNegotiated bool
	MaxNegotiated bool
}

// Validate reports per-field resolution. HasPrice is satisfied by either
// a cash price or a gross charge column.
func (m Mapping) Validate() Validation {
	return Validation{
		Description:   m.Description != "",
		HasCodes:      len(m.CodeColumns) > 0,
		HasPrice:      m.CashPrice != "" || m.GrossCharge != "",
		CashPrice:     m.CashPrice != "",
		GrossCharge:   m.GrossCharge != "",
		MinNegotiated: m.MinNegotiated != "",
		MaxNegotiated: m.MaxNegotiated != "",
	}
}

// MissingFields lists the critical fields that could not be mapped.
// Critical misses are logged as warnings by the caller, never fatal.
func (m Mapping) MissingFields() []string {
	v := m.Validate()
	var missing []string
	if !v.Description {
		missing = append(missing, "description")
	}
	if !v.HasCodes {
		missing = append(missing, "code columns")
	}
	if !v.HasPrice {
		missing = append(missing, "pricing information")
	}
	return missing
}

// matcher holds the normalized header list for repeated field lookups.
type matcher struct {
	norm      []string // lowercase, spaces to underscores
	orig      []string
	threshold int
}

func newMatcher(headers []string, threshold int) *matcher {
	m := &matcher{
		norm:      make([]string, len(headers)),
		orig:      make([]string, len(headers)),
		threshold: threshold,
	}
	for i, h := range headers {
		m.orig[i] = h
		m.norm[i] = strings.ReplaceAll(strings.ToLower(h), " ", "_")
	}
	return m
}

// find returns the original header matching the first pattern exactly,
// or failing that the highest-scoring fuzzy match at or above the
// threshold. The scan is pattern-major, column-minor, and exact score
// ties keep the first match encountered.
func (m *matcher) find(patterns []string) string {
	for _, pattern := range patterns {
		for i, col := range m.norm {
			if col == pattern {
				return m.orig[i]
			}
		}
	}

	best := ""
	bestScore := 0
	for _, pattern := range patterns {
		for i, col := range m.norm {
			score := similarity(pattern, col)
			if score >= m.threshold && score > bestScore {
				bestScore = score
				best = m.orig[i]
			}
		}
	}
	return best
}

// similarity scores how closely a column name matches a pattern, 0-100:
// 0.7 x Jaccard over underscore-split word sets plus 0.3 x the fraction
// of pattern words appearing as a substring of some column word.
func similarity(pattern, column string) int {
	pw := wordSet(pattern)
	cw := wordSet(column)
	if len(pw) == 0 || len(cw) == 0 {
		return 0
	}

	inter := 0
	for w := range pw {
		if _, ok := cw[w]; ok {
			inter++
		}
	}
	union := len(pw) + len(cw) - inter
	jaccard := float64(inter) / float64(union)

	substr := 0
	for w := range pw {
		for c := range cw {
			if strings.Contains(c, w) {
				substr++
				break
			}
		}
	}
	substrScore := float64(substr) / float64(len(pw))

	return int((jaccard*0.7 + substrScore*0.3) * 100)
}

func wordSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Split(s, "_") {
		if w != "" {
			set[w] = struct{}{}
		}
	}
	return set
}

// instanceKey extracts the grouping key from a code-family match: the
// prefix for type-specific columns (cpt_code, rev_code, ...) so distinct
// prefixes keep distinct groups, the numeric suffix for numbered
// conventions, and "0" for anything unnumbered so bare code/code_type
// halves pair up.
func instanceKey(fam codeFamily, match []string) string {
	if fam.name == "code_type_specific" {
		return match[1]
	}
	for _, g := range match[1:] {
		g = strings.TrimPrefix(g, "_")
		if g == "" {
			continue
		}
		if isDigits(g) {
			return g
		}
	}
	return "0"
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// codeGroup accumulates the two halves of one code column instance.
type codeGroup struct {
	code string
	typ  string
}

// findCodeColumns scans every header against the code-family regex table
// and groups matches by instance key. A group is retained only when its
// code half was found; a type half is optional. Output order follows
// sorted instance keys.
func findCodeColumns(headers []string) []CodeColumns {
	groups := make(map[string]*codeGroup)

	for _, col := range headers {
		lower := strings.ToLower(col)

		for _, fam := range codeFamilies {
			match := fam.re.FindStringSubmatch(lower)
			if match == nil {
				continue
			}

			instance := instanceKey(fam, match)

			isType := fam.isType || strings.Contains(lower, "type")

			g, ok := groups[instance]
			if !ok {
				g = &codeGroup{}
				groups[instance] = g
			}
			if isType {
				g.typ = col
			} else {
				g.code = col
			}
			break
		}
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []CodeColumns
	for _, k := range keys {
		g := groups[k]
		if g.code == "" {
			continue
		}
		out = append(out, CodeColumns{Code: g.code, Type: g.typ})
	}
	return out
}
