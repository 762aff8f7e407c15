package normalize

import (
	"regexp"
	"strings"
)

var (
	nonSlugChars = regexp.MustCompile(`[^a-z0-9\s-]`)
	multiSpace   = regexp.MustCompile(`\s+`)
	multiHyphen  = regexp.MustCompile(`-+`)
)

// wordAbbreviations maps common hospital-name words onto short stable
// forms so related facilities get recognizably related ids
// ("bsw-cedar-park", "asc-seton").
var wordAbbreviations = map[string]string{
	"baylor":     "bsw",
	"scott":      "bsw",
	"white":      "bsw",
	"ascension":  "asc",
	"seton":      "asc",
	"cedar":      "cp",
	"park":       "cp",
	"regional":   "reg",
	"medical":    "med",
	"center":     "ctr",
	"hospital":   "hosp",
	"health":     "hlth",
	"system":     "sys",
	"emergency":  "er",
	"campus":     "campus",
	"georgetown": "gtown",
}

// DeriveFacilityID turns a facility name into its stable slug id. The
// result is a pure function of the name: lowercase words are abbreviated
// through wordAbbreviations, longer unmapped words are truncated to four
// characters, duplicates are dropped, and the parts are joined with
// hyphens. Output always matches ^[a-z0-9-]+$ for any name containing at
// least one alphanumeric character.
func DeriveFacilityID(facilityName string) string {
	clean := strings.ToLower(facilityName)
	clean = nonSlugChars.ReplaceAllString(clean, "")
	clean = strings.TrimSpace(multiSpace.ReplaceAllString(clean, " "))

	var parts []string
	seen := make(map[string]struct{})
	appendPart := func(p string) {
		if _, dup := seen[p]; dup || p == "" {
			return
		}
		parts = append(parts, p)
		seen[p] = struct{}{}
	}

	for _, word := range strings.Fields(clean) {
		if mapped, ok := wordAbbreviations[word]; ok {
			appendPart(mapped)
		} else if len(word) > 3 {
			appendPart(word[:4])
		} else {
			appendPart(word)
		}
	}

	slug := strings.Join(parts, "-")
	slug = multiHyphen.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}
