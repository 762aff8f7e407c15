package normalize

import (
	"strings"
	"time"
)

// Layouts seen in last-updated fields across published hospital files,
// numeric forms first since they dominate.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"01-02-2006",
	"January 2, 2006",
	"Jan 2, 2006",
}

// ParseDate parses a date in any of the layouts above. An ISO timestamp
// is reduced to its date part before matching. Returns nil when the
// input is blank or matches nothing.
func ParseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if len(s) > 10 && s[10] == 'T' {
		s = s[:10]
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
