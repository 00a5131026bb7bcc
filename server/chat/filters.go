package chat

import (
	"regexp"

	"github.com/mellowtone/tunescout/server/retrieval"
)

// decadePattern matches decade mentions like "80s", "1980s" or "2010s".
var decadePattern = regexp.MustCompile(`\b(19|20)?([0-9]0)s\b`)

// deriveFilters builds explicit metadata constraints from decade mentions in
// the raw message. The strict-filter-with-fallback policy in the retrieval
// engine means a mention that matches nothing in the corpus never empties
// the result.
func deriveFilters(message string) *retrieval.Filters {
	m := decadePattern.FindStringSubmatch(message)
	if m == nil {
		return nil
	}

	century := m[1]
	if century == "" {
		// Two-digit decades: 00s-20s read as 2000s; 30s-90s as 1900s.
		if m[2] <= "20" {
			century = "20"
		} else {
			century = "19"
		}
	}
	return &retrieval.Filters{Decade: century + m[2] + "s"}
}
