package filter

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/kailas-cloud/civica/internal/domain/query"
	"github.com/kailas-cloud/civica/internal/domain/record"
)

// Apply returns the records matching q, in input order.
// A record matches when the category criterion holds (ALL, or an exact
// case-sensitive tag match) and, for non-empty text, at least one searchable
// value contains the text case-insensitively. The input is never mutated.
func Apply(records []record.Record, q query.Query) []record.Record {
	out := make([]record.Record, 0, len(records))
	if len(records) == 0 {
		return out
	}

	var needle string
	var lower cases.Caser
	if q.Text() != "" {
		// Casers carry state; one per call keeps Apply safe for concurrent use.
		lower = cases.Lower(language.Und)
		needle = lower.String(q.Text())
	}

	for _, r := range records {
		if !q.IsAll() && r.Category() != q.Category() {
			continue
		}
		if needle != "" && !r.MatchesAny(func(v string) bool {
			return strings.Contains(lower.String(v), needle)
		}) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Matches reports whether a single record passes q.
func Matches(r record.Record, q query.Query) bool {
	return len(Apply([]record.Record{r}, q)) == 1
}
