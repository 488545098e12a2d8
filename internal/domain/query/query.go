package query

// All is the category value meaning "no category filter".
const All = "ALL"

// Query holds the text/category criteria of a screen (value object).
// The zero value is not normalized; use New.
type Query struct {
	text     string
	category string
}

// New creates the default query: empty text, category ALL.
func New() Query {
	return Query{category: All}
}

// Of builds a query from explicit values; category is normalized as in WithCategory.
func Of(text, category string) Query {
	return New().WithText(text).WithCategory(category)
}

// WithText replaces the search text verbatim (no trimming, no folding).
func (q Query) WithText(text string) Query {
	q.text = text
	return q
}

// WithCategory replaces the category. An empty string means ALL.
func (q Query) WithCategory(category string) Query {
	if category == "" {
		category = All
	}
	q.category = category
	return q
}

// Text returns the search text.
func (q Query) Text() string { return q.text }

// Category returns the category tag or All.
func (q Query) Category() string {
	if q.category == "" {
		return All
	}
	return q.category
}

// IsAll reports whether no category filter applies.
func (q Query) IsAll() bool { return q.Category() == All }

// IsEmpty reports whether the query selects the whole catalog.
func (q Query) IsEmpty() bool { return q.text == "" && q.IsAll() }

// Localize maps a screen's "all" label (e.g. "Todos") to All.
func (q Query) Localize(allLabel string) Query {
	if allLabel != "" && q.category == allLabel {
		q.category = All
	}
	return q
}

// CoerceText converts a loosely typed input to search text.
// Non-string values become the empty text.
func CoerceText(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return s
}

// CoerceCategory converts a loosely typed input to a category.
// Non-string values mean "no category filter applied", never "match nothing".
func CoerceCategory(v any) string {
	s, ok := v.(string)
	if !ok || s == "" {
		return All
	}
	return s
}
