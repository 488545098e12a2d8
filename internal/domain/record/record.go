package record

import (
	"fmt"
	"regexp"
)

var idRegex = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

// MaxIDLength is the maximum record id length.
const MaxIDLength = 128

// Detail is one labelled line of a record's disclosure region.
type Detail struct {
	Label string
	Value string
}

// Record is an immutable catalog entry.
type Record struct {
	id       string
	category string
	fields   map[string]string
	details  []Detail
	// resolved searchable values, in catalog order
	searchable []string
}

// New validates and creates a Record.
// ID: ^[a-zA-Z0-9._-]+$, 1-128 chars. Category is optional.
func New(id, category string, fields map[string]string, details []Detail) (Record, error) {
	if id == "" {
		return Record{}, fmt.Errorf("record id is required")
	}
	if len(id) > MaxIDLength {
		return Record{}, fmt.Errorf("record id too long (max %d)", MaxIDLength)
	}
	if !idRegex.MatchString(id) {
		return Record{}, fmt.Errorf("record id %q must be alphanumeric with dots, underscores and hyphens", id)
	}
	return Record{
		id:       id,
		category: category,
		fields:   cloneFields(fields),
		details:  cloneDetails(details),
	}, nil
}

// ID returns the record identifier.
func (r Record) ID() string { return r.id }

// Category returns the category tag ("" when the record has none).
func (r Record) Category() string { return r.category }

// Field returns a named attribute and whether it is present.
func (r Record) Field(name string) (string, bool) {
	v, ok := r.fields[name]
	return v, ok
}

// Fields returns a copy of all attributes.
func (r Record) Fields() map[string]string { return cloneFields(r.fields) }

// Details returns a copy of the disclosure lines.
func (r Record) Details() []Detail { return cloneDetails(r.details) }

// WithSearchable returns a copy whose searchable fields are the values of the
// named fields, in the given order. The pseudo field "category" resolves to the
// record's category. Missing or empty fields are skipped.
func (r Record) WithSearchable(names []string) Record {
	values := make([]string, 0, len(names))
	for _, name := range names {
		var v string
		if name == CategoryField {
			v = r.category
		} else {
			v = r.fields[name]
		}
		if v != "" {
			values = append(values, v)
		}
	}
	r.fields = cloneFields(r.fields)
	r.details = cloneDetails(r.details)
	r.searchable = values
	return r
}

// SearchableFields returns the values eligible for text matching.
func (r Record) SearchableFields() []string {
	out := make([]string, len(r.searchable))
	copy(out, r.searchable)
	return out
}

// MatchesAny reports whether pred holds for at least one searchable value.
func (r Record) MatchesAny(pred func(string) bool) bool {
	for _, v := range r.searchable {
		if pred(v) {
			return true
		}
	}
	return false
}

// CategoryField is the pseudo field name that resolves to Record.Category.
const CategoryField = "category"

func cloneFields(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneDetails(d []Detail) []Detail {
	if len(d) == 0 {
		return nil
	}
	out := make([]Detail, len(d))
	copy(out, d)
	return out
}
