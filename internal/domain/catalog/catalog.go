package catalog

import (
	"fmt"
	"regexp"

	"github.com/kailas-cloud/civica/internal/domain"
	"github.com/kailas-cloud/civica/internal/domain/contact"
	"github.com/kailas-cloud/civica/internal/domain/record"
)

var nameRegex = regexp.MustCompile(`^[a-z0-9_-]+$`)

// MaxRecords bounds the size of a single catalog.
const MaxRecords = 10000

// Definition holds the raw attributes of a catalog before validation.
type Definition struct {
	Name       string
	Title      string
	AllLabel   string
	Accent     string
	Categories []string
	Searchable []string
	Records    []record.Record
	// Contacts seed the trusted-contact list of every screen mounted on the catalog.
	Contacts []contact.Contact
}

// Catalog is the fixed ordered sequence of records behind a screen (immutable value object).
type Catalog struct {
	name       string
	title      string
	allLabel   string
	accent     string
	categories []string
	searchable []string
	records    []record.Record
	index      map[string]int
	contacts   []contact.Contact
}

// New validates a definition and builds a Catalog.
// Record ids must be unique. When no categories are declared they are derived
// from the records in first-seen order.
func New(def Definition) (Catalog, error) {
	if def.Name == "" {
		return Catalog{}, fmt.Errorf("%w: name is required", domain.ErrInvalidCatalog)
	}
	if len(def.Name) > 64 || !nameRegex.MatchString(def.Name) {
		return Catalog{}, fmt.Errorf("%w: name %q must be lowercase alphanumeric with hyphens (max 64)",
			domain.ErrInvalidCatalog, def.Name)
	}
	if len(def.Records) > MaxRecords {
		return Catalog{}, fmt.Errorf("%w: %s has too many records (max %d)",
			domain.ErrInvalidCatalog, def.Name, MaxRecords)
	}
	if len(def.Searchable) == 0 {
		return Catalog{}, fmt.Errorf("%w: %s declares no searchable fields", domain.ErrInvalidCatalog, def.Name)
	}

	searchable := append([]string(nil), def.Searchable...)
	records := make([]record.Record, len(def.Records))
	index := make(map[string]int, len(def.Records))
	for i, r := range def.Records {
		if _, dup := index[r.ID()]; dup {
			return Catalog{}, fmt.Errorf("%w: %q in catalog %s", domain.ErrDuplicateRecordID, r.ID(), def.Name)
		}
		index[r.ID()] = i
		records[i] = r.WithSearchable(searchable)
	}

	seen := make(map[string]struct{}, len(def.Contacts))
	for _, c := range def.Contacts {
		if _, dup := seen[c.ID()]; dup {
			return Catalog{}, fmt.Errorf("%w: %s has duplicate contact id %q", domain.ErrInvalidCatalog, def.Name, c.ID())
		}
		seen[c.ID()] = struct{}{}
	}

	categories := dedupe(def.Categories)
	if len(categories) == 0 {
		categories = deriveCategories(records)
	}

	return Catalog{
		name:       def.Name,
		title:      def.Title,
		allLabel:   def.AllLabel,
		accent:     def.Accent,
		categories: categories,
		searchable: searchable,
		records:    records,
		index:      index,
		contacts:   append([]contact.Contact(nil), def.Contacts...),
	}, nil
}

// Name returns the catalog name.
func (c Catalog) Name() string { return c.name }

// Title returns the human-readable title.
func (c Catalog) Title() string { return c.title }

// AllLabel returns the screen label that means "no category filter" ("" if none).
func (c Catalog) AllLabel() string { return c.allLabel }

// Accent returns the theme token used to tint the screen.
func (c Catalog) Accent() string { return c.accent }

// Categories returns the selectable categories in display order.
func (c Catalog) Categories() []string { return append([]string(nil), c.categories...) }

// Searchable returns the searchable field names in match order.
func (c Catalog) Searchable() []string { return append([]string(nil), c.searchable...) }

// Records returns a copy of the record sequence in catalog order.
func (c Catalog) Records() []record.Record { return append([]record.Record(nil), c.records...) }

// Contacts returns the seed contacts for new screens.
func (c Catalog) Contacts() []contact.Contact { return append([]contact.Contact(nil), c.contacts...) }

// Len returns the number of records.
func (c Catalog) Len() int { return len(c.records) }

// Record looks up a record by id.
func (c Catalog) Record(id string) (record.Record, bool) {
	i, ok := c.index[id]
	if !ok {
		return record.Record{}, false
	}
	return c.records[i], true
}

// Has reports whether id belongs to the catalog.
func (c Catalog) Has(id string) bool {
	_, ok := c.index[id]
	return ok
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func deriveCategories(records []record.Record) []string {
	names := make([]string, 0, len(records))
	for _, r := range records {
		names = append(names, r.Category())
	}
	return dedupe(names)
}
