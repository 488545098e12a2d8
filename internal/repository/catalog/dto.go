package catalog

import (
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"

	domcat "github.com/kailas-cloud/civica/internal/domain/catalog"
	"github.com/kailas-cloud/civica/internal/domain/contact"
	"github.com/kailas-cloud/civica/internal/domain/record"
)

// scalar accepts any YAML scalar (string, int, float, bool) and keeps its literal text.
type scalar string

func (s *scalar) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a scalar value", node.Line)
	}
	if node.Tag == "!!null" {
		*s = ""
		return nil
	}
	*s = scalar(node.Value)
	return nil
}

type detailDoc struct {
	Label scalar `yaml:"label"`
	Value scalar `yaml:"value"`
}

type recordDoc struct {
	ID       scalar            `yaml:"id"`
	Category scalar            `yaml:"category"`
	Fields   map[string]scalar `yaml:"fields"`
	Details  []detailDoc       `yaml:"details"`
}

type contactDoc struct {
	ID     scalar `yaml:"id"`
	Name   scalar `yaml:"name"`
	Number scalar `yaml:"number"`
}

// catalogDoc is the YAML representation of a catalog file.
type catalogDoc struct {
	Name       string       `yaml:"name"`
	Title      string       `yaml:"title"`
	AllLabel   string       `yaml:"all_label"`
	Accent     string       `yaml:"accent"`
	Categories []string     `yaml:"categories"`
	Searchable []string     `yaml:"searchable"`
	Records    []recordDoc  `yaml:"records"`
	Contacts   []contactDoc `yaml:"contacts"`
}

// decode parses one catalog document.
func decode(data []byte) (catalogDoc, error) {
	var doc catalogDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return catalogDoc{}, fmt.Errorf("parse yaml: %w", err)
	}
	return doc, nil
}

// toDomain validates the document and builds a domain catalog.
func (d catalogDoc) toDomain() (domcat.Catalog, error) {
	records := make([]record.Record, 0, len(d.Records))
	for i, rd := range d.Records {
		fields := make(map[string]string, len(rd.Fields))
		for k, v := range rd.Fields {
			fields[k] = string(v)
		}
		var details []record.Detail
		for _, dd := range rd.Details {
			details = append(details, record.Detail{Label: string(dd.Label), Value: string(dd.Value)})
		}
		r, err := record.New(string(rd.ID), string(rd.Category), fields, details)
		if err != nil {
			return domcat.Catalog{}, fmt.Errorf("record #%d: %w", i+1, err)
		}
		records = append(records, r)
	}

	// contacts without an id are numbered by position
	contacts := make([]contact.Contact, 0, len(d.Contacts))
	for i, cd := range d.Contacts {
		id := string(cd.ID)
		if id == "" {
			id = strconv.Itoa(i + 1)
		}
		c, err := contact.New(id, string(cd.Name), string(cd.Number))
		if err != nil {
			return domcat.Catalog{}, fmt.Errorf("contact #%d: %w", i+1, err)
		}
		contacts = append(contacts, c)
	}

	return domcat.New(domcat.Definition{
		Name:       d.Name,
		Title:      d.Title,
		AllLabel:   d.AllLabel,
		Accent:     d.Accent,
		Categories: d.Categories,
		Searchable: d.Searchable,
		Records:    records,
		Contacts:   contacts,
	})
}
