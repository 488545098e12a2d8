package civica

import (
	domcat "github.com/kailas-cloud/civica/internal/domain/catalog"
	domev "github.com/kailas-cloud/civica/internal/domain/evidence"
	"github.com/kailas-cloud/civica/internal/domain/record"
	screenuc "github.com/kailas-cloud/civica/internal/usecase/screen"
)

func fromCatalog(c domcat.Catalog) CatalogInfo {
	return CatalogInfo{
		Name:       c.Name(),
		Title:      c.Title(),
		AllLabel:   c.AllLabel(),
		Accent:     c.Accent(),
		Categories: c.Categories(),
		Records:    c.Len(),
	}
}

func fromRecord(r record.Record, open map[string]bool) Record {
	var details []Detail
	if d := r.Details(); len(d) > 0 {
		details = make([]Detail, len(d))
		for i, row := range d {
			details[i] = Detail(row)
		}
	}
	return Record{
		ID:       r.ID(),
		Category: r.Category(),
		Fields:   r.Fields(),
		Details:  details,
		Open:     open[r.ID()],
	}
}

func fromEvidence(e domev.Evidence, open bool) Evidence {
	return Evidence{
		ID:         e.ID(),
		Title:      e.Title(),
		Kind:       EvidenceKind(e.Kind()),
		SizeBytes:  e.SizeBytes(),
		Note:       e.Note(),
		RecordedAt: e.RecordedAt(),
		Open:       open,
	}
}

func fromView(v screenuc.View) View {
	open := make(map[string]bool, len(v.OpenIDs))
	for _, id := range v.OpenIDs {
		open[id] = true
	}

	records := make([]Record, len(v.Records))
	for i, r := range v.Records {
		records[i] = fromRecord(r, open)
	}

	var evidence []Evidence
	if v.Evidence != nil {
		evidence = make([]Evidence, len(v.Evidence))
		for i, e := range v.Evidence {
			evidence[i] = fromEvidence(e, open[e.ID()])
		}
	}

	contacts := make([]Contact, len(v.Contacts))
	for i, c := range v.Contacts {
		contacts[i] = Contact{ID: c.ID(), Name: c.Name(), Number: c.Number()}
	}

	return View{
		ScreenID: v.ID,
		Kind:     ScreenKind(v.Kind),
		Catalog:  v.Catalog,
		Query: Query{
			Text:     v.Query.Text(),
			Category: v.Query.Category(),
		},
		Records:  records,
		Total:    v.Total,
		OpenIDs:  append([]string(nil), v.OpenIDs...),
		Gate:     GateStatus(v.Gate),
		Evidence: evidence,
		Contacts: contacts,
	}
}
