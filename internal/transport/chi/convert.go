package chi

import (
	domev "github.com/kailas-cloud/civica/internal/domain/evidence"
	"github.com/kailas-cloud/civica/internal/domain/record"
	screenuc "github.com/kailas-cloud/civica/internal/usecase/screen"
)

func recordToWire(r record.Record, open map[string]bool) Record {
	var details []Detail
	if d := r.Details(); len(d) > 0 {
		details = make([]Detail, len(d))
		for i, row := range d {
			details[i] = Detail{Label: row.Label, Value: row.Value}
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

func evidenceToWire(e domev.Evidence, open bool) Evidence {
	return Evidence{
		ID:         e.ID(),
		Title:      e.Title(),
		Type:       string(e.Kind()),
		SizeBytes:  e.SizeBytes(),
		Note:       e.Note(),
		RecordedAt: e.RecordedAt(),
		Open:       open,
	}
}

func viewToWire(v screenuc.View) ScreenView {
	open := make(map[string]bool, len(v.OpenIDs))
	for _, id := range v.OpenIDs {
		open[id] = true
	}

	records := make([]Record, len(v.Records))
	for i, r := range v.Records {
		records[i] = recordToWire(r, open)
	}

	var evidence []Evidence
	if v.Evidence != nil {
		evidence = make([]Evidence, len(v.Evidence))
		for i, e := range v.Evidence {
			evidence[i] = evidenceToWire(e, open[e.ID()])
		}
	}

	contacts := make([]Contact, len(v.Contacts))
	for i, c := range v.Contacts {
		contacts[i] = Contact{ID: c.ID(), Name: c.Name(), Number: c.Number()}
	}

	openIDs := v.OpenIDs
	if openIDs == nil {
		openIDs = []string{}
	}

	return ScreenView{
		ID:      v.ID,
		Kind:    string(v.Kind),
		Catalog: v.Catalog,
		Query: Query{
			Text:     v.Query.Text(),
			Category: v.Query.Category(),
		},
		Records:  records,
		Total:    v.Total,
		OpenIDs:  openIDs,
		Gate:     string(v.Gate),
		Evidence: evidence,
		Contacts: contacts,
	}
}
