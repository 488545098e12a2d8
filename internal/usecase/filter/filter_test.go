package filter

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kailas-cloud/civica/internal/domain/catalog"
	"github.com/kailas-cloud/civica/internal/domain/query"
	"github.com/kailas-cloud/civica/internal/domain/record"
	"github.com/kailas-cloud/civica/internal/metrics"
)

func mustRecord(t *testing.T, id, category, title, desc string) record.Record {
	t.Helper()
	r, err := record.New(id, category, map[string]string{"title": title, "desc": desc}, nil)
	if err != nil {
		t.Fatalf("record.New(%s): %v", id, err)
	}
	return r
}

func services(t *testing.T) catalog.Catalog {
	t.Helper()
	c, err := catalog.New(catalog.Definition{
		Name:       "agendamento",
		AllLabel:   "Todos",
		Searchable: []string{"title", "category"},
		Records: []record.Record{
			mustRecord(t, "1", "Saúde", "Clínico Geral", "Consultas de rotina"),
			mustRecord(t, "2", "Saúde", "Odontologia", "Dentista"),
			mustRecord(t, "3", "Trânsito", "Recurso de Multas", "Defesa prévia"),
		},
	})
	if err != nil {
		t.Fatalf("catalog.New: %v", err)
	}
	return c
}

func ids(rs []record.Record) []string {
	out := make([]string, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.ID())
	}
	return out
}

func TestApply(t *testing.T) {
	recs := services(t).Records()

	tests := []struct {
		name     string
		text     string
		category string
		want     []string
	}{
		{"empty query returns catalog", "", query.All, []string{"1", "2", "3"}},
		{"category only", "", "Saúde", []string{"1", "2"}},
		{"text only", "odonto", query.All, []string{"2"}},
		{"text and category", "o", "Trânsito", []string{"3"}},
		{"text and category disjoint", "odonto", "Trânsito", []string{}},
		{"category is case-sensitive", "", "saúde", []string{}},
		{"unknown category", "", "Educação", []string{}},
		{"text case-insensitive", "CLÍNICO", query.All, []string{"1"}},
		{"prefix with accent", "Clín", query.All, []string{"1"}},
		{"no accent folding", "clinico", query.All, []string{}},
		{"matches category field", "trân", query.All, []string{"3"}},
		{"desc is not searchable", "Dentista", query.All, []string{}},
		{"whitespace is literal", " ", query.All, []string{"1", "3"}},
		{"surrounding whitespace not trimmed", " odonto", query.All, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(Apply(recs, query.Of(tt.text, tt.category)))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Apply(%q, %q) mismatch (-want +got):\n%s", tt.text, tt.category, diff)
			}
		})
	}
}

func TestApply_EmptyCatalog(t *testing.T) {
	got := Apply(nil, query.Of("x", query.All))
	if got == nil || len(got) != 0 {
		t.Errorf("Apply(nil) = %v, want empty non-nil", got)
	}
}

func TestApply_Stable(t *testing.T) {
	recs := services(t).Records()
	got := Apply(recs, query.Of("", query.All))
	for i := range got {
		if got[i].ID() != recs[i].ID() {
			t.Fatalf("order changed at %d: %s != %s", i, got[i].ID(), recs[i].ID())
		}
	}
}

func TestApply_Idempotent(t *testing.T) {
	recs := services(t).Records()
	queries := []query.Query{
		query.New(),
		query.Of("o", query.All),
		query.Of("", "Saúde"),
		query.Of("multas", "Trânsito"),
	}
	for _, q := range queries {
		once := Apply(recs, q)
		twice := Apply(once, q)
		if diff := cmp.Diff(ids(once), ids(twice)); diff != "" {
			t.Errorf("F(F(C,Q),Q) != F(C,Q) for %+v:\n%s", q, diff)
		}
	}
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	recs := services(t).Records()
	before := ids(recs)
	_ = Apply(recs, query.Of("odonto", "Saúde"))
	if diff := cmp.Diff(before, ids(recs)); diff != "" {
		t.Errorf("input mutated:\n%s", diff)
	}
}

func TestApply_EmptyTextEqualsCategoryFilter(t *testing.T) {
	recs := services(t).Records()
	for _, cat := range []string{query.All, "Saúde", "Trânsito"} {
		got := ids(Apply(recs, query.Of("", cat)))
		var want []string
		for _, r := range recs {
			if cat == query.All || r.Category() == cat {
				want = append(want, r.ID())
			}
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("category %q:\n%s", cat, diff)
		}
	}
}

func TestApply_SubsetOfCatalog(t *testing.T) {
	recs := services(t).Records()
	known := map[string]bool{}
	for _, r := range recs {
		known[r.ID()] = true
	}
	for _, text := range []string{"", "a", "de", "ç", "zzz"} {
		for _, r := range Apply(recs, query.Of(text, query.All)) {
			if !known[r.ID()] {
				t.Errorf("result contains foreign record %s", r.ID())
			}
		}
	}
}

func TestApply_RecordsWithoutSearchableValues(t *testing.T) {
	r, err := record.New("x", "", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	recs := []record.Record{r.WithSearchable([]string{"title"})}
	if got := Apply(recs, query.Of("a", query.All)); len(got) != 0 {
		t.Errorf("record without values matched: %v", ids(got))
	}
	if got := Apply(recs, query.New()); len(got) != 1 {
		t.Errorf("empty query must keep record, got %v", ids(got))
	}
}

func TestMatches(t *testing.T) {
	r := mustRecord(t, "1", "Saúde", "Clínico Geral", "")
	if !Matches(r.WithSearchable([]string{"title"}), query.Of("geral", query.All)) {
		t.Error("expected match")
	}
	if Matches(r.WithSearchable([]string{"title"}), query.Of("geral", "Trânsito")) {
		t.Error("expected category mismatch")
	}
}

func TestEngine_CatalogLocalizesAllLabel(t *testing.T) {
	c := services(t)
	e := NewEngine()

	before := testutil.ToFloat64(metrics.FilterEvaluationsTotal.WithLabelValues("agendamento"))
	got := ids(e.Catalog(c, query.Of("", "Todos")))
	if diff := cmp.Diff([]string{"1", "2", "3"}, got); diff != "" {
		t.Errorf("all label mismatch:\n%s", diff)
	}
	after := testutil.ToFloat64(metrics.FilterEvaluationsTotal.WithLabelValues("agendamento"))
	if after-before != 1 {
		t.Errorf("evaluations delta = %f, want 1", after-before)
	}
}
