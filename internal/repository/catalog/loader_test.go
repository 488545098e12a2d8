package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/kailas-cloud/civica/internal/domain"
	domcat "github.com/kailas-cloud/civica/internal/domain/catalog"
	"github.com/kailas-cloud/civica/internal/domain/theme"
)

const extraCatalog = `
name: saude
title: Saúde
accent: success
searchable: [title]
records:
  - id: 1
    category: UBS
    fields: {title: UBS Centro}
`

func TestBuiltin_LoadsEveryCatalog(t *testing.T) {
	got, err := NewLoader(theme.Default(), Source{FS: Builtin()}).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	want := []string{
		"agendamento", "assistencia", "educacao", "emergencia", "juridico",
		"mae-cursos", "mae-faq", "mae-leis", "mae-servicos", "saude", "transporte", "tributos", "turismo",
	}
	var names []string
	for name := range got {
		names = append(names, name)
	}
	if diff := cmp.Diff(want, names, sortStrings); diff != "" {
		t.Errorf("catalog names mismatch (-want +got):\n%s", diff)
	}

	agenda := got["agendamento"]
	if agenda.Len() != 6 {
		t.Errorf("agendamento has %d records, want 6", agenda.Len())
	}
	if diff := cmp.Diff([]string{"Saúde", "Documentos", "Tributos", "Social", "Trânsito"}, agenda.Categories()); diff != "" {
		t.Errorf("derived categories mismatch:\n%s", diff)
	}

	bus, ok := got["transporte"].Record("0203.1")
	if !ok {
		t.Fatal("transporte line 0203.1 missing")
	}
	if len(bus.Details()) != 2 || bus.Details()[0].Label != "Saída Burissatuba" {
		t.Errorf("unexpected schedules: %+v", bus.Details())
	}

	health := got["saude"]
	if diff := cmp.Diff([]string{"Serviços Rápidos", "Agendamento", "Emergência"}, health.Categories()); diff != "" {
		t.Errorf("saude categories mismatch:\n%s", diff)
	}
	if samu, ok := health.Record("samu"); !ok || samu.Fields()["phone"] != "192" {
		t.Errorf("saude emergency record = %+v, %v", samu, ok)
	}

	taxes := got["tributos"]
	if taxes.Len() != 7 || taxes.AllLabel() != "Todos" {
		t.Errorf("tributos = %d records, all label %q", taxes.Len(), taxes.AllLabel())
	}
	if iss, ok := taxes.Record("3"); !ok || iss.Category() != "ISS" || iss.Fields()["status"] != "overdue" {
		t.Errorf("tributos ISS record = %+v, %v", iss, ok)
	}

	sos := got["emergencia"].Contacts()
	if len(sos) != 1 || sos[0].ID() != "1" || sos[0].Name() != "Mãe" || sos[0].Number() != "(11) 99999-9999" {
		t.Errorf("emergencia seed contacts = %+v", sos)
	}

	beaches := got["turismo"]
	if beaches.AllLabel() != "Todas" {
		t.Errorf("turismo all label = %q", beaches.AllLabel())
	}
	if !beaches.Has("1") {
		t.Error("integer YAML ids must be rendered in decimal")
	}
	if rating, _ := mustRecordField(t, beaches, "3", "rating"); rating != "4.9" {
		t.Errorf("rating = %q, want literal 4.9", rating)
	}
}

func TestLoader_DirectoryOverridesBuiltin(t *testing.T) {
	dir := t.TempDir()
	override := `
name: emergencia
title: Emergência
searchable: [name]
records:
  - {id: "192", fields: {name: SAMU}}
`
	writeFile(t, dir, "emergencia.yaml", override)
	writeFile(t, dir, "nested/saude.yaml", extraCatalog)

	src, ok := DirSource(dir, "")
	if !ok {
		t.Fatal("DirSource returned no source")
	}
	got, err := NewLoader(theme.Default(), Source{FS: Builtin()}, src).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if e := got["emergencia"]; e.Len() != 1 || !e.Has("192") {
		t.Errorf("directory catalog did not override builtin: %d records", e.Len())
	}
	if _, ok := got["saude"]; !ok {
		t.Error("nested catalog not loaded")
	}
	if _, ok := got["agendamento"]; !ok {
		t.Error("builtin catalogs lost")
	}
}

func TestDirSource_Empty(t *testing.T) {
	if _, ok := DirSource("", ""); ok {
		t.Error("empty dir must yield no source")
	}
}

func TestLoader_Errors(t *testing.T) {
	tests := []struct {
		name    string
		files   fstest.MapFS
		wantErr error
	}{
		{
			name:    "malformed yaml",
			files:   fstest.MapFS{"a.yaml": {Data: []byte("name: [")}},
			wantErr: domain.ErrInvalidCatalog,
		},
		{
			name: "unknown accent",
			files: fstest.MapFS{"a.yaml": {Data: []byte(
				"name: a\naccent: neon\nsearchable: [t]\nrecords: [{id: 1, fields: {t: x}}]\n")}},
			wantErr: domain.ErrInvalidCatalog,
		},
		{
			name: "duplicate record id",
			files: fstest.MapFS{"a.yaml": {Data: []byte(
				"name: a\nsearchable: [t]\nrecords: [{id: 1, fields: {t: x}}, {id: \"1\", fields: {t: y}}]\n")}},
			wantErr: domain.ErrDuplicateRecordID,
		},
		{
			name: "same name twice in one source",
			files: fstest.MapFS{
				"a.yaml": {Data: []byte("name: a\nsearchable: [t]\n")},
				"b.yaml": {Data: []byte("name: a\nsearchable: [t]\n")},
			},
			wantErr: domain.ErrInvalidCatalog,
		},
		{
			name:    "nested field value",
			files:   fstest.MapFS{"a.yaml": {Data: []byte("name: a\nsearchable: [t]\nrecords: [{id: 1, fields: {t: [x]}}]\n")}},
			wantErr: domain.ErrInvalidCatalog,
		},
		{
			name:    "contact without number",
			files:   fstest.MapFS{"a.yaml": {Data: []byte("name: a\nsearchable: [t]\ncontacts: [{name: Mãe}]\n")}},
			wantErr: domain.ErrInvalidContact,
		},
		{
			name: "duplicate contact id",
			files: fstest.MapFS{"a.yaml": {Data: []byte(
				"name: a\nsearchable: [t]\ncontacts: [{id: x, name: A, number: \"1\"}, {id: x, name: B, number: \"2\"}]\n")}},
			wantErr: domain.ErrInvalidCatalog,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLoader(theme.Default(), Source{FS: tt.files}).Load()
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoader_PatternFiltersFiles(t *testing.T) {
	files := fstest.MapFS{
		"keep/a.yaml": {Data: []byte("name: a\nsearchable: [t]\n")},
		"skip/b.yml":  {Data: []byte("not: [valid")},
	}
	got, err := NewLoader(theme.Default(), Source{FS: files, Pattern: "keep/*.yaml"}).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("loaded %d catalogs, want 1", len(got))
	}
}

var sortStrings = cmpopts.SortSlices(func(a, b string) bool { return a < b })

func mustRecordField(t *testing.T, c domcat.Catalog, id, field string) (string, bool) {
	t.Helper()
	r, ok := c.Record(id)
	if !ok {
		t.Fatalf("record %s missing from %s", id, c.Name())
	}
	return r.Field(field)
}

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
}
