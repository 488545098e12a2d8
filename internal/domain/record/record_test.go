package record

import (
	"strings"
	"testing"
)

func TestNew_Valid(t *testing.T) {
	r, err := New("0203.1", "Circular", map[string]string{"name": "Burissatuba x Verde Ville"}, []Detail{
		{Label: "Saída Burissatuba", Value: "5h20, 6h35"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.ID() != "0203.1" {
		t.Errorf("ID() = %q", r.ID())
	}
	if r.Category() != "Circular" {
		t.Errorf("Category() = %q", r.Category())
	}
	if v, ok := r.Field("name"); !ok || v != "Burissatuba x Verde Ville" {
		t.Errorf("Field(name) = %q, %v", v, ok)
	}
	if len(r.Details()) != 1 {
		t.Errorf("Details() len = %d, want 1", len(r.Details()))
	}
}

func TestNew_InvalidID(t *testing.T) {
	tests := []struct {
		name string
		id   string
		want string
	}{
		{"empty", "", "required"},
		{"too long", strings.Repeat("a", MaxIDLength+1), "too long"},
		{"spaces", "a b", "alphanumeric"},
		{"slash", "a/b", "alphanumeric"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.id, "", nil, nil)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want substring %q", err, tt.want)
			}
		})
	}
}

func TestNew_CopiesInputs(t *testing.T) {
	fields := map[string]string{"title": "Odontologia"}
	details := []Detail{{Label: "a", Value: "b"}}
	r, err := New("2", "Saúde", fields, details)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fields["title"] = "mutated"
	details[0].Value = "mutated"

	if v, _ := r.Field("title"); v != "Odontologia" {
		t.Errorf("record field changed through caller map: %q", v)
	}
	if r.Details()[0].Value != "b" {
		t.Errorf("record detail changed through caller slice")
	}

	got := r.Fields()
	got["title"] = "again"
	if v, _ := r.Field("title"); v != "Odontologia" {
		t.Errorf("record field changed through Fields() copy: %q", v)
	}
}

func TestWithSearchable_OrderAndSkips(t *testing.T) {
	r, err := New("1", "Saúde", map[string]string{
		"title": "Clínico Geral",
		"desc":  "Consultas de rotina",
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bound := r.WithSearchable([]string{"category", "missing", "title", "desc"})
	got := bound.SearchableFields()
	want := []string{"Saúde", "Clínico Geral", "Consultas de rotina"}
	if len(got) != len(want) {
		t.Fatalf("SearchableFields() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("SearchableFields()[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	if len(r.SearchableFields()) != 0 {
		t.Error("WithSearchable must not modify the receiver")
	}
}

func TestWithSearchable_NoCategory(t *testing.T) {
	r, err := New("1", "", map[string]string{"title": "CadÚnico"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := r.WithSearchable([]string{"category", "title"}).SearchableFields()
	if len(got) != 1 || got[0] != "CadÚnico" {
		t.Errorf("SearchableFields() = %v", got)
	}
}

func TestMatchesAny(t *testing.T) {
	r, err := New("1", "", map[string]string{"a": "x", "b": "y"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r = r.WithSearchable([]string{"a", "b"})

	if !r.MatchesAny(func(v string) bool { return v == "y" }) {
		t.Error("expected match on second value")
	}
	if r.MatchesAny(func(v string) bool { return v == "z" }) {
		t.Error("unexpected match")
	}
}
