package catalog_test

import (
	"errors"
	"math"
	"testing"

	"github.com/isimg/moyenne/internal/catalog"
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.New([]catalog.Program{
		{
			ID: "LISI",
			Years: []catalog.Year{
				{
					ID: "1",
					Semesters: []catalog.Semester{
						{
							ID: "1",
							Subjects: []catalog.Subject{
								{Name: "Algèbre 1", Coef: 1.5, Kind: catalog.KindDSExam, Inputs: []string{"DS", "Examen"}},
								{Name: "Algèbre 1", Coef: 1, Kind: catalog.KindDSExam, Inputs: []string{"DS", "Examen"}},
								{Name: "Anglais", Coef: 1, Kind: catalog.KindContinuous3, Inputs: []string{"DS1", "DS1", "Oral"}},
							},
						},
					},
				},
			},
		},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func TestNew_AssignsStableIDs(t *testing.T) {
	c := testCatalog(t)

	subjects, ok := c.Subjects("LISI", "1", "1")
	if !ok {
		t.Fatal("Subjects() not found")
	}

	want := []string{"lisi-y1-s1-algebre_1", "lisi-y1-s1-algebre_1-2", "lisi-y1-s1-anglais"}
	for i, id := range want {
		if subjects[i].ID != id {
			t.Errorf("subjects[%d].ID = %q, want %q", i, subjects[i].ID, id)
		}
	}

	again := testCatalog(t)
	if again.Fingerprint() != c.Fingerprint() {
		t.Error("Fingerprint() should be deterministic for equal content")
	}
}

func TestNew_DeduplicatesInputs(t *testing.T) {
	c := testCatalog(t)
	s, ok := c.Subject("lisi-y1-s1-anglais")
	if !ok {
		t.Fatal("Subject() not found")
	}
	if len(s.Inputs) != 2 {
		t.Errorf("Inputs = %v, want [DS1 Oral]", s.Inputs)
	}
}

func TestNew_Rejects(t *testing.T) {
	tests := []struct {
		name     string
		programs []catalog.Program
	}{
		{"missing program id", []catalog.Program{{}}},
		{"duplicate program", []catalog.Program{{ID: "A"}, {ID: "A"}}},
		{"negative coef", []catalog.Program{{ID: "A", Years: []catalog.Year{{ID: "1", Semesters: []catalog.Semester{{ID: "1", Subjects: []catalog.Subject{{Name: "X", Coef: -1}}}}}}}}},
		{"coef above bound", []catalog.Program{{ID: "A", Years: []catalog.Year{{ID: "1", Semesters: []catalog.Semester{{ID: "1", Subjects: []catalog.Subject{{Name: "X", Coef: 1e308}}}}}}}}},
		{"duplicate explicit id", []catalog.Program{{ID: "A", Years: []catalog.Year{{ID: "1", Semesters: []catalog.Semester{{ID: "1", Subjects: []catalog.Subject{{ID: "x", Name: "X"}, {ID: "x", Name: "Y"}}}}}}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := catalog.New(tt.programs); err == nil {
				t.Error("New() should return an error")
			}
		})
	}
}

func TestCatalog_Navigation_Unknown(t *testing.T) {
	c := testCatalog(t)

	if got := c.Years("NOPE"); got != nil {
		t.Errorf("Years(NOPE) = %v, want nil", got)
	}
	if got := c.Semesters("LISI", "9"); got != nil {
		t.Errorf("Semesters(LISI, 9) = %v, want nil", got)
	}
	if _, ok := c.Subjects("LISI", "1", "9"); ok {
		t.Error("Subjects(LISI, 1, 9) should not be found")
	}
	if _, ok := c.Subject("nope"); ok {
		t.Error("Subject(nope) should not be found")
	}
	if !errors.Is(catalog.ErrUnknownSelection, catalog.ErrUnknownSelection) {
		t.Error("ErrUnknownSelection should match itself")
	}
}

func TestCatalog_SubjectsAreCopies(t *testing.T) {
	c := testCatalog(t)
	before := c.Fingerprint()

	subjects, _ := c.Subjects("LISI", "1", "1")
	subjects[0].SetCoef(9)
	subjects[0].AddInput("TP")
	subjects[0].Inputs[0] = "changed"

	fresh, _ := c.Subjects("LISI", "1", "1")
	if fresh[0].Coef != 1.5 {
		t.Errorf("catalog coef = %v, want 1.5 after editing a copy", fresh[0].Coef)
	}
	if len(fresh[0].Inputs) != 2 || fresh[0].Inputs[0] != "DS" {
		t.Errorf("catalog inputs = %v, want [DS Examen]", fresh[0].Inputs)
	}
	if c.Fingerprint() != before {
		t.Error("Fingerprint() changed after editing a copy")
	}
}

func TestSubject_SetCoefficient(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		wantOK bool
		want   float64
	}{
		{"integer", "2", true, 2},
		{"decimal", "1.5", true, 1.5},
		{"zero", "0", true, 0},
		{"padded", " 3 ", true, 3},
		{"negative", "-1", false, 1.5},
		{"text", "abc", false, 1.5},
		{"empty", "", false, 1.5},
		{"nan", "NaN", false, 1.5},
		{"inf", "Inf", false, 1.5},
		{"upper bound", "1000", true, 1000},
		{"above upper bound", "1000.5", false, 1.5},
		{"huge", "1e308", false, 1.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := catalog.Subject{Coef: 1.5}
			if got := s.SetCoefficient(tt.raw); got != tt.wantOK {
				t.Errorf("SetCoefficient(%q) = %v, want %v", tt.raw, got, tt.wantOK)
			}
			if s.Coef != tt.want {
				t.Errorf("Coef = %v, want %v", s.Coef, tt.want)
			}
		})
	}
}

func TestSubject_SetCoef_NonFinite(t *testing.T) {
	s := catalog.Subject{Coef: 2}
	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1), -0.5} {
		if s.SetCoef(v) {
			t.Errorf("SetCoef(%v) accepted", v)
		}
	}
	if s.Coef != 2 {
		t.Errorf("Coef = %v, want 2", s.Coef)
	}
}

func TestSubject_AddInput(t *testing.T) {
	s := catalog.Subject{Inputs: []string{"DS", "Examen"}}

	if !s.AddInput("  TP ") {
		t.Error("AddInput(TP) should be accepted")
	}
	if s.AddInput("DS") {
		t.Error("AddInput(DS) duplicate should be a no-op")
	}
	if s.AddInput("   ") {
		t.Error("AddInput(blank) should be a no-op")
	}
	if !s.AddInput("examen") {
		t.Error("AddInput(examen) differs by case and should be accepted")
	}

	want := []string{"DS", "Examen", "TP", "examen"}
	if len(s.Inputs) != len(want) {
		t.Fatalf("Inputs = %v, want %v", s.Inputs, want)
	}
	for i := range want {
		if s.Inputs[i] != want[i] {
			t.Errorf("Inputs[%d] = %q, want %q", i, s.Inputs[i], want[i])
		}
	}
}

func TestSubject_RemoveInput(t *testing.T) {
	s := catalog.Subject{Inputs: []string{"DS", "Examen", "TP"}}
	shared := s

	if s.RemoveInput("Oral") {
		t.Error("RemoveInput(Oral) absent should be a no-op")
	}
	if len(s.Inputs) != 3 {
		t.Errorf("Inputs = %v, want unchanged", s.Inputs)
	}

	if !s.RemoveInput("Examen") {
		t.Error("RemoveInput(Examen) should succeed")
	}
	if len(s.Inputs) != 2 || s.Inputs[0] != "DS" || s.Inputs[1] != "TP" {
		t.Errorf("Inputs = %v, want [DS TP]", s.Inputs)
	}
	if len(shared.Inputs) != 3 || shared.Inputs[1] != "Examen" {
		t.Errorf("shallow copy Inputs = %v, want untouched", shared.Inputs)
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Algèbre 1", "algebre_1"},
		{"Technologies et outils de création (1)", "technologies_et_outils_de_creation_1"},
		{"Eléments fondamentaux", "elements_fondamentaux"},
		{"  C2i 1 ", "c2i_1"},
		{"Traitement d'images", "traitement_d_images"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := catalog.Slugify(tt.in); got != tt.want {
				t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
