package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

const testProgram = `program: TEST
years:
  - year: "1"
    semesters:
      - semester: "1"
        subjects:
          - id: analyse
            name: Analyse
            coef: 2
            inputs: [DS, Examen]
          - id: anglais
            name: Anglais
            coef: 1
            inputs: [DS1, DS2]
`

func writeCatalog(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "test.yaml"), []byte(testProgram), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestParseMark(t *testing.T) {
	tests := []struct {
		raw       string
		wantID    string
		wantLabel string
		wantValue string
		wantErr   bool
	}{
		{"analyse:DS=12", "analyse", "DS", "12", false},
		{"analyse:DS 2=15.5", "analyse", "DS 2", "15.5", false},
		{"analyse:Examen=", "analyse", "Examen", "", false},
		{"analyse=12", "", "", "", true},
		{"analyse:DS", "", "", "", true},
		{":DS=12", "", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			id, label, value, err := parseMark(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseMark() error = %v, wantErr %v", err, tt.wantErr)
			}
			if id != tt.wantID || label != tt.wantLabel || value != tt.wantValue {
				t.Errorf("parseMark() = %q, %q, %q", id, label, value)
			}
		})
	}
}

func TestParseAssignment(t *testing.T) {
	if id, v, err := parseAssignment("analyse=1.5"); err != nil || id != "analyse" || v != "1.5" {
		t.Errorf("parseAssignment() = %q, %q, %v", id, v, err)
	}
	if _, _, err := parseAssignment("analyse"); err == nil {
		t.Error("parseAssignment() should reject a missing '='")
	}
}

func TestNavigationCommands(t *testing.T) {
	dir := writeCatalog(t)

	tests := []struct {
		args    []string
		want    string
		wantErr bool
	}{
		{[]string{"programs"}, "TEST\n", false},
		{[]string{"years", "TEST"}, "1\n", false},
		{[]string{"semesters", "TEST", "1"}, "1\n", false},
		{[]string{"years", "MBA"}, "", true},
		{[]string{"semesters", "TEST", "4"}, "", true},
	}

	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			out, err := execute(t, append([]string{"--catalog", dir}, tt.args...)...)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && out != tt.want {
				t.Errorf("output = %q, want %q", out, tt.want)
			}
		})
	}
}

func TestSubjectsCommand(t *testing.T) {
	out, err := execute(t, "--catalog", writeCatalog(t), "subjects", "TEST", "1", "1")
	if err != nil {
		t.Fatalf("error = %v", err)
	}
	for _, want := range []string{"analyse", "Anglais", "DS, Examen"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestComputeCommand(t *testing.T) {
	dir := writeCatalog(t)
	xlsx := filepath.Join(t.TempDir(), "out.xlsx")

	out, err := execute(t, "--catalog", dir, "compute", "TEST", "1", "1",
		"--mark", "analyse:DS=10",
		"--mark", "analyse:Examen=15",
		"--mark", "anglais:DS1=12",
		"--mark", "anglais:DS2=14",
		"--xlsx", xlsx,
	)
	if err != nil {
		t.Fatalf("error = %v\n%s", err, out)
	}

	// analyse 13.5, anglais 13, overall (27 + 13) / 3
	for _, want := range []string{"13.50", "13.00", "13.33", "exam_blend", "simple_average", "admis"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	f, err := excelize.OpenFile(xlsx)
	if err != nil {
		t.Fatalf("OpenFile() error = %v", err)
	}
	defer f.Close()
	if got, _ := f.GetCellValue("Moyenne", "A3"); got != "Anglais" {
		t.Errorf("A3 = %q, want Anglais", got)
	}
}

func TestComputeCommand_Edits(t *testing.T) {
	dir := writeCatalog(t)

	out, err := execute(t, "--catalog", dir, "compute", "TEST", "1", "1",
		"--coef", "anglais=0",
		"--remove-input", "analyse=Examen",
		"--add-input", "analyse=TP",
		"--mark", "analyse:DS=8",
		"--mark", "analyse:TP=12",
	)
	if err != nil {
		t.Fatalf("error = %v\n%s", err, out)
	}
	// analyse is now the mean of DS and TP; anglais no longer counts.
	if !strings.Contains(out, "10.00") || !strings.Contains(out, "admis") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestComputeCommand_Rejections(t *testing.T) {
	dir := writeCatalog(t)

	tests := []struct {
		name string
		args []string
	}{
		{"score above 20", []string{"--mark", "analyse:DS=21"}},
		{"unknown subject", []string{"--mark", "physique:DS=10"}},
		{"malformed mark", []string{"--mark", "analyse-DS-10"}},
		{"negative coef", []string{"--coef", "analyse=-2"}},
		{"duplicate input", []string{"--add-input", "analyse=DS"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"--catalog", dir, "compute", "TEST", "1", "1"}, tt.args...)
			if _, err := execute(t, args...); err == nil {
				t.Error("expected an error")
			}
		})
	}

	if _, err := execute(t, "--catalog", dir, "compute", "TEST", "2", "1"); err == nil {
		t.Error("unknown year should fail")
	}
}

func TestCatalogValidateCommand(t *testing.T) {
	out, err := execute(t, "catalog", "validate", writeCatalog(t))
	if err != nil {
		t.Fatalf("error = %v", err)
	}
	if !strings.HasPrefix(out, "ok: 1 programs, 2 subjects") {
		t.Errorf("output = %q", out)
	}

	bad := t.TempDir()
	if err := os.WriteFile(filepath.Join(bad, "bad.yaml"), []byte("program: X\nyears: 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := execute(t, "catalog", "validate", bad); err == nil {
		t.Error("invalid catalog should fail validation")
	}
}

func TestDefaultCatalog(t *testing.T) {
	out, err := execute(t, "--catalog", "", "programs")
	if err != nil {
		t.Fatalf("error = %v", err)
	}
	if out != "LAM\nLTIC\nLISI\nLSIM\nCPI\n" {
		t.Errorf("programs = %q", out)
	}
}
