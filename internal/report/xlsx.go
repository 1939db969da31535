// Package report renders a semester's marks and averages as a spreadsheet.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/isimg/moyenne/internal/catalog"
	"github.com/isimg/moyenne/internal/grading"
)

// SheetName is the name of the single worksheet.
const SheetName = "Moyenne"

// OverallLabel heads the last row of the sheet.
const OverallLabel = "Moyenne générale"

// Selection identifies the semester being exported.
type Selection struct {
	Program  string
	Year     string
	Semester string
}

// Title returns a human readable name, e.g. "LTIC année 1 semestre 2".
func (s Selection) Title() string {
	return fmt.Sprintf("%s année %s semestre %s", s.Program, s.Year, s.Semester)
}

// Columns returns the header row: subject name, coefficient, every input
// label in first-seen order across subjects, and the average. An input label
// may repeat one of the fixed headers and still gets its own column.
func Columns(subjects []catalog.Subject) []string {
	labels, _ := inputColumns(subjects)
	cols := append([]string{"Matière", "Coef"}, labels...)
	return append(cols, "Moyenne")
}

// inputColumns lists the distinct input labels and maps each one to its
// 1-based column, starting right after the name and coefficient.
func inputColumns(subjects []catalog.Subject) ([]string, map[string]int) {
	var labels []string
	index := map[string]int{}
	for _, s := range subjects {
		for _, label := range s.Inputs {
			if _, ok := index[label]; !ok {
				labels = append(labels, label)
				index[label] = len(labels) + 2
			}
		}
	}
	return labels, index
}

// WriteXLSX writes one worksheet with a row per subject followed by the
// overall average. Scores are written as numbers, blank scores stay empty.
func WriteXLSX(w io.Writer, sel Selection, subjects []catalog.Subject, m grading.Marks) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}
	if err := f.SetDocProps(&excelize.DocProperties{
		Title:   sel.Title(),
		Creator: "moyenne",
	}); err != nil {
		return fmt.Errorf("setting document properties: %w", err)
	}

	cols := Columns(subjects)
	_, index := inputColumns(subjects)
	header := make([]any, len(cols))
	for i, c := range cols {
		header[i] = c
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(cols), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetName, "A1", last, bold); err != nil {
		return fmt.Errorf("styling header: %w", err)
	}

	res := grading.Compute(subjects, m)
	avgCol := len(cols)
	for i, s := range subjects {
		row := i + 2
		if err := setCell(f, 1, row, s.Name); err != nil {
			return err
		}
		if err := setCell(f, 2, row, s.Coef); err != nil {
			return err
		}
		for _, label := range s.Inputs {
			raw := strings.TrimSpace(m.Get(s.ID, label))
			if raw == "" {
				continue
			}
			if err := setCell(f, index[label], row, grading.Resolve(raw)); err != nil {
				return err
			}
		}
		if err := setCell(f, avgCol, row, grading.Round2(res.Subjects[i].Average)); err != nil {
			return err
		}
	}

	total := len(subjects) + 2
	if err := setCell(f, 1, total, OverallLabel); err != nil {
		return err
	}
	if err := setCell(f, 2, total, res.TotalCoef); err != nil {
		return err
	}
	if err := setCell(f, avgCol, total, grading.Round2(res.Average)); err != nil {
		return err
	}
	first, _ := excelize.CoordinatesToCellName(1, total)
	end, _ := excelize.CoordinatesToCellName(avgCol, total)
	if err := f.SetCellStyle(SheetName, first, end, bold); err != nil {
		return fmt.Errorf("styling overall row: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func setCell(f *excelize.File, col, row int, v any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	if err := f.SetCellValue(SheetName, cell, v); err != nil {
		return fmt.Errorf("writing %s: %w", cell, err)
	}
	return nil
}
