package report

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"resume-analyzer/internal/analysis"
)

const (
	summarySheet = "Summary"
	detailsSheet = "Details"
)

// WriteXLSX writes the report as a workbook with a Summary and a Details sheet.
func WriteXLSX(w io.Writer, rep analysis.Report, meta Meta) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return err
	}
	if _, err := f.NewSheet(detailsSheet); err != nil {
		return err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center"},
	})
	if err != nil {
		return err
	}
	labelStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	if err := writeSummarySheet(f, rep, meta, headerStyle, labelStyle); err != nil {
		return fmt.Errorf("summary sheet: %w", err)
	}
	if err := writeDetailsSheet(f, rep, headerStyle, labelStyle); err != nil {
		return fmt.Errorf("details sheet: %w", err)
	}
	return f.Write(w)
}

// sheetWriter collects the first cell error so callers can write rows unchecked.
type sheetWriter struct {
	f     *excelize.File
	sheet string
	err   error
}

func (s *sheetWriter) set(cell string, value any) {
	if s.err == nil {
		s.err = s.f.SetCellValue(s.sheet, cell, value)
	}
}

func (s *sheetWriter) style(from, to string, style int) {
	if s.err == nil {
		s.err = s.f.SetCellStyle(s.sheet, from, to, style)
	}
}

func (s *sheetWriter) header(row int, title string, style int) {
	a, b := fmt.Sprintf("A%d", row), fmt.Sprintf("B%d", row)
	s.set(a, title)
	s.style(a, b, style)
	if s.err == nil {
		s.err = s.f.MergeCell(s.sheet, a, b)
	}
}

func (s *sheetWriter) pair(row int, label string, value any, labelStyle int) {
	a := fmt.Sprintf("A%d", row)
	s.set(a, label)
	s.style(a, a, labelStyle)
	s.set(fmt.Sprintf("B%d", row), value)
}

func writeSummarySheet(f *excelize.File, rep analysis.Report, meta Meta, headerStyle, labelStyle int) error {
	if err := f.SetColWidth(summarySheet, "A", "A", 22); err != nil {
		return err
	}
	if err := f.SetColWidth(summarySheet, "B", "B", 60); err != nil {
		return err
	}
	generated := meta.GeneratedAt
	if generated.IsZero() {
		generated = time.Now()
	}

	s := &sheetWriter{f: f, sheet: summarySheet}
	row := 1
	s.header(row, "Resume Analysis Report", headerStyle)
	row += 2
	s.pair(row, "Job Title:", meta.JobTitle, labelStyle)
	row++
	s.pair(row, "Resume File:", meta.ResumeFile, labelStyle)
	row++
	s.pair(row, "Generated:", generated.Format("2006-01-02 15:04:05"), labelStyle)
	row += 2

	s.header(row, "Scores", headerStyle)
	row++
	for _, sr := range scoreRows(rep) {
		s.pair(row, sr.label, sr.value, labelStyle)
		row++
	}
	row++
	s.pair(row, "Matching skills", joinOrNone(rep.MatchingSkills), labelStyle)
	row++
	s.pair(row, "Missing skills", joinOrNone(rep.MissingSkills), labelStyle)
	return s.err
}

func writeDetailsSheet(f *excelize.File, rep analysis.Report, headerStyle, labelStyle int) error {
	if err := f.SetColWidth(detailsSheet, "A", "A", 26); err != nil {
		return err
	}
	if err := f.SetColWidth(detailsSheet, "B", "B", 80); err != nil {
		return err
	}

	s := &sheetWriter{f: f, sheet: detailsSheet}
	d := rep.Details
	row := 1
	section := func(title string, score float64, pairs ...[2]any) {
		s.header(row, fmt.Sprintf("%s (%s)", title, formatScore(score)), headerStyle)
		row++
		for _, p := range pairs {
			s.pair(row, p[0].(string), formatValue(p[1]), labelStyle)
			row++
		}
		row++
	}

	section("Formatting", d.Formatting.Score, [2]any{"Issues", d.Formatting.Issues})
	section("Experience", d.Experience.Score,
		[2]any{"Analysis", d.Experience.Analysis},
		[2]any{"Years match", d.Experience.YearsMatch},
		[2]any{"Responsibilities match", d.Experience.ResponsibilitiesMatch},
	)
	section("Education", d.Education.Score, [2]any{"Details", d.Education.Details})
	section("Keywords", d.Keywords.Score, [2]any{"Matches", d.Keywords.Matches})
	section("Impact", d.Impact.Score, [2]any{"Statements", d.Impact.Statements})
	return s.err
}
