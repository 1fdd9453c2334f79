// Package report renders analysis reports for the command line.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"resume-analyzer/internal/analysis"
)

// Format selects the output encoding of a report.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
	FormatXLSX Format = "xlsx"
)

// Meta describes the request a report was produced for.
type Meta struct {
	ResumeFile  string
	JobTitle    string
	GeneratedAt time.Time
}

// ParseFormat validates a user supplied format name.
func ParseFormat(raw string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(raw))); f {
	case FormatJSON, FormatText, FormatXLSX:
		return f, nil
	case "":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown format %q (want json, text or xlsx)", raw)
	}
}

// Write renders rep to w in the given format.
func Write(w io.Writer, rep analysis.Report, meta Meta, format Format) error {
	switch format {
	case FormatJSON:
		return WriteJSON(w, rep)
	case FormatText:
		return WriteText(w, rep, meta)
	case FormatXLSX:
		return WriteXLSX(w, rep, meta)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

// WriteJSON writes the report exactly as the HTTP endpoint returns it, indented.
func WriteJSON(w io.Writer, rep analysis.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}

// WriteText writes a human readable summary.
func WriteText(w io.Writer, rep analysis.Report, meta Meta) error {
	var b strings.Builder
	b.WriteString("Resume analysis")
	if meta.JobTitle != "" {
		fmt.Fprintf(&b, " for %s", meta.JobTitle)
	}
	b.WriteString("\n")
	if meta.ResumeFile != "" {
		fmt.Fprintf(&b, "File: %s\n", meta.ResumeFile)
	}
	fmt.Fprintf(&b, "\nOverall score: %s\n\n", formatScore(rep.Scores.Overall))

	b.WriteString("Scores\n")
	for _, row := range scoreRows(rep) {
		fmt.Fprintf(&b, "  %-11s %6s\n", row.label, formatScore(row.value))
	}

	fmt.Fprintf(&b, "\nMatching skills: %s\n", joinOrNone(rep.MatchingSkills))
	fmt.Fprintf(&b, "Missing skills:  %s\n", joinOrNone(rep.MissingSkills))

	writeList(&b, "Formatting issues", rep.Details.Formatting.Issues)
	fmt.Fprintf(&b, "\nExperience: %s\n", formatValue(rep.Details.Experience.Analysis))
	fmt.Fprintf(&b, "  Years match: %s\n", formatValue(rep.Details.Experience.YearsMatch))
	fmt.Fprintf(&b, "  Responsibilities: %s\n", formatValue(rep.Details.Experience.ResponsibilitiesMatch))
	fmt.Fprintf(&b, "Education: %s\n", formatValue(rep.Details.Education.Details))
	fmt.Fprintf(&b, "Keyword matches: %s\n", formatValue(rep.Details.Keywords.Matches))
	writeList(&b, "Impact statements", rep.Details.Impact.Statements)

	_, err := io.WriteString(w, b.String())
	return err
}

type scoreRow struct {
	label string
	value float64
}

func scoreRows(rep analysis.Report) []scoreRow {
	return []scoreRow{
		{"Skills", rep.Scores.Skills},
		{"Formatting", rep.Scores.Formatting},
		{"Experience", rep.Scores.Experience},
		{"Education", rep.Scores.Education},
		{"Keywords", rep.Scores.Keywords},
		{"Impact", rep.Scores.Impact},
		{"Overall", rep.Scores.Overall},
	}
}

func writeList(b *strings.Builder, title string, items []any) {
	fmt.Fprintf(b, "\n%s:\n", title)
	if len(items) == 0 {
		b.WriteString("  (none)\n")
		return
	}
	for _, item := range items {
		fmt.Fprintf(b, "  - %s\n", formatValue(item))
	}
}

func formatScore(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.1f", v)
}

// formatValue renders free-form analyzer values on one line.
func formatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return "-"
	case string:
		return t
	case bool:
		if t {
			return "yes"
		}
		return "no"
	case float64:
		return formatScore(t)
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			parts = append(parts, formatValue(item))
		}
		return joinOrNone(parts)
	default:
		raw, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(raw)
	}
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "(none)"
	}
	return strings.Join(items, ", ")
}
