package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dshills/sentinel/internal/scan"
)

// TextWriter outputs a styled human-readable report.
type TextWriter struct{}

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	fileStyle      = lipgloss.NewStyle().Bold(true)
	dimStyle       = lipgloss.NewStyle().Faint(true)
	failStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	okStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	severityColors = map[scan.Severity]lipgloss.Style{
		scan.SeverityCritical: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
		scan.SeverityHigh:     lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
		scan.SeverityMedium:   lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		scan.SeverityLow:      lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
		scan.SeverityInfo:     lipgloss.NewStyle().Faint(true),
	}
)

func severityLabel(s scan.Severity) string {
	style, ok := severityColors[s]
	if !ok {
		return strings.ToUpper(string(s))
	}
	return style.Render(strings.ToUpper(string(s)))
}

func (t *TextWriter) Write(w io.Writer, results []scan.ScanResult) error {
	ew := &errWriter{w: w}

	summary := summarize(results)

	ew.println(titleStyle.Render("Sentinel Security Scan"))
	ew.println(strings.Repeat("─", 60))
	ew.printf("Files: %d scanned, %d failed\n", summary.Scanned, summary.Failed)
	ew.printf("Findings: %d total", summary.TotalFindings)
	if summary.TotalFindings > 0 {
		var parts []string
		for _, sev := range []scan.Severity{
			scan.SeverityCritical, scan.SeverityHigh, scan.SeverityMedium,
			scan.SeverityLow, scan.SeverityInfo,
		} {
			if n := summary.BySeverity[sev]; n > 0 {
				parts = append(parts, fmt.Sprintf("%d %s", n, sev))
			}
		}
		ew.printf(" (%s)", strings.Join(parts, ", "))
	}
	ew.println("")
	ew.printf("Scan time: %.2fs\n", summary.TotalSeconds)
	ew.println(strings.Repeat("─", 60))

	if summary.TotalFindings == 0 && summary.Failed == 0 {
		ew.println(okStyle.Render("\nNo issues found. Looks good!"))
		return ew.err
	}

	for _, r := range results {
		if !r.Success {
			ew.printf("\n%s %s\n", failStyle.Render("✗"), fileStyle.Render(r.FilePath))
			ew.printf("  %s\n", failStyle.Render(r.Error))
			continue
		}
		if len(r.Vulnerabilities) == 0 {
			continue
		}

		ew.printf("\n%s %s\n", dimStyle.Render("▶"), fileStyle.Render(r.FilePath))
		ew.printf("  %s\n", dimStyle.Render(fmt.Sprintf("model: %s, %.2fs", r.ModelUsed, r.ScanTime)))

		vulns := make([]scan.Vulnerability, len(r.Vulnerabilities))
		copy(vulns, r.Vulnerabilities)
		scan.SortBySeverity(vulns)

		for _, v := range vulns {
			loc := ""
			if v.Line != nil {
				loc = fmt.Sprintf(" (line %d)", *v.Line)
			}
			ew.printf("  [%s] %s%s\n", severityLabel(v.Severity), v.Type, loc)
			if v.Description != "" {
				ew.printf("      %s\n", v.Description)
			}
			if v.CodeSnippet != "" {
				ew.printf("      %s\n", dimStyle.Render(v.CodeSnippet))
			}
			if v.Recommendation != "" {
				ew.printf("      Fix: %s\n", v.Recommendation)
			}
			if v.CWEID != "" {
				ew.printf("      %s\n", dimStyle.Render(v.CWEID))
			}
		}
	}

	return ew.err
}
