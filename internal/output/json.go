package output

import (
	"encoding/json"
	"io"
	"time"

	"github.com/dshills/sentinel/internal/scan"
)

// JSONWriter outputs the full-fidelity machine-readable report.
type JSONWriter struct{}

type jsonSummary struct {
	TotalFiles    int                   `json:"total_files"`
	Scanned       int                   `json:"scanned"`
	Failed        int                   `json:"failed"`
	TotalFindings int                   `json:"total_findings"`
	BySeverity    map[scan.Severity]int `json:"by_severity"`
	TotalSeconds  float64               `json:"total_scan_time"`
}

type jsonResult struct {
	scan.ScanResult
	Statistics scan.Statistics `json:"statistics"`
}

type jsonReport struct {
	Tool        string       `json:"tool"`
	GeneratedAt time.Time    `json:"generated_at"`
	Summary     jsonSummary  `json:"summary"`
	Results     []jsonResult `json:"results"`
}

func (j *JSONWriter) Write(w io.Writer, results []scan.ScanResult) error {
	report := jsonReport{
		Tool:        "sentinel",
		GeneratedAt: time.Now().UTC(),
		Summary:     summarize(results),
		Results:     make([]jsonResult, 0, len(results)),
	}
	for _, r := range results {
		report.Results = append(report.Results, jsonResult{ScanResult: r, Statistics: r.Stats()})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func summarize(results []scan.ScanResult) jsonSummary {
	s := jsonSummary{
		TotalFiles: len(results),
		BySeverity: make(map[scan.Severity]int),
	}
	for _, r := range results {
		if r.Success {
			s.Scanned++
		} else {
			s.Failed++
		}
		s.TotalSeconds += r.ScanTime
		s.TotalFindings += len(r.Vulnerabilities)
		for _, v := range r.Vulnerabilities {
			s.BySeverity[v.Severity]++
		}
	}
	return s
}
