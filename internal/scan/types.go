package scan

import (
	"fmt"
	"sort"
)

// Severity represents the severity level of a vulnerability.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

// SeverityRank returns a numeric rank for sorting (higher = more severe).
func SeverityRank(s Severity) int {
	switch s {
	case SeverityCritical:
		return 5
	case SeverityHigh:
		return 4
	case SeverityMedium:
		return 3
	case SeverityLow:
		return 2
	case SeverityInfo:
		return 1
	default:
		return 0
	}
}

// ParseSeverity converts a severity literal into a Severity.
// Unknown literals are an error rather than a silent default.
func ParseSeverity(s string) (Severity, error) {
	switch Severity(s) {
	case SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow, SeverityInfo:
		return Severity(s), nil
	default:
		return "", fmt.Errorf("unknown severity %q", s)
	}
}

// MeetsThreshold returns true if severity is at or above the threshold.
func MeetsThreshold(s Severity, threshold string) bool {
	if threshold == "none" || threshold == "" {
		return false
	}
	return SeverityRank(s) >= SeverityRank(Severity(threshold))
}

// Vulnerability is a single security finding reported by the model.
type Vulnerability struct {
	Type           string   `json:"type"`
	Severity       Severity `json:"severity"`
	Line           *int     `json:"line"`
	CodeSnippet    string   `json:"code_snippet"`
	Description    string   `json:"description"`
	Recommendation string   `json:"recommendation"`
	CWEID          string   `json:"cwe_id,omitempty"`
	Confidence     float64  `json:"confidence"`
}

// ClampConfidence bounds a confidence value into [0, 1].
func ClampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

// ScanResult is the per-file aggregate of one scan.
type ScanResult struct {
	FilePath        string          `json:"file_path"`
	Vulnerabilities []Vulnerability `json:"vulnerabilities"`
	ScanTime        float64         `json:"scan_time"`
	ModelUsed       string          `json:"model_used"`
	Success         bool            `json:"success"`
	Error           string          `json:"error,omitempty"`
}

// BySeverity returns the vulnerabilities at the given severity level.
func (r *ScanResult) BySeverity(s Severity) []Vulnerability {
	var out []Vulnerability
	for _, v := range r.Vulnerabilities {
		if v.Severity == s {
			out = append(out, v)
		}
	}
	return out
}

// Statistics summarizes the findings of one result.
type Statistics struct {
	Total      int              `json:"total"`
	BySeverity map[Severity]int `json:"by_severity"`
	ByType     map[string]int   `json:"by_type"`
}

// Stats computes finding counts by severity and type.
func (r *ScanResult) Stats() Statistics {
	stats := Statistics{
		Total:      len(r.Vulnerabilities),
		BySeverity: make(map[Severity]int),
		ByType:     make(map[string]int),
	}
	for _, v := range r.Vulnerabilities {
		stats.BySeverity[v.Severity]++
		stats.ByType[v.Type]++
	}
	return stats
}

// SortBySeverity orders findings most severe first, preserving insertion
// order within a severity level.
func SortBySeverity(vulns []Vulnerability) {
	sort.SliceStable(vulns, func(i, j int) bool {
		return SeverityRank(vulns[i].Severity) > SeverityRank(vulns[j].Severity)
	})
}

// HasAtOrAbove reports whether any result carries a finding at or above the
// severity threshold.
func HasAtOrAbove(results []ScanResult, threshold string) bool {
	for _, r := range results {
		for _, v := range r.Vulnerabilities {
			if MeetsThreshold(v.Severity, threshold) {
				return true
			}
		}
	}
	return false
}
