package scan

import (
	"encoding/json"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/dshills/sentinel/internal/logging"
)

var (
	// fencedJSONRe matches a JSON object inside a markdown code fence,
	// optionally tagged "json".
	fencedJSONRe = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")
	// rawJSONRe matches a raw JSON-looking span mentioning "vulnerabilities".
	// Greedy and not brace-balanced: it can over- or under-capture when the
	// response holds multiple JSON-like fragments. Best-effort by design;
	// the fenced-block match is always attempted first.
	rawJSONRe = regexp.MustCompile(`(?s)\{.*"vulnerabilities".*\}`)
)

// ExtractJSON pulls a JSON object out of noisy model text: a fenced code
// block first, then a raw span containing "vulnerabilities", then the whole
// trimmed text. Returns nil when no candidate decodes.
func ExtractJSON(text string) map[string]any {
	var candidate string
	if m := fencedJSONRe.FindStringSubmatch(text); m != nil {
		candidate = m[1]
	} else if m := rawJSONRe.FindString(text); m != "" {
		candidate = m
	} else {
		candidate = strings.TrimSpace(text)
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(candidate), &data); err != nil {
		logging.Logger.Debugf("failed to parse JSON from model response: %v (text was: %s)", err, truncate(text, 200))
		return nil
	}
	return data
}

// truncate shortens s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// ParseVulnerabilities reads the "vulnerabilities" array from decoded JSON.
// Malformed entries are skipped with a warning; one bad entry never aborts
// the rest of the payload.
func ParseVulnerabilities(data map[string]any) []Vulnerability {
	items, _ := data["vulnerabilities"].([]any)

	vulns := make([]Vulnerability, 0, len(items))
	for _, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			logging.Logger.Warnf("skipping non-object vulnerability entry: %v", item)
			continue
		}
		v, err := vulnerabilityFromMap(entry)
		if err != nil {
			logging.Logger.Warnf("skipping malformed vulnerability: %v (data: %v)", err, entry)
			continue
		}
		vulns = append(vulns, v)
	}
	return vulns
}

func vulnerabilityFromMap(m map[string]any) (Vulnerability, error) {
	sev, err := ParseSeverity(stringField(m, "severity", "medium"))
	if err != nil {
		return Vulnerability{}, err
	}

	v := Vulnerability{
		Type:           stringField(m, "type", "Unknown"),
		Severity:       sev,
		CodeSnippet:    stringField(m, "code_snippet", ""),
		Description:    stringField(m, "description", ""),
		Recommendation: stringField(m, "recommendation", ""),
		CWEID:          stringField(m, "cwe_id", ""),
		Confidence:     1.0,
	}

	if n, ok := m["line"].(float64); ok && n > 0 {
		line := int(n)
		v.Line = &line
	}
	if c, ok := m["confidence"].(float64); ok {
		v.Confidence = ClampConfidence(c)
	}

	return v, nil
}

// stringField returns the string value at key, or def when the key is
// absent or not a string. A present-but-empty string is kept as-is.
func stringField(m map[string]any, key, def string) string {
	if s, ok := m[key].(string); ok {
		return s
	}
	return def
}

// ParseResponse converts one raw model response into a ScanResult. A failed
// extraction marks the result failed; the orchestrator uses that signal to
// trigger the legacy fallback.
func ParseResponse(text, filePath, modelUsed string, scanTime float64) ScanResult {
	result := ScanResult{
		FilePath:  filePath,
		ModelUsed: modelUsed,
		ScanTime:  scanTime,
	}

	data := ExtractJSON(text)
	if data == nil {
		result.Success = false
		result.Error = "Failed to extract JSON from AI response"
		return result
	}

	result.Vulnerabilities = ParseVulnerabilities(data)
	result.Success = true
	return result
}

// noIssuePhrases indicate a clean result in unstructured responses.
var noIssuePhrases = []string{
	"no vulnerabilities",
	"appears secure",
	"no security issues",
	"no issues found",
	"code is secure",
}

// severityKeywords trigger the generic fallback finding.
var severityKeywords = []string{"critical", "high", "medium", "low"}

// ParseLegacyResponse extracts what it can from a non-JSON response. A bare
// severity keyword anywhere in the text yields a single low-confidence
// placeholder finding meaning "something was flagged, inspect manually".
// The scan itself is always treated as successful in this path: the file was
// analyzed, only the parse fidelity degraded.
func ParseLegacyResponse(text, filePath, modelUsed string, scanTime float64) ScanResult {
	result := ScanResult{
		FilePath:  filePath,
		ModelUsed: modelUsed,
		ScanTime:  scanTime,
		Success:   true,
	}

	lower := strings.ToLower(text)
	for _, phrase := range noIssuePhrases {
		if strings.Contains(lower, phrase) {
			return result
		}
	}

	for _, kw := range severityKeywords {
		if strings.Contains(lower, kw) {
			result.Vulnerabilities = append(result.Vulnerabilities, Vulnerability{
				Type:           "Security Issue",
				Severity:       SeverityMedium,
				Description:    truncate(text, 500),
				Recommendation: "Review AI analysis for details",
				Confidence:     0.5,
			})
			break
		}
	}

	return result
}
