package output

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/dshills/sentinel/internal/scan"
)

// HTMLWriter outputs a standalone styled document.
type HTMLWriter struct{}

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Sentinel Security Report</title>
<style>
body { font-family: -apple-system, "Segoe UI", sans-serif; margin: 2rem auto; max-width: 60rem; color: #1f2430; }
h1 { border-bottom: 2px solid #1f2430; padding-bottom: .3rem; }
.summary { display: flex; gap: 2rem; margin: 1rem 0; }
.file { margin: 1.5rem 0; }
.file h2 { font-size: 1rem; margin-bottom: .2rem; }
.meta { color: #777; font-size: .85rem; }
.finding { border-left: 4px solid #ccc; padding: .5rem 1rem; margin: .5rem 0; }
.finding pre { background: #f4f4f4; padding: .4rem; overflow-x: auto; }
.badge { display: inline-block; padding: .1rem .5rem; border-radius: .3rem; color: #fff; font-size: .8rem; text-transform: uppercase; }
.critical { background: #c0392b; } .high { background: #e67e22; }
.medium { background: #b8a000; } .low { background: #2980b9; } .info { background: #7f8c8d; }
.error { color: #c0392b; }
</style>
</head>
<body>
<h1>Sentinel Security Report</h1>
<p class="meta">Generated {{.GeneratedAt.Format "2006-01-02 15:04:05 MST"}}</p>
<div class="summary">
<div><strong>{{.Summary.TotalFiles}}</strong> files</div>
<div><strong>{{.Summary.TotalFindings}}</strong> findings</div>
<div><strong>{{.Summary.Failed}}</strong> failed</div>
<div><strong>{{printf "%.2f" .Summary.TotalSeconds}}s</strong> scan time</div>
</div>
{{range .Results}}
<div class="file">
<h2>{{.FilePath}}</h2>
{{if not .Success}}
<p class="error">{{.Error}}</p>
{{else}}
<p class="meta">model: {{.ModelUsed}}, {{printf "%.2f" .ScanTime}}s, {{len .Vulnerabilities}} finding(s)</p>
{{range .Vulnerabilities}}
<div class="finding">
<span class="badge {{.Severity}}">{{.Severity}}</span>
<strong>{{.Type}}</strong>
{{if .Line}} at line {{.Line}}{{end}}
{{if .CWEID}} <span class="meta">({{.CWEID}})</span>{{end}}
<p>{{.Description}}</p>
{{if .CodeSnippet}}<pre>{{.CodeSnippet}}</pre>{{end}}
{{if .Recommendation}}<p><em>Fix:</em> {{.Recommendation}}</p>{{end}}
</div>
{{end}}
{{end}}
</div>
{{end}}
</body>
</html>
`

type htmlData struct {
	GeneratedAt time.Time
	Summary     jsonSummary
	Results     []scan.ScanResult
}

func (h *HTMLWriter) Write(w io.Writer, results []scan.ScanResult) error {
	tmpl, err := template.New("report").Parse(htmlTemplate)
	if err != nil {
		return fmt.Errorf("parsing HTML template: %w", err)
	}
	data := htmlData{
		GeneratedAt: time.Now(),
		Summary:     summarize(results),
		Results:     results,
	}
	if err := tmpl.Execute(w, data); err != nil {
		return fmt.Errorf("rendering HTML report: %w", err)
	}
	return nil
}
