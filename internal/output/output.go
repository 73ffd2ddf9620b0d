package output

import (
	"fmt"
	"io"

	"github.com/dshills/sentinel/internal/scan"
)

// Writer renders a list of per-file scan results in a specific format.
type Writer interface {
	Write(w io.Writer, results []scan.ScanResult) error
}

// New returns a writer for the given format name.
func New(format string) (Writer, error) {
	switch format {
	case "json":
		return &JSONWriter{}, nil
	case "text", "":
		return &TextWriter{}, nil
	case "html":
		return &HTMLWriter{}, nil
	default:
		return nil, fmt.Errorf("unknown output format: %s", format)
	}
}

// errWriter wraps an io.Writer and remembers the first error.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}

func (e *errWriter) println(s string) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintln(e.w, s)
}
