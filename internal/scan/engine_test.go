package scan

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dshills/sentinel/internal/providers"
)

// fakeAnalyzer scripts provider behavior per request.
type fakeAnalyzer struct {
	model     string
	calls     []providers.Request
	analyze   func(req providers.Request) providers.Outcome
	reachable bool
}

func (f *fakeAnalyzer) Analyze(_ context.Context, req providers.Request) providers.Outcome {
	f.calls = append(f.calls, req)
	return f.analyze(req)
}

func (f *fakeAnalyzer) TestConnection(_ context.Context) bool { return f.reachable }

func (f *fakeAnalyzer) Name() string { return "fake" }

func jsonFinding(severity string, line int) string {
	return fmt.Sprintf(`{"vulnerabilities": [{"type": "SQL Injection", "severity": %q, "line": %d, "description": "concatenated query", "confidence": 0.9}]}`, severity, line)
}

func successOutcome(model, response string) providers.Outcome {
	return providers.Outcome{
		Success:        true,
		Response:       response,
		Model:          model,
		ElapsedSeconds: 0.25,
	}
}

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestScanContent_Single(t *testing.T) {
	fake := &fakeAnalyzer{
		model: "codellama",
		analyze: func(providers.Request) providers.Outcome {
			return successOutcome("codellama", jsonFinding("critical", 7))
		},
	}
	engine := NewEngine(fake, "codellama", Options{PromptType: "standard", Chunking: true})

	result := engine.ScanContent(context.Background(), "app.py", "x = eval(user_input)\n")
	if !result.Success {
		t.Fatalf("unexpected failure: %s", result.Error)
	}
	if len(fake.calls) != 1 {
		t.Fatalf("small file should dispatch once, got %d calls", len(fake.calls))
	}
	if len(result.Vulnerabilities) != 1 || *result.Vulnerabilities[0].Line != 7 {
		t.Errorf("finding not carried through: %+v", result.Vulnerabilities)
	}
	if result.ModelUsed != "codellama" || result.ScanTime != 0.25 {
		t.Errorf("metadata wrong: %+v", result)
	}
	if !strings.Contains(fake.calls[0].Prompt, "app.py") {
		t.Error("prompt missing filename")
	}
}

func TestScanContent_TransportFailure(t *testing.T) {
	fake := &fakeAnalyzer{
		analyze: func(providers.Request) providers.Outcome {
			return providers.Outcome{Success: false, Err: "Request timed out", ElapsedSeconds: 30}
		},
	}
	engine := NewEngine(fake, "codellama", Options{})

	result := engine.ScanContent(context.Background(), "app.py", "x = 1\n")
	if result.Success {
		t.Error("transport failure must not succeed")
	}
	if result.Error != "Request timed out" {
		t.Errorf("Error = %q", result.Error)
	}
	if len(result.Vulnerabilities) != 0 {
		t.Errorf("no parsing should happen on transport failure: %v", result.Vulnerabilities)
	}
}

func TestScanContent_LegacyFallback(t *testing.T) {
	fake := &fakeAnalyzer{
		analyze: func(providers.Request) providers.Outcome {
			return successOutcome("codellama", "The code appears secure with no issues found.")
		},
	}
	engine := NewEngine(fake, "codellama", Options{})

	result := engine.ScanContent(context.Background(), "app.py", "x = 1\n")
	if !result.Success {
		t.Fatalf("legacy fallback should succeed: %s", result.Error)
	}
	if len(result.Vulnerabilities) != 0 {
		t.Errorf("clean prose should mean no findings: %v", result.Vulnerabilities)
	}
}

func TestScanContent_ChunkedRemapsLines(t *testing.T) {
	fake := &fakeAnalyzer{
		analyze: func(providers.Request) providers.Outcome {
			return successOutcome("codellama", jsonFinding("high", 3))
		},
	}
	engine := NewEngine(fake, "codellama", Options{Chunking: true})

	content := pythonSource(1200)
	chunks := engine.Chunker().ChunkCode(content, "big.py", "python")
	if len(chunks) < 2 {
		t.Fatal("fixture must exceed the chunk budget")
	}

	result := engine.ScanContent(context.Background(), "big.py", content)
	if !result.Success {
		t.Fatalf("unexpected failure: %s", result.Error)
	}
	if len(fake.calls) != len(chunks) {
		t.Fatalf("got %d dispatches, want one per chunk (%d)", len(fake.calls), len(chunks))
	}
	if len(result.Vulnerabilities) != len(chunks) {
		t.Fatalf("got %d findings, want %d", len(result.Vulnerabilities), len(chunks))
	}
	for i, v := range result.Vulnerabilities {
		want := 3 + chunks[i].StartLine - 1
		if v.Line == nil || *v.Line != want {
			t.Errorf("chunk %d finding line = %v, want %d", i, v.Line, want)
		}
	}
	if !strings.Contains(fake.calls[1].Filename, fmt.Sprintf("(chunk 2/%d)", len(chunks))) {
		t.Errorf("chunk filename = %q", fake.calls[1].Filename)
	}
}

func TestScanContent_ChunkFailureDropped(t *testing.T) {
	fake := &fakeAnalyzer{}
	fake.analyze = func(req providers.Request) providers.Outcome {
		if strings.Contains(req.Filename, "(chunk 1/") {
			return providers.Outcome{Success: false, Err: "Request failed: status 500"}
		}
		return successOutcome("codellama", jsonFinding("medium", 1))
	}
	engine := NewEngine(fake, "codellama", Options{Chunking: true})

	content := pythonSource(1200)
	chunks := engine.Chunker().ChunkCode(content, "big.py", "python")

	result := engine.ScanContent(context.Background(), "big.py", content)
	if !result.Success {
		t.Error("partial chunk failure must not fail the file")
	}
	if len(result.Vulnerabilities) != len(chunks)-1 {
		t.Errorf("got %d findings, want %d (failed chunk dropped)",
			len(result.Vulnerabilities), len(chunks)-1)
	}
}

func TestScanContent_ChunkingDisabled(t *testing.T) {
	fake := &fakeAnalyzer{
		analyze: func(providers.Request) providers.Outcome {
			return successOutcome("codellama", `{"vulnerabilities": []}`)
		},
	}
	engine := NewEngine(fake, "codellama", Options{Chunking: false})

	engine.ScanContent(context.Background(), "big.py", pythonSource(1200))
	if len(fake.calls) != 1 {
		t.Errorf("chunking disabled should mean one dispatch, got %d", len(fake.calls))
	}
}

func TestScanContent_RedactsSecrets(t *testing.T) {
	fake := &fakeAnalyzer{
		analyze: func(providers.Request) providers.Outcome {
			return successOutcome("codellama", `{"vulnerabilities": []}`)
		},
	}
	engine := NewEngine(fake, "codellama", Options{RedactSecrets: true})

	engine.ScanContent(context.Background(), "settings.py", `GROQ_API_KEY = "gsk_abcdefghijklmnopqrstuvwxyz"`)
	if len(fake.calls) != 1 {
		t.Fatal("expected one dispatch")
	}
	if strings.Contains(fake.calls[0].Prompt, "gsk_") {
		t.Error("secret leaked into the prompt")
	}
	if !strings.Contains(fake.calls[0].Prompt, "[REDACTED]") {
		t.Error("redaction placeholder missing from the prompt")
	}
}

func TestScanContent_RedactsByPath(t *testing.T) {
	fake := &fakeAnalyzer{
		analyze: func(providers.Request) providers.Outcome {
			return successOutcome("codellama", `{"vulnerabilities": []}`)
		},
	}
	engine := NewEngine(fake, "codellama", Options{
		RedactSecrets: true,
		RedactPaths:   []string{"**/*secrets*"},
	})

	engine.ScanContent(context.Background(), "config/secrets.py", "value = 1\n")
	if strings.Contains(fake.calls[0].Prompt, "value = 1") {
		t.Error("path-policy file content leaked into the prompt")
	}
}

func TestScanContent_RedactionDisabled(t *testing.T) {
	fake := &fakeAnalyzer{
		analyze: func(providers.Request) providers.Outcome {
			return successOutcome("codellama", `{"vulnerabilities": []}`)
		},
	}
	engine := NewEngine(fake, "codellama", Options{RedactSecrets: false})

	engine.ScanContent(context.Background(), "settings.py", `GROQ_API_KEY = "gsk_abcdefghijklmnopqrstuvwxyz"`)
	if !strings.Contains(fake.calls[0].Prompt, "gsk_abcdefghijklmnopqrstuvwxyz") {
		t.Error("disabled redaction must pass content through untouched")
	}
}

func TestScanFile_ReadFailure(t *testing.T) {
	fake := &fakeAnalyzer{
		analyze: func(providers.Request) providers.Outcome {
			t.Error("unreadable file must not reach the provider")
			return providers.Outcome{}
		},
	}
	engine := NewEngine(fake, "codellama", Options{})

	result := engine.ScanFile(context.Background(), filepath.Join(t.TempDir(), "missing.py"))
	if result.Success {
		t.Error("expected failure")
	}
	if !strings.HasPrefix(result.Error, "Failed to read file:") {
		t.Errorf("Error = %q", result.Error)
	}
}

type fakeCache struct {
	entries map[string]ScanResult
	puts    int
}

func (c *fakeCache) key(filePath, model, promptType string) string {
	return filePath + "|" + model + "|" + promptType
}

func (c *fakeCache) Get(filePath, model, promptType string) (ScanResult, bool) {
	r, ok := c.entries[c.key(filePath, model, promptType)]
	return r, ok
}

func (c *fakeCache) Put(filePath, model, promptType string, result ScanResult) error {
	c.puts++
	c.entries[c.key(filePath, model, promptType)] = result
	return nil
}

func TestScanFile_CacheRoundTrip(t *testing.T) {
	fake := &fakeAnalyzer{
		analyze: func(providers.Request) providers.Outcome {
			return successOutcome("codellama", jsonFinding("low", 2))
		},
	}
	cache := &fakeCache{entries: map[string]ScanResult{}}
	engine := NewEngine(fake, "codellama", Options{PromptType: "standard", Cache: cache})

	path := writeTempFile(t, "app.py", "x = 1\n")

	first := engine.ScanFile(context.Background(), path)
	if !first.Success || cache.puts != 1 {
		t.Fatalf("first scan should populate the cache: %+v puts=%d", first, cache.puts)
	}

	second := engine.ScanFile(context.Background(), path)
	if len(fake.calls) != 1 {
		t.Errorf("second scan should hit the cache, got %d dispatches", len(fake.calls))
	}
	if len(second.Vulnerabilities) != 1 {
		t.Errorf("cached result not returned: %+v", second)
	}
	if cache.puts != 1 {
		t.Errorf("cache hit must not re-Put, puts = %d", cache.puts)
	}
}

func TestScanPath(t *testing.T) {
	fake := &fakeAnalyzer{
		analyze: func(providers.Request) providers.Outcome {
			return successOutcome("codellama", `{"vulnerabilities": []}`)
		},
	}
	engine := NewEngine(fake, "codellama", Options{})

	dir := t.TempDir()
	for _, name := range []string{"a.py", "b.go", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x = 1\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	results, err := engine.ScanPath(context.Background(), dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2 supported files", len(results))
	}
	for _, r := range results {
		if !r.Success {
			t.Errorf("scan of %s failed: %s", r.FilePath, r.Error)
		}
	}
}
