package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/sentinel/internal/scan"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := New(true, filepath.Join(t.TempDir(), "cache"))
	require.NoError(t, err)
	return c
}

func writeSource(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app.py")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func sampleResult(path string) scan.ScanResult {
	line := 3
	return scan.ScanResult{
		FilePath:  path,
		ModelUsed: "codellama",
		ScanTime:  2.5,
		Success:   true,
		Vulnerabilities: []scan.Vulnerability{
			{Type: "SQL Injection", Severity: scan.SeverityHigh, Line: &line, Confidence: 0.9},
		},
	}
}

func TestCacheRoundTrip(t *testing.T) {
	c := newTestCache(t)
	path := writeSource(t, "x = 1\n")

	_, ok := c.Get(path, "codellama", "standard")
	assert.False(t, ok, "empty cache should miss")

	require.NoError(t, c.Put(path, "codellama", "standard", sampleResult(path)))

	got, ok := c.Get(path, "codellama", "standard")
	require.True(t, ok)
	assert.Equal(t, "codellama", got.ModelUsed)
	require.Len(t, got.Vulnerabilities, 1)
	assert.Equal(t, scan.SeverityHigh, got.Vulnerabilities[0].Severity)
}

func TestCacheInvalidatesOnContentChange(t *testing.T) {
	c := newTestCache(t)
	path := writeSource(t, "x = 1\n")
	require.NoError(t, c.Put(path, "codellama", "standard", sampleResult(path)))

	require.NoError(t, os.WriteFile(path, []byte("x = 2\n"), 0o644))

	_, ok := c.Get(path, "codellama", "standard")
	assert.False(t, ok, "changed content must miss")
}

func TestCacheKeyIncludesModelAndPrompt(t *testing.T) {
	c := newTestCache(t)
	path := writeSource(t, "x = 1\n")
	require.NoError(t, c.Put(path, "codellama", "standard", sampleResult(path)))

	_, ok := c.Get(path, "mistral", "standard")
	assert.False(t, ok, "different model must miss")

	_, ok = c.Get(path, "codellama", "detailed")
	assert.False(t, ok, "different prompt type must miss")
}

func TestCacheSurvivesMemoryLayer(t *testing.T) {
	c := newTestCache(t)
	path := writeSource(t, "x = 1\n")
	require.NoError(t, c.Put(path, "codellama", "standard", sampleResult(path)))

	// A fresh Cache over the same directory simulates a new process.
	reopened, err := New(true, c.Dir())
	require.NoError(t, err)
	got, ok := reopened.Get(path, "codellama", "standard")
	require.True(t, ok)
	assert.Equal(t, path, got.FilePath)
}

func TestInvalidateFile(t *testing.T) {
	c := newTestCache(t)
	path := writeSource(t, "x = 1\n")
	other := writeSource(t, "y = 2\n")
	require.NoError(t, c.Put(path, "codellama", "standard", sampleResult(path)))
	require.NoError(t, c.Put(other, "codellama", "standard", sampleResult(other)))

	require.NoError(t, c.InvalidateFile(path))

	_, ok := c.Get(path, "codellama", "standard")
	assert.False(t, ok)
	_, ok = c.Get(other, "codellama", "standard")
	assert.True(t, ok, "other files keep their entries")
}

func TestClearAndStats(t *testing.T) {
	c := newTestCache(t)
	path := writeSource(t, "x = 1\n")
	other := writeSource(t, "y = 2\n")
	require.NoError(t, c.Put(path, "codellama", "standard", sampleResult(path)))
	require.NoError(t, c.Put(other, "mistral", "standard", sampleResult(other)))

	stats, err := c.GetStats()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Entries)
	assert.Equal(t, 1, stats.ByModel["codellama"])
	assert.Equal(t, 1, stats.ByModel["mistral"])
	assert.InDelta(t, 5.0, stats.TimeSavedSec, 0.001)
	assert.Positive(t, stats.TotalBytes)

	require.NoError(t, c.Clear())
	stats, err = c.GetStats()
	require.NoError(t, err)
	assert.Zero(t, stats.Entries)
}

func TestDisabledCacheIsInert(t *testing.T) {
	c, err := New(false, "")
	require.NoError(t, err)
	assert.False(t, c.Enabled())

	path := writeSource(t, "x = 1\n")
	require.NoError(t, c.Put(path, "codellama", "standard", sampleResult(path)))
	_, ok := c.Get(path, "codellama", "standard")
	assert.False(t, ok)
	require.NoError(t, c.Clear())
}

func TestFileHash(t *testing.T) {
	path := writeSource(t, "x = 1\n")
	h1, err := FileHash(path)
	require.NoError(t, err)
	assert.Len(t, h1, 64)

	h2, err := FileHash(path)
	require.NoError(t, err)
	assert.Equal(t, h1, h2, "hash must be deterministic")

	require.NoError(t, os.WriteFile(path, []byte("x = 2\n"), 0o644))
	h3, err := FileHash(path)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h3)
}
