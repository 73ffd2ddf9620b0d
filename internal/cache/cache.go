package cache

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dshills/sentinel/internal/scan"
)

const (
	// DefaultDir is the cache directory relative to the working tree.
	DefaultDir = ".sentinel-cache"
	// memEntries bounds the in-memory LRU layer in front of disk.
	memEntries = 256
)

// Entry is one cached scan result. FileHash invalidates the entry whenever
// the file content changes.
type Entry struct {
	FilePath   string          `json:"file_path"`
	FileHash   string          `json:"file_hash"`
	Model      string          `json:"model"`
	PromptType string          `json:"prompt_type"`
	ScannedAt  time.Time       `json:"scanned_at"`
	Result     scan.ScanResult `json:"result"`
}

// Cache stores scan results on disk, keyed by file path, content hash,
// model, and prompt type, with an LRU memory layer for repeat lookups.
type Cache struct {
	dir     string
	enabled bool
	mem     *lru.Cache[string, scan.ScanResult]
}

// New creates a Cache rooted at dir (DefaultDir when empty).
func New(enabled bool, dir string) (*Cache, error) {
	if !enabled {
		return &Cache{enabled: false}, nil
	}
	if dir == "" {
		dir = DefaultDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	mem, err := lru.New[string, scan.ScanResult](memEntries)
	if err != nil {
		return nil, fmt.Errorf("creating memory cache: %w", err)
	}
	return &Cache{dir: dir, enabled: true, mem: mem}, nil
}

// Enabled returns whether caching is active.
func (c *Cache) Enabled() bool { return c.enabled }

// Dir returns the cache directory path.
func (c *Cache) Dir() string { return c.dir }

// FileHash returns the sha256 hex digest of a file's content.
func FileHash(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%x", sum), nil
}

// Get retrieves a cached result for the file if its content hash still
// matches. Returns false on any miss or stale entry.
func (c *Cache) Get(filePath, model, promptType string) (scan.ScanResult, bool) {
	if !c.enabled {
		return scan.ScanResult{}, false
	}
	hash, err := FileHash(filePath)
	if err != nil {
		return scan.ScanResult{}, false
	}

	memKey := hashKey(filePath, hash, model, promptType)
	if result, ok := c.mem.Get(memKey); ok {
		return result, true
	}

	data, err := os.ReadFile(c.entryPath(filePath, model, promptType))
	if err != nil {
		return scan.ScanResult{}, false
	}
	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return scan.ScanResult{}, false
	}
	if entry.FileHash != hash {
		// File changed since the entry was written; it will be replaced on
		// the next Put.
		return scan.ScanResult{}, false
	}

	c.mem.Add(memKey, entry.Result)
	return entry.Result, true
}

// Put stores a result for the file's current content.
func (c *Cache) Put(filePath, model, promptType string, result scan.ScanResult) error {
	if !c.enabled {
		return nil
	}
	hash, err := FileHash(filePath)
	if err != nil {
		return err
	}

	entry := Entry{
		FilePath:   filePath,
		FileHash:   hash,
		Model:      model,
		PromptType: promptType,
		ScannedAt:  time.Now(),
		Result:     result,
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshaling cache entry: %w", err)
	}
	if err := os.WriteFile(c.entryPath(filePath, model, promptType), data, 0o644); err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}

	c.mem.Add(hashKey(filePath, hash, model, promptType), result)
	return nil
}

// InvalidateFile removes all cached entries for a file.
func (c *Cache) InvalidateFile(filePath string) error {
	if !c.enabled {
		return nil
	}
	c.mem.Purge()
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading cache directory: %w", err)
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) != ".json" {
			continue
		}
		path := filepath.Join(c.dir, e.Name())
		var entry Entry
		data, err := os.ReadFile(path)
		if err != nil || json.Unmarshal(data, &entry) != nil {
			continue
		}
		if entry.FilePath == filePath {
			os.Remove(path)
		}
	}
	return nil
}

// Clear removes all cache entries.
func (c *Cache) Clear() error {
	if !c.enabled || c.dir == "" {
		return nil
	}
	c.mem.Purge()
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading cache directory: %w", err)
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".json" {
			os.Remove(filepath.Join(c.dir, e.Name()))
		}
	}
	return nil
}

// Stats summarizes cache usage.
type Stats struct {
	Entries      int            `json:"total_entries"`
	ByModel      map[string]int `json:"by_model"`
	TimeSavedSec float64        `json:"total_time_saved"`
	TotalBytes   int64          `json:"cache_size_bytes"`
}

// GetStats walks the cache directory and aggregates usage information.
func (c *Cache) GetStats() (Stats, error) {
	stats := Stats{ByModel: make(map[string]int)}
	if !c.enabled || c.dir == "" {
		return stats, nil
	}
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return stats, nil
		}
		return stats, fmt.Errorf("reading cache directory: %w", err)
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) != ".json" {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		path := filepath.Join(c.dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var entry Entry
		if err := json.Unmarshal(data, &entry); err != nil {
			continue
		}
		stats.Entries++
		stats.TotalBytes += info.Size()
		stats.ByModel[entry.Model]++
		stats.TimeSavedSec += entry.Result.ScanTime
	}
	return stats, nil
}

func hashKey(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}

// entryPath derives the on-disk name from the stable part of the key so a
// changed file overwrites its stale entry instead of accumulating.
func (c *Cache) entryPath(filePath, model, promptType string) string {
	return filepath.Join(c.dir, hashKey(filePath, model, promptType)+".json")
}
