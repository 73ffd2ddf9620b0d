package scan

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/dshills/sentinel/internal/discover"
	"github.com/dshills/sentinel/internal/logging"
	"github.com/dshills/sentinel/internal/providers"
	"github.com/dshills/sentinel/internal/redact"
)

// ResultCache sits in front of the per-file model dispatch. Implemented by
// the cache package; nil disables caching.
type ResultCache interface {
	Get(filePath, model, promptType string) (ScanResult, bool)
	Put(filePath, model, promptType string, result ScanResult) error
}

// Engine orchestrates file scans: it decides single-shot vs chunked
// dispatch, runs the two-stage parse, and aggregates per-file results.
// One Engine value is scoped to a single invocation; no state crosses runs.
type Engine struct {
	client        providers.Analyzer
	chunker       *Chunker
	walker        *discover.Walker
	cache         ResultCache
	promptType    string
	template      string
	chunking      bool
	redactSecrets bool
	redactPaths   []string
}

// Options configures an Engine.
type Options struct {
	PromptType    string
	MaxChunkLines int
	Chunking      bool
	Cache         ResultCache
	Walker        *discover.Walker
	RedactSecrets bool
	RedactPaths   []string
}

// NewEngine creates an Engine for the given client and model.
func NewEngine(client providers.Analyzer, model string, opts Options) *Engine {
	walker := opts.Walker
	if walker == nil {
		walker = discover.NewWalker(nil, nil)
	}
	return &Engine{
		client:        client,
		chunker:       NewChunkerWithLines(model, opts.MaxChunkLines),
		walker:        walker,
		cache:         opts.Cache,
		promptType:    opts.PromptType,
		template:      GetPrompt(opts.PromptType),
		chunking:      opts.Chunking,
		redactSecrets: opts.RedactSecrets,
		redactPaths:   opts.RedactPaths,
	}
}

// Chunker exposes the engine's chunker for token statistics.
func (e *Engine) Chunker() *Chunker { return e.chunker }

// ScanFile reads and scans one file, consulting the cache before and
// updating it after any model dispatch. A read failure yields a failed
// result; the scan run carries on.
func (e *Engine) ScanFile(ctx context.Context, path string) ScanResult {
	if e.cache != nil {
		if cached, ok := e.cache.Get(path, e.chunker.ModelName, e.promptType); ok {
			logging.Logger.Debugf("cache hit for %s", path)
			return cached
		}
	}

	content, err := discover.ReadFile(path)
	if err != nil {
		return ScanResult{
			FilePath: path,
			Success:  false,
			Error:    fmt.Sprintf("Failed to read file: %v", err),
		}
	}

	result := e.ScanContent(ctx, path, content)

	if e.cache != nil {
		if err := e.cache.Put(path, e.chunker.ModelName, e.promptType, result); err != nil {
			logging.Logger.Warnf("failed to cache result for %s: %v", path, err)
		}
	}
	return result
}

// ScanContent scans already-read content, choosing the chunked path when
// chunking is enabled and the content exceeds the model's budget. With
// redaction enabled, secrets are scrubbed before any text leaves the
// process.
func (e *Engine) ScanContent(ctx context.Context, path, content string) ScanResult {
	if e.redactSecrets {
		content = redact.Content(content, path, e.redactPaths)
	}
	if e.chunking && e.chunker.NeedsChunking(content) {
		return e.scanChunked(ctx, path, content)
	}
	return e.scanSingle(ctx, path, content)
}

// scanSingle formats one prompt over the whole file and runs the two-stage
// parse. Transport failures short-circuit; parsing is never attempted on a
// failed transport.
func (e *Engine) scanSingle(ctx context.Context, path, content string) ScanResult {
	filename := filepath.Base(path)
	prompt := FormatPrompt(e.template, filename, content)

	out := e.client.Analyze(ctx, providers.Request{
		Code:     content,
		Filename: filename,
		Prompt:   prompt,
	})
	if !out.Success {
		return ScanResult{
			FilePath:  path,
			ModelUsed: out.Model,
			ScanTime:  out.ElapsedSeconds,
			Success:   false,
			Error:     out.Err,
		}
	}

	result := ParseResponse(out.Response, path, out.Model, out.ElapsedSeconds)
	if !result.Success {
		result = ParseLegacyResponse(out.Response, path, out.Model, out.ElapsedSeconds)
	}
	return result
}

// scanChunked dispatches each chunk independently and merges remapped
// findings. Chunk-level failures are dropped from the aggregate (logged),
// favoring partial results over total failure.
func (e *Engine) scanChunked(ctx context.Context, path, content string) ScanResult {
	language := LanguageFromPath(path)
	chunks := e.chunker.ChunkCode(content, path, language)

	merged := ScanResult{
		FilePath:  path,
		ModelUsed: e.chunker.ModelName,
		Success:   true,
	}

	for _, chunk := range chunks {
		contextText := e.chunker.BuildContext(chunk)
		filename := fmt.Sprintf("%s (chunk %d/%d)",
			filepath.Base(path), chunk.ChunkIndex+1, chunk.TotalChunks)
		prompt := FormatPrompt(e.template, filename, contextText)

		out := e.client.Analyze(ctx, providers.Request{
			Code:     contextText,
			Filename: filename,
			Prompt:   prompt,
		})
		merged.ScanTime += out.ElapsedSeconds
		if out.Model != "" {
			merged.ModelUsed = out.Model
		}

		if !out.Success {
			logging.Logger.Warnf("chunk %d/%d of %s failed: %s",
				chunk.ChunkIndex+1, chunk.TotalChunks, path, out.Err)
			continue
		}

		res := ParseResponse(out.Response, path, out.Model, out.ElapsedSeconds)
		if !res.Success {
			logging.Logger.Warnf("dropping unparseable chunk %d/%d of %s",
				chunk.ChunkIndex+1, chunk.TotalChunks, path)
			continue
		}

		// Remap chunk-relative line numbers to file-relative.
		for _, v := range res.Vulnerabilities {
			if v.Line != nil {
				line := *v.Line + chunk.StartLine - 1
				v.Line = &line
			}
			merged.Vulnerabilities = append(merged.Vulnerabilities, v)
		}
	}

	return merged
}

// ScanPath scans every discoverable file under root sequentially, one
// result per file in discovery order. A single file's failure never aborts
// the run.
func (e *Engine) ScanPath(ctx context.Context, root string) ([]ScanResult, error) {
	files, err := e.walker.Discover(root)
	if err != nil {
		return nil, fmt.Errorf("discovering files: %w", err)
	}

	results := make([]ScanResult, 0, len(files))
	for _, file := range files {
		logging.Logger.Debugf("scanning %s", file)
		results = append(results, e.ScanFile(ctx, file))
	}
	return results, nil
}
