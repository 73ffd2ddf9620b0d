package scan

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

const (
	// CharsPerToken is the rough language-agnostic token estimate ratio.
	CharsPerToken = 4
	// PromptOverhead reserves tokens for the prompt scaffolding.
	PromptOverhead = 1000
	// ResponseTokens reserves tokens for the model's response.
	ResponseTokens = 2000
	// DefaultMaxChunkLines is the hard per-chunk line cap.
	DefaultMaxChunkLines = 500
	// defaultTokenLimit is the conservative ceiling for unknown models.
	defaultTokenLimit = 4096
)

// tokenLimits maps known model identifiers to their context ceilings.
// Matching is by substring against the lowercased model name.
var tokenLimits = map[string]int{
	"codellama":               4096,
	"llama-3.3-70b-versatile": 8000,
	"llama-3.1-70b-versatile": 8000,
	"mixtral-8x7b-32768":      32000,
	"mistral":                 8000,
	"qwen2.5-coder":           32000,
}

// CodeChunk is a contiguous line-range slice of one file, sized to fit the
// model's context budget. Line numbers are 1-based and inclusive.
type CodeChunk struct {
	Content     string
	StartLine   int
	EndLine     int
	FilePath    string
	ChunkIndex  int
	TotalChunks int
	Imports     []string
}

// Chunker splits oversized source files into boundary-aware chunks sized to
// a model's token budget.
type Chunker struct {
	ModelName     string
	MaxChunkLines int

	tokenLimit    int
	maxCodeTokens int
}

// NewChunker creates a Chunker for the given model with the default line cap.
func NewChunker(modelName string) *Chunker {
	return NewChunkerWithLines(modelName, DefaultMaxChunkLines)
}

// NewChunkerWithLines creates a Chunker with an explicit per-chunk line cap.
func NewChunkerWithLines(modelName string, maxChunkLines int) *Chunker {
	if maxChunkLines <= 0 {
		maxChunkLines = DefaultMaxChunkLines
	}
	limit := tokenLimitFor(modelName)
	return &Chunker{
		ModelName:     modelName,
		MaxChunkLines: maxChunkLines,
		tokenLimit:    limit,
		maxCodeTokens: limit - PromptOverhead - ResponseTokens,
	}
}

func tokenLimitFor(modelName string) int {
	name := strings.ToLower(modelName)
	for key, limit := range tokenLimits {
		if strings.Contains(name, key) {
			return limit
		}
	}
	return defaultTokenLimit
}

// TokenLimit returns the model's context ceiling.
func (c *Chunker) TokenLimit() int { return c.tokenLimit }

// MaxCodeTokens returns the usable budget for code after prompt and
// response reservations.
func (c *Chunker) MaxCodeTokens() int { return c.maxCodeTokens }

// EstimateTokens estimates the token count of text by character count.
func (c *Chunker) EstimateTokens(text string) int {
	return len(text) / CharsPerToken
}

// NeedsChunking reports whether code exceeds the usable token budget or the
// per-chunk line cap.
func (c *Chunker) NeedsChunking(code string) bool {
	lineCount := strings.Count(code, "\n") + 1
	return c.EstimateTokens(code) > c.maxCodeTokens || lineCount > c.MaxChunkLines
}

var (
	pyImportRe   = regexp.MustCompile(`^(import\s+[\w.]+|from\s+[\w.]+\s+import\s+.+)$`)
	jsImportRe   = regexp.MustCompile(`^(import\s+.+from\s+['"].+['"]|const\s+.+=\s+require\(['"].+['"]\))$`)
	javaImportRe = regexp.MustCompile(`^import\s+[\w.]+;$`)
)

// LanguageFromPath infers the language key from a file extension.
// Unsupported extensions return "".
func LanguageFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".py":
		return "python"
	case ".js", ".jsx":
		return "javascript"
	case ".ts", ".tsx":
		return "typescript"
	case ".java":
		return "java"
	case ".go":
		return "go"
	default:
		return ""
	}
}

// ExtractImports collects import/include statements with a best-effort
// line-level pattern scan. This is not a parser; unsupported languages yield
// an empty list. Go imports may span a parenthesized block, tracked with an
// explicit in-block flag until the closing delimiter line.
func (c *Chunker) ExtractImports(code, language string) []string {
	var imports []string
	switch language {
	case "python", ".py":
		for _, line := range strings.Split(code, "\n") {
			if s := strings.TrimSpace(line); pyImportRe.MatchString(s) {
				imports = append(imports, s)
			}
		}
	case "javascript", "typescript", ".js", ".ts", ".jsx", ".tsx":
		for _, line := range strings.Split(code, "\n") {
			if s := strings.TrimSpace(line); jsImportRe.MatchString(s) {
				imports = append(imports, s)
			}
		}
	case "java", ".java":
		for _, line := range strings.Split(code, "\n") {
			if s := strings.TrimSpace(line); javaImportRe.MatchString(s) {
				imports = append(imports, s)
			}
		}
	case "go", ".go":
		inBlock := false
		for _, line := range strings.Split(code, "\n") {
			s := strings.TrimSpace(line)
			switch {
			case strings.HasPrefix(s, "import ("):
				inBlock = true
				imports = append(imports, s)
			case inBlock:
				if s == ")" {
					inBlock = false
				}
				imports = append(imports, s)
			case strings.HasPrefix(s, "import "):
				imports = append(imports, s)
			}
		}
	}
	return imports
}

// ChunkCode splits code into chunks that each fit the token budget and line
// cap, preferring breaks before function/class definitions. Imports are
// extracted once and attached to every chunk.
func (c *Chunker) ChunkCode(code, filePath, language string) []CodeChunk {
	imports := c.ExtractImports(code, language)

	if !c.NeedsChunking(code) {
		return []CodeChunk{{
			Content:     code,
			StartLine:   1,
			EndLine:     strings.Count(code, "\n") + 1,
			FilePath:    filePath,
			ChunkIndex:  0,
			TotalChunks: 1,
			Imports:     imports,
		}}
	}

	lines := strings.Split(code, "\n")
	var chunks []CodeChunk
	chunkStart := 0

	for chunkStart < len(lines) {
		chunkEnd := chunkStart + c.MaxChunkLines
		if chunkEnd > len(lines) {
			chunkEnd = len(lines)
		}

		// Break before a definition boundary when one exists in the window.
		if chunkEnd < len(lines) {
			chunkEnd = findBreakPoint(lines, chunkStart, chunkEnd, language)
		}

		chunkLines := lines[chunkStart:chunkEnd]
		content := strings.Join(chunkLines, "\n")

		// Shrink until the slice fits the budget or hits the 10-line floor.
		for c.EstimateTokens(content) > c.maxCodeTokens && len(chunkLines) > 10 {
			chunkEnd = chunkStart + len(chunkLines) - 50
			if chunkEnd <= chunkStart {
				chunkEnd = chunkStart + 10
			}
			chunkLines = lines[chunkStart:chunkEnd]
			content = strings.Join(chunkLines, "\n")
		}

		chunks = append(chunks, CodeChunk{
			Content:    content,
			StartLine:  chunkStart + 1,
			EndLine:    chunkEnd,
			FilePath:   filePath,
			ChunkIndex: len(chunks),
			Imports:    imports,
		})

		chunkStart = chunkEnd
	}

	// Chunks are not self-describing about the total until all are produced.
	for i := range chunks {
		chunks[i].TotalChunks = len(chunks)
	}

	return chunks
}

// findBreakPoint scans backward from the proposed end for the nearest line
// starting a function/class definition. Returns end when no boundary exists
// in the window.
func findBreakPoint(lines []string, start, end int, language string) int {
	for i := end - 1; i > start; i-- {
		line := strings.TrimSpace(lines[i])
		switch language {
		case "python", ".py":
			if strings.HasPrefix(line, "def ") || strings.HasPrefix(line, "class ") {
				return i
			}
		case "javascript", "typescript", ".js", ".ts":
			if strings.Contains(line, "function ") || strings.HasPrefix(line, "class ") {
				return i
			}
		case "java", ".java":
			if strings.HasPrefix(line, "public ") || strings.HasPrefix(line, "private ") || strings.HasPrefix(line, "protected ") {
				return i
			}
		}
	}
	return end
}

// BuildContext renders the text embedded in the prompt in place of raw code
// when chunking is active: file path, chunk marker (multi-chunk files only),
// imports, then the code.
func (c *Chunker) BuildContext(chunk CodeChunk) string {
	var parts []string

	parts = append(parts, fmt.Sprintf("File: %s", chunk.FilePath))

	if chunk.TotalChunks > 1 {
		parts = append(parts, fmt.Sprintf("Chunk %d of %d (lines %d-%d)",
			chunk.ChunkIndex+1, chunk.TotalChunks, chunk.StartLine, chunk.EndLine))
	}

	if len(chunk.Imports) > 0 {
		parts = append(parts, "\nImports:")
		parts = append(parts, chunk.Imports...)
	}

	parts = append(parts, "\nCode:")
	parts = append(parts, chunk.Content)

	return strings.Join(parts, "\n")
}

// EstimateCost estimates the API cost of text at a per-million-token rate.
func (c *Chunker) EstimateCost(text string, costPerMillionTokens float64) float64 {
	return float64(c.EstimateTokens(text)) / 1_000_000 * costPerMillionTokens
}

// TokenStats summarizes token usage for a piece of code. EstimatedChunks is
// a coarse estimate and can diverge from the count ChunkCode produces.
type TokenStats struct {
	EstimatedTokens int     `json:"estimated_tokens"`
	TokenLimit      int     `json:"token_limit"`
	MaxCodeTokens   int     `json:"max_code_tokens"`
	UsagePercent    float64 `json:"usage_percentage"`
	NeedsChunking   bool    `json:"needs_chunking"`
	EstimatedChunks int     `json:"estimated_chunks"`
}

// TokenStats returns token usage statistics for code.
func (c *Chunker) TokenStats(code string) TokenStats {
	tokens := c.EstimateTokens(code)
	estChunks := tokens / c.maxCodeTokens
	if estChunks < 1 {
		estChunks = 1
	}
	return TokenStats{
		EstimatedTokens: tokens,
		TokenLimit:      c.tokenLimit,
		MaxCodeTokens:   c.maxCodeTokens,
		UsagePercent:    float64(tokens) / float64(c.maxCodeTokens) * 100,
		NeedsChunking:   c.NeedsChunking(code),
		EstimatedChunks: estChunks,
	}
}
