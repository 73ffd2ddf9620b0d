package discover

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dshills/sentinel/internal/logging"
)

// supportedExtensions are the file types worth sending to the model.
var supportedExtensions = map[string]struct{}{
	".py": {}, ".js": {}, ".jsx": {}, ".ts": {}, ".tsx": {},
	".java": {}, ".kt": {},
	".go":  {},
	".php": {},
	".rb":  {},
	".cs":  {},
	".cpp": {}, ".c": {}, ".h": {}, ".hpp": {},
	".rs":    {},
	".swift": {},
	".sql":   {},
	".sh":    {}, ".bash": {},
}

// ignorePatterns are directory names pruned during the walk.
var ignorePatterns = map[string]struct{}{
	"node_modules": {}, ".git": {}, ".svn": {}, "__pycache__": {},
	"venv": {}, "env": {}, ".venv": {}, "virtualenv": {},
	".pytest_cache": {}, ".mypy_cache": {},
	"dist": {}, "build": {}, ".idea": {}, ".vscode": {},
	"coverage": {}, ".next": {}, "target": {}, "bin": {}, "obj": {},
}

// Walker discovers scannable files in a directory tree.
type Walker struct {
	extensions map[string]struct{}
	ignores    map[string]struct{}
}

// NewWalker creates a Walker with the default extension and ignore sets,
// extended by any custom entries.
func NewWalker(customExtensions, customIgnores []string) *Walker {
	w := &Walker{
		extensions: make(map[string]struct{}, len(supportedExtensions)),
		ignores:    make(map[string]struct{}, len(ignorePatterns)),
	}
	for ext := range supportedExtensions {
		w.extensions[ext] = struct{}{}
	}
	for pat := range ignorePatterns {
		w.ignores[pat] = struct{}{}
	}
	for _, ext := range customExtensions {
		w.extensions[strings.ToLower(ext)] = struct{}{}
	}
	for _, pat := range customIgnores {
		w.ignores[pat] = struct{}{}
	}
	return w
}

// IsSupported reports whether the file should be scanned.
func (w *Walker) IsSupported(path string) bool {
	_, ok := w.extensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// ShouldIgnore reports whether any path element matches an ignore pattern.
func (w *Walker) ShouldIgnore(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if _, ok := w.ignores[part]; ok {
			return true
		}
	}
	return false
}

// Discover returns the scannable files under root in sorted walk order.
// A single-file root is returned as-is when supported.
func (w *Walker) Discover(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", root, err)
	}

	if !info.IsDir() {
		if w.IsSupported(root) && !w.ShouldIgnore(root) {
			return []string{root}, nil
		}
		return nil, nil
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// One unreadable entry never aborts the walk.
			logging.Logger.Warnf("skipping %s: %v", path, err)
			return nil
		}
		if d.IsDir() {
			if _, ok := w.ignores[d.Name()]; ok {
				return filepath.SkipDir
			}
			return nil
		}
		if w.IsSupported(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}
	return files, nil
}

// ReadFile reads a source file as UTF-8, replacing invalid byte sequences.
func ReadFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return strings.ToValidUTF8(string(data), "�"), nil
}
