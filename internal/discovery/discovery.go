// Package discovery enumerates the source files a service run operates on.
package discovery

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// DefaultMaxFiles bounds how many files a single run processes.
const DefaultMaxFiles = 20

// ErrNotFound is returned when the discovery root does not exist.
var ErrNotFound = errors.New("path not found")

// SupportedExtensions lists the file extensions discovery collects.
var SupportedExtensions = []string{".py", ".js", ".jsx", ".ts", ".tsx", ".java"}

// DefaultExcludeDirs are directory names never descended into.
var DefaultExcludeDirs = []string{
	"node_modules", "__pycache__", "venv", ".venv", "vendor", "build", "dist", "target",
}

// Options controls a discovery walk.
type Options struct {
	// MaxFiles caps the result length. Zero or negative means DefaultMaxFiles.
	MaxFiles int

	// ExcludeDirs are directory base names to skip in addition to hidden
	// directories. Nil means DefaultExcludeDirs.
	ExcludeDirs []string

	// ExcludePaths are slash-separated paths relative to the root whose
	// subtrees are skipped (generated artifacts).
	ExcludePaths []string
}

// IsSupported reports whether path carries one of the supported extensions.
func IsSupported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range SupportedExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Discover returns at most opts.MaxFiles supported source files under root.
//
// A root that is a regular file is returned alone when its extension is
// supported. Directories are walked in lexical order, so the result is stable
// for an unchanged filesystem. An existing root with no matches yields an
// empty slice and a nil error.
func Discover(root string, opts Options) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("discovery: %s: %w", root, ErrNotFound)
		}
		return nil, fmt.Errorf("discovery: stat %s: %w", root, err)
	}

	if !info.IsDir() {
		if IsSupported(root) {
			return []string{root}, nil
		}
		return []string{}, nil
	}

	limit := opts.MaxFiles
	if limit <= 0 {
		limit = DefaultMaxFiles
	}

	excludeDirs := opts.ExcludeDirs
	if excludeDirs == nil {
		excludeDirs = DefaultExcludeDirs
	}
	excludeSet := make(map[string]bool, len(excludeDirs))
	for _, d := range excludeDirs {
		excludeSet[d] = true
	}
	excludePaths := make(map[string]bool, len(opts.ExcludePaths))
	for _, p := range opts.ExcludePaths {
		excludePaths[filepath.ToSlash(filepath.Clean(p))] = true
	}

	files := []string{}
	errLimit := errors.New("limit reached")

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // skip unreadable entries
		}
		if d.IsDir() {
			if path == root {
				return nil
			}
			name := d.Name()
			if strings.HasPrefix(name, ".") || excludeSet[name] {
				return filepath.SkipDir
			}
			if rel, relErr := filepath.Rel(root, path); relErr == nil && excludePaths[filepath.ToSlash(rel)] {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !IsSupported(path) {
			return nil
		}
		files = append(files, path)
		if len(files) >= limit {
			return errLimit
		}
		return nil
	})
	if walkErr != nil && !errors.Is(walkErr, errLimit) {
		return nil, fmt.Errorf("discovery: walk %s: %w", root, walkErr)
	}

	return files, nil
}
