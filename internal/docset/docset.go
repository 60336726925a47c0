// Package docset discovers PDFs for batch runs.
package docset

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultInclude matches every PDF below the root.
var DefaultInclude = []string{"**/*.pdf"}

// DefaultExcludes are directory names never descended into.
var DefaultExcludes = []string{
	".git",
	"node_modules",
	"vendor",
	".ripview",
	".venv",
	"__pycache__",
}

var pdfMagic = []byte("%PDF-")

// Document is one PDF found on disk.
type Document struct {
	Path    string // Absolute path on disk.
	RelPath string // Slash-separated path relative to the root.
	Size    int64
	SHA256  string
}

// Options controls Find.
type Options struct {
	Root    string
	Include []string // Empty means DefaultInclude.
	Exclude []string
	MaxSize int64 // 0 means no limit.
}

// Find walks opts.Root and returns every file that matches the include
// patterns, misses the exclude patterns and starts with a PDF header.
// Results are sorted by relative path. Duplicate content is reported once.
func Find(opts Options) ([]Document, error) {
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("docset: resolve root: %w", err)
	}
	include := opts.Include
	if len(include) == 0 {
		include = DefaultInclude
	}

	var docs []Document
	seen := make(map[string]bool)
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			// Skip entries we cannot read instead of aborting.
			return nil
		}
		if d.IsDir() {
			if path != root && shouldExcludeDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		if !MatchesInclude(rel, include) || MatchesExclude(rel, opts.Exclude) {
			return nil
		}
		info, err := d.Info()
		if err != nil || (opts.MaxSize > 0 && info.Size() > opts.MaxSize) {
			return nil
		}
		if !isPDF(path) {
			return nil
		}
		sum, err := hashFile(path)
		if err != nil {
			return nil
		}
		if seen[sum] {
			return nil
		}
		seen[sum] = true
		docs = append(docs, Document{
			Path:    path,
			RelPath: filepath.ToSlash(rel),
			Size:    info.Size(),
			SHA256:  sum,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("docset: traversal: %w", err)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].RelPath < docs[j].RelPath })
	return docs, nil
}

// MatchesInclude reports whether relPath matches any pattern. Empty
// patterns include everything.
func MatchesInclude(relPath string, patterns []string) bool {
	if len(patterns) == 0 {
		return true
	}
	return matchesAny(relPath, patterns)
}

// MatchesExclude reports whether relPath matches any pattern. Empty
// patterns exclude nothing.
func MatchesExclude(relPath string, patterns []string) bool {
	if len(patterns) == 0 {
		return false
	}
	return matchesAny(relPath, patterns)
}

// matchesAny tries each pattern against the full path, then the base name.
func matchesAny(relPath string, patterns []string) bool {
	normalized := filepath.ToSlash(relPath)
	base := filepath.Base(normalized)
	for _, pattern := range patterns {
		pattern = filepath.ToSlash(pattern)
		if ok, err := doublestar.PathMatch(pattern, normalized); err == nil && ok {
			return true
		}
		if ok, err := doublestar.PathMatch(pattern, base); err == nil && ok {
			return true
		}
	}
	return false
}

func shouldExcludeDir(name string) bool {
	for _, excl := range DefaultExcludes {
		if strings.EqualFold(name, excl) {
			return true
		}
	}
	return false
}

func isPDF(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	head := make([]byte, 1024)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF {
		return false
	}
	return bytes.Contains(head[:n], pdfMagic)
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
