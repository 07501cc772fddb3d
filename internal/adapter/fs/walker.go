// Package fs builds the ordered source tree that the summarizer walks.
// Include/exclude glob filtering happens here; the summarizer assumes the
// tree is already filtered and deterministically ordered.
package fs

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/kstonekuan/docs-tree-ai/internal/domain"
	"github.com/kstonekuan/docs-tree-ai/internal/logger"
)

// Scanner walks a directory and produces the Node tree.
type Scanner struct {
	includes []string
	excludes []string
}

// NewScanner creates a scanner with doublestar include/exclude patterns,
// matched against slash-separated paths relative to the scan root.
func NewScanner(includes, excludes []string) *Scanner {
	if len(includes) == 0 {
		includes = []string{"**/*"}
	}
	return &Scanner{
		includes: includes,
		excludes: excludes,
	}
}

// Scan builds the tree rooted at root. Children are ordered directories
// first, then lexicographic by name; the order is part of each directory's
// fingerprint, so it must be deterministic. Directories with no eligible
// descendants are pruned.
func (s *Scanner) Scan(root string) (*domain.Node, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	node := &domain.Node{Path: root, RelPath: ".", IsDir: true}
	if err := s.scanDir(node, root); err != nil {
		return nil, err
	}
	return node, nil
}

func (s *Scanner) scanDir(dir *domain.Node, root string) error {
	entries, err := os.ReadDir(dir.Path)
	if err != nil {
		return err
	}

	var dirs, files []*domain.Node
	for _, entry := range entries {
		path := filepath.Join(dir.Path, entry.Name())
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if entry.IsDir() {
			if s.excluded(rel + "/") {
				logger.Debug("excluding directory: %s", rel)
				continue
			}
			child := &domain.Node{Path: path, RelPath: rel, IsDir: true}
			if err := s.scanDir(child, root); err != nil {
				// A subtree that cannot be read is skipped, not fatal.
				logger.Warn("skipping unreadable directory %s: %v", rel, err)
				continue
			}
			if len(child.Children) > 0 {
				dirs = append(dirs, child)
			}
			continue
		}

		if s.included(rel) && !s.excluded(rel) {
			files = append(files, &domain.Node{Path: path, RelPath: rel})
		}
	}

	sort.Slice(dirs, func(i, j int) bool { return dirs[i].Path < dirs[j].Path })
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	dir.Children = append(dirs, files...)
	return nil
}

func (s *Scanner) included(path string) bool {
	for _, pattern := range s.includes {
		matched, err := doublestar.Match(pattern, path)
		if err == nil && matched {
			return true
		}
	}
	return false
}

func (s *Scanner) excluded(path string) bool {
	for _, pattern := range s.excludes {
		matched, err := doublestar.Match(pattern, path)
		if err == nil && matched {
			return true
		}
	}
	return false
}

// ReadFile reads a file's full content as a string.
func ReadFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
