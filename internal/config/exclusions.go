package config

import (
	"path/filepath"
	"sort"

	"github.com/hashicorp/go-set/v2"
)

// ExclusionSet holds the directory names, directory paths and file names
// that are never stamped. Matching is exact: names compare against a single
// path element and paths against the full relative path.
type ExclusionSet struct {
	dirNames  *set.Set[string]
	dirPaths  *set.Set[string]
	fileNames *set.Set[string]
}

// NewExclusionSet builds an ExclusionSet. Directory paths are normalized to
// the host separator convention.
func NewExclusionSet(dirNames, dirPaths, fileNames []string) *ExclusionSet {
	normalized := make([]string, 0, len(dirPaths))
	for _, p := range dirPaths {
		if p == "" {
			continue
		}
		normalized = append(normalized, NormalizePath(p))
	}

	return &ExclusionSet{
		dirNames:  set.From(dirNames),
		dirPaths:  set.From(normalized),
		fileNames: set.From(fileNames),
	}
}

// NormalizePath converts a relative path to the host separator and removes
// redundant elements, so "static/models/" and "./static/models" compare equal.
func NormalizePath(p string) string {
	return filepath.Clean(filepath.FromSlash(p))
}

// ExcludesDirName reports whether a directory called name is excluded anywhere.
func (e *ExclusionSet) ExcludesDirName(name string) bool {
	return e.dirNames.Contains(name)
}

// ExcludesDirPath reports whether the directory at relPath is excluded.
func (e *ExclusionSet) ExcludesDirPath(relPath string) bool {
	return e.dirPaths.Contains(NormalizePath(relPath))
}

// ExcludesFileName reports whether files called name are excluded.
func (e *ExclusionSet) ExcludesFileName(name string) bool {
	return e.fileNames.Contains(name)
}

// DirNames returns the excluded directory names, sorted.
func (e *ExclusionSet) DirNames() []string { return sorted(e.dirNames) }

// DirPaths returns the excluded directory paths, sorted.
func (e *ExclusionSet) DirPaths() []string { return sorted(e.dirPaths) }

// FileNames returns the excluded file names, sorted.
func (e *ExclusionSet) FileNames() []string { return sorted(e.fileNames) }

func sorted(s *set.Set[string]) []string {
	items := s.Slice()
	sort.Strings(items)
	return items
}
