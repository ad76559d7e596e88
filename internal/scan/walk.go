package scan

import (
	"context"
	"io/fs"
	"path/filepath"

	"github.com/bashhack/gitstamp/internal/config"
	gitstampErrors "github.com/bashhack/gitstamp/internal/errors"
)

// Candidate is a file selected for stamping.
type Candidate struct {
	// Path is the absolute path of the file.
	Path string
	// RelPath is Path relative to the walk root.
	RelPath string
	Rule    config.CommentRule
}

// Result is what a walk produced.
type Result struct {
	Candidates []Candidate

	// Pruned lists the directories, relative to the root, that were not entered.
	Pruned []string

	// Errors holds a FileIOError for every entry that could not be read.
	// They never stop the walk.
	Errors []error

	// Visited counts the regular files looked at, eligible or not.
	Visited int
}

// Walk traverses root and returns every eligible file. Excluded directories
// are pruned before they are entered. Symbolic links are not followed and
// are never stamped.
//
// Walk only fails when root itself cannot be read or ctx is done.
func Walk(ctx context.Context, root string, filter *Filter) (*Result, error) {
	result := &Result{}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		if walkErr != nil {
			if path == root {
				return gitstampErrors.NewFileIOError(path, "walk", walkErr)
			}
			result.Errors = append(result.Errors, gitstampErrors.NewFileIOError(path, "walk", walkErr))
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if path == root {
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			result.Errors = append(result.Errors, gitstampErrors.NewFileIOError(path, "walk", err))
			return nil
		}

		if d.IsDir() {
			if !filter.ShouldDescend(filepath.Dir(relPath), d.Name()) {
				result.Pruned = append(result.Pruned, relPath)
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}

		result.Visited++
		if rule, ok := filter.Eligible(relPath); ok {
			result.Candidates = append(result.Candidates, Candidate{
				Path:    path,
				RelPath: relPath,
				Rule:    rule,
			})
		}
		return nil
	})
	if err != nil {
		return result, err
	}

	return result, nil
}
