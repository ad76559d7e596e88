package scan

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	ignore "github.com/sabhiram/go-gitignore"

	"github.com/bashhack/gitstamp/internal/config"
	gitstampErrors "github.com/bashhack/gitstamp/internal/errors"
)

// FilterConfig holds what a Filter needs to decide descend and eligibility.
type FilterConfig struct {
	// Root is the absolute project path the walk starts from.
	Root string

	Exclusions *config.ExclusionSet
	Rules      config.RuleSet

	// Globs are doublestar patterns relative to Root, matched against
	// forward-slash paths of both directories and files.
	Globs []string

	// RespectGitignore loads Root/.gitignore and skips what it ignores.
	RespectGitignore bool
}

// FilterConfigFromSettings builds a FilterConfig from validated settings.
func FilterConfigFromSettings(s *config.Settings) FilterConfig {
	return FilterConfig{
		Root:             s.ProjectPath,
		Exclusions:       s.Exclusions,
		Rules:            s.Rules,
		Globs:            s.ExcludeGlobs,
		RespectGitignore: s.RespectGitignore,
	}
}

// Filter decides whether a directory is traversed and whether a file is
// a stamping candidate. It is safe for concurrent use once built.
type Filter struct {
	exclusions *config.ExclusionSet
	rules      config.RuleSet
	globs      []string
	gitignore  *ignore.GitIgnore
}

// NewFilter creates a Filter. A missing .gitignore is not an error.
func NewFilter(cfg FilterConfig) (*Filter, error) {
	exclusions := cfg.Exclusions
	if exclusions == nil {
		exclusions = config.NewExclusionSet(nil, nil, nil)
	}

	f := &Filter{
		exclusions: exclusions,
		rules:      cfg.Rules,
		globs:      cfg.Globs,
	}

	if cfg.RespectGitignore {
		ignoreFile := filepath.Join(cfg.Root, ".gitignore")
		if _, err := os.Stat(ignoreFile); err == nil {
			matcher, err := ignore.CompileIgnoreFile(ignoreFile)
			if err != nil {
				return nil, gitstampErrors.NewFileIOError(ignoreFile, "parse", err)
			}
			f.gitignore = matcher
		} else if !os.IsNotExist(err) {
			return nil, gitstampErrors.NewFileIOError(ignoreFile, "stat", err)
		}
	}

	return f, nil
}

// ShouldDescend reports whether the subdirectory name inside relDir should
// be entered. relDir is relative to the walk root, "." or "" for the root.
func (f *Filter) ShouldDescend(relDir, name string) bool {
	if f.exclusions.ExcludesDirName(name) {
		return false
	}

	relPath := filepath.Join(relDir, name)
	if f.exclusions.ExcludesDirPath(relPath) {
		return false
	}

	slashPath := filepath.ToSlash(relPath)
	if f.matchesGlob(slashPath) {
		return false
	}

	return !f.ignored(slashPath + "/")
}

// Eligible reports whether the file at relPath should be stamped and, if
// so, returns the rule for its extension.
func (f *Filter) Eligible(relPath string) (config.CommentRule, bool) {
	name := filepath.Base(relPath)
	if f.exclusions.ExcludesFileName(name) {
		return config.CommentRule{}, false
	}

	slashPath := filepath.ToSlash(relPath)
	if f.matchesGlob(slashPath) || f.ignored(slashPath) {
		return config.CommentRule{}, false
	}

	return f.rules.Lookup(Extension(name))
}

func (f *Filter) matchesGlob(slashPath string) bool {
	for _, pattern := range f.globs {
		// patterns were validated when the settings were built
		if ok, _ := doublestar.Match(pattern, slashPath); ok {
			return true
		}
	}
	return false
}

func (f *Filter) ignored(slashPath string) bool {
	return f.gitignore != nil && f.gitignore.MatchesPath(slashPath)
}

// Extension returns the extension of a file name including its dot.
// Leading dots do not start an extension, so ".bashrc" has none and
// ".eslintrc.js" has ".js". Matching is case-sensitive.
func Extension(name string) string {
	trimmed := strings.TrimLeft(name, ".")
	i := strings.LastIndexByte(trimmed, '.')
	if i < 0 {
		return ""
	}
	return trimmed[i:]
}
