package git

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	gitstampErrors "github.com/bashhack/gitstamp/internal/errors"
	"github.com/bashhack/gitstamp/internal/logger"
)

// Repository runs git commands against one working tree.
type Repository struct {
	path   string
	runner CommandRunner
	logger logger.Logger
}

// NewRepository creates a Repository for the working tree at path.
func NewRepository(path string, runner CommandRunner, logger logger.Logger) *Repository {
	return &Repository{
		path:   path,
		runner: runner,
		logger: logger,
	}
}

// Path returns the working tree path.
func (r *Repository) Path() string {
	return r.path
}

// Init creates an empty repository in the working tree.
func (r *Repository) Init(ctx context.Context) error {
	_, err := r.git(ctx, "init")
	return err
}

// AddRemote registers a remote.
func (r *Repository) AddRemote(ctx context.Context, name, url string) error {
	_, err := r.git(ctx, "remote", "add", name, url)
	return err
}

// StageAll stages every change in the working tree, deletions included.
func (r *Repository) StageAll(ctx context.Context) error {
	_, err := r.git(ctx, "add", "--all")
	return err
}

// Unstage removes path from the index without touching the file on disk
// or any other staged change.
func (r *Repository) Unstage(ctx context.Context, path string) error {
	_, err := r.git(ctx, "reset", "-q", "--", path)
	return err
}

// Status returns the working tree status as reported by git status --porcelain.
func (r *Repository) Status(ctx context.Context) ([]StatusEntry, error) {
	res, err := r.git(ctx, "status", "--porcelain")
	if err != nil {
		return nil, err
	}
	return ParsePorcelain(res.Stdout), nil
}

// Commit records the staged changes with message.
func (r *Repository) Commit(ctx context.Context, message string) error {
	_, err := r.git(ctx, "commit", "-m", message)
	return err
}

// Push sends HEAD to branch on remote and makes it the upstream. With force
// the remote branch is overwritten whatever it contains.
func (r *Repository) Push(ctx context.Context, remote, branch string, force bool) error {
	args := []string{"push"}
	if force {
		args = append(args, "--force")
	}
	args = append(args, "--set-upstream", remote, "HEAD:refs/heads/"+branch)

	_, err := r.git(ctx, args...)
	return err
}

// Untrack removes path from the index but keeps it on disk. A path that is
// not tracked is not an error.
func (r *Repository) Untrack(ctx context.Context, path string) error {
	_, err := r.git(ctx, "rm", "--cached", "-q", "--ignore-unmatch", "--", path)
	return err
}

// EnsureIgnored makes sure pattern is a line of the .gitignore at the root
// of the working tree, creating the file if needed. It reports whether the
// file was changed.
func (r *Repository) EnsureIgnored(pattern string) (bool, error) {
	ignoreFile := filepath.Join(r.path, ".gitignore")

	content, err := os.ReadFile(ignoreFile)
	if err != nil && !os.IsNotExist(err) {
		return false, gitstampErrors.NewFileIOError(ignoreFile, "read", err)
	}

	scanner := bufio.NewScanner(strings.NewReader(string(content)))
	for scanner.Scan() {
		if strings.TrimSpace(scanner.Text()) == pattern {
			return false, nil
		}
	}

	var entry strings.Builder
	if len(content) > 0 && content[len(content)-1] != '\n' {
		entry.WriteString("\n")
	}
	entry.WriteString(pattern)
	entry.WriteString("\n")

	f, err := os.OpenFile(ignoreFile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return false, gitstampErrors.NewFileIOError(ignoreFile, "open", err)
	}
	if _, err := f.WriteString(entry.String()); err != nil {
		_ = f.Close()
		return false, gitstampErrors.NewFileIOError(ignoreFile, "write", err)
	}
	if err := f.Close(); err != nil {
		return false, gitstampErrors.NewFileIOError(ignoreFile, "close", err)
	}

	r.logger.Info("Added %s to %s", pattern, ignoreFile)
	return true, nil
}

// git executes a git command in the repository directory with context.
func (r *Repository) git(ctx context.Context, args ...string) (*Result, error) {
	cmd := Command{
		Program: "git",
		Args:    append([]string{"-C", r.path}, args...),
	}

	r.logger.Info("Running %s", cmd)
	res, err := r.runner.Run(ctx, cmd)
	if err != nil {
		r.logger.Info("%s failed: %v", cmd, err)
		return res, err
	}
	return res, nil
}

// StatusEntry is one line of git status --porcelain output.
type StatusEntry struct {
	// Index and WorkTree are the X and Y status codes.
	Index    byte
	WorkTree byte
	Path     string
	// OrigPath is the source of a rename or copy.
	OrigPath string
}

// Staged reports whether the entry has a change recorded in the index.
func (e StatusEntry) Staged() bool {
	switch e.Index {
	case ' ', '?', '!':
		return false
	default:
		return true
	}
}

// Untracked reports whether the entry is an untracked file.
func (e StatusEntry) Untracked() bool {
	return e.Index == '?' && e.WorkTree == '?'
}

// String renders the entry the way git prints it.
func (e StatusEntry) String() string {
	if e.OrigPath != "" {
		return string([]byte{e.Index, e.WorkTree}) + " " + e.OrigPath + " -> " + e.Path
	}
	return string([]byte{e.Index, e.WorkTree}) + " " + e.Path
}

// ParsePorcelain parses git status --porcelain (v1) output. Blank lines and
// lines too short to carry a path are ignored.
func ParsePorcelain(output string) []StatusEntry {
	var entries []StatusEntry
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimRight(line, "\r")
		if len(line) < 4 || line[2] != ' ' {
			continue
		}

		entry := StatusEntry{
			Index:    line[0],
			WorkTree: line[1],
		}

		path := line[3:]
		if entry.Index == 'R' || entry.Index == 'C' {
			if from, to, ok := splitRename(path); ok {
				entry.OrigPath = unquotePath(from)
				path = to
			}
		}
		entry.Path = unquotePath(path)

		entries = append(entries, entry)
	}
	return entries
}

// HasStaged reports whether any entry has a staged change.
func HasStaged(entries []StatusEntry) bool {
	for _, e := range entries {
		if e.Staged() {
			return true
		}
	}
	return false
}

func splitRename(path string) (string, string, bool) {
	// quoted names may contain " -> " themselves
	if strings.HasPrefix(path, `"`) {
		if end := closingQuote(path); end > 0 && strings.HasPrefix(path[end+1:], " -> ") {
			return path[:end+1], path[end+5:], true
		}
	}
	return strings.Cut(path, " -> ")
}

func closingQuote(s string) int {
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '"':
			return i
		}
	}
	return -1
}

func unquotePath(p string) string {
	if len(p) >= 2 && p[0] == '"' && p[len(p)-1] == '"' {
		if unquoted, err := strconv.Unquote(p); err == nil {
			return unquoted
		}
	}
	return p
}
