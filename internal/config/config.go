package config

import (
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	gitstampErrors "github.com/bashhack/gitstamp/internal/errors"
)

const (
	// DefaultRemoteName is the git remote that receives the force-push.
	DefaultRemoteName = "origin"

	// DefaultRemoteBranch is the branch on the remote that is overwritten.
	DefaultRemoteBranch = "main"

	// DefaultCommitPrefix starts every generated commit message. The run
	// timestamp follows it: "Auto-commit: 2024-02-02 10:00:00".
	DefaultCommitPrefix = "Auto-commit:"

	// DefaultCommandTimeout bounds every git invocation.
	DefaultCommandTimeout = 2 * time.Minute

	// DefaultMaxRetries is the number of consecutive identical cycle errors
	// tolerated in periodic mode. A value of 0 means retry indefinitely.
	DefaultMaxRetries = 3

	// TimestampLayout formats the run timestamp written into marker lines.
	TimestampLayout = "2006-01-02 15:04:05"
)

// EmptyFilePolicy decides what happens to zero-byte files.
type EmptyFilePolicy string

const (
	// EmptyFilesInsert writes a single marker line into empty files.
	EmptyFilesInsert EmptyFilePolicy = "insert"

	// EmptyFilesSkip leaves empty files untouched.
	EmptyFilesSkip EmptyFilePolicy = "skip"
)

// Config holds all gitstamp settings as parsed from flags, environment
// variables and the optional YAML file. Finalize turns it into Settings.
type Config struct {
	// Configuration file

	ConfigFile kong.ConfigFlag `name:"config" short:"c" help:"YAML configuration file. Keys are flag names with '-' or '_'."`

	// Repository configuration

	ProjectPath      string `name:"project-path" short:"p" env:"GITSTAMP_PROJECT_PATH" type:"path" help:"Project (git working tree) to stamp and publish. Defaults to the current directory."`
	RemoteName       string `name:"remote-name" env:"GITSTAMP_REMOTE_NAME" default:"origin" help:"Remote that receives the force-push."`
	RemoteURL        string `name:"remote-url" env:"GITSTAMP_REMOTE_URL" help:"URL registered for the remote when bootstrapping."`
	RemoteBranchName string `name:"remote-branch-name" short:"b" env:"GITSTAMP_REMOTE_BRANCH" default:"main" help:"Remote branch that is overwritten on every push."`
	Bootstrap        bool   `name:"bootstrap" help:"Initialise the repository and add the remote when they are missing."`

	// Stamping configuration

	ExcludedDirectoryNames []string          `name:"excluded-directory-names" env:"GITSTAMP_EXCLUDED_DIRECTORY_NAMES" default:".git,node_modules,dist" help:"Directory names never descended into, at any depth."`
	ExcludedDirectoryPaths []string          `name:"excluded-directory-paths" env:"GITSTAMP_EXCLUDED_DIRECTORY_PATHS" help:"Directory paths, relative to the project, never descended into."`
	ExcludedFileNames      []string          `name:"excluded-file-names" env:"GITSTAMP_EXCLUDED_FILE_NAMES" default:"package-lock.json,yarn.lock" help:"File names never stamped."`
	ExcludeGlobs           []string          `name:"exclude-globs" help:"Doublestar patterns, relative to the project, for directories and files to skip."`
	RespectGitignore       bool              `name:"respect-gitignore" help:"Skip paths ignored by the project's root .gitignore."`
	CommentRules           map[string]string `name:"comment-rules" short:"r" help:"Marker template per extension, e.g. '.py=# Last Updated: {}'. Replaces the built-in rules."`
	EmptyFiles             EmptyFilePolicy   `name:"empty-files" enum:"insert,skip" default:"insert" help:"What to do with empty files (insert,skip)."`
	Workers                int               `name:"workers" default:"0" help:"Files stamped in parallel (0 = number of CPUs)."`

	// Publishing configuration

	UnstagePaths  []string      `name:"unstage-paths" help:"Paths removed from the index after staging. Failures are tolerated."`
	SecretFiles   []string      `name:"secret-files" help:"Files added to .gitignore and removed from the index before publishing."`
	CommitPrefix  string        `name:"commit-prefix" default:"Auto-commit:" help:"Commit message prefix; the run timestamp follows it."`
	PushWhenClean bool          `name:"push-when-clean" help:"Push even when there is nothing new to commit."`
	Timeout       time.Duration `name:"timeout" default:"2m" help:"Deadline for every git command."`

	// Scheduling and error handling

	Interval   time.Duration `name:"interval" short:"i" env:"GITSTAMP_INTERVAL" default:"0s" help:"Time between cycles. 0 runs a single cycle and exits."`
	MaxRetries int           `name:"max-retries" env:"GITSTAMP_MAX_RETRIES" default:"3" help:"Consecutive identical errors before quitting in periodic mode (0 = unlimited)."`

	// User experience options

	Quiet          bool `name:"quiet" short:"q" help:"Hide informational messages."`
	NonInteractive bool `name:"non-interactive" env:"GITSTAMP_NON_INTERACTIVE" help:"Never prompt; accept the force-push warning."`
	Yes            bool `name:"yes" short:"y" help:"Accept the force-push warning without prompting."`
	Progress       bool `name:"progress" help:"Show a progress bar while stamping."`

	// Debugging options

	Debug   bool   `name:"debug" env:"GITSTAMP_DEBUG" help:"Enable debug logging."`
	LogFile string `name:"log-file" env:"GITSTAMP_LOG_FILE" type:"path" help:"Debug log path (default: $XDG_DATA_HOME/gitstamp/logs/gitstamp-{hash}.log)."`

	Version kong.VersionFlag `name:"version" help:"Print version information and exit."`

	// VersionInfo contains version, commit, and build date information.
	VersionInfo VersionInfo `kong:"-"`
}

// VersionInfo contains build-time version metadata.
type VersionInfo struct {
	Version string
	Commit  string
	Date    string
}

// String renders the version line printed by --version.
func (v VersionInfo) String() string {
	return fmt.Sprintf("gitstamp %s (%s) built on %s", v.Version, v.Commit, v.Date)
}

// New creates a new Config with default values. Kong overwrites them when
// parsing; New is what tests and library callers start from.
func New() *Config {
	return &Config{
		RemoteName:             DefaultRemoteName,
		RemoteBranchName:       DefaultRemoteBranch,
		ExcludedDirectoryNames: []string{".git", "node_modules", "dist"},
		ExcludedFileNames:      []string{"package-lock.json", "yarn.lock"},
		EmptyFiles:             EmptyFilesInsert,
		CommitPrefix:           DefaultCommitPrefix,
		Timeout:                DefaultCommandTimeout,
		MaxRetries:             DefaultMaxRetries,

		VersionInfo: VersionInfo{
			Version: "dev",
			Commit:  "unknown",
			Date:    "unknown",
		},
	}
}

// Verbose reports whether informational messages should be shown.
func (c *Config) Verbose() bool {
	return !c.Quiet
}

// Settings is the validated, immutable run configuration. It is built once
// by Finalize and handed to every component; nothing mutates it afterwards.
type Settings struct {
	ProjectPath  string
	RemoteName   string
	RemoteURL    string
	RemoteBranch string
	Bootstrap    bool

	Exclusions       *ExclusionSet
	ExcludeGlobs     []string
	RespectGitignore bool
	Rules            RuleSet
	EmptyFiles       EmptyFilePolicy
	Workers          int

	UnstagePaths   []string
	SecretFiles    []string
	CommitPrefix   string
	PushWhenClean  bool
	CommandTimeout time.Duration

	Interval   time.Duration
	MaxRetries int
}

// Finalize validates the configuration, resolves the project path and log
// file, and returns the immutable Settings for the run.
func (c *Config) Finalize() (*Settings, error) {
	if err := c.resolvePaths(); err != nil {
		return nil, err
	}

	if strings.TrimSpace(c.RemoteName) == "" {
		return nil, gitstampErrors.NewConfigError("remote-name", nil, gitstampErrors.New("must not be empty"))
	}
	if strings.TrimSpace(c.RemoteBranchName) == "" {
		return nil, gitstampErrors.NewConfigError("remote-branch-name", nil, gitstampErrors.New("must not be empty"))
	}
	if c.Bootstrap && c.RemoteURL == "" {
		return nil, gitstampErrors.NewConfigError("remote-url", nil, gitstampErrors.New("required when --bootstrap is set"))
	}
	if c.Timeout <= 0 {
		return nil, gitstampErrors.NewConfigError("timeout", c.Timeout, gitstampErrors.New("must be greater than 0"))
	}
	if c.Interval < 0 {
		return nil, gitstampErrors.NewConfigError("interval", c.Interval, gitstampErrors.New("must not be negative"))
	}
	if c.MaxRetries < 0 {
		return nil, gitstampErrors.NewConfigError("max-retries", c.MaxRetries, gitstampErrors.New("must not be negative"))
	}
	if c.Workers < 0 {
		return nil, gitstampErrors.NewConfigError("workers", c.Workers, gitstampErrors.New("must not be negative"))
	}

	switch c.EmptyFiles {
	case EmptyFilesInsert, EmptyFilesSkip:
	case "":
		c.EmptyFiles = EmptyFilesInsert
	default:
		return nil, gitstampErrors.NewConfigError("empty-files", c.EmptyFiles, gitstampErrors.New("must be \"insert\" or \"skip\""))
	}

	for _, pattern := range c.ExcludeGlobs {
		if !doublestar.ValidatePattern(pattern) {
			return nil, gitstampErrors.NewConfigError("exclude-globs", pattern, gitstampErrors.New("invalid pattern"))
		}
	}

	templates := c.CommentRules
	if len(templates) == 0 {
		templates = DefaultCommentRules
	}
	rules, err := ParseRuleSet(templates)
	if err != nil {
		return nil, err
	}

	unstage, err := repoRelativePaths("unstage-paths", c.UnstagePaths)
	if err != nil {
		return nil, err
	}
	secrets, err := repoRelativePaths("secret-files", c.SecretFiles)
	if err != nil {
		return nil, err
	}

	workers := c.Workers
	if workers == 0 {
		workers = runtime.NumCPU()
	}

	return &Settings{
		ProjectPath:  c.ProjectPath,
		RemoteName:   c.RemoteName,
		RemoteURL:    c.RemoteURL,
		RemoteBranch: c.RemoteBranchName,
		Bootstrap:    c.Bootstrap,

		Exclusions:       NewExclusionSet(c.ExcludedDirectoryNames, c.ExcludedDirectoryPaths, c.ExcludedFileNames),
		ExcludeGlobs:     append([]string(nil), c.ExcludeGlobs...),
		RespectGitignore: c.RespectGitignore,
		Rules:            rules,
		EmptyFiles:       c.EmptyFiles,
		Workers:          workers,

		UnstagePaths:   unstage,
		SecretFiles:    secrets,
		CommitPrefix:   c.CommitPrefix,
		PushWhenClean:  c.PushWhenClean,
		CommandTimeout: c.Timeout,

		Interval:   c.Interval,
		MaxRetries: c.MaxRetries,
	}, nil
}

// resolvePaths makes ProjectPath absolute and fills in the default log file.
func (c *Config) resolvePaths() error {
	if c.ProjectPath == "" {
		wd, err := os.Getwd()
		if err != nil {
			return gitstampErrors.NewConfigError("project-path", "", gitstampErrors.Wrap(err, "failed to get current directory"))
		}
		c.ProjectPath = wd
	}

	absProjectPath, err := filepath.Abs(c.ProjectPath)
	if err != nil {
		return gitstampErrors.NewConfigError("project-path", c.ProjectPath, gitstampErrors.Wrap(err, "failed to resolve absolute path"))
	}
	c.ProjectPath = absProjectPath

	info, err := os.Stat(c.ProjectPath)
	if err != nil || !info.IsDir() {
		return gitstampErrors.NewConfigError("project-path", c.ProjectPath, gitstampErrors.New("is not a directory"))
	}

	if c.LogFile == "" {
		// Follow XDG Base Directory Specification
		logDir := os.Getenv("XDG_DATA_HOME")
		if logDir == "" {
			homeDir, err := os.UserHomeDir()
			if err == nil {
				logDir = filepath.Join(homeDir, ".local", "share")
			} else {
				logDir = os.TempDir()
			}
		}

		projectHash := fmt.Sprintf("%x", sha256OfString(c.ProjectPath)[:8])
		c.LogFile = filepath.Join(logDir, "gitstamp", "logs", fmt.Sprintf("gitstamp-%s.log", projectHash))
	}

	return nil
}

// repoRelativePaths checks that every entry stays inside the project and
// returns them in git's forward-slash form.
func repoRelativePaths(param string, paths []string) ([]string, error) {
	result := make([]string, 0, len(paths))
	for _, p := range paths {
		if p == "" {
			continue
		}
		clean := filepath.ToSlash(filepath.Clean(filepath.FromSlash(p)))
		if filepath.IsAbs(p) || clean == ".." || strings.HasPrefix(clean, "../") {
			return nil, gitstampErrors.NewConfigError(param, p, gitstampErrors.New("must be relative to the project"))
		}
		result = append(result, clean)
	}
	return result, nil
}

// YAMLLoader is a kong.ConfigurationLoader for flat YAML files whose keys
// are flag names, written with either dashes or underscores.
//
//	remote_branch_name: main
//	excluded_directory_paths: [static/models, public/models]
//	comment_rules:
//	  .py: "# Last Updated: {}"
func YAMLLoader(r io.Reader) (kong.Resolver, error) {
	values := map[string]any{}
	if err := yaml.NewDecoder(r).Decode(&values); err != nil && !gitstampErrors.Is(err, io.EOF) {
		return nil, gitstampErrors.NewConfigError("config", nil, gitstampErrors.Wrap(err, "failed to parse YAML"))
	}

	return kong.ResolverFunc(func(_ *kong.Context, _ *kong.Path, flag *kong.Flag) (any, error) {
		raw, ok := values[flag.Name]
		if !ok {
			raw, ok = values[strings.ReplaceAll(flag.Name, "-", "_")]
		}
		if !ok || raw == nil {
			return nil, nil
		}
		return yamlFlagValue(raw), nil
	}), nil
}

// yamlFlagValue renders a decoded YAML value in the textual form kong
// parses for the flag: "a,b" for lists and "k=v;k2=v2" for maps.
func yamlFlagValue(raw any) string {
	switch v := raw.(type) {
	case []any:
		items := make([]string, 0, len(v))
		for _, item := range v {
			items = append(items, strings.ReplaceAll(fmt.Sprint(item), ",", `\,`))
		}
		return strings.Join(items, ",")
	case map[string]any:
		entries := make([]string, 0, len(v))
		for _, key := range sortedKeys(v) {
			entry := key + "=" + fmt.Sprint(v[key])
			entries = append(entries, strings.ReplaceAll(entry, ";", `\;`))
		}
		return strings.Join(entries, ";")
	default:
		return fmt.Sprint(v)
	}
}

// sha256OfString returns the SHA256 hash of a string
func sha256OfString(input string) []byte {
	hash := sha256.Sum256([]byte(input))
	return hash[:]
}
