package scan

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bashhack/gitstamp/internal/config"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func newTestFilter(t *testing.T, root string, mutate func(cfg *FilterConfig)) *Filter {
	t.Helper()

	rules, err := config.ParseRuleSet(config.DefaultCommentRules)
	require.NoError(t, err)

	cfg := FilterConfig{
		Root:       root,
		Exclusions: config.NewExclusionSet(
			[]string{".git", "node_modules", "dist"},
			[]string{"static/models"},
			[]string{"AutoUpload.py", "package-lock.json"},
		),
		Rules: rules,
	}
	if mutate != nil {
		mutate(&cfg)
	}

	filter, err := NewFilter(cfg)
	require.NoError(t, err)
	return filter
}

func candidatePaths(result *Result) []string {
	return lo.Map(result.Candidates, func(c Candidate, _ int) string {
		return filepath.ToSlash(c.RelPath)
	})
}

func TestExtension(t *testing.T) {
	tests := map[string]string{
		"app.js":         ".js",
		"archive.tar.gz": ".gz",
		".bashrc":        "",
		".eslintrc.js":   ".js",
		"Makefile":       "",
		"UPPER.PY":       ".PY",
		"trailing.":      ".",
	}

	for name, want := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, want, Extension(name))
		})
	}
}

func TestShouldDescend(t *testing.T) {
	filter := newTestFilter(t, t.TempDir(), func(cfg *FilterConfig) {
		cfg.Globs = []string{"**/generated"}
	})

	tests := map[string]struct {
		relDir string
		name   string
		want   bool
	}{
		"PlainDirectory":            {relDir: ".", name: "src", want: true},
		"ExcludedNameAtRoot":        {relDir: ".", name: "node_modules", want: false},
		"ExcludedNameAtDepth":       {relDir: filepath.Join("src", "web"), name: "node_modules", want: false},
		"ExcludedPath":              {relDir: "static", name: "models", want: false},
		"SameNameElsewhere":         {relDir: "other", name: "models", want: true},
		"PathIsNotAName":            {relDir: ".", name: "models", want: true},
		"ExcludedPathNotAPrefix":    {relDir: filepath.Join("static", "models"), name: "nested", want: true},
		"GlobAtRoot":                {relDir: ".", name: "generated", want: false},
		"GlobAtDepth":               {relDir: filepath.Join("a", "b"), name: "generated", want: false},
		"NameIsNotSubstringMatched": {relDir: ".", name: "node_modules_backup", want: true},
		"EmptyRelDirMeansRoot":      {relDir: "", name: "dist", want: false},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, filter.ShouldDescend(tc.relDir, tc.name))
		})
	}
}

func TestEligible(t *testing.T) {
	filter := newTestFilter(t, t.TempDir(), func(cfg *FilterConfig) {
		cfg.Globs = []string{"**/*.gen.js"}
	})

	tests := map[string]struct {
		relPath  string
		want     bool
		template string
	}{
		"JavaScript":       {relPath: "app.js", want: true, template: "// Last Updated: {}"},
		"PythonInSubdir":   {relPath: filepath.Join("lib", "tool.py"), want: true, template: "# Last Updated: {}"},
		"ExcludedFileName": {relPath: filepath.Join("scripts", "AutoUpload.py"), want: false},
		"UnknownExtension": {relPath: "README.md", want: false},
		"NoExtension":      {relPath: ".bashrc", want: false},
		"ExtensionIsCased": {relPath: "LOUD.PY", want: false},
		"GlobExcluded":     {relPath: filepath.Join("src", "api.gen.js"), want: false},
		"DotfileWithRule":  {relPath: ".eslintrc.js", want: true, template: "// Last Updated: {}"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			rule, ok := filter.Eligible(tc.relPath)
			assert.Equal(t, tc.want, ok)
			if tc.want {
				assert.Equal(t, tc.template, rule.Template)
			}
		})
	}
}

func TestWalk(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"app.js":                       "console.log(1)\n",
		"main.py":                      "print(1)\n",
		"README.md":                    "# readme\n",
		"AutoUpload.py":                "upload()\n",
		"package-lock.json":            "{}\n",
		"node_modules/lib/index.js":    "module.exports = 1\n",
		"src/node_modules/deep/x.js":   "x\n",
		"src/web/page.tsx":             "export {}\n",
		"static/models/model.js":       "model\n",
		"static/models/nested/more.js": "more\n",
		"static/site.js":               "site\n",
		"other/models/model.js":        "model\n",
		".git/hooks/pre-commit.sh":     "exit 0\n",
	})

	filter := newTestFilter(t, root, nil)
	result, err := Walk(context.Background(), root, filter)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{
		"app.js",
		"main.py",
		"src/web/page.tsx",
		"static/site.js",
		"other/models/model.js",
	}, candidatePaths(result))

	assert.ElementsMatch(t, []string{
		".git",
		"node_modules",
		filepath.Join("src", "node_modules"),
		filepath.Join("static", "models"),
	}, result.Pruned)

	assert.Empty(t, result.Errors)
	assert.Equal(t, 8, result.Visited)

	for _, c := range result.Candidates {
		assert.Equal(t, filepath.Join(root, c.RelPath), c.Path)
	}
}

func TestWalkRespectsGitignore(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		".gitignore":      "build/\n*.min.js\n",
		"build/bundle.js": "bundle\n",
		"lib/util.js":     "util\n",
		"lib/util.min.js": "min\n",
	})

	tests := map[string]struct {
		respect bool
		want    []string
	}{
		"Enabled": {
			respect: true,
			want:    []string{"lib/util.js"},
		},
		"Disabled": {
			respect: false,
			want:    []string{"build/bundle.js", "lib/util.js", "lib/util.min.js"},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			filter := newTestFilter(t, root, func(cfg *FilterConfig) {
				cfg.RespectGitignore = tc.respect
			})

			result, err := Walk(context.Background(), root, filter)
			require.NoError(t, err)
			assert.ElementsMatch(t, tc.want, candidatePaths(result))
		})
	}
}

func TestWalkMissingGitignoreIsFine(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.js": "a\n"})

	filter := newTestFilter(t, root, func(cfg *FilterConfig) {
		cfg.RespectGitignore = true
	})

	result, err := Walk(context.Background(), root, filter)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.js"}, candidatePaths(result))
}

func TestWalkSkipsSymlinks(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"real.js": "real\n"})
	require.NoError(t, os.Symlink(filepath.Join(root, "real.js"), filepath.Join(root, "link.js")))

	result, err := Walk(context.Background(), root, newTestFilter(t, root, nil))
	require.NoError(t, err)
	assert.Equal(t, []string{"real.js"}, candidatePaths(result))
}

func TestWalkCancelled(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.js": "a\n"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Walk(ctx, root, newTestFilter(t, root, nil))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWalkMissingRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "missing")

	_, err := Walk(context.Background(), root, newTestFilter(t, root, nil))
	require.Error(t, err)
}
