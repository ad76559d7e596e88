package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExclusionSet(t *testing.T) {
	exclusions := NewExclusionSet(
		[]string{"node_modules", ".git"},
		[]string{"static/models", "./public/models/", ""},
		[]string{"package-lock.json"},
	)

	assert.True(t, exclusions.ExcludesDirName("node_modules"))
	assert.False(t, exclusions.ExcludesDirName("node"), "names never match by prefix")
	assert.False(t, exclusions.ExcludesDirName("models"), "paths are not names")

	assert.True(t, exclusions.ExcludesDirPath(filepath.Join("static", "models")))
	assert.True(t, exclusions.ExcludesDirPath("static/models"))
	assert.True(t, exclusions.ExcludesDirPath(filepath.Join("public", "models")))
	assert.False(t, exclusions.ExcludesDirPath(filepath.Join("other", "models")))
	assert.False(t, exclusions.ExcludesDirPath(filepath.Join("static", "models", "big")), "never prefix matching")
	assert.False(t, exclusions.ExcludesDirPath("static"))

	assert.True(t, exclusions.ExcludesFileName("package-lock.json"))
	assert.False(t, exclusions.ExcludesFileName("package.json"))

	assert.Equal(t, []string{".git", "node_modules"}, exclusions.DirNames())
	assert.Equal(t, []string{filepath.Join("public", "models"), filepath.Join("static", "models")}, exclusions.DirPaths())
	assert.Equal(t, []string{"package-lock.json"}, exclusions.FileNames())
}
