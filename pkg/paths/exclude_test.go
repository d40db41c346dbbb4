package paths

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExcludeBareName(t *testing.T) {
	m := NewExcludeMatcher([]string{"vendor"})
	assert.True(t, m.Match("vendor"))
	assert.True(t, m.Match("src/vendor"))
	assert.True(t, m.Match("a/b/vendor"))
	assert.True(t, m.Match("vendor/pkg/mod"))
	assert.False(t, m.Match("vendor.go"))
	assert.False(t, m.Match("myvendor/x"))
}

func TestExcludeIsNotSubstring(t *testing.T) {
	m := NewExcludeMatcher([]string{"node_modules"})
	assert.True(t, m.Match("node_modules/x.txt"))
	assert.False(t, m.Match("node_modules.txt"))
	assert.False(t, m.Match("my_node_modules/x.txt"))
	assert.False(t, m.Match("a/node_modules_old/b"))
}

func TestExcludeIsNotGlob(t *testing.T) {
	m := NewExcludeMatcher([]string{"*.o", "?.tmp"})
	assert.False(t, m.Match("main.o"))
	assert.False(t, m.Match("a.tmp"))
	assert.True(t, m.Match("src/*.o"))
	assert.True(t, m.Match("?.tmp"))
}

func TestExcludeMultipleComponents(t *testing.T) {
	m := NewExcludeMatcher([]string{
		"__pycache__",
		".git",
		".DS_Store",
		"build",
	})

	assert.True(t, m.Match("src/__pycache__/mod.pyc"))
	assert.True(t, m.Match(".git/HEAD"))
	assert.True(t, m.Match("deep/dir/.DS_Store"))
	assert.True(t, m.Match("build"))

	assert.False(t, m.Match("src/main.go"))
	assert.False(t, m.Match("README.md"))
	assert.False(t, m.Match("builder/x"))
	assert.Equal(t, 4, m.Len())
}

func TestExcludeEmptyPatterns(t *testing.T) {
	m := NewExcludeMatcher(nil)
	assert.False(t, m.Match("anything"))
	assert.False(t, m.Match("a/b/c.go"))
	assert.Equal(t, 0, m.Len())
}

func TestExcludeDotfiles(t *testing.T) {
	m := NewExcludeMatcher([]string{".env"})
	assert.True(t, m.Match(".env"))
	assert.True(t, m.Match("deploy/.env"))
	assert.False(t, m.Match(".env.local"))
	assert.False(t, m.Match("env"))
}
