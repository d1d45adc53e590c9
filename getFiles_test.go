package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"gotest.tools/v3/assert"
)

func relativePaths(t *testing.T, root string, files []SourceFile) []string {
	t.Helper()
	paths := []string{}
	for _, f := range files {
		rel, err := filepath.Rel(root, f.Path)
		assert.NilError(t, err)
		paths = append(paths, filepath.ToSlash(rel))
	}
	return paths
}

func TestGetProjectFiles(t *testing.T) {
	root := newProject(t, map[string]string{
		".gitignore":                "# build output\n*.gen.ts\n!keep.gen.ts\nlogs/\n",
		"index.ts":                  "export const a = 1;\n",
		"api.gen.ts":                "export const gen = 1;\n",
		"README.md":                 "# readme\n",
		"logs/today.ts":             "export const log = 1;\n",
		"node_modules/pkg/index.js": "module.exports = {};\n",
		"dist/bundle.js":            "var x;\n",
		"src/Button.TSX":            "export default function Button() {}\n",
		"src/lib/.gitignore":        "private.ts\n",
		"src/lib/private.ts":        "export const secret = 1;\n",
		"src/lib/public.ts":         "export const open = 1;\n",
		"src/private.ts":            "export const notNested = 1;\n",
		"src/vendor/legacy/old.ts":  "export const old = 1;\n",
		"scripts/tool.py":           "def main():\n    pass\n",
	})
	allowed := map[string]bool{".ts": true, ".tsx": true}

	files, err := GetProjectFiles(root, allowed, []string{"src/vendor/"})
	assert.NilError(t, err)

	assert.DeepEqual(t, relativePaths(t, root, files), []string{
		"index.ts",
		"src/Button.TSX",
		"src/lib/public.ts",
		"src/private.ts",
	})
	assert.Equal(t, files[0].Content, "export const a = 1;\n")
	assert.Equal(t, files[1].Ext, ".tsx")
}

func TestGetProjectFilesRootErrors(t *testing.T) {
	t.Run("missing root", func(t *testing.T) {
		_, err := GetProjectFiles(filepath.Join(t.TempDir(), "nope"), map[string]bool{".ts": true}, nil)
		assert.Assert(t, errors.Is(err, ErrRootNotAccessible))
	})

	t.Run("root is a file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "file.ts")
		assert.NilError(t, os.WriteFile(path, []byte(""), 0o644))
		_, err := GetProjectFiles(path, map[string]bool{".ts": true}, nil)
		assert.Assert(t, errors.Is(err, ErrRootNotAccessible))
		assert.ErrorContains(t, err, "not a directory")
	})
}

func TestFindGitIgnoreFilesStopsAtRepoRoot(t *testing.T) {
	outer := t.TempDir()
	writeFile(t, filepath.Join(outer, ".gitignore"), "*.ts\n")
	repo := filepath.Join(outer, "repo")
	assert.NilError(t, os.MkdirAll(filepath.Join(repo, ".git"), 0o755))
	writeFile(t, filepath.Join(repo, ".gitignore"), "*.log\n")
	sub := filepath.Join(repo, "pkg")
	writeFile(t, filepath.Join(sub, ".gitignore"), "tmp/\n")

	matchers := FindAndProcessGitIgnoreFilesUpToRepoRoot(sub)

	assert.Assert(t, MatchesAnyGlobMatcher(filepath.Join(repo, "debug.log"), matchers))
	assert.Assert(t, MatchesAnyGlobMatcher(filepath.Join(sub, "tmp")+"/", matchers))
	assert.Assert(t, !MatchesAnyGlobMatcher(filepath.Join(repo, "main.ts"), matchers))
}
