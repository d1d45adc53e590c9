package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"gotest.tools/v3/assert"
	"gotest.tools/v3/golden"
)

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return stdout.String(), err
}

func smokeProject(t *testing.T) string {
	return newProject(t, map[string]string{
		"src/main.ts": "const v = run();\nghost();\n",
		"src/run.ts":  "export function run() {}\n",
	})
}

func TestCheckCmd(t *testing.T) {
	disableColor(t)
	clearAutoImportEnv(t)
	root := smokeProject(t)

	output, err := executeCommand(t, "check", "--cwd", root)

	assert.Assert(t, errors.Is(err, errMissingImports))
	golden.Assert(t, output, "check_report.golden")
	assert.Equal(t, readFile(t, filepath.Join(root, "src", "main.ts")), "const v = run();\nghost();\n")
}

func TestFixCmdDryRun(t *testing.T) {
	disableColor(t)
	clearAutoImportEnv(t)
	root := smokeProject(t)

	output, err := executeCommand(t, "fix", "--cwd", root, "--dry-run")

	assert.NilError(t, err)
	assert.Assert(t, strings.Contains(output, "--- a/src/main.ts\n+++ b/src/main.ts\n"), output)
	assert.Assert(t, strings.Contains(output, "+import { run } from './run';\n"), output)
	assert.Assert(t, strings.Contains(output, "1 would add"), output)
	assert.Equal(t, readFile(t, filepath.Join(root, "src", "main.ts")), "const v = run();\nghost();\n")
}

func TestListFilesCmd(t *testing.T) {
	clearAutoImportEnv(t)
	root := newProject(t, map[string]string{
		"a.ts":        "",
		"b.py":        "",
		"skip/c.ts":   "",
		"lib/main.rs": "",
		"README.md":   "",
	})

	output, err := executeCommand(t, "list-files", "--cwd", root, "--ext", ".ts,.rs,.md", "--ignore", "skip/")

	assert.NilError(t, err)
	assert.Equal(t, output, "a.ts\nlib/main.rs\n")
}

func TestInspectCmd(t *testing.T) {
	root := newProject(t, map[string]string{
		"app/views.py": "from .models import User\n\ndef show():\n    return render(User)\n",
	})

	output, err := executeCommand(t, "inspect", "--cwd", root, filepath.Join("app", "views.py"))
	assert.NilError(t, err)

	var result struct {
		Plugin   string          `json:"plugin"`
		Missing  []MissingImport `json:"missing"`
		InsertAt int             `json:"insertAt"`
	}
	assert.NilError(t, json.Unmarshal([]byte(output), &result))
	assert.Equal(t, result.Plugin, "python")
	assert.Equal(t, len(result.Missing), 1)
	assert.Equal(t, result.Missing[0].Identifier, "render")
	assert.Equal(t, result.InsertAt, 1)

	_, err = executeCommand(t, "inspect", "--cwd", root, "notes.txt")
	assert.ErrorContains(t, err, "no language plugin")
}
