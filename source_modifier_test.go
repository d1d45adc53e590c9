package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"gotest.tools/v3/assert"
)

func TestPlanFileEditKeepsExistingImports(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		content  string
		resolved ResolvedImport
		source   string
	}{
		{
			name:     "javascript",
			path:     "/p/src/main.tsx",
			content:  "import React from 'react';\nimport {\n  a,\n  b as c,\n} from './ab';\nimport * as ns from './ns';\n\nrender(<App />);\n",
			resolved: ResolvedImport{Identifier: "render", Specifier: "./render"},
			source:   "./render",
		},
		{
			name:     "python",
			path:     "/p/app/main.py",
			content:  "import os\nfrom .models import (\n    User,\n)\n\nrender(User())\n",
			resolved: ResolvedImport{Identifier: "render", Specifier: ".render"},
			source:   ".render",
		},
		{
			name:     "rust",
			path:     "/p/src/main.rs",
			content:  "use std::fmt;\nuse crate::models::{User, Role};\n\nfn main() { render(); }\n",
			resolved: ResolvedImport{Identifier: "render", Specifier: "crate::view"},
			source:   "crate::view::render",
		},
	}

	registry := DefaultPluginRegistry()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plugin, ok := registry.ForPath(tt.path)
			assert.Assert(t, ok)
			before := plugin.ParseImports(tt.content, tt.path)

			edit := PlanFileEdit(NewSourceFile(tt.path, tt.content), []ResolvedImport{tt.resolved}, plugin)
			assert.Assert(t, edit != nil)

			after := plugin.ParseImports(edit.Updated, tt.path)
			assert.Equal(t, len(after), len(before)+1)
			assert.DeepEqual(t, after[:len(before)], before)
			added := after[len(before)]
			assert.Equal(t, added.Source, tt.source)
			assert.DeepEqual(t, added.Imports, []string{"render"})
			assert.Equal(t, added.StartLine, before[len(before)-1].EndLine+1)
		})
	}
}

func TestPlanFileEdit(t *testing.T) {
	plugin := NewJavaScriptPlugin()
	file := NewSourceFile("/p/src/app.ts", "import a from 'a';\n\nrun();\n")

	t.Run("all lines are inserted in one batch", func(t *testing.T) {
		edit := PlanFileEdit(file, []ResolvedImport{
			{Identifier: "run", Specifier: "./run"},
			{Identifier: "Page", Specifier: "./Page", IsDefault: true},
		}, plugin)

		assert.Assert(t, edit != nil)
		assert.Equal(t, edit.Path, file.Path)
		assert.Equal(t, edit.Original, file.Content)
		assert.Equal(t, edit.Updated, "import a from 'a';\nimport { run } from './run';\nimport Page from './Page';\n\nrun();\n")
		assert.Equal(t, len(edit.Imports), 2)
	})

	t.Run("identical lines are rendered once", func(t *testing.T) {
		edit := PlanFileEdit(file, []ResolvedImport{
			{Identifier: "run", Specifier: "./run"},
			{Identifier: "run", Specifier: "./run"},
		}, plugin)

		assert.Equal(t, edit.Updated, "import a from 'a';\nimport { run } from './run';\n\nrun();\n")
	})

	t.Run("nothing to add", func(t *testing.T) {
		assert.Assert(t, PlanFileEdit(file, nil, plugin) == nil)
	})
}

func TestApplyFileEdits(t *testing.T) {
	tmpDir := t.TempDir()
	okPath := filepath.Join(tmpDir, "ok.ts")
	changedPath := filepath.Join(tmpDir, "changed.ts")
	missingPath := filepath.Join(tmpDir, "missing.ts")
	assert.NilError(t, os.WriteFile(okPath, []byte("run();\n"), 0o600))
	assert.NilError(t, os.WriteFile(changedPath, []byte("edited meanwhile\n"), 0o644))

	failures := ApplyFileEdits([]FileEdit{
		{Path: okPath, Original: "run();\n", Updated: "import { run } from './run';\nrun();\n"},
		{Path: changedPath, Original: "run();\n", Updated: "import { run } from './run';\nrun();\n"},
		{Path: missingPath, Original: "run();\n", Updated: "x"},
	})

	assert.Equal(t, len(failures), 2)
	assert.Assert(t, errors.Is(failures[changedPath], ErrFileChanged))
	assert.Assert(t, errors.Is(failures[missingPath], os.ErrNotExist))

	content, err := os.ReadFile(okPath)
	assert.NilError(t, err)
	assert.Equal(t, string(content), "import { run } from './run';\nrun();\n")

	info, err := os.Stat(okPath)
	assert.NilError(t, err)
	assert.Equal(t, info.Mode().Perm(), os.FileMode(0o600))

	content, err = os.ReadFile(changedPath)
	assert.NilError(t, err)
	assert.Equal(t, string(content), "edited meanwhile\n")
}
