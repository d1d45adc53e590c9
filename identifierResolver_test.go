package main

import (
	"testing"

	"gotest.tools/v3/assert"
)

func testIndex() *ExportIndex {
	return BuildExportIndex([]SourceFile{
		NewSourceFile("/p/src/app.ts", "export function format() {}\n"),
		NewSourceFile("/p/src/a/format.ts", "export function format() {}\n"),
		NewSourceFile("/p/src/b/format.ts", "export function format() {}\nexport default function Widget() {}\n"),
		NewSourceFile("/p/src/types.ts", "export interface Props {}\n"),
		NewSourceFile("/p/tools/format.py", "def format_name(v):\n    return v\n\ndef Widget():\n    pass\n"),
	}, DefaultPluginRegistry())
}

func TestResolveIdentifier(t *testing.T) {
	idx := testIndex()
	resolver := NewPathResolver(nil, false)
	js := NewJavaScriptPlugin()

	t.Run("first match in index order wins", func(t *testing.T) {
		match := ResolveIdentifier("format", "/p/src/main.ts", idx, resolver, js)
		assert.Assert(t, match != nil)
		assert.Equal(t, match.Source, "./app")
	})

	t.Run("the consuming file is skipped", func(t *testing.T) {
		match := ResolveIdentifier("format", "/p/src/app.ts", idx, resolver, js)
		assert.Assert(t, match != nil)
		assert.Equal(t, match.Source, "./a/format")
	})

	t.Run("default exports keep their flag", func(t *testing.T) {
		match := ResolveIdentifier("Widget", "/p/src/main.ts", idx, resolver, js)
		assert.Assert(t, match != nil)
		assert.Assert(t, match.IsDefault)
		assert.Equal(t, match.Source, "./b/format")
	})

	t.Run("other language families are ignored", func(t *testing.T) {
		assert.Assert(t, ResolveIdentifier("format_name", "/p/src/main.ts", idx, resolver, js) == nil)
		match := ResolveIdentifier("Widget", "/p/tools/cli.py", idx, resolver, NewPythonPlugin())
		assert.Assert(t, match != nil)
		assert.Equal(t, match.Source, ".format")
	})

	t.Run("unknown identifiers", func(t *testing.T) {
		assert.Assert(t, ResolveIdentifier("missing", "/p/src/main.ts", idx, resolver, js) == nil)
	})
}

func TestResolveMissingImports(t *testing.T) {
	idx := testIndex()
	js := NewJavaScriptPlugin()
	missing := []MissingImport{
		{Identifier: "Props", File: "/p/src/main.ts"},
		{Identifier: "nowhere", File: "/p/src/main.ts"},
		{Identifier: "Widget", File: "/p/src/main.ts"},
	}

	out, resolved := ResolveMissingImports(missing, idx, NewPathResolver(nil, false), js)

	assert.Equal(t, len(out), 3)
	assert.DeepEqual(t, out[0].Suggestion, &ImportSuggestion{Source: "./types"})
	assert.Assert(t, !out[1].Resolved())
	assert.DeepEqual(t, out[2].Suggestion, &ImportSuggestion{Source: "./b/format", IsDefault: true})
	assert.DeepEqual(t, resolved, []ResolvedImport{
		{Identifier: "Props", Specifier: "./types", IsType: true, DefinedIn: "/p/src/types.ts"},
		{Identifier: "Widget", Specifier: "./b/format", IsDefault: true, DefinedIn: "/p/src/b/format.ts"},
	})
}

func TestFindMissingImportsNamespaceImport(t *testing.T) {
	js := NewJavaScriptPlugin()
	code := `import * as React from 'react';

export function App() {
  const ref = React.useRef(null);
  const el = React(ref);
  return <React.Fragment><Layout /></React.Fragment>;
}
`
	missing := FindMissingImports(NewSourceFile("/p/src/App.tsx", code), js)

	assert.DeepEqual(t, missing, []MissingImport{{Identifier: "Layout", File: "/p/src/App.tsx"}})
}
