package main

import (
	"reflect"
	"testing"
)

func TestParseJsImports(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		expected []ImportStatement
	}{
		{
			name:     "side effect import",
			code:     `import './module'`,
			expected: []ImportStatement{{Source: "./module"}},
		},
		{
			name: "default and named multiline",
			code: "import React, {\n  useState,\n  useEffect as effect,\n} from \"react\";",
			expected: []ImportStatement{
				{Source: "react", Imports: []string{"React", "useState", "effect"}, IsDefault: true, StartLine: 0, EndLine: 3},
			},
		},
		{
			name:     "default type import",
			code:     `import type Foo from './types'`,
			expected: []ImportStatement{{Source: "./types", Imports: []string{"Foo"}, IsDefault: true}},
		},
		{
			name:     "default import named type",
			code:     `import type from './type-module'`,
			expected: []ImportStatement{{Source: "./type-module", Imports: []string{"type"}, IsDefault: true}},
		},
		{
			name:     "named type imports",
			code:     `import { type A, B as C } from './types'`,
			expected: []ImportStatement{{Source: "./types", Imports: []string{"A", "C"}}},
		},
		{
			name:     "namespace import",
			code:     `import * as ns from 'ns'`,
			expected: []ImportStatement{{Source: "ns", Imports: []string{"ns"}, IsNamespace: true}},
		},
		{
			name:     "import equals require",
			code:     `import Foo = require('./foo');`,
			expected: []ImportStatement{{Imports: []string{"Foo"}}},
		},
		{
			name: "import after exports",
			code: "export const a = 1;\nexport { a as b };\nimport c from './c';\n",
			expected: []ImportStatement{
				{Source: "./c", Imports: []string{"c"}, IsDefault: true, StartLine: 2, EndLine: 2},
			},
		},
		{
			name:     "comments and strings",
			code:     "// import a from 'a'\n/* import b from 'b' */\nconst s = \"import c from 'c'\";",
			expected: []ImportStatement{},
		},
		{
			name:     "dynamic import and import.meta",
			code:     "const m = import('./lazy');\nconst url = import.meta.url;\nloader.import('./x');",
			expected: []ImportStatement{},
		},
		{
			name:     "nested blocks",
			code:     "function f() {\n  import x from 'x'\n}",
			expected: []ImportStatement{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			imports := ParseJsImports([]byte(tt.code))
			if !reflect.DeepEqual(imports, tt.expected) {
				t.Errorf("ParseJsImports() = %+v, want %+v", imports, tt.expected)
			}
		})
	}
}

func TestScanJsModuleExports(t *testing.T) {
	code := `declare module 'virtual' {
  export const hidden: number;
}
export * from './all';
export * as tools from './tools';
export type { Props } from './props';
export { default as Card, helper } from './card';
export const { width, height: h } = size;
export abstract class Shape {}
export const enum Direction { Up }
export default function () {}
`
	expected := []ExportInfo{
		{Name: "tools"},
		{Name: "Props", IsType: true},
		{Name: "Card", IsDefault: false},
		{Name: "helper"},
		{Name: "width"},
		{Name: "h"},
		{Name: "Shape"},
		{Name: "Direction", IsType: true},
		{Name: DefaultExportName, IsDefault: true},
	}

	exports := ScanJsModule([]byte(code)).exports
	if !reflect.DeepEqual(exports, expected) {
		t.Errorf("ScanJsModule().exports = %+v, want %+v", exports, expected)
	}
}
