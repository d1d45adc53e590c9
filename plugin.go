package main

import (
	"path/filepath"
	"slices"
	"strings"
)

// LanguagePlugin extracts imports, identifier usages and exports from file
// text and knows how to render and place new import lines. Implementations
// do no I/O.
type LanguagePlugin interface {
	Name() string
	Extensions() []string

	ParseImports(text, path string) []ImportStatement
	FindUsedIdentifiers(text, path string) []UsedIdentifier
	FindLocalDeclarations(text, path string) map[string]bool
	ParseExports(text, path string) []ExportInfo
	IsBuiltInOrKeyword(name string) bool

	GenerateImportStatement(identifier, source string, isDefault bool) string
	GetImportInsertPosition(text, path string) int
	InsertImports(text string, newImportLines []string, path string) string

	// SupportsPathAliases reports whether tsconfig style aliases apply.
	SupportsPathAliases() bool
}

// SpecifierRenderer is implemented by plugins whose languages do not address
// modules with slash separated relative paths.
type SpecifierRenderer interface {
	RenderSpecifier(fromFile, toFile string) (string, bool)
}

type PluginRegistry struct {
	byExt map[string]LanguagePlugin
}

func NewPluginRegistry(plugins ...LanguagePlugin) *PluginRegistry {
	r := &PluginRegistry{byExt: map[string]LanguagePlugin{}}
	for _, p := range plugins {
		r.Register(p)
	}
	return r
}

// DefaultPluginRegistry returns a registry with every built-in language.
func DefaultPluginRegistry() *PluginRegistry {
	js := NewJavaScriptPlugin()
	return NewPluginRegistry(
		js,
		NewVuePlugin(js),
		NewSveltePlugin(js),
		NewAstroPlugin(js),
		NewPythonPlugin(),
		NewRustPlugin(),
	)
}

// Register adds a plugin. Later registrations win for a shared extension.
func (r *PluginRegistry) Register(p LanguagePlugin) {
	for _, ext := range p.Extensions() {
		r.byExt[strings.ToLower(ext)] = p
	}
}

func (r *PluginRegistry) ForExtension(ext string) (LanguagePlugin, bool) {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	p, ok := r.byExt[strings.ToLower(ext)]
	return p, ok
}

func (r *PluginRegistry) ForPath(path string) (LanguagePlugin, bool) {
	return r.ForExtension(filepath.Ext(path))
}

// Extensions lists every registered extension, sorted.
func (r *PluginRegistry) Extensions() []string {
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	slices.Sort(exts)
	return exts
}

// insertPositionAfterImports implements the shared placement policy: after
// the last import line, else after the leading header, else line 0.
func insertPositionAfterImports(text string, imports []ImportStatement, syntax commentSyntax) int {
	if len(imports) > 0 {
		last := -1
		for _, imp := range imports {
			if imp.EndLine > last {
				last = imp.EndLine
			}
		}
		return last + 1
	}
	return leadingHeaderEnd(splitLines(text), syntax)
}

// uniqueUsages drops repeated names, keeping the first occurrence.
func uniqueUsages(used []UsedIdentifier) []UsedIdentifier {
	seen := map[string]bool{}
	out := make([]UsedIdentifier, 0, len(used))
	for _, u := range used {
		if seen[u.Name] {
			continue
		}
		seen[u.Name] = true
		out = append(out, u)
	}
	return out
}

func wordSet(words ...string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

func isUpperASCII(b byte) bool {
	return b >= 'A' && b <= 'Z'
}

// prevNonSpace returns the index of the last non whitespace byte before i,
// or -1. Line breaks are skipped too.
func prevNonSpace(code []byte, i int) int {
	j := i - 1
	for j >= 0 && isWhiteSpace(code[j]) {
		j--
	}
	return j
}

// previousWord returns the identifier ending right before i (ignoring blanks).
func previousWord(code []byte, i int) string {
	end := prevNonSpace(code, i) + 1
	start := end
	for start > 0 && isByteIdentifierChar(code[start-1]) {
		start--
	}
	return string(code[start:end])
}
