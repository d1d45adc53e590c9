package main

import (
	"fmt"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
)

var rustBuiltins = wordSet(
	"as", "async", "await", "break", "const", "continue", "crate", "dyn", "else", "enum", "extern",
	"false", "fn", "for", "if", "impl", "in", "let", "loop", "match", "mod", "move", "mut", "pub", "ref",
	"return", "self", "Self", "static", "struct", "super", "trait", "true", "type", "unsafe", "use",
	"where", "while", "union", "box", "yield", "macro_rules",
	"bool", "char", "str", "i8", "i16", "i32", "i64", "i128", "isize", "u8", "u16", "u32", "u64",
	"u128", "usize", "f32", "f64",
	"Some", "None", "Ok", "Err", "Option", "Result", "Box", "Vec", "String", "ToString", "ToOwned",
	"Clone", "Copy", "Send", "Sync", "Sized", "Unpin", "Drop", "Fn", "FnMut", "FnOnce", "Default",
	"Debug", "Eq", "PartialEq", "Ord", "PartialOrd", "Hash", "Iterator", "IntoIterator",
	"DoubleEndedIterator", "ExactSizeIterator", "Extend", "From", "Into", "TryFrom", "TryInto",
	"AsRef", "AsMut", "FromIterator", "drop", "std", "core", "alloc",
)

var (
	rustUseRegExp         = regexp.MustCompile(`\b(?:pub(?:\s*\([^)]*\))?\s+)?use\s`)
	rustDeclarationRegExp = regexp.MustCompile(`\b(?:fn|struct|enum|union|trait|type|const|static|mod)\s+(?:mut\s+)?([A-Za-z_]\w*)`)
	rustLetRegExp         = regexp.MustCompile(`\blet\s+(?:mut\s+)?([A-Za-z_]\w*)`)
	rustFnParamsRegExp    = regexp.MustCompile(`\bfn\s+[A-Za-z_]\w*\s*`)
	rustGenericsRegExp    = regexp.MustCompile(`\b(?:fn|struct|enum|union|trait|impl|type)\s*(?:[A-Za-z_]\w*\s*)?<`)
	rustClosureRegExp     = regexp.MustCompile(`\|([^|\n]*)\|`)
	rustExportRegExp      = regexp.MustCompile(`\bpub(?:\s*\([^)]*\))?\s+(?:(?:async|const|unsafe|extern)\s+)*(fn|struct|enum|union|const|static|mod|trait|type)\s+(?:mut\s+)?([A-Za-z_]\w*)`)
	rustPubUseRegExp      = regexp.MustCompile(`\bpub(?:\s*\([^)]*\))?\s+use\s`)
	rustUsePunctRegExp    = regexp.MustCompile(`\s*(::|\{|\}|,)\s*`)
	rustHeaderStyle       = commentSyntax{
		linePrefixes: []string{"//", "#!["},
		blocks:       [][2]string{{"/*", "*/"}},
	}
)

// RustPlugin handles .rs files. Specifiers are crate relative paths.
type RustPlugin struct{}

func NewRustPlugin() *RustPlugin {
	return &RustPlugin{}
}

func (p *RustPlugin) Name() string              { return "rust" }
func (p *RustPlugin) Extensions() []string      { return []string{".rs"} }
func (p *RustPlugin) SupportsPathAliases() bool { return false }

func (p *RustPlugin) IsBuiltInOrKeyword(name string) bool {
	return rustBuiltins[name]
}

func (p *RustPlugin) ParseImports(text, path string) []ImportStatement {
	code := MaskRustCode([]byte(text))
	lines := newLineIndex(code)
	imports := []ImportStatement{}
	for _, loc := range rustUseRegExp.FindAllIndex(code, -1) {
		if loc[0] > 0 && code[loc[0]-1] == ':' {
			continue
		}
		end := loc[1]
		for end < len(code) && code[end] != ';' {
			end++
		}
		stmt := parseUseTree(string(code[loc[1]:end]))
		stmt.StartLine = lines.lineAt(loc[0])
		stmt.EndLine = lines.lineAt(min(end, len(code)-1))
		imports = append(imports, stmt)
	}
	return imports
}

// parseUseTree flattens `a::{b, c as d, e::{f}}` into one statement whose
// source is the path before the first brace.
func parseUseTree(tree string) ImportStatement {
	tree = rustUsePunctRegExp.ReplaceAllString(strings.Join(strings.Fields(tree), " "), "$1")
	stmt := ImportStatement{Imports: []string{}}
	brace := strings.Index(tree, "{")
	if brace < 0 {
		path, binding := splitUseLeaf(tree, "")
		if binding == "*" {
			stmt.Source = strings.TrimSuffix(path, "::*")
			stmt.IsNamespace = true
			return stmt
		}
		stmt.Source = path
		if binding != "" {
			stmt.Imports = append(stmt.Imports, binding)
		}
		return stmt
	}
	stmt.Source = strings.TrimSuffix(tree[:brace], "::")
	collectUseBindings(&stmt, stmt.Source, tree[brace:])
	return stmt
}

func collectUseBindings(stmt *ImportStatement, prefix, group string) {
	inner := strings.TrimSuffix(strings.TrimPrefix(group, "{"), "}")
	for _, part := range splitTopLevel(inner) {
		if brace := strings.Index(part, "{"); brace >= 0 {
			collectUseBindings(stmt, joinRustPath(prefix, strings.TrimSuffix(part[:brace], "::")), part[brace:])
			continue
		}
		_, binding := splitUseLeaf(part, prefix)
		switch binding {
		case "", "_":
		case "*":
			stmt.IsNamespace = true
		default:
			stmt.Imports = append(stmt.Imports, binding)
		}
	}
}

// splitUseLeaf returns the full path of a leaf and the name it binds.
func splitUseLeaf(leaf, prefix string) (string, string) {
	leaf = strings.TrimSpace(leaf)
	alias := ""
	if idx := strings.Index(leaf, " as "); idx >= 0 {
		alias = strings.TrimSpace(leaf[idx+4:])
		leaf = strings.TrimSpace(leaf[:idx])
	}
	full := joinRustPath(prefix, leaf)
	segments := strings.Split(full, "::")
	last := segments[len(segments)-1]
	if last == "self" && len(segments) > 1 {
		last = segments[len(segments)-2]
	}
	if alias != "" {
		return full, alias
	}
	return full, last
}

func joinRustPath(prefix, rest string) string {
	switch {
	case prefix == "":
		return rest
	case rest == "":
		return prefix
	}
	return prefix + "::" + rest
}

// splitTopLevel splits a comma list, ignoring commas inside braces.
func splitTopLevel(list string) []string {
	parts := []string{}
	depth, start := 0, 0
	for i, r := range list {
		switch r {
		case '{':
			depth++
		case '}':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, list[start:i])
				start = i + 1
			}
		}
	}
	if rest := strings.TrimSpace(list[start:]); rest != "" {
		parts = append(parts, rest)
	}
	return parts
}

// FindUsedIdentifiers finds `name(` calls and `Capitalized::` path heads.
// Method calls, path tails, macros, attributes and `fn name(` are skipped.
func (p *RustPlugin) FindUsedIdentifiers(text, path string) []UsedIdentifier {
	code := MaskRustCode([]byte(text))
	used := []UsedIdentifier{}
	n := len(code)
	i := 0
	for i < n {
		if code[i] == '#' {
			if open := rustAttributeOpen(code, i); open > 0 {
				i = skipBalanced(code, open, '[', ']')
				continue
			}
		}
		if !isByteIdentifierStart(code[i]) || (i > 0 && isByteIdentifierChar(code[i-1])) {
			i++
			continue
		}
		name, end := parseIdentifier(code, i)
		prev := prevNonSpace(code, i)
		qualified := prev >= 0 && (code[prev] == '.' || (code[prev] == ':' && prev > 0 && code[prev-1] == ':'))
		isUsage := false
		switch {
		case qualified || p.IsBuiltInOrKeyword(name):
		case end < n && code[end] == '(':
			isUsage = previousWord(code, i) != "fn"
		case isUpperASCII(name[0]) && hasPrefixAt(code, end, "::"):
			isUsage = previousWord(code, i) != "use"
		}
		if isUsage {
			used = append(used, UsedIdentifier{Name: name, Position: i})
		}
		i = end
	}
	return used
}

// rustAttributeOpen returns the index of the `[` of an attribute starting at
// i, or -1.
func rustAttributeOpen(code []byte, i int) int {
	switch {
	case hasPrefixAt(code, i, "#["):
		return i + 1
	case hasPrefixAt(code, i, "#!["):
		return i + 2
	}
	return -1
}

func (p *RustPlugin) FindLocalDeclarations(text, path string) map[string]bool {
	code := MaskRustCode([]byte(text))
	declared := map[string]bool{}
	for _, re := range []*regexp.Regexp{rustDeclarationRegExp, rustLetRegExp} {
		for _, m := range re.FindAllSubmatch(code, -1) {
			declared[string(m[1])] = true
		}
	}
	for _, loc := range rustFnParamsRegExp.FindAllIndex(code, -1) {
		open := loc[1]
		if open < len(code) && code[open] == '<' {
			open = skipBalanced(code, open, '<', '>')
			open = skipSpaces(code, open)
		}
		if open >= len(code) || code[open] != '(' {
			continue
		}
		closeAt := skipBalanced(code, open, '(', ')')
		for _, name := range splitParameterNames(stripRustPatternNoise(string(code[open+1 : max(open+1, closeAt-1)]))) {
			declared[name] = true
		}
	}
	for _, loc := range rustGenericsRegExp.FindAllIndex(code, -1) {
		closeAt := skipBalanced(code, loc[1]-1, '<', '>')
		for _, name := range splitParameterNames(string(code[loc[1]:max(loc[1], closeAt-1)])) {
			declared[name] = true
		}
	}
	for _, m := range rustClosureRegExp.FindAllSubmatch(code, -1) {
		for _, name := range splitParameterNames(stripRustPatternNoise(string(m[1]))) {
			declared[name] = true
		}
	}
	return declared
}

func stripRustPatternNoise(params string) string {
	return strings.NewReplacer("&", " ", "mut ", " ").Replace(params)
}

// ParseExports collects crate visible items at file level, including
// `pub use` re-exports.
func (p *RustPlugin) ParseExports(text, path string) []ExportInfo {
	code := MaskRustCode([]byte(text))
	depths := braceDepths(code)
	exports := []ExportInfo{}
	type found struct {
		at   int
		info ExportInfo
	}
	items := []found{}
	for _, m := range rustExportRegExp.FindAllSubmatchIndex(code, -1) {
		if depths[m[0]] != 0 {
			continue
		}
		kind := string(code[m[2]:m[3]])
		items = append(items, found{at: m[0], info: ExportInfo{
			Name:   string(code[m[4]:m[5]]),
			Source: path,
			IsType: kind == "trait" || kind == "type",
		}})
	}
	for _, loc := range rustPubUseRegExp.FindAllIndex(code, -1) {
		if depths[loc[0]] != 0 {
			continue
		}
		end := loc[1]
		for end < len(code) && code[end] != ';' {
			end++
		}
		for _, name := range parseUseTree(string(code[loc[1]:end])).Imports {
			items = append(items, found{at: loc[0], info: ExportInfo{Name: name, Source: path}})
		}
	}
	slices.SortStableFunc(items, func(a, b found) int { return a.at - b.at })
	for _, item := range items {
		exports = append(exports, item.info)
	}
	return exports
}

// braceDepths returns the `{}` nesting depth at every offset.
func braceDepths(code []byte) []int {
	depths := make([]int, len(code)+1)
	depth := 0
	for i, b := range code {
		depths[i] = depth
		switch b {
		case '{':
			depth++
		case '}':
			if depth > 0 {
				depth--
			}
		}
	}
	depths[len(code)] = depth
	return depths
}

func (p *RustPlugin) GenerateImportStatement(identifier, source string, isDefault bool) string {
	return fmt.Sprintf("use %s::%s;", source, identifier)
}

// GetImportInsertPosition ignores `use` declarations nested in item bodies.
func (p *RustPlugin) GetImportInsertPosition(text, path string) int {
	code := MaskRustCode([]byte(text))
	depths := braceDepths(code)
	lines := newLineIndex(code)
	fileLevel := []ImportStatement{}
	for _, imp := range p.ParseImports(text, path) {
		if offset := lines.offsetOf(imp.StartLine); offset >= 0 && depths[offset] == 0 {
			fileLevel = append(fileLevel, imp)
		}
	}
	return insertPositionAfterImports(text, fileLevel, rustHeaderStyle)
}

func (p *RustPlugin) InsertImports(text string, newImportLines []string, path string) string {
	return spliceLinesAt(text, p.GetImportInsertPosition(text, path), newImportLines)
}

// RenderSpecifier renders toFile as `crate::a::b` relative to the nearest
// enclosing src directory. lib.rs, main.rs and mod.rs name their directory.
func (p *RustPlugin) RenderSpecifier(fromFile, toFile string) (string, bool) {
	dir := filepath.Dir(toFile)
	segments := []string{}
	if stem := strings.TrimSuffix(filepath.Base(toFile), filepath.Ext(toFile)); stem != "mod" && stem != "lib" && stem != "main" {
		segments = append(segments, stem)
	}
	for filepath.Base(dir) != "src" {
		parent := filepath.Dir(dir)
		if parent == dir {
			// no src directory, treat the consuming file's directory as the crate root
			rel, err := filepath.Rel(filepath.Dir(fromFile), filepath.Dir(toFile))
			if err != nil || strings.HasPrefix(rel, "..") {
				return "", false
			}
			segments = segments[:0]
			for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
				if part != "." && part != "" {
					segments = append(segments, part)
				}
			}
			if stem := strings.TrimSuffix(filepath.Base(toFile), filepath.Ext(toFile)); stem != "mod" && stem != "lib" && stem != "main" {
				segments = append(segments, stem)
			}
			return "crate::" + strings.Join(segments, "::"), true
		}
		segments = append([]string{filepath.Base(dir)}, segments...)
		dir = parent
	}
	if len(segments) == 0 {
		return "crate", true
	}
	return "crate::" + strings.Join(segments, "::"), true
}

// MaskRustCode blanks comments, string, raw string and char literals, keeping
// offsets. A lifetime only loses its quote.
func MaskRustCode(code []byte) []byte {
	out := make([]byte, len(code))
	copy(out, code)
	n := len(code)
	i := 0
	for i < n {
		b := code[i]
		switch {
		case b == '/' && i+1 < n && code[i+1] == '/':
			end := skipLineComment(code, i)
			blankRange(out, code, i, end)
			i = end
		case b == '/' && i+1 < n && code[i+1] == '*':
			end := skipNestedBlockComment(code, i)
			blankRange(out, code, i, end)
			i = end
		case b == 'r' && (i == 0 || !isByteIdentifierChar(code[i-1])) && i+1 < n && (code[i+1] == '"' || code[i+1] == '#'):
			end := skipRawString(code, i)
			if end == i {
				i++
				continue
			}
			blankRange(out, code, i+1, end)
			i = end
		case b == '"':
			end := min(skipRustStringEnd(code, i)+1, n)
			blankRange(out, code, i, end)
			i = end
		case b == '\'':
			end := max(rustCharLiteralEnd(code, i), i+1)
			blankRange(out, code, i, end)
			i = end
		default:
			i++
		}
	}
	return out
}

func skipNestedBlockComment(code []byte, start int) int {
	depth := 0
	i := start
	for i+1 < len(code) {
		switch {
		case code[i] == '/' && code[i+1] == '*':
			depth++
			i += 2
		case code[i] == '*' && code[i+1] == '/':
			depth--
			i += 2
			if depth == 0 {
				return i
			}
		default:
			i++
		}
	}
	return len(code)
}

// skipRawString returns the end of r"..." or r#"..."#, or start when the
// bytes do not form a raw string.
func skipRawString(code []byte, start int) int {
	i := start + 1
	hashes := 0
	for i < len(code) && code[i] == '#' {
		hashes++
		i++
	}
	if i >= len(code) || code[i] != '"' {
		return start
	}
	closing := "\"" + strings.Repeat("#", hashes)
	for j := i + 1; j < len(code); j++ {
		if hasPrefixAt(code, j, closing) {
			return j + len(closing)
		}
	}
	return len(code)
}

// rustCharLiteralEnd returns the end of a char literal at start, or start
// when the quote begins a lifetime.
func rustCharLiteralEnd(code []byte, start int) int {
	n := len(code)
	if start+1 >= n {
		return start
	}
	if code[start+1] == '\\' {
		for j := start + 2; j < n && j < start+12; j++ {
			if code[j] == '\'' {
				return j + 1
			}
		}
		return start
	}
	if code[start+1] >= 0x80 {
		for j := start + 2; j < n && j < start+6; j++ {
			if code[j] == '\'' {
				return j + 1
			}
		}
		return start
	}
	if start+2 < n && code[start+2] == '\'' {
		return start + 3
	}
	return start
}

// skipRustStringEnd returns the index of the closing quote of a string
// literal, which may span lines.
func skipRustStringEnd(code []byte, start int) int {
	i := start + 1
	for i < len(code) && code[i] != '"' {
		if code[i] == '\\' {
			i++
		}
		i++
	}
	return i
}
