package main

import (
	"fmt"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
)

var pythonBuiltins = wordSet(
	"False", "None", "True", "and", "as", "assert", "async", "await", "break", "class", "continue",
	"def", "del", "elif", "else", "except", "finally", "for", "from", "global", "if", "import", "in",
	"is", "lambda", "nonlocal", "not", "or", "pass", "raise", "return", "try", "while", "with", "yield",
	"match", "case", "self", "cls",
	"abs", "aiter", "all", "anext", "any", "ascii", "bin", "bool", "breakpoint", "bytearray", "bytes",
	"callable", "chr", "classmethod", "compile", "complex", "delattr", "dict", "dir", "divmod",
	"enumerate", "eval", "exec", "filter", "float", "format", "frozenset", "getattr", "globals",
	"hasattr", "hash", "help", "hex", "id", "input", "int", "isinstance", "issubclass", "iter", "len",
	"list", "locals", "map", "max", "memoryview", "min", "next", "object", "oct", "open", "ord", "pow",
	"print", "property", "range", "repr", "reversed", "round", "set", "setattr", "slice", "sorted",
	"staticmethod", "str", "sum", "super", "tuple", "type", "vars", "zip", "__import__",
	"Exception", "BaseException", "ValueError", "TypeError", "KeyError", "IndexError", "AttributeError",
	"RuntimeError", "NotImplementedError", "StopIteration", "StopAsyncIteration", "OSError", "IOError",
	"FileNotFoundError", "PermissionError", "ImportError", "ModuleNotFoundError", "ZeroDivisionError",
	"ArithmeticError", "AssertionError", "LookupError", "NameError", "OverflowError", "RecursionError",
	"TimeoutError", "UnicodeError", "UnicodeDecodeError", "UnicodeEncodeError", "SystemExit",
	"KeyboardInterrupt", "GeneratorExit", "Warning", "DeprecationWarning", "UserWarning",
	"NotImplemented", "Ellipsis",
)

var (
	pyImportRegExp      = regexp.MustCompile(`^[ \t]*import[ \t]+(.+)$`)
	pyFromImportRegExp  = regexp.MustCompile(`^[ \t]*from[ \t]+([\w.]+)[ \t]+import[ \t]+(.*)$`)
	pyDeclarationRegExp = regexp.MustCompile(`(?m)^[ \t]*(?:async[ \t]+)?(?:def|class)[ \t]+([A-Za-z_]\w*)`)
	pyAssignRegExp      = regexp.MustCompile(`(?m)^[ \t]*([A-Za-z_][\w \t,]*?)[ \t]*(?::[^=\n]*)?=[^=]`)
	pyForTargetRegExp   = regexp.MustCompile(`\bfor[ \t]+([\w \t,]+?)[ \t]+in\b`)
	pyAsTargetRegExp    = regexp.MustCompile(`\bas[ \t]+([A-Za-z_]\w*)`)
	pyDefParamsRegExp   = regexp.MustCompile(`\b(?:def[ \t]+[A-Za-z_]\w*[ \t]*|lambda\b)`)
	pyTopLevelDefRegExp = regexp.MustCompile(`(?m)^(?:async[ \t]+)?(def|class)[ \t]+([A-Za-z_]\w*)`)
	pyTopLevelVarRegExp = regexp.MustCompile(`(?m)^([A-Za-z_]\w*)[ \t]*(?::[^=\n]*)?=[^=]`)
	pyAllRegExp         = regexp.MustCompile(`(?ms)^__all__[ \t]*(?::[^=\n]*)?=[ \t]*[\[(](.*?)[\])]`)
	pyQuotedNameRegExp  = regexp.MustCompile(`['"]([A-Za-z_]\w*)['"]`)
	pyHeaderStyle       = commentSyntax{
		linePrefixes: []string{"#"},
		blocks:       [][2]string{{`"""`, `"""`}, {`'''`, `'''`}},
	}
)

// PythonPlugin handles .py modules. Specifiers are dotted relative modules.
type PythonPlugin struct{}

func NewPythonPlugin() *PythonPlugin {
	return &PythonPlugin{}
}

func (p *PythonPlugin) Name() string              { return "python" }
func (p *PythonPlugin) Extensions() []string      { return []string{".py"} }
func (p *PythonPlugin) SupportsPathAliases() bool { return false }

func (p *PythonPlugin) IsBuiltInOrKeyword(name string) bool {
	return pythonBuiltins[name]
}

func (p *PythonPlugin) ParseImports(text, path string) []ImportStatement {
	return parsePythonImports(MaskPythonCode([]byte(text)))
}

func parsePythonImports(code []byte) []ImportStatement {
	lines := splitLines(string(code))
	imports := []ImportStatement{}
	for idx := 0; idx < len(lines); idx++ {
		line := strings.TrimRight(lines[idx], " \t\r")
		if m := pyFromImportRegExp.FindStringSubmatch(line); m != nil {
			start := idx
			list := m[2]
			switch {
			case strings.HasPrefix(strings.TrimSpace(list), "("):
				for !strings.Contains(list, ")") && idx+1 < len(lines) {
					idx++
					list += " " + strings.TrimRight(lines[idx], "\r")
				}
				list = strings.NewReplacer("(", " ", ")", " ").Replace(list)
			case strings.HasSuffix(list, `\`):
				for strings.HasSuffix(list, `\`) && idx+1 < len(lines) {
					idx++
					list = strings.TrimSuffix(list, `\`) + " " + strings.TrimRight(lines[idx], " \t\r")
				}
				list = strings.TrimSuffix(list, `\`)
			}
			stmt := ImportStatement{Source: m[1], Imports: []string{}, StartLine: start, EndLine: idx}
			if strings.TrimSpace(list) == "*" {
				stmt.IsNamespace = true
			} else {
				stmt.Imports = pythonBindings(list, false)
			}
			imports = append(imports, stmt)
			continue
		}
		if m := pyImportRegExp.FindStringSubmatch(line); m != nil {
			for _, part := range strings.Split(m[1], ",") {
				fields := strings.Fields(part)
				if len(fields) == 0 {
					continue
				}
				imports = append(imports, ImportStatement{
					Source:      fields[0],
					Imports:     pythonBindings(part, true),
					IsNamespace: true,
					StartLine:   idx,
					EndLine:     idx,
				})
			}
		}
	}
	return imports
}

// pythonBindings returns the names bound by an import list. For plain
// `import a.b` the bound name is the first dotted segment.
func pythonBindings(list string, moduleImport bool) []string {
	names := []string{}
	for _, part := range strings.Split(list, ",") {
		fields := strings.Fields(part)
		switch {
		case len(fields) == 0:
			continue
		case len(fields) >= 3 && fields[1] == "as":
			names = append(names, fields[2])
		case moduleImport:
			names = append(names, strings.Split(fields[0], ".")[0])
		default:
			names = append(names, fields[0])
		}
	}
	return names
}

func (p *PythonPlugin) FindUsedIdentifiers(text, path string) []UsedIdentifier {
	code := MaskPythonCode([]byte(text))
	used := []UsedIdentifier{}
	n := len(code)
	i := 0
	for i < n {
		if !isByteIdentifierStart(code[i]) || (i > 0 && isByteIdentifierChar(code[i-1])) {
			i++
			continue
		}
		name, end := parseIdentifier(code, i)
		if end < n && code[end] == '(' && !p.IsBuiltInOrKeyword(name) {
			prev := prevNonSpace(code, i)
			word := previousWord(code, i)
			if (prev < 0 || code[prev] != '.') && word != "def" && word != "class" {
				used = append(used, UsedIdentifier{Name: name, Position: i})
			}
		}
		i = end
	}
	return used
}

func (p *PythonPlugin) FindLocalDeclarations(text, path string) map[string]bool {
	code := MaskPythonCode([]byte(text))
	declared := map[string]bool{}
	for _, m := range pyDeclarationRegExp.FindAllSubmatch(code, -1) {
		declared[string(m[1])] = true
	}
	for _, re := range []*regexp.Regexp{pyAssignRegExp, pyForTargetRegExp} {
		for _, m := range re.FindAllSubmatch(code, -1) {
			for _, name := range strings.Split(string(m[1]), ",") {
				if name = strings.TrimSpace(name); name != "" && !strings.ContainsAny(name, " \t") {
					declared[name] = true
				}
			}
		}
	}
	for _, m := range pyAsTargetRegExp.FindAllSubmatch(code, -1) {
		declared[string(m[1])] = true
	}
	for _, loc := range pyDefParamsRegExp.FindAllIndex(code, -1) {
		if hasPrefixAt(code, loc[0], "lambda") {
			end := loc[1]
			for end < len(code) && code[end] != ':' && code[end] != '\n' {
				end++
			}
			for _, name := range splitParameterNames(strings.ReplaceAll(string(code[loc[1]:end]), "*", "")) {
				declared[name] = true
			}
			continue
		}
		if loc[1] >= len(code) || code[loc[1]] != '(' {
			continue
		}
		closeAt := skipBalanced(code, loc[1], '(', ')')
		params := strings.ReplaceAll(string(code[loc[1]+1:max(loc[1]+1, closeAt-1)]), "*", "")
		for _, name := range splitParameterNames(params) {
			declared[name] = true
		}
	}
	return declared
}

// ParseExports returns module level definitions. Underscore names are
// private, and a literal __all__ list restricts the result.
func (p *PythonPlugin) ParseExports(text, path string) []ExportInfo {
	code := MaskPythonCode([]byte(text))
	var allowed map[string]bool
	if m := pyAllRegExp.FindStringSubmatch(text); m != nil {
		allowed = map[string]bool{}
		for _, q := range pyQuotedNameRegExp.FindAllStringSubmatch(m[1], -1) {
			allowed[q[1]] = true
		}
	}
	exports := []ExportInfo{}
	seen := map[string]bool{}
	add := func(name string) {
		if strings.HasPrefix(name, "_") || seen[name] || (allowed != nil && !allowed[name]) {
			return
		}
		seen[name] = true
		exports = append(exports, ExportInfo{Name: name, Source: path})
	}
	type match struct {
		at   int
		name string
	}
	matches := []match{}
	for _, m := range pyTopLevelDefRegExp.FindAllSubmatchIndex(code, -1) {
		matches = append(matches, match{at: m[0], name: string(code[m[4]:m[5]])})
	}
	for _, m := range pyTopLevelVarRegExp.FindAllSubmatchIndex(code, -1) {
		name := string(code[m[2]:m[3]])
		if pythonBuiltins[name] {
			continue
		}
		matches = append(matches, match{at: m[0], name: name})
	}
	slices.SortFunc(matches, func(a, b match) int { return a.at - b.at })
	for _, m := range matches {
		add(m.name)
	}
	return exports
}

func (p *PythonPlugin) GenerateImportStatement(identifier, source string, isDefault bool) string {
	return fmt.Sprintf("from %s import %s", source, identifier)
}

// GetImportInsertPosition only considers module level imports.
func (p *PythonPlugin) GetImportInsertPosition(text, path string) int {
	lines := splitLines(text)
	topLevel := []ImportStatement{}
	for _, imp := range p.ParseImports(text, path) {
		if imp.StartLine < len(lines) && !strings.HasPrefix(lines[imp.StartLine], " ") && !strings.HasPrefix(lines[imp.StartLine], "\t") {
			topLevel = append(topLevel, imp)
		}
	}
	return insertPositionAfterImports(text, topLevel, pyHeaderStyle)
}

func (p *PythonPlugin) InsertImports(text string, newImportLines []string, path string) string {
	return spliceLinesAt(text, p.GetImportInsertPosition(text, path), newImportLines)
}

// RenderSpecifier renders toFile as a module relative to fromFile's package,
// e.g. ".utils" or "..pkg.mod".
func (p *PythonPlugin) RenderSpecifier(fromFile, toFile string) (string, bool) {
	rel, err := filepath.Rel(filepath.Dir(fromFile), filepath.Dir(toFile))
	if err != nil {
		return "", false
	}
	dots := 1
	parts := []string{}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		switch {
		case part == "." || part == "":
		case part == "..":
			dots++
		default:
			parts = append(parts, part)
		}
	}
	if module := strings.TrimSuffix(filepath.Base(toFile), filepath.Ext(toFile)); module != "__init__" {
		parts = append(parts, module)
	}
	return strings.Repeat(".", dots) + strings.Join(parts, "."), true
}

// MaskPythonCode blanks comments and string literals, keeping offsets.
func MaskPythonCode(code []byte) []byte {
	out := make([]byte, len(code))
	copy(out, code)
	i := 0
	for i < len(code) {
		b := code[i]
		switch {
		case b == '#':
			end := i
			for end < len(code) && code[end] != '\n' {
				end++
			}
			blankRange(out, code, i, end)
			i = end
		case b == '\'' || b == '"':
			end := skipPythonString(code, i)
			blankRange(out, code, i, end)
			i = end
		default:
			i++
		}
	}
	return out
}

// skipPythonString returns the index just past the string starting at i.
func skipPythonString(code []byte, i int) int {
	quote := code[i]
	if hasPrefixAt(code, i, strings.Repeat(string(quote), 3)) {
		delim := strings.Repeat(string(quote), 3)
		j := i + 3
		for j < len(code) {
			if code[j] == '\\' {
				j += 2
				continue
			}
			if hasPrefixAt(code, j, delim) {
				return j + 3
			}
			j++
		}
		return len(code)
	}
	j := i + 1
	for j < len(code) && code[j] != '\n' {
		if code[j] == '\\' {
			j += 2
			continue
		}
		if code[j] == quote {
			return j + 1
		}
		j++
	}
	return min(j, len(code))
}
