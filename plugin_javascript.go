package main

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

var jsKeywords = wordSet(
	"break", "case", "catch", "class", "const", "continue", "debugger", "default", "delete", "do",
	"else", "export", "extends", "finally", "for", "function", "if", "import", "in", "instanceof",
	"new", "return", "super", "switch", "this", "throw", "try", "typeof", "var", "void", "while",
	"with", "yield", "let", "static", "enum", "await", "implements", "package", "protected",
	"interface", "private", "public", "async", "of", "type", "as", "from", "get", "set", "declare",
	"abstract", "readonly", "namespace", "module", "keyof", "infer", "is", "satisfies", "unique",
	"true", "false", "null", "undefined", "arguments", "constructor",
)

var jsGlobals = wordSet(
	"Array", "Object", "Promise", "String", "Number", "Boolean", "Symbol", "BigInt", "Date", "Math",
	"JSON", "RegExp", "Error", "TypeError", "RangeError", "SyntaxError", "ReferenceError", "EvalError",
	"URIError", "AggregateError", "Map", "Set", "WeakMap", "WeakSet", "WeakRef", "FinalizationRegistry",
	"Proxy", "Reflect", "Intl", "ArrayBuffer", "SharedArrayBuffer", "DataView", "Atomics",
	"Int8Array", "Uint8Array", "Uint8ClampedArray", "Int16Array", "Uint16Array", "Int32Array",
	"Uint32Array", "Float32Array", "Float64Array", "BigInt64Array", "BigUint64Array", "Function",
	"Infinity", "NaN", "globalThis", "window", "document", "console", "process", "require", "exports",
	"parseInt", "parseFloat", "isNaN", "isFinite", "encodeURI", "encodeURIComponent", "decodeURI",
	"decodeURIComponent", "escape", "unescape", "eval", "setTimeout", "setInterval", "clearTimeout",
	"clearInterval", "setImmediate", "clearImmediate", "queueMicrotask", "structuredClone", "fetch",
	"alert", "confirm", "prompt", "atob", "btoa", "Buffer", "URL", "URLSearchParams", "Headers",
	"Request", "Response", "FormData", "Blob", "File", "FileReader", "Event", "CustomEvent",
	"EventTarget", "AbortController", "AbortSignal", "TextEncoder", "TextDecoder", "Element",
	"HTMLElement", "Node", "NodeList", "Image", "Audio", "Worker", "WebSocket", "XMLHttpRequest",
	"Notification", "MutationObserver", "IntersectionObserver", "ResizeObserver", "localStorage",
	"sessionStorage", "navigator", "location", "history", "requestAnimationFrame",
	"cancelAnimationFrame", "getComputedStyle", "matchMedia", "crypto", "performance",
	"Record", "Partial", "Required", "Readonly", "Pick", "Omit", "Exclude", "Extract", "NonNullable",
	"ReturnType", "Parameters", "InstanceType", "Awaited", "Uppercase", "Lowercase", "Capitalize",
	"Uncapitalize", "PropertyKey", "ReadonlyArray", "Iterable", "Iterator", "IterableIterator",
	"AsyncIterable", "AsyncIterator", "Generator", "AsyncGenerator", "PromiseLike", "ArrayLike",
	"JSX", "describe", "it", "test", "expect", "beforeEach", "afterEach", "beforeAll", "afterAll",
	"jest", "vi",
)

var (
	jsDeclarationRegExp  = regexp.MustCompile(`\b(?:function\s*\*?|class|interface|type|enum|namespace)\s+([A-Za-z_$][\w$]*)`)
	jsVariableRegExp     = regexp.MustCompile(`\b(?:const|let|var)\s+([A-Za-z_$][\w$]*)`)
	jsDestructureRegExp  = regexp.MustCompile(`\b(?:const|let|var)\s*[{\[]`)
	jsArrowParamRegExp   = regexp.MustCompile(`([A-Za-z_$][\w$]*)\s*=>`)
	jsDirectiveRegExp    = regexp.MustCompile(`^['"]use [\w ]+['"];?$`)
	jsNonParamCallWords  = wordSet("if", "for", "while", "switch", "with", "return", "typeof", "await", "yield", "in", "of", "new")
	jsMemberModifiers    = wordSet("public", "private", "protected", "static", "abstract", "readonly", "override", "async", "get", "set", "declare")
	jsHeaderCommentStyle = commentSyntax{
		linePrefixes: []string{"//", "#!"},
		blocks:       [][2]string{{"/*", "*/"}},
		extra:        jsDirectiveRegExp.MatchString,
	}
)

// JavaScriptPlugin handles JS, TS and their JSX dialects.
type JavaScriptPlugin struct{}

func NewJavaScriptPlugin() *JavaScriptPlugin {
	return &JavaScriptPlugin{}
}

func (p *JavaScriptPlugin) Name() string { return "javascript" }

func (p *JavaScriptPlugin) Extensions() []string {
	return []string{".js", ".jsx", ".ts", ".tsx", ".mjs", ".cjs", ".mts", ".cts"}
}

func (p *JavaScriptPlugin) SupportsPathAliases() bool { return true }

func (p *JavaScriptPlugin) ParseImports(text, path string) []ImportStatement {
	return ParseJsImports([]byte(text))
}

func (p *JavaScriptPlugin) FindUsedIdentifiers(text, path string) []UsedIdentifier {
	return scanJsUsages(maskForPath([]byte(text), path), p.IsBuiltInOrKeyword)
}

func (p *JavaScriptPlugin) FindLocalDeclarations(text, path string) map[string]bool {
	return findJsLocalDeclarations(maskForPath([]byte(text), path))
}

// maskForPath masks JSX aware for .jsx, .tsx and .js files. Plain .js is
// included because React projects commonly keep JSX there.
func maskForPath(code []byte, path string) []byte {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsx", ".tsx", ".js":
		return MaskJsxCode(code)
	}
	return MaskCStyleCode(code)
}

func (p *JavaScriptPlugin) ParseExports(text, path string) []ExportInfo {
	exports := ScanJsModule([]byte(text)).exports
	for i := range exports {
		exports[i].Source = path
	}
	return exports
}

func (p *JavaScriptPlugin) IsBuiltInOrKeyword(name string) bool {
	return jsKeywords[name] || jsGlobals[name]
}

func (p *JavaScriptPlugin) GenerateImportStatement(identifier, source string, isDefault bool) string {
	if isDefault {
		return fmt.Sprintf("import %s from '%s';", identifier, source)
	}
	return fmt.Sprintf("import { %s } from '%s';", identifier, source)
}

func (p *JavaScriptPlugin) GetImportInsertPosition(text, path string) int {
	return insertPositionAfterImports(text, p.ParseImports(text, path), jsHeaderCommentStyle)
}

func (p *JavaScriptPlugin) InsertImports(text string, newImportLines []string, path string) string {
	return spliceLinesAt(text, p.GetImportInsertPosition(text, path), newImportLines)
}

// scanJsUsages finds the two usage shapes in masked code: `<Capitalized`
// tags and `name(` calls. Member calls (`obj.name(`), declarations
// (`function name(`) and method definitions (`name(...) {`) are skipped.
func scanJsUsages(code []byte, isBuiltin func(string) bool) []UsedIdentifier {
	used := []UsedIdentifier{}
	n := len(code)
	i := 0
	for i < n {
		if !isByteIdentifierStart(code[i]) || (i > 0 && (isByteIdentifierChar(code[i-1]) || code[i-1] == '#')) {
			i++
			continue
		}
		name, end := parseIdentifier(code, i)
		isUsage := false
		switch {
		case i > 0 && code[i-1] == '<' && isUpperASCII(name[0]):
			isUsage = true
		case end < n && code[end] == '(':
			isUsage = isJsCallUsage(code, i, end)
		}
		if isUsage && !isBuiltin(name) {
			used = append(used, UsedIdentifier{Name: name, Position: i})
		}
		i = end
	}
	return used
}

// isJsCallUsage rejects member calls, function declarations, method
// definitions and TS method signatures. `name(...): Type` counts as a
// definition only where a class or interface member may start, so the
// `a ? name() : b` ternary is still a call.
func isJsCallUsage(code []byte, start, parenAt int) bool {
	prev := prevNonSpace(code, start)
	if prev >= 0 && code[prev] == '.' {
		return false
	}
	word := previousWord(code, start)
	if word == "function" || jsMemberModifiers[word] {
		return false
	}
	closeAt := skipBalanced(code, parenAt, '(', ')')
	next := skipSpaces(code, closeAt)
	if next >= len(code) {
		return true
	}
	switch code[next] {
	case '{':
		return false
	case ':':
		return !(prev < 0 || strings.IndexByte("{};,", code[prev]) >= 0)
	}
	return true
}

func findJsLocalDeclarations(code []byte) map[string]bool {
	declared := map[string]bool{}
	for _, re := range []*regexp.Regexp{jsDeclarationRegExp, jsVariableRegExp, jsArrowParamRegExp} {
		for _, m := range re.FindAllSubmatch(code, -1) {
			declared[string(m[1])] = true
		}
	}
	for _, loc := range jsDestructureRegExp.FindAllIndex(code, -1) {
		open := loc[1] - 1
		closer := byte('}')
		if code[open] == '[' {
			closer = ']'
		}
		end := skipBalanced(code, open, code[open], closer)
		for _, name := range splitBindingNames(string(code[open+1 : max(open+1, end-1)])) {
			declared[name] = true
		}
	}
	for _, name := range findParameterNames(code) {
		declared[name] = true
	}
	return declared
}

// findParameterNames collects parameters of parenthesised lists that are
// followed by a body `{` or an arrow `=>`.
func findParameterNames(code []byte) []string {
	names := []string{}
	for i := 0; i < len(code); i++ {
		if code[i] != '(' {
			continue
		}
		if jsNonParamCallWords[previousWord(code, i)] {
			continue
		}
		closeAt := skipBalanced(code, i, '(', ')')
		next := skipSpaces(code, closeAt)
		if next < len(code) && code[next] == ':' {
			// return type annotation
			for next < len(code) && code[next] != '{' && code[next] != '\n' && !hasPrefixAt(code, next, "=>") {
				next++
			}
		}
		if next < len(code) && (code[next] == '{' || hasPrefixAt(code, next, "=>")) {
			names = append(names, splitParameterNames(string(code[i+1:max(i+1, closeAt-1)]))...)
		}
	}
	return names
}
