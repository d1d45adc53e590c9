package main

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

func ResolveAbsoluteCwd(cwd string) string {
	if filepath.IsAbs(cwd) {
		return filepath.Clean(cwd)
	}
	binaryExecDir, _ := os.Getwd()
	return filepath.Join(binaryExecDir, cwd)
}

// lineIndex maps byte offsets to 0-based line numbers.
type lineIndex struct {
	starts []int
}

func newLineIndex(code []byte) *lineIndex {
	starts := []int{0}
	for i, b := range code {
		if b == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &lineIndex{starts: starts}
}

func (l *lineIndex) lineAt(offset int) int {
	return sort.Search(len(l.starts), func(i int) bool { return l.starts[i] > offset }) - 1
}

func (l *lineIndex) offsetOf(line int) int {
	if line < 0 {
		return 0
	}
	if line >= len(l.starts) {
		return -1
	}
	return l.starts[line]
}

func blankRange(out []byte, code []byte, from, to int) {
	if to > len(code) {
		to = len(code)
	}
	for k := from; k < to; k++ {
		if code[k] != '\n' && code[k] != '\r' {
			out[k] = ' '
		}
	}
}

// MaskCStyleCode blanks out comments and string literals of JS/TS code.
// Offsets and newlines are preserved. Template literal text is blanked while
// `${ ... }` expressions are kept.
func MaskCStyleCode(code []byte) []byte {
	return maskJsCode(code, false)
}

// MaskJsxCode is MaskCStyleCode for JSX dialects: quotes in JSX text, such
// as the apostrophe in `<p>Don't</p>`, do not start strings.
func MaskJsxCode(code []byte) []byte {
	return maskJsCode(code, true)
}

func maskJsCode(code []byte, jsx bool) []byte {
	out := make([]byte, len(code))
	copy(out, code)
	n := len(code)

	inTemplateText := false
	templateStack := []int{}
	braceDepth := 0

	i := 0
	for i < n {
		b := code[i]
		if inTemplateText {
			switch {
			case b == '\\' && i+1 < n:
				blankRange(out, code, i, i+2)
				i += 2
			case b == '`':
				blankRange(out, code, i, i+1)
				inTemplateText = false
				i++
			case b == '$' && i+1 < n && code[i+1] == '{':
				blankRange(out, code, i, i+2)
				templateStack = append(templateStack, braceDepth)
				braceDepth = 0
				inTemplateText = false
				i += 2
			default:
				blankRange(out, code, i, i+1)
				i++
			}
			continue
		}

		switch {
		case b == '/' && i+1 < n && code[i+1] == '/':
			end := skipLineComment(code, i)
			blankRange(out, code, i, end)
			i = end
		case b == '/' && i+1 < n && code[i+1] == '*':
			end := skipBlockComment(code, i)
			blankRange(out, code, i, end)
			i = end
		case (b == '\'' || b == '"') && !(jsx && inJsxText(code, i)):
			end := skipToStringEnd(code, i, b) + 1
			blankRange(out, code, i, end)
			i = end
		case b == '`':
			blankRange(out, code, i, i+1)
			inTemplateText = true
			i++
		case b == '{':
			braceDepth++
			i++
		case b == '}':
			if braceDepth == 0 && len(templateStack) > 0 {
				blankRange(out, code, i, i+1)
				braceDepth = templateStack[len(templateStack)-1]
				templateStack = templateStack[:len(templateStack)-1]
				inTemplateText = true
			} else if braceDepth > 0 {
				braceDepth--
			}
			i++
		default:
			i++
		}
	}
	return out
}

// inJsxText reports whether the quote at i follows the `>` that closes a JSX
// tag with no code punctuation in between.
func inJsxText(code []byte, i int) bool {
	for j := i - 1; j > 0; j-- {
		switch code[j] {
		case '{', '}', '(', ')', ';', '=', '<':
			return false
		case '>':
			prev := code[j-1]
			return isByteIdentifierChar(prev) || prev == '"' || prev == '\'' || prev == '}' || prev == '/'
		}
	}
	return false
}

// splitBindingNames extracts bound names from a destructuring pattern body
// such as `a, b: c, d = 1, ...rest`.
func splitBindingNames(list string) []string {
	return splitNames(list, true)
}

// splitParameterNames extracts parameter names from `a: string, b = 1`.
func splitParameterNames(list string) []string {
	return splitNames(list, false)
}

func splitNames(list string, colonRenames bool) []string {
	names := []string{}
	depth := 0
	current := strings.Builder{}
	flush := func() {
		part := strings.TrimSpace(current.String())
		current.Reset()
		if part == "" {
			return
		}
		part = strings.TrimPrefix(part, "...")
		if idx := strings.Index(part, "="); idx >= 0 {
			part = part[:idx]
		}
		if idx := strings.Index(part, ":"); idx >= 0 {
			if colonRenames {
				part = part[idx+1:]
			} else {
				part = part[:idx]
			}
		}
		name, _ := parseIdentifier([]byte(strings.TrimSpace(part)), 0)
		if name != "" {
			names = append(names, name)
		}
	}
	for _, r := range list {
		switch r {
		case '{', '[', '(':
			depth++
		case '}', ']', ')':
			depth--
		case ',':
			if depth == 0 {
				flush()
				continue
			}
		}
		if depth == 0 {
			current.WriteRune(r)
		}
	}
	flush()
	return names
}

// commentSyntax describes what counts as a leading header line.
type commentSyntax struct {
	linePrefixes []string
	blocks       [][2]string
	extra        func(trimmed string) bool
}

// leadingHeaderEnd returns the first line index after the leading block of
// blank and comment lines.
func leadingHeaderEnd(lines []string, syntax commentSyntax) int {
	closing := ""
	for idx, line := range lines {
		trimmed := strings.TrimSpace(line)
		if closing != "" {
			if strings.Contains(trimmed, closing) {
				closing = ""
			}
			continue
		}
		if trimmed == "" || hasAnyPrefix(trimmed, syntax.linePrefixes) {
			continue
		}
		opened := false
		for _, block := range syntax.blocks {
			if strings.HasPrefix(trimmed, block[0]) {
				if !strings.Contains(trimmed[len(block[0]):], block[1]) {
					closing = block[1]
				}
				opened = true
				break
			}
		}
		if opened {
			continue
		}
		if syntax.extra != nil && syntax.extra(trimmed) {
			continue
		}
		return idx
	}
	return len(lines)
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

func splitLines(text string) []string {
	if text == "" {
		return []string{}
	}
	lines := strings.Split(text, "\n")
	if strings.HasSuffix(text, "\n") {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func detectLineEnding(text string) string {
	if strings.Contains(text, "\r\n") {
		return "\r\n"
	}
	return "\n"
}

// spliceLinesAt inserts lines before line index lineIdx, keeping the
// original line ending style.
func spliceLinesAt(text string, lineIdx int, newLines []string) string {
	if len(newLines) == 0 {
		return text
	}
	eol := detectLineEnding(text)
	offset := newLineIndex([]byte(text)).offsetOf(lineIdx)
	if offset < 0 {
		offset = len(text)
	}
	return spliceAtOffset(text, offset, newLines, eol)
}

// spliceAtOffset inserts lines at a byte offset. When the offset is not at a
// line start, the lines are placed on a fresh line.
func spliceAtOffset(text string, offset int, newLines []string, eol string) string {
	insertion := strings.Join(newLines, eol) + eol
	if offset > 0 && text[offset-1] != '\n' {
		insertion = eol + strings.Join(newLines, eol)
		if offset < len(text) {
			insertion += eol
		}
	}
	return text[:offset] + insertion + text[offset:]
}
