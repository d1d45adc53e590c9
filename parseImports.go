package main

type jsImport struct {
	statement ImportStatement
	start     int
	end       int
}

type jsScanResult struct {
	imports []jsImport
	exports []ExportInfo
}

func isWhiteSpace(char byte) bool {
	return (char == ' ' || char == '\t' || char == '\n' || char == '\r')
}

// skipSpaces skips spaces, tabs, and newlines, returns new index
func skipSpaces(code []byte, i int) int {
	for i < len(code) && isWhiteSpace(code[i]) {
		i++
	}
	return i
}

func isByteIdentifierChar(char byte) bool {
	// 0-9 || A-Z || a-z || _ || $
	return (char >= '0' && char <= '9') || (char >= 'A' && char <= 'Z') || (char >= 'a' && char <= 'z') || char == '_' || char == '$'
}

func isByteIdentifierStart(char byte) bool {
	return (char >= 'A' && char <= 'Z') || (char >= 'a' && char <= 'z') || char == '_' || char == '$'
}

func hasPrefixAt(code []byte, i int, s string) bool {
	if i < 0 || i+len(s) > len(code) {
		return false
	}
	for j := 0; j < len(s); j++ {
		if code[i+j] != s[j] {
			return false
		}
	}
	return true
}

// hasWordAt reports whether s occurs at i as a whole word.
func hasWordAt(code []byte, i int, s string) bool {
	if !hasPrefixAt(code, i, s) {
		return false
	}
	if i > 0 && isByteIdentifierChar(code[i-1]) {
		return false
	}
	end := i + len(s)
	return end >= len(code) || !isByteIdentifierChar(code[end])
}

// parseStringLiteral extracts the string literal at position i (' or ")
func parseStringLiteral(code []byte, i int) (string, int) {
	quote := code[i]
	i++
	start := i
	for i < len(code) && code[i] != quote && code[i] != '\n' {
		i++
	}
	if i >= len(code) || code[i] != quote {
		return "", i
	}
	return string(code[start:i]), i + 1
}

// skipToStringEnd returns the index of the closing quote. Single and double
// quoted strings also end at an unescaped newline.
func skipToStringEnd(code []byte, start int, quote byte) int {
	i := start + 1
	for i < len(code) {
		if code[i] == quote || (code[i] == '\n' && quote != '`') {
			return i
		}
		if code[i] == '\\' && i+1 < len(code) {
			i += 2
		} else {
			i++
		}
	}
	return i
}

func skipLineComment(code []byte, start int) int {
	i := start + 2
	for i < len(code) && code[i] != '\n' {
		i++
	}
	return i
}

func skipBlockComment(code []byte, start int) int {
	i := start + 2
	for i+1 < len(code) && !(code[i] == '*' && code[i+1] == '/') {
		i++
	}
	if i+1 < len(code) {
		return i + 2
	}
	return len(code)
}

// skipSpacesAndComments skips whitespace, line comments, and block comments
func skipSpacesAndComments(code []byte, i int) int {
	n := len(code)
	for i < n {
		i = skipSpaces(code, i)
		if i+1 < n && code[i] == '/' && code[i+1] == '/' {
			i = skipLineComment(code, i)
			continue
		}
		if i+1 < n && code[i] == '/' && code[i+1] == '*' {
			i = skipBlockComment(code, i)
			continue
		}
		break
	}
	return i
}

// skipOptionalSemicolon skips spaces/tabs then `;` if present.
func skipOptionalSemicolon(code []byte, i int) int {
	j := i
	for j < len(code) && (code[j] == ' ' || code[j] == '\t') {
		j++
	}
	if j < len(code) && code[j] == ';' {
		return j + 1
	}
	return i
}

// parseIdentifier extracts a single identifier token starting at position i.
func parseIdentifier(code []byte, i int) (string, int) {
	if i >= len(code) || !isByteIdentifierStart(code[i]) {
		return "", i
	}
	start := i
	for i < len(code) && isByteIdentifierChar(code[i]) {
		i++
	}
	return string(code[start:i]), i
}

// skipBalanced skips from an opening bracket to just past its matching closing bracket.
func skipBalanced(code []byte, i int, open, close byte) int {
	depth := 0
	for i < len(code) {
		switch b := code[i]; {
		case b == open:
			depth++
		case b == close:
			depth--
			if depth == 0 {
				return i + 1
			}
		case b == '\'' || b == '"' || b == '`':
			i = skipToStringEnd(code, i, b)
		case b == '/' && i+1 < len(code) && code[i+1] == '/':
			i = skipLineComment(code, i)
			continue
		case b == '/' && i+1 < len(code) && code[i+1] == '*':
			i = skipBlockComment(code, i)
			continue
		}
		i++
	}
	return i
}

// parseBindingList parses `{ a, b as c, type d }` and returns pairs of
// (original name, local alias). The alias is empty when `as` is not used.
func parseBindingList(code []byte, i int) (names [][2]string, typeFlags []bool, next int) {
	n := len(code)
	i++ // skip '{'
	for i < n {
		i = skipSpacesAndComments(code, i)
		if i >= n {
			break
		}
		if code[i] == '}' {
			i++
			break
		}

		isType := false
		if hasWordAt(code, i, "type") {
			saved := i
			j := skipSpacesAndComments(code, i+4)
			if j < n && (isByteIdentifierStart(code[j]) || code[j] == '"' || code[j] == '\'') && !hasWordAt(code, j, "as") {
				isType = true
				i = j
			} else {
				i = saved
			}
		}

		var name string
		if code[i] == '"' || code[i] == '\'' {
			name, i = parseStringLiteral(code, i)
		} else {
			name, i = parseIdentifier(code, i)
		}
		if name == "" {
			i++
			continue
		}

		i = skipSpacesAndComments(code, i)
		alias := ""
		if hasWordAt(code, i, "as") {
			i = skipSpacesAndComments(code, i+2)
			if i < n && (code[i] == '"' || code[i] == '\'') {
				alias, i = parseStringLiteral(code, i)
			} else {
				alias, i = parseIdentifier(code, i)
			}
		}
		names = append(names, [2]string{name, alias})
		typeFlags = append(typeFlags, isType)

		i = skipSpacesAndComments(code, i)
		if i < n && code[i] == ',' {
			i++
		}
	}
	return names, typeFlags, i
}

type jsParseState struct {
	code    []byte
	n       int
	lines   *lineIndex
	imports []jsImport
	exports []ExportInfo
}

func (s *jsParseState) addExport(name string, isDefault, isType bool) {
	if name == "" {
		return
	}
	s.exports = append(s.exports, ExportInfo{Name: name, IsDefault: isDefault, IsType: isType})
}

func (s *jsParseState) skipDeclareAmbientBlock(i int) (int, bool) {
	if !hasWordAt(s.code, i, "declare") {
		return i, false
	}
	j := skipSpaces(s.code, i+7)
	if !hasWordAt(s.code, j, "module") && !hasWordAt(s.code, j, "global") && !hasWordAt(s.code, j, "namespace") {
		return i, false
	}
	for j < s.n && s.code[j] != '{' && s.code[j] != ';' && s.code[j] != '\n' {
		j++
	}
	if j < s.n && s.code[j] == '{' {
		return skipBalanced(s.code, j, '{', '}'), true
	}
	return j, true
}

func (s *jsParseState) parseImportStatement(i int) (int, bool) {
	if !hasWordAt(s.code, i, "import") {
		return i, false
	}
	start := i
	i += len("import")
	j := skipSpacesAndComments(s.code, i)
	if j >= s.n || s.code[j] == '(' || s.code[j] == '.' {
		// dynamic import() and import.meta
		return j, true
	}
	i = j

	if hasWordAt(s.code, i, "type") {
		k := skipSpacesAndComments(s.code, i+4)
		if k < s.n && !hasWordAt(s.code, k, "from") && s.code[k] != ',' && s.code[k] != '=' {
			i = k
		}
	}

	// Side-effect import: `import "mod"`
	if s.code[i] == '"' || s.code[i] == '\'' {
		module, next := parseStringLiteral(s.code, i)
		if module != "" {
			end := skipOptionalSemicolon(s.code, next)
			s.appendImport(ImportStatement{Source: module}, start, end)
		}
		return next, true
	}

	stmt := ImportStatement{}
	for i < s.n {
		i = skipSpacesAndComments(s.code, i)
		if i >= s.n {
			break
		}
		switch {
		case s.code[i] == '*':
			i = skipSpacesAndComments(s.code, i+1)
			if hasWordAt(s.code, i, "as") {
				i = skipSpacesAndComments(s.code, i+2)
				var alias string
				alias, i = parseIdentifier(s.code, i)
				if alias != "" {
					stmt.Imports = append(stmt.Imports, alias)
					stmt.IsNamespace = true
				}
			}
		case s.code[i] == '{':
			var names [][2]string
			names, _, i = parseBindingList(s.code, i)
			for _, pair := range names {
				local := pair[0]
				if pair[1] != "" {
					local = pair[1]
				}
				stmt.Imports = append(stmt.Imports, local)
			}
		case isByteIdentifierStart(s.code[i]) && !hasWordAt(s.code, i, "from"):
			var name string
			name, i = parseIdentifier(s.code, i)
			i = skipSpacesAndComments(s.code, i)
			if i < s.n && s.code[i] == '=' {
				// `import X = require(...)` and `import X = Ns.Y`
				stmt.Imports = append(stmt.Imports, name)
				end := skipToStatementEnd(s.code, i)
				s.appendImport(stmt, start, end)
				return end, true
			}
			stmt.Imports = append(stmt.Imports, name)
			stmt.IsDefault = true
		}
		i = skipSpacesAndComments(s.code, i)
		if i < s.n && s.code[i] == ',' {
			i++
			continue
		}
		break
	}

	if !hasWordAt(s.code, i, "from") {
		return i, true
	}
	i = skipSpacesAndComments(s.code, i+4)
	if i >= s.n || (s.code[i] != '"' && s.code[i] != '\'') {
		return i, true
	}
	module, next := parseStringLiteral(s.code, i)
	if module == "" {
		return next, true
	}
	stmt.Source = module
	s.appendImport(stmt, start, skipOptionalSemicolon(s.code, next))
	return next, true
}

func (s *jsParseState) appendImport(stmt ImportStatement, start, end int) {
	stmt.StartLine = s.lines.lineAt(start)
	last := end - 1
	if last < start {
		last = start
	}
	stmt.EndLine = s.lines.lineAt(last)
	s.imports = append(s.imports, jsImport{statement: stmt, start: start, end: end})
}

// skipToStatementEnd moves to the end of a simple statement (`;` or newline at depth 0).
func skipToStatementEnd(code []byte, i int) int {
	for i < len(code) {
		switch code[i] {
		case ';':
			return i + 1
		case '\n':
			return i
		case '(':
			i = skipBalanced(code, i, '(', ')')
			continue
		case '\'', '"', '`':
			i = skipToStringEnd(code, i, code[i])
		}
		i++
	}
	return i
}

func (s *jsParseState) parseExportStatement(i int) (int, bool) {
	if !hasWordAt(s.code, i, "export") {
		return i, false
	}
	i += len("export")
	if i >= s.n || !(isWhiteSpace(s.code[i]) || s.code[i] == '{' || s.code[i] == '*') {
		return i, true
	}
	i = skipSpacesAndComments(s.code, i)

	if hasWordAt(s.code, i, "declare") {
		i = skipSpacesAndComments(s.code, i+7)
	}

	if hasWordAt(s.code, i, "default") {
		return s.parseDefaultExport(skipSpacesAndComments(s.code, i+7)), true
	}

	// `export * from`, `export * as ns from`
	if i < s.n && s.code[i] == '*' {
		i = skipSpacesAndComments(s.code, i+1)
		if hasWordAt(s.code, i, "as") {
			var alias string
			alias, i = parseIdentifier(s.code, skipSpacesAndComments(s.code, i+2))
			s.addExport(alias, false, false)
		}
		return i, true
	}

	isWholeType := false
	if hasWordAt(s.code, i, "type") {
		j := skipSpacesAndComments(s.code, i+4)
		if j < s.n && s.code[j] == '{' {
			isWholeType = true
			i = j
		}
	}

	if i < s.n && s.code[i] == '{' {
		names, typeFlags, next := parseBindingList(s.code, i)
		for idx, pair := range names {
			isType := isWholeType || typeFlags[idx]
			switch {
			case pair[1] == DefaultExportName:
				s.addExport(pair[0], true, isType)
			case pair[1] != "":
				s.addExport(pair[1], false, isType)
			case pair[0] != DefaultExportName:
				s.addExport(pair[0], false, isType)
			}
		}
		return next, true
	}

	name, isType, next := parseDeclarationName(s.code, i)
	if name != "" {
		s.addExport(name, false, isType)
		return next, true
	}
	for _, destructured := range parseDestructuredDeclaration(s.code, i) {
		s.addExport(destructured, false, false)
	}
	return next, true
}

func (s *jsParseState) parseDefaultExport(i int) int {
	if name, _, next := parseDeclarationName(s.code, i); name != "" {
		s.addExport(name, true, false)
		return next
	}
	if hasWordAt(s.code, i, "async") || hasWordAt(s.code, i, "function") || hasWordAt(s.code, i, "class") {
		s.addExport(DefaultExportName, true, false)
		return i
	}
	// `export default Identifier;`
	if name, next := parseIdentifier(s.code, i); name != "" {
		j := next
		for j < s.n && (s.code[j] == ' ' || s.code[j] == '\t') {
			j++
		}
		if j >= s.n || s.code[j] == ';' || s.code[j] == '\n' || s.code[j] == '\r' || s.code[j] == '}' {
			s.addExport(name, true, false)
			return next
		}
	}
	s.addExport(DefaultExportName, true, false)
	return i
}

// parseDeclarationName reads the declared name of the declaration starting at i.
// Handles: const/let/var, function, async function, generators, class,
// abstract class, type, interface, enum, const enum, namespace and module.
func parseDeclarationName(code []byte, i int) (name string, isType bool, next int) {
	n := len(code)
	if hasWordAt(code, i, "abstract") {
		i = skipSpacesAndComments(code, i+8)
	}
	if hasWordAt(code, i, "async") {
		i = skipSpacesAndComments(code, i+5)
	}

	switch {
	case hasWordAt(code, i, "function"):
		j := skipSpacesAndComments(code, i+8)
		if j < n && code[j] == '*' {
			j = skipSpacesAndComments(code, j+1)
		}
		name, next = parseIdentifier(code, j)
		return name, false, next
	case hasWordAt(code, i, "class"):
		j := skipSpacesAndComments(code, i+5)
		if hasWordAt(code, j, "extends") || hasWordAt(code, j, "implements") {
			return "", false, j
		}
		name, next = parseIdentifier(code, j)
		return name, false, next
	case hasWordAt(code, i, "const"):
		j := skipSpacesAndComments(code, i+5)
		if hasWordAt(code, j, "enum") {
			name, next = parseIdentifier(code, skipSpacesAndComments(code, j+4))
			return name, true, next
		}
		name, next = parseIdentifier(code, j)
		return name, false, next
	case hasWordAt(code, i, "let"), hasWordAt(code, i, "var"):
		name, next = parseIdentifier(code, skipSpacesAndComments(code, i+3))
		return name, false, next
	case hasWordAt(code, i, "namespace"):
		name, next = parseIdentifier(code, skipSpacesAndComments(code, i+9))
		return name, false, next
	case hasWordAt(code, i, "module"):
		name, next = parseIdentifier(code, skipSpacesAndComments(code, i+6))
		return name, false, next
	}

	for _, kw := range []string{"type", "interface", "enum"} {
		if hasWordAt(code, i, kw) {
			name, next = parseIdentifier(code, skipSpacesAndComments(code, i+len(kw)))
			return name, true, next
		}
	}
	return "", false, i
}

// parseDestructuredDeclaration reads `const { a, b: c } = ...` and `const [a, b] = ...`.
func parseDestructuredDeclaration(code []byte, i int) []string {
	if !hasWordAt(code, i, "const") && !hasWordAt(code, i, "let") && !hasWordAt(code, i, "var") {
		return nil
	}
	for i < len(code) && isByteIdentifierChar(code[i]) {
		i++
	}
	i = skipSpacesAndComments(code, i)
	if i >= len(code) || (code[i] != '{' && code[i] != '[') {
		return nil
	}
	closer := byte('}')
	if code[i] == '[' {
		closer = ']'
	}
	end := skipBalanced(code, i, code[i], closer)
	return splitBindingNames(string(code[i+1 : max(i+1, end-1)]))
}

// ScanJsModule walks JS/TS code once and collects top-level imports and exports.
func ScanJsModule(code []byte) jsScanResult {
	state := jsParseState{
		code:  code,
		n:     len(code),
		lines: newLineIndex(code),
	}
	i := 0
	n := state.n
	depth := 0 // static import/export can only appear at depth 0

	for i < n {
		b := code[i]
		switch {
		case b == '\'' || b == '"' || b == '`':
			i = skipToStringEnd(code, i, b)
			if i < n {
				i++
			}
			continue
		case b == '/' && i+1 < n && code[i+1] == '/':
			i = skipLineComment(code, i)
			continue
		case b == '/' && i+1 < n && code[i+1] == '*':
			i = skipBlockComment(code, i)
			continue
		case b == '{':
			depth++
			i++
			continue
		case b == '}':
			if depth > 0 {
				depth--
			}
			i++
			continue
		}

		if depth == 0 && (i == 0 || (!isByteIdentifierChar(code[i-1]) && code[i-1] != '.')) {
			switch b {
			case 'd':
				if next, ok := state.skipDeclareAmbientBlock(i); ok {
					i = next
					continue
				}
			case 'i':
				if next, ok := state.parseImportStatement(i); ok {
					i = next
					continue
				}
			case 'e':
				if next, ok := state.parseExportStatement(i); ok {
					i = next
					continue
				}
			}
		}
		i++
	}

	return jsScanResult{imports: state.imports, exports: state.exports}
}

// ParseJsImports returns the import declarations of JS/TS code.
func ParseJsImports(code []byte) []ImportStatement {
	scan := ScanJsModule(code)
	result := make([]ImportStatement, 0, len(scan.imports))
	for _, imp := range scan.imports {
		result = append(result, imp.statement)
	}
	return result
}
