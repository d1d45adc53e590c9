package main

import (
	"path/filepath"
	"regexp"
	"strings"
)

var (
	scriptOpenTagRegExp   = regexp.MustCompile(`(?i)<script\b([^>]*)>`)
	scriptCloseTagRegExp  = regexp.MustCompile(`(?i)</script\s*>`)
	styleBlockRegExp      = regexp.MustCompile(`(?is)<style\b[^>]*>.*?</style\s*>`)
	htmlCommentRegExp     = regexp.MustCompile(`(?s)<!--.*?-->`)
	astroFenceOpenRegExp  = regexp.MustCompile(`\A\s*---[ \t]*\r?\n`)
	astroFenceCloseRegExp = regexp.MustCompile(`(?m)^---[ \t]*\r?$`)
	nonAlphaNumRegExp     = regexp.MustCompile(`[^A-Za-z0-9]+`)

	vueCompilerMacros = wordSet("defineProps", "defineEmits", "defineExpose", "defineOptions", "defineSlots", "defineModel", "withDefaults")
	svelteRunes       = wordSet("$state", "$derived", "$effect", "$props", "$bindable", "$inspect", "$host")
)

// scriptRegion is the code part of a component file. start and end are byte
// offsets of the region content, excluding its delimiters.
type scriptRegion struct {
	start int
	end   int
	attrs string
}

func (r scriptRegion) code(text string) string {
	return text[r.start:r.end]
}

// ComponentPlugin handles single-file component formats whose script lives in
// a delimited region of the file. Script text is delegated to the JS plugin.
type ComponentPlugin struct {
	name        string
	extensions  []string
	js          *JavaScriptPlugin
	findRegions func(text string) []scriptRegion
	preferred   func(regions []scriptRegion) int
	newRegion   func(eol string, lines []string) string
	builtins    map[string]bool
}

func NewVuePlugin(js *JavaScriptPlugin) *ComponentPlugin {
	return &ComponentPlugin{
		name:        "vue",
		extensions:  []string{".vue"},
		js:          js,
		findRegions: findScriptTagRegions,
		preferred: func(regions []scriptRegion) int {
			return preferRegion(regions, func(r scriptRegion) bool { return hasAttribute(r.attrs, "setup") })
		},
		newRegion: func(eol string, lines []string) string {
			return "<script setup>" + eol + strings.Join(lines, eol) + eol + "</script>" + eol + eol
		},
		builtins: vueCompilerMacros,
	}
}

func NewSveltePlugin(js *JavaScriptPlugin) *ComponentPlugin {
	return &ComponentPlugin{
		name:        "svelte",
		extensions:  []string{".svelte"},
		js:          js,
		findRegions: findScriptTagRegions,
		preferred: func(regions []scriptRegion) int {
			return preferRegion(regions, func(r scriptRegion) bool {
				return !strings.Contains(r.attrs, "context=\"module\"") && !hasAttribute(r.attrs, "module")
			})
		},
		newRegion: func(eol string, lines []string) string {
			return "<script>" + eol + strings.Join(lines, eol) + eol + "</script>" + eol + eol
		},
		builtins: svelteRunes,
	}
}

func NewAstroPlugin(js *JavaScriptPlugin) *ComponentPlugin {
	return &ComponentPlugin{
		name:        "astro",
		extensions:  []string{".astro"},
		js:          js,
		findRegions: findFrontmatterRegion,
		preferred:   func(regions []scriptRegion) int { return 0 },
		newRegion: func(eol string, lines []string) string {
			return "---" + eol + strings.Join(lines, eol) + eol + "---" + eol
		},
	}
}

func (p *ComponentPlugin) Name() string              { return p.name }
func (p *ComponentPlugin) Extensions() []string      { return p.extensions }
func (p *ComponentPlugin) SupportsPathAliases() bool { return true }

func (p *ComponentPlugin) IsBuiltInOrKeyword(name string) bool {
	return p.builtins[name] || p.js.IsBuiltInOrKeyword(name)
}

func (p *ComponentPlugin) GenerateImportStatement(identifier, source string, isDefault bool) string {
	return p.js.GenerateImportStatement(identifier, source, isDefault)
}

// ParseImports parses every script region. Line numbers refer to the whole file.
func (p *ComponentPlugin) ParseImports(text, path string) []ImportStatement {
	lines := newLineIndex([]byte(text))
	imports := []ImportStatement{}
	for _, region := range p.findRegions(text) {
		imports = append(imports, regionImports(text, region, lines, p.js)...)
	}
	return imports
}

func regionImports(text string, region scriptRegion, lines *lineIndex, js *JavaScriptPlugin) []ImportStatement {
	firstLine := lines.lineAt(region.start)
	imports := js.ParseImports(region.code(text), "")
	for i := range imports {
		imports[i].StartLine += firstLine
		imports[i].EndLine += firstLine
	}
	return imports
}

// FindUsedIdentifiers scans masked script regions and the raw markup, so
// template expressions count as usages. Styles and HTML comments are ignored.
func (p *ComponentPlugin) FindUsedIdentifiers(text, path string) []UsedIdentifier {
	code := []byte(text)
	for _, loc := range styleBlockRegExp.FindAllStringIndex(text, -1) {
		blankRange(code, []byte(text), loc[0], loc[1])
	}
	for _, loc := range htmlCommentRegExp.FindAllStringIndex(text, -1) {
		blankRange(code, []byte(text), loc[0], loc[1])
	}
	for _, region := range p.findRegions(text) {
		copy(code[region.start:region.end], MaskCStyleCode([]byte(region.code(text))))
	}
	return scanJsUsages(code, p.IsBuiltInOrKeyword)
}

func (p *ComponentPlugin) FindLocalDeclarations(text, path string) map[string]bool {
	declared := map[string]bool{}
	for _, region := range p.findRegions(text) {
		for name := range findJsLocalDeclarations(MaskCStyleCode([]byte(region.code(text)))) {
			declared[name] = true
		}
	}
	return declared
}

// ParseExports returns the implicit default export named after the file,
// followed by the named exports of the script regions.
func (p *ComponentPlugin) ParseExports(text, path string) []ExportInfo {
	exports := []ExportInfo{}
	if name := componentName(path); name != "" {
		exports = append(exports, ExportInfo{Name: name, Source: path, IsDefault: true})
	}
	for _, region := range p.findRegions(text) {
		for _, exp := range p.js.ParseExports(region.code(text), path) {
			if exp.IsDefault {
				continue
			}
			exports = append(exports, exp)
		}
	}
	return exports
}

// GetImportInsertPosition returns the line inside the preferred script region
// where new imports go. Without any region it is line 0.
func (p *ComponentPlugin) GetImportInsertPosition(text, path string) int {
	regions := p.findRegions(text)
	if len(regions) == 0 {
		return 0
	}
	return newLineIndex([]byte(text)).lineAt(p.insertOffset(text, regions[p.preferred(regions)]))
}

// InsertImports splices the lines inside the preferred script region. A file
// without a region gets a new one at the top.
func (p *ComponentPlugin) InsertImports(text string, newImportLines []string, path string) string {
	if len(newImportLines) == 0 {
		return text
	}
	eol := detectLineEnding(text)
	regions := p.findRegions(text)
	if len(regions) == 0 {
		return p.newRegion(eol, newImportLines) + text
	}
	return spliceAtOffset(text, p.insertOffset(text, regions[p.preferred(regions)]), newImportLines, eol)
}

// insertOffset is the byte offset after the region's last import, or the
// start of the region's first content line. It never leaves the region.
func (p *ComponentPlugin) insertOffset(text string, region scriptRegion) int {
	lines := newLineIndex([]byte(text))
	imports := regionImports(text, region, lines, p.js)
	if len(imports) == 0 {
		offset := region.start
		if strings.HasPrefix(text[offset:], "\r\n") {
			offset += 2
		} else if strings.HasPrefix(text[offset:], "\n") {
			offset++
		}
		return min(offset, region.end)
	}
	last := 0
	for _, imp := range imports {
		last = max(last, imp.EndLine)
	}
	offset := lines.offsetOf(last + 1)
	if offset < 0 || offset > region.end {
		return region.end
	}
	return offset
}

func findScriptTagRegions(text string) []scriptRegion {
	regions := []scriptRegion{}
	from := 0
	for from < len(text) {
		open := scriptOpenTagRegExp.FindStringSubmatchIndex(text[from:])
		if open == nil {
			break
		}
		start := from + open[1]
		closing := scriptCloseTagRegExp.FindStringIndex(text[start:])
		if closing == nil {
			break
		}
		end := start + closing[0]
		regions = append(regions, scriptRegion{
			start: start,
			end:   end,
			attrs: text[from+open[2] : from+open[3]],
		})
		from = start + closing[1]
	}
	return regions
}

func findFrontmatterRegion(text string) []scriptRegion {
	open := astroFenceOpenRegExp.FindStringIndex(text)
	if open == nil {
		return nil
	}
	closing := astroFenceCloseRegExp.FindStringIndex(text[open[1]:])
	if closing == nil {
		return nil
	}
	return []scriptRegion{{start: open[1], end: open[1] + closing[0]}}
}

func preferRegion(regions []scriptRegion, match func(scriptRegion) bool) int {
	for i, r := range regions {
		if match(r) {
			return i
		}
	}
	return 0
}

func hasAttribute(attrs, name string) bool {
	for _, field := range strings.Fields(attrs) {
		if field == name || strings.HasPrefix(field, name+"=") {
			return true
		}
	}
	return false
}

// componentName turns "my-button.vue" into "MyButton".
func componentName(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	var sb strings.Builder
	for _, part := range nonAlphaNumRegExp.Split(base, -1) {
		if part == "" {
			continue
		}
		sb.WriteString(strings.ToUpper(part[:1]) + part[1:])
	}
	name := sb.String()
	if name == "" || !isByteIdentifierStart(name[0]) {
		return ""
	}
	return name
}
