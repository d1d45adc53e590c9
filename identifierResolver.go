package main

// FindMissingImports returns the identifiers used in a file that are neither
// imported, declared locally nor built in. Each name is reported once, in
// order of first use.
func FindMissingImports(file SourceFile, plugin LanguagePlugin) []MissingImport {
	imported := map[string]bool{}
	for _, imp := range plugin.ParseImports(file.Content, file.Path) {
		for _, name := range imp.Imports {
			imported[name] = true
		}
	}
	declared := plugin.FindLocalDeclarations(file.Content, file.Path)

	missing := []MissingImport{}
	for _, used := range uniqueUsages(plugin.FindUsedIdentifiers(file.Content, file.Path)) {
		if imported[used.Name] || declared[used.Name] || plugin.IsBuiltInOrKeyword(used.Name) {
			continue
		}
		missing = append(missing, MissingImport{Identifier: used.Name, File: file.Path})
	}
	return missing
}

// ResolveIdentifier returns the first export named identifier in index
// order, skipping the consuming file. The returned Source is the specifier
// to import from, not the defining path.
func ResolveIdentifier(identifier, consumingFile string, index *ExportIndex, resolver *PathResolver, plugin LanguagePlugin) *ExportInfo {
	match, ok := lookupExport(identifier, consumingFile, index, plugin)
	if !ok {
		return nil
	}
	match.Source = resolver.Relativize(consumingFile, match.Source, plugin)
	return &match
}

// lookupExport only considers files of the consuming plugin's language family.
func lookupExport(identifier, consumingFile string, index *ExportIndex, plugin LanguagePlugin) (ExportInfo, bool) {
	family := languageFamily(plugin)
	for _, file := range index.Files() {
		if file == consumingFile || index.Family(file) != family {
			continue
		}
		for _, exp := range index.Exports(file) {
			if exp.Name == identifier {
				return exp, true
			}
		}
	}
	return ExportInfo{}, false
}

// ResolveMissingImports fills in suggestions and returns the imports the
// edit planner should add.
func ResolveMissingImports(missing []MissingImport, index *ExportIndex, resolver *PathResolver, plugin LanguagePlugin) ([]MissingImport, []ResolvedImport) {
	resolved := []ResolvedImport{}
	out := make([]MissingImport, 0, len(missing))
	for _, m := range missing {
		if exp, ok := lookupExport(m.Identifier, m.File, index, plugin); ok {
			specifier := resolver.Relativize(m.File, exp.Source, plugin)
			m.Suggestion = &ImportSuggestion{Source: specifier, IsDefault: exp.IsDefault}
			resolved = append(resolved, ResolvedImport{
				Identifier: m.Identifier,
				Specifier:  specifier,
				IsDefault:  exp.IsDefault,
				IsType:     exp.IsType,
				DefinedIn:  exp.Source,
			})
		}
		out = append(out, m)
	}
	return out, resolved
}
