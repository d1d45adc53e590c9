package main

import (
	"log/slog"
)

// ExportIndex maps defining files to their exports. Iteration follows
// insertion order, which is the project walk order.
type ExportIndex struct {
	files    []string
	exports  map[string][]ExportInfo
	families map[string]string
}

func NewExportIndex() *ExportIndex {
	return &ExportIndex{exports: map[string][]ExportInfo{}, families: map[string]string{}}
}

// add stores all exports of a file at once. Empty lists and repeated paths
// are ignored.
func (idx *ExportIndex) add(path, family string, exports []ExportInfo) {
	if len(exports) == 0 {
		return
	}
	if _, exists := idx.exports[path]; exists {
		return
	}
	idx.files = append(idx.files, path)
	idx.exports[path] = exports
	idx.families[path] = family
}

func (idx *ExportIndex) Files() []string {
	return idx.files
}

func (idx *ExportIndex) Exports(path string) []ExportInfo {
	return idx.exports[path]
}

// Family is the language family of the plugin that indexed path.
func (idx *ExportIndex) Family(path string) string {
	return idx.families[path]
}

func (idx *ExportIndex) Len() int {
	return len(idx.files)
}

// BuildExportIndex runs one pass over files. Files without a plugin or with
// a read error contribute nothing.
func BuildExportIndex(files []SourceFile, registry *PluginRegistry) *ExportIndex {
	idx := NewExportIndex()
	for _, file := range files {
		plugin, ok := registry.ForExtension(file.Ext)
		if !ok {
			continue
		}
		if file.ReadErr != nil {
			slog.Debug("skipping unreadable file", "path", file.Path, "err", file.ReadErr)
			continue
		}
		exports := plugin.ParseExports(file.Content, file.Path)
		for i := range exports {
			exports[i].Source = file.Path
		}
		idx.add(file.Path, languageFamily(plugin), exports)
	}
	slog.Debug("export index built", "files", len(files), "exporting", idx.Len())
	return idx
}

// languageFamily groups plugins whose files can import each other.
func languageFamily(plugin LanguagePlugin) string {
	if _, ok := plugin.(*ComponentPlugin); ok {
		return "javascript"
	}
	return plugin.Name()
}
