package main

import (
	"errors"
	"fmt"
	"os"
)

// ErrFileChanged is reported when a file no longer matches the text that was
// scanned.
var ErrFileChanged = errors.New("file changed since it was scanned")

// PlanFileEdit renders every resolved import of a file and splices the whole
// batch with a single InsertImports call, so the insertion point is computed
// against the original text once. It returns nil when there is nothing to add.
func PlanFileEdit(file SourceFile, resolved []ResolvedImport, plugin LanguagePlugin) *FileEdit {
	if len(resolved) == 0 {
		return nil
	}
	lines := make([]string, 0, len(resolved))
	seen := map[string]bool{}
	for _, imp := range resolved {
		line := plugin.GenerateImportStatement(imp.Identifier, imp.Specifier, imp.IsDefault)
		if seen[line] {
			continue
		}
		seen[line] = true
		lines = append(lines, line)
	}
	updated := plugin.InsertImports(file.Content, lines, file.Path)
	if updated == file.Content {
		return nil
	}
	return &FileEdit{Path: file.Path, Original: file.Content, Updated: updated, Imports: resolved}
}

// ApplyFileEdits writes each edit to disk. A failure only affects its own
// file; the returned map holds one error per failed path.
func ApplyFileEdits(edits []FileEdit) map[string]error {
	failures := map[string]error{}
	for _, edit := range edits {
		if err := applyEditToFile(edit); err != nil {
			failures[edit.Path] = err
		}
	}
	return failures
}

func applyEditToFile(edit FileEdit) error {
	info, err := os.Stat(edit.Path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", edit.Path, err)
	}
	content, err := os.ReadFile(edit.Path)
	if err != nil {
		return fmt.Errorf("read %s: %w", edit.Path, err)
	}
	if string(content) != edit.Original {
		return fmt.Errorf("%s: %w", edit.Path, ErrFileChanged)
	}
	if err := os.WriteFile(edit.Path, []byte(edit.Updated), info.Mode().Perm()); err != nil {
		return fmt.Errorf("write %s: %w", edit.Path, err)
	}
	return nil
}
