package main

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/pmezard/go-difflib/difflib"
)

var (
	pathColor       = color.New(color.Bold)
	resolvedColor   = color.New(color.FgGreen)
	unresolvedColor = color.New(color.FgYellow)
	failedColor     = color.New(color.FgRed)
	dimColor        = color.New(color.Faint)
)

func displayPath(root, path string) string {
	if rel, err := filepath.Rel(root, path); err == nil {
		return filepath.ToSlash(rel)
	}
	return path
}

// WriteTextReport prints per-file details followed by a summary line.
func WriteTextReport(w io.Writer, report RunReport, root string, dryRun bool) {
	for _, fr := range report.Files {
		pathColor.Fprintln(w, displayPath(root, fr.Path))
		if fr.Err != nil || fr.Error != "" {
			failedColor.Fprintf(w, "  failed: %s\n", fr.Error)
		}
		for _, m := range fr.Missing {
			if m.Resolved() {
				form := "named"
				if m.Suggestion.IsDefault {
					form = "default"
				}
				fmt.Fprintf(w, "  %s %s %s %s\n", resolvedColor.Sprint("+"), m.Identifier, dimColor.Sprint("from"), m.Suggestion.Source+dimColor.Sprintf(" (%s)", form))
				continue
			}
			fmt.Fprintf(w, "  %s %s %s\n", unresolvedColor.Sprint("?"), m.Identifier, dimColor.Sprint("not found"))
		}
	}

	action := "added"
	if dryRun {
		action = "would add"
	}
	fmt.Fprintf(w, "\nScanned %d files, %d with missing imports: %d missing, %d %s, %d not found",
		report.FilesScanned, report.FilesWithMissing, report.MissingTotal, report.Resolved, action, report.Unresolved)
	if report.Failed > 0 {
		failedColor.Fprintf(w, ", %d failed", report.Failed)
	}
	fmt.Fprintln(w)
}

func WriteJSONReport(w io.Writer, report RunReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// WriteDiffs prints a unified diff for every planned edit.
func WriteDiffs(w io.Writer, edits []FileEdit, root string) error {
	for _, edit := range edits {
		rel := displayPath(root, edit.Path)
		diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
			A:        difflib.SplitLines(edit.Original),
			B:        difflib.SplitLines(edit.Updated),
			FromFile: "a/" + rel,
			ToFile:   "b/" + rel,
			Context:  3,
		})
		if err != nil {
			return fmt.Errorf("diff %s: %w", rel, err)
		}
		if _, err := io.WriteString(w, diff); err != nil {
			return err
		}
	}
	return nil
}
