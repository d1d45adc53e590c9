package main

import (
	"log/slog"
	"time"
)

// RunOptions configures one invocation over a project root.
type RunOptions struct {
	Root     string
	Config   Config
	Registry *PluginRegistry
}

// Run scans the project, resolves missing imports and, unless the config
// asks for a dry run, writes the planned edits. Only an inaccessible root is
// returned as an error; everything else ends up in the report.
func Run(opts RunOptions) (RunReport, []FileEdit, error) {
	started := time.Now()
	root := ResolveAbsoluteCwd(opts.Root)
	registry := opts.Registry
	if registry == nil {
		registry = DefaultPluginRegistry()
	}

	files, err := GetProjectFiles(root, scannableExtensions(opts.Config, registry), opts.Config.Ignore)
	if err != nil {
		return RunReport{}, nil, err
	}
	slog.Debug("project files collected", "root", root, "count", len(files))

	resolver := NewPathResolver(nil, false)
	if opts.Config.AliasesEnabled() {
		aliases, err := LoadPathAliases(root, opts.Config.TsConfig)
		if err != nil {
			slog.Warn("path aliases disabled", "err", err)
		} else {
			resolver = NewPathResolver(aliases, true)
			slog.Debug("path aliases loaded", "prefixes", sortedAliasPrefixes(aliases))
		}
	}

	index := BuildExportIndex(files, registry)
	report, edits := AnalyzeFiles(files, index, resolver, registry)

	if !opts.Config.DryRun {
		ApplyEdits(&report, edits)
	}
	slog.Debug("run finished", "duration", time.Since(started), "edits", len(edits), "dryRun", opts.Config.DryRun)
	return report, edits, nil
}

// scannableExtensions is the configured extension set minus extensions no
// plugin handles.
func scannableExtensions(cfg Config, registry *PluginRegistry) map[string]bool {
	allowed := map[string]bool{}
	for ext := range cfg.ExtensionSet() {
		if _, ok := registry.ForExtension(ext); ok {
			allowed[ext] = true
		}
	}
	return allowed
}

// AnalyzeFiles computes missing imports and planned edits without touching
// the file system.
func AnalyzeFiles(files []SourceFile, index *ExportIndex, resolver *PathResolver, registry *PluginRegistry) (RunReport, []FileEdit) {
	report := RunReport{Files: []FileReport{}}
	edits := []FileEdit{}
	for _, file := range files {
		plugin, ok := registry.ForExtension(file.Ext)
		if !ok {
			continue
		}
		report.FilesScanned++
		if file.ReadErr != nil {
			report.Failed++
			report.Files = append(report.Files, FileReport{Path: file.Path, Missing: []MissingImport{}, Err: file.ReadErr, Error: file.ReadErr.Error()})
			continue
		}

		missing := FindMissingImports(file, plugin)
		if len(missing) == 0 {
			continue
		}
		missing, resolved := ResolveMissingImports(missing, index, resolver, plugin)

		report.FilesWithMissing++
		report.MissingTotal += len(missing)
		report.Resolved += len(resolved)
		report.Unresolved += len(missing) - len(resolved)
		report.Files = append(report.Files, FileReport{Path: file.Path, Missing: missing})

		if edit := PlanFileEdit(file, resolved, plugin); edit != nil {
			edits = append(edits, *edit)
		}
		for _, m := range missing {
			if !m.Resolved() {
				slog.Debug("import not found", "file", file.Path, "identifier", m.Identifier)
			}
		}
	}
	return report, edits
}

// ApplyEdits writes the edits and records the outcome per file.
func ApplyEdits(report *RunReport, edits []FileEdit) {
	failures := ApplyFileEdits(edits)
	planned := map[string]bool{}
	for _, edit := range edits {
		planned[edit.Path] = true
	}
	for i := range report.Files {
		fr := &report.Files[i]
		if !planned[fr.Path] {
			continue
		}
		if err, failed := failures[fr.Path]; failed {
			fr.Err = err
			fr.Error = err.Error()
			report.Failed++
			slog.Warn("failed to apply imports", "file", fr.Path, "err", err)
			continue
		}
		fr.Applied = true
	}
}
