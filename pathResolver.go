package main

import (
	"path/filepath"
	"slices"
	"strings"
)

// strippableExtensions are removed from specifiers. Longer suffixes first so
// ".d.ts" wins over ".ts". Component extensions are never stripped.
var strippableExtensions = []string{".d.ts", ".tsx", ".ts", ".jsx", ".js", ".mjs", ".cjs", ".mts", ".cts", ".py", ".rs"}

// PathResolver computes the specifier a consuming file uses to import a
// defining file.
type PathResolver struct {
	aliases []PathAlias
	enabled bool
}

// NewPathResolver keeps aliases in configuration order. Longest target
// directory wins at lookup time, ties go to the earlier alias.
func NewPathResolver(aliases []PathAlias, enabled bool) *PathResolver {
	return &PathResolver{aliases: aliases, enabled: enabled && len(aliases) > 0}
}

func (r *PathResolver) AliasesEnabled() bool {
	return r.enabled
}

// Relativize returns the specifier for toFile as seen from fromFile. A
// plugin that renders its own specifiers takes precedence.
func (r *PathResolver) Relativize(fromFile, toFile string, plugin LanguagePlugin) string {
	if renderer, ok := plugin.(SpecifierRenderer); ok {
		if specifier, ok := renderer.RenderSpecifier(fromFile, toFile); ok {
			return specifier
		}
	}
	if r.enabled && plugin.SupportsPathAliases() {
		if specifier, ok := r.aliased(toFile); ok {
			return specifier
		}
	}
	return relativeSpecifier(fromFile, toFile)
}

func (r *PathResolver) aliased(toFile string) (string, bool) {
	best := -1
	bestLen := -1
	for i, alias := range r.aliases {
		target := filepath.Clean(alias.TargetDirectory)
		if !isWithinDir(toFile, target) {
			continue
		}
		if len(target) > bestLen {
			best, bestLen = i, len(target)
		}
	}
	if best < 0 {
		return "", false
	}
	alias := r.aliases[best]
	rest, err := filepath.Rel(filepath.Clean(alias.TargetDirectory), toFile)
	if err != nil {
		return "", false
	}
	return alias.Prefix + stripSourceExtension(filepath.ToSlash(rest)), true
}

func relativeSpecifier(fromFile, toFile string) string {
	rel, err := filepath.Rel(filepath.Dir(fromFile), toFile)
	if err != nil {
		rel = toFile
	}
	rel = stripSourceExtension(filepath.ToSlash(rel))
	if !strings.HasPrefix(rel, ".") {
		rel = "./" + rel
	}
	return rel
}

// stripSourceExtension removes a recognised source extension. "types.d"
// or "config.prod" are left alone.
func stripSourceExtension(specifier string) string {
	base := specifier[strings.LastIndex(specifier, "/")+1:]
	for _, ext := range strippableExtensions {
		if strings.HasSuffix(base, ext) && len(base) > len(ext) {
			return strings.TrimSuffix(specifier, ext)
		}
	}
	return specifier
}

func isWithinDir(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

// sortedAliasPrefixes is used for logging only.
func sortedAliasPrefixes(aliases []PathAlias) []string {
	prefixes := make([]string, 0, len(aliases))
	for _, a := range aliases {
		prefixes = append(prefixes, a.Prefix)
	}
	slices.Sort(prefixes)
	return prefixes
}
