package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// defaultExcludedDirs are skipped by name at any depth.
var defaultExcludedDirs = map[string]struct{}{
	"node_modules": {},
	"dist":         {},
	"build":        {},
	"out":          {},
	".next":        {},
	".nuxt":        {},
	"coverage":     {},
	"target":       {},
	"venv":         {},
	".venv":        {},
	"env":          {},
	"__pycache__":  {},
	".git":         {},
}

func hasCorrectExtension(name string, allowedExts map[string]bool) bool {
	return allowedExts[strings.ToLower(filepath.Ext(name))]
}

func parseGitIgnore(fileContent string, dirPath string) []GlobMatcher {
	lines := strings.Split(fileContent, "\n")

	sanitizedLines := []string{}

	for _, line := range lines {
		trimmedLined := strings.TrimSpace(line)
		// negations are not supported, they would otherwise be compiled as literal patterns
		if len(trimmedLined) > 0 && !strings.HasPrefix(trimmedLined, "#") && !strings.HasPrefix(trimmedLined, "!") {
			sanitizedLines = append(sanitizedLines, trimmedLined)
		}
	}

	return CreateGlobMatchers(sanitizedLines, dirPath)
}

func FindAndProcessGitIgnoreFilesUpToRepoRoot(dirPath string) []GlobMatcher {
	return findAndProcessGitIgnoreFilesUpToRepoRoot(filepath.Clean(dirPath), []GlobMatcher{})
}

func findAndProcessGitIgnoreFilesUpToRepoRoot(dirPath string, globMatchers []GlobMatcher) []GlobMatcher {
	gitignoreFile, gitignoreError := os.ReadFile(filepath.Join(dirPath, ".gitignore"))

	if gitignoreError == nil {
		globMatchers = append(globMatchers, parseGitIgnore(string(gitignoreFile), dirPath)...)
	}

	gitDir, gitDirReadErr := os.Stat(filepath.Join(dirPath, ".git"))

	if gitDirReadErr == nil && gitDir.IsDir() {
		// found git root
		return globMatchers
	}

	parent := filepath.Dir(dirPath)
	if parent == dirPath {
		return globMatchers
	}
	return findAndProcessGitIgnoreFilesUpToRepoRoot(parent, globMatchers)
}

// GetProjectFiles enumerates the source files under root in lexical order.
// Only the root being unreadable is an error; files that cannot be read are
// returned with ReadErr set.
func GetProjectFiles(root string, allowedExts map[string]bool, ignorePatterns []string) ([]SourceFile, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrRootNotAccessible, root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrRootNotAccessible, root)
	}
	if _, err := os.ReadDir(root); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrRootNotAccessible, root, err)
	}

	matchers := append(FindAndProcessGitIgnoreFilesUpToRepoRoot(root), CreateGlobMatchers(ignorePatterns, root)...)
	paths := GetFiles(root, []string{}, matchers, allowedExts)

	files := make([]SourceFile, 0, len(paths))
	for _, path := range paths {
		osPath := DenormalizePathForOS(path)
		content, err := os.ReadFile(osPath)
		file := NewSourceFile(osPath, string(content))
		if err != nil {
			slog.Debug("cannot read file", "path", osPath, "err", err)
			file.ReadErr = err
			file.Content = ""
		}
		files = append(files, file)
	}
	return files, nil
}

func GetFiles(directory string, existingFiles []string, parentGlobMatchers []GlobMatcher, allowedExts map[string]bool) []string {
	entries, err := os.ReadDir(directory)
	if err != nil {
		return existingFiles
	}

	for _, entry := range entries {
		entryName := entry.Name()
		entryFilePath := filepath.Join(directory, entryName)

		if entry.IsDir() {
			if _, excluded := defaultExcludedDirs[entryName]; excluded {
				continue
			}
			if !MatchesAnyGlobMatcher(entryFilePath+"/", parentGlobMatchers) {
				// nested .gitignore files apply to their own subtree only
				gitignoreFile, gitignoreError := os.ReadFile(filepath.Join(entryFilePath, ".gitignore"))

				ignoreGlobs := parentGlobMatchers
				if gitignoreError == nil {
					nested := parseGitIgnore(string(gitignoreFile), entryFilePath)
					ignoreGlobs = append(append([]GlobMatcher{}, parentGlobMatchers...), nested...)
				}

				existingFiles = GetFiles(entryFilePath, existingFiles, ignoreGlobs, allowedExts)
			}
			continue
		}

		if hasCorrectExtension(entryName, allowedExts) && !MatchesAnyGlobMatcher(entryFilePath, parentGlobMatchers) {
			existingFiles = append(existingFiles, NormalizePathForInternal(entryFilePath))
		}
	}

	return existingFiles
}
