package main

import (
	"log/slog"
	"strings"

	"github.com/gobwas/glob"
)

type GlobMatcher struct {
	globPattern                        glob.Glob
	inputString                        string
	shouldMatchAnyFileOrDirWithPattern bool
	patternRoot                        string
}

// CreateGlobMatchers compiles ignore patterns relative to patternsRoot.
// Invalid patterns are logged and skipped.
func CreateGlobMatchers(patterns []string, patternsRoot string) []GlobMatcher {
	globMatchers := []GlobMatcher{}
	patternRootNorm := NormalizePathForInternal(patternsRoot)
	if patternRootNorm != "" && !strings.HasSuffix(patternRootNorm, "/") {
		patternRootNorm = patternRootNorm + "/"
	}

	for _, excludePattern := range patterns {
		excludePattern = strings.TrimSpace(excludePattern)
		anchored := strings.HasPrefix(excludePattern, "/")
		excludePattern = strings.TrimPrefix(excludePattern, "/")
		if excludePattern == "" {
			continue
		}
		// plain names match files or directories with that exact name at any depth, as in .gitignore
		shouldMatchAnyFileOrDirWithPattern := !anchored && !strings.Contains(strings.TrimSuffix(excludePattern, "/"), "/") && !strings.Contains(excludePattern, "*")
		plainName := strings.TrimSuffix(excludePattern, "/")

		switch {
		case strings.HasSuffix(excludePattern, "/") && !strings.Contains(excludePattern, "*"):
			// a trailing slash matches the whole directory recursively
			if anchored {
				excludePattern = excludePattern + "**"
			} else {
				excludePattern = "**" + excludePattern + "**"
			}
		case anchored && !strings.Contains(excludePattern, "*"):
			excludePattern = "{" + excludePattern + "," + excludePattern + "/**}"
		}

		patternNorm := NormalizeGlobPattern(excludePattern)
		compiled, err := glob.Compile(patternNorm)
		if err != nil {
			slog.Warn("skipping invalid ignore pattern", "pattern", excludePattern, "err", err)
			continue
		}

		globMatchers = append(globMatchers, GlobMatcher{
			globPattern:                        compiled,
			inputString:                        plainName,
			patternRoot:                        patternRootNorm,
			shouldMatchAnyFileOrDirWithPattern: shouldMatchAnyFileOrDirWithPattern,
		})
		// gobwas/glob does not let `**/` match zero directories, so `**/*.log`
		// would miss `file.log` in the pattern root
		if strings.HasPrefix(patternNorm, "**/") {
			if extra, err := glob.Compile(strings.Replace(patternNorm, "**/", "", 1)); err == nil {
				globMatchers = append(globMatchers, GlobMatcher{
					globPattern: extra,
					inputString: patternNorm,
					patternRoot: patternRootNorm,
				})
			}
		}
	}
	return globMatchers
}

func MatchesAnyGlobMatcher(filePath string, matchers []GlobMatcher) bool {
	fileInternal := NormalizePathForInternal(filePath)
	for _, matcher := range matchers {
		if !strings.HasPrefix(fileInternal, matcher.patternRoot) {
			continue
		}
		fileWithoutPrefix := strings.TrimPrefix(fileInternal, matcher.patternRoot)
		if matcher.globPattern.Match(fileWithoutPrefix) || matcher.globPattern.Match(strings.TrimSuffix(fileWithoutPrefix, "/")) {
			return true
		}
		if !matcher.shouldMatchAnyFileOrDirWithPattern {
			continue
		}
		trimmed := strings.TrimSuffix(fileWithoutPrefix, "/")
		if trimmed == matcher.inputString || strings.HasSuffix(trimmed, "/"+matcher.inputString) {
			return true
		}
		if strings.Contains(fileWithoutPrefix, "/"+matcher.inputString+"/") || strings.HasPrefix(fileWithoutPrefix, matcher.inputString+"/") {
			return true
		}
	}
	return false
}
