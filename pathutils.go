package main

import (
	"path/filepath"
	"runtime"
	"strings"
)

// NormalizePathForInternal converts an OS path into the forward slash form
// used by glob matching. On non-Windows systems paths are returned as is.
// Examples:
// - "C:\\project\\src\\file.ts" -> "C:/project/src/file.ts"
// - "./a/../b/" -> "b"
func NormalizePathForInternal(p string) string {
	if runtime.GOOS != "windows" || p == "" {
		return p
	}
	s := filepath.ToSlash(filepath.Clean(p))
	// keep roots such as "/" or "C:/"
	if len(s) > 1 && strings.HasSuffix(s, "/") && !strings.HasSuffix(s, ":/") {
		s = strings.TrimRight(s, "/")
	}
	return s
}

// DenormalizePathForOS converts an internal forward slash path back to the
// OS-native representation for os.* calls.
func DenormalizePathForOS(internal string) string {
	if runtime.GOOS != "windows" || internal == "" {
		return internal
	}
	return filepath.FromSlash(internal)
}

// NormalizeGlobPattern turns backslash separators in user patterns into
// forward slashes.
func NormalizeGlobPattern(pattern string) string {
	if runtime.GOOS != "windows" || pattern == "" {
		return pattern
	}
	return strings.ReplaceAll(pattern, "\\", "/")
}
