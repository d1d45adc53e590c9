package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
)

// TsPathEntry is one `paths` mapping. Dir is the directory the targets are
// resolved against when no baseUrl is in effect.
type TsPathEntry struct {
	Pattern string
	Targets []string
	Dir     string
}

// TsConfig is the part of tsconfig/jsconfig needed for alias resolution.
type TsConfig struct {
	BaseURL string
	Paths   []TsPathEntry
}

type tsConfigFile struct {
	Extends         extendsField `json:"extends"`
	CompilerOptions struct {
		BaseURL *string      `json:"baseUrl"`
		Paths   orderedPaths `json:"paths"`
	} `json:"compilerOptions"`
}

// extendsField accepts both `"extends": "x"` and `"extends": ["x", "y"]`.
type extendsField []string

func (e *extendsField) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if strings.TrimSpace(single) != "" {
			*e = extendsField{single}
		}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("extends must be a string or an array of strings: %w", err)
	}
	*e = list
	return nil
}

type orderedPaths []TsPathEntry

// UnmarshalJSON keeps the key order of the `paths` object.
func (p *orderedPaths) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errors.New("paths must be an object")
	}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := keyTok.(string)
		var targets []string
		if err := dec.Decode(&targets); err != nil {
			return fmt.Errorf("paths[%q]: %w", key, err)
		}
		*p = append(*p, TsPathEntry{Pattern: key, Targets: targets})
	}
	_, err = dec.Token()
	return err
}

// ParseTsConfig reads tsconfig from disk (JSON or JSONC) at tsconfigPath and
// follows "extends". Merging rules:
// - child overrides base for baseUrl
// - paths are merged with child keys overriding base keys, base order first
func ParseTsConfig(tsconfigPath string) (*TsConfig, error) {
	abs, err := filepath.Abs(tsconfigPath)
	if err != nil {
		return nil, err
	}
	return parseTsConfigFile(abs, map[string]bool{abs: true})
}

func parseTsConfigFile(tsconfigPath string, seen map[string]bool) (*TsConfig, error) {
	content, err := os.ReadFile(tsconfigPath)
	if err != nil {
		return nil, err
	}

	var raw tsConfigFile
	if err := json.Unmarshal(jsonc.ToJSON(content), &raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s: %w", tsconfigPath, err)
	}

	baseDir := filepath.Dir(tsconfigPath)
	result := &TsConfig{}

	for _, ext := range raw.Extends {
		foundPath := findExtendedConfig(ext, baseDir)
		if foundPath == "" || seen[foundPath] {
			continue
		}
		seen[foundPath] = true
		base, err := parseTsConfigFile(foundPath, seen)
		if err != nil {
			return nil, err
		}
		result = mergeTsConfigs(result, base)
	}

	child := &TsConfig{}
	if raw.CompilerOptions.BaseURL != nil {
		child.BaseURL = resolveFrom(baseDir, *raw.CompilerOptions.BaseURL)
	}
	for _, entry := range raw.CompilerOptions.Paths {
		entry.Dir = baseDir
		child.Paths = append(child.Paths, entry)
	}
	return mergeTsConfigs(result, child), nil
}

// findExtendedConfig returns the absolute path of an extended config or ""
// when none of the candidates exists.
func findExtendedConfig(ext string, baseDir string) string {
	candidates := []string{}
	if filepath.IsAbs(ext) || strings.HasPrefix(ext, ".") || strings.Contains(ext, string(filepath.Separator)) && !strings.HasPrefix(ext, "@") {
		p := ext
		if !filepath.IsAbs(p) {
			p = filepath.Join(baseDir, p)
		}
		candidates = append(candidates, p, p+".json")
	} else {
		// tsconfigs published as packages
		candidates = append(candidates,
			filepath.Join(baseDir, "node_modules", ext),
			filepath.Join(baseDir, "node_modules", ext, "tsconfig.json"),
			filepath.Join(baseDir, "node_modules", ext+".json"),
		)
	}
	for _, cand := range candidates {
		if fi, err := os.Stat(cand); err == nil && !fi.IsDir() {
			abs, _ := filepath.Abs(cand)
			return abs
		}
	}
	return ""
}

func mergeTsConfigs(base, child *TsConfig) *TsConfig {
	out := &TsConfig{BaseURL: base.BaseURL}
	if child.BaseURL != "" {
		out.BaseURL = child.BaseURL
	}
	overrides := map[string]TsPathEntry{}
	for _, entry := range child.Paths {
		overrides[entry.Pattern] = entry
	}
	for _, entry := range base.Paths {
		if override, ok := overrides[entry.Pattern]; ok {
			out.Paths = append(out.Paths, override)
			delete(overrides, entry.Pattern)
			continue
		}
		out.Paths = append(out.Paths, entry)
	}
	for _, entry := range child.Paths {
		if _, pending := overrides[entry.Pattern]; pending {
			out.Paths = append(out.Paths, entry)
		}
	}
	return out
}

func resolveFrom(dir, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Clean(filepath.Join(dir, p))
}

// Aliases turns wildcard `paths` entries into PathAliases, in configuration
// order, using each entry's first target. Exact (non wildcard) entries are
// ignored.
func (c *TsConfig) Aliases() []PathAlias {
	aliases := []PathAlias{}
	for _, entry := range c.Paths {
		if !strings.HasSuffix(entry.Pattern, "*") || strings.Count(entry.Pattern, "*") != 1 || len(entry.Targets) == 0 {
			continue
		}
		target := entry.Targets[0]
		if !strings.HasSuffix(target, "*") {
			continue
		}
		target = strings.TrimSuffix(strings.TrimSuffix(target, "*"), "/")
		root := entry.Dir
		if c.BaseURL != "" {
			root = c.BaseURL
		}
		aliases = append(aliases, PathAlias{
			Prefix:          strings.TrimSuffix(entry.Pattern, "*"),
			TargetDirectory: resolveFrom(root, filepath.FromSlash(target)),
		})
	}
	return aliases
}

// LoadPathAliases reads the alias configuration of a project. An empty
// tsconfigPath probes tsconfig.json then jsconfig.json in root. A missing
// file yields no aliases and no error.
func LoadPathAliases(root, tsconfigPath string) ([]PathAlias, error) {
	if tsconfigPath == "" {
		for _, name := range []string{"tsconfig.json", "jsconfig.json"} {
			cand := filepath.Join(root, name)
			if _, err := os.Stat(cand); err == nil {
				tsconfigPath = cand
				break
			}
		}
		if tsconfigPath == "" {
			return nil, nil
		}
	} else if !filepath.IsAbs(tsconfigPath) {
		tsconfigPath = filepath.Join(root, tsconfigPath)
	}
	cfg, err := ParseTsConfig(tsconfigPath)
	if err != nil {
		return nil, fmt.Errorf("alias configuration %s: %w", tsconfigPath, err)
	}
	return cfg.Aliases(), nil
}
