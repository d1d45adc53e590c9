package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/Masterminds/semver/v3"
	"github.com/joho/godotenv"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

const (
	currentConfigVersion    = "1.0"
	supportedConfigVersions = "^1"
)

// configFileNames are probed in order; the first existing file wins.
var configFileNames = []string{
	".auto-import.json",
	".auto-import.jsonc",
	".auto-import.yaml",
	".auto-import.yml",
	".auto-import.toml",
}

// Config holds the project settings. UseAliases is a pointer so an explicit
// false survives merging.
type Config struct {
	ConfigVersion string   `json:"configVersion" yaml:"configVersion" toml:"configVersion"`
	Extensions    []string `json:"extensions,omitempty" yaml:"extensions,omitempty" toml:"extensions,omitempty"`
	Ignore        []string `json:"ignore,omitempty" yaml:"ignore,omitempty" toml:"ignore,omitempty"`
	UseAliases    *bool    `json:"useAliases,omitempty" yaml:"useAliases,omitempty" toml:"useAliases,omitempty"`
	TsConfig      string   `json:"tsconfig,omitempty" yaml:"tsconfig,omitempty" toml:"tsconfig,omitempty"`
	DryRun        bool     `json:"dryRun,omitempty" yaml:"dryRun,omitempty" toml:"dryRun,omitempty"`
	Verbose       bool     `json:"-" yaml:"-" toml:"-"`
}

func DefaultConfig() Config {
	useAliases := true
	return Config{
		ConfigVersion: currentConfigVersion,
		Extensions:    DefaultPluginRegistry().Extensions(),
		Ignore:        []string{},
		UseAliases:    &useAliases,
	}
}

func (c Config) AliasesEnabled() bool {
	return c.UseAliases == nil || *c.UseAliases
}

// ExtensionSet returns the configured extensions, lower-cased with a dot.
func (c Config) ExtensionSet() map[string]bool {
	set := map[string]bool{}
	for _, ext := range c.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		set[ext] = true
	}
	return set
}

func findConfigFile(cwd string) (string, error) {
	for _, name := range configFileNames {
		p := filepath.Join(cwd, name)
		if fi, err := os.Stat(p); err == nil && !fi.IsDir() {
			return p, nil
		}
	}
	return "", os.ErrNotExist
}

// LoadConfig reads one config file. The format follows the file extension.
func LoadConfig(configPath string) (Config, error) {
	var cfg Config
	content, err := os.ReadFile(configPath)
	if err != nil {
		return cfg, err
	}

	switch strings.ToLower(filepath.Ext(configPath)) {
	case ".json", ".jsonc":
		dec := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(content)))
		dec.DisallowUnknownFields()
		err = dec.Decode(&cfg)
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(content))
		dec.KnownFields(true)
		err = dec.Decode(&cfg)
		if errors.Is(err, io.EOF) {
			err = nil
		}
	case ".toml":
		var meta toml.MetaData
		meta, err = toml.Decode(string(content), &cfg)
		if err == nil && len(meta.Undecoded()) > 0 {
			err = fmt.Errorf("unknown keys: %v", meta.Undecoded())
		}
	default:
		return cfg, fmt.Errorf("unsupported config format: %s", configPath)
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", configPath, err)
	}

	if err := validateConfigVersion(cfg.ConfigVersion); err != nil {
		return cfg, fmt.Errorf("%s: %w", configPath, err)
	}
	for i, p := range cfg.Ignore {
		if err := validatePattern(p); err != nil {
			return cfg, fmt.Errorf("%s: ignore[%d]: %w", configPath, i, err)
		}
	}
	return cfg, nil
}

func validateConfigVersion(version string) error {
	if version == "" {
		return errors.New("configVersion is required")
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return fmt.Errorf("invalid configVersion %q: %w", version, err)
	}
	constraint, err := semver.NewConstraint(supportedConfigVersions)
	if err != nil {
		return err
	}
	if !constraint.Check(v) {
		return fmt.Errorf("configVersion %s is not supported, expected %s", version, supportedConfigVersions)
	}
	return nil
}

func validatePattern(pattern string) error {
	if len(pattern) >= 2 && pattern[0] == '.' && (pattern[1] == '/' || pattern[1] == '\\') {
		return fmt.Errorf("pattern '%s' starts with './' or '.\\', which is not allowed. Use paths that starts with file or directory name", pattern)
	}
	if len(pattern) >= 3 && pattern[0] == '.' && pattern[1] == '.' && (pattern[2] == '/' || pattern[2] == '\\') {
		return fmt.Errorf("pattern '%s' starts with '../' or '..\\', which is not allowed. Use paths that starts with file or directory name", pattern)
	}
	return nil
}

// mergeConfig overlays the set fields of override onto base.
func mergeConfig(base, override Config) Config {
	out := base
	if override.ConfigVersion != "" {
		out.ConfigVersion = override.ConfigVersion
	}
	if len(override.Extensions) > 0 {
		out.Extensions = override.Extensions
	}
	if len(override.Ignore) > 0 {
		out.Ignore = append(append([]string{}, base.Ignore...), override.Ignore...)
	}
	if override.UseAliases != nil {
		out.UseAliases = override.UseAliases
	}
	if override.TsConfig != "" {
		out.TsConfig = override.TsConfig
	}
	out.DryRun = base.DryRun || override.DryRun
	out.Verbose = base.Verbose || override.Verbose
	return out
}

// envSettings are the AUTO_IMPORT_* variables that were set.
type envSettings struct {
	DryRun  *bool
	NoAlias *bool
	Verbose *bool
}

// readEnvSettings reads AUTO_IMPORT_* settings from root/.env and the process
// environment. Process variables win over the file.
func readEnvSettings(root string) (envSettings, error) {
	var settings envSettings
	vars, err := godotenv.Read(filepath.Join(root, ".env"))
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return settings, fmt.Errorf("failed to read .env: %w", err)
		}
		vars = map[string]string{}
	}

	targets := map[string]**bool{
		"AUTO_IMPORT_DRY_RUN":  &settings.DryRun,
		"AUTO_IMPORT_NO_ALIAS": &settings.NoAlias,
		"AUTO_IMPORT_VERBOSE":  &settings.Verbose,
	}
	for key, target := range targets {
		raw, ok := os.LookupEnv(key)
		if !ok {
			raw, ok = vars[key]
		}
		if !ok || strings.TrimSpace(raw) == "" {
			continue
		}
		v, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return settings, fmt.Errorf("%s: %w", key, err)
		}
		*target = &v
	}
	return settings, nil
}

func (s envSettings) apply(cfg Config) Config {
	if s.DryRun != nil {
		cfg.DryRun = *s.DryRun
	}
	if s.NoAlias != nil {
		useAliases := !*s.NoAlias
		cfg.UseAliases = &useAliases
	}
	if s.Verbose != nil {
		cfg.Verbose = *s.Verbose
	}
	return cfg
}

// ResolveConfig applies defaults, the project config file and the
// environment, in that order. It returns the config file used, if any.
func ResolveConfig(root, explicitPath string) (Config, string, error) {
	cfg := DefaultConfig()

	configPath := explicitPath
	if configPath == "" {
		if found, err := findConfigFile(root); err == nil {
			configPath = found
		}
	}
	if configPath != "" {
		fileCfg, err := LoadConfig(configPath)
		if err != nil {
			return cfg, configPath, err
		}
		cfg = mergeConfig(cfg, fileCfg)
	}

	settings, err := readEnvSettings(root)
	if err != nil {
		return cfg, configPath, err
	}
	return settings.apply(cfg), configPath, nil
}
