package main

import (
	"os"
	"path/filepath"
	"testing"

	"gotest.tools/v3/assert"
)

func TestLoadConfigFormats(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"json", ".auto-import.json", `{"configVersion": "1.0", "extensions": [".ts"], "ignore": ["generated/"], "useAliases": false, "tsconfig": "tsconfig.app.json"}`},
		{"jsonc", ".auto-import.jsonc", `{
  // project settings
  "configVersion": "1.0",
  "extensions": [".ts",],
  "ignore": ["generated/"],
  "useAliases": false,
  "tsconfig": "tsconfig.app.json",
}`},
		{"yaml", ".auto-import.yaml", `configVersion: "1.0"
extensions: [.ts]
ignore:
  - generated/
useAliases: false
tsconfig: tsconfig.app.json
`},
		{"toml", ".auto-import.toml", `configVersion = "1.0"
extensions = [".ts"]
ignore = ["generated/"]
useAliases = false
tsconfig = "tsconfig.app.json"
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			writeFile(t, path, tt.content)

			cfg, err := LoadConfig(path)
			assert.NilError(t, err)
			assert.Equal(t, cfg.ConfigVersion, "1.0")
			assert.DeepEqual(t, cfg.Extensions, []string{".ts"})
			assert.DeepEqual(t, cfg.Ignore, []string{"generated/"})
			assert.Assert(t, cfg.UseAliases != nil && !*cfg.UseAliases)
			assert.Equal(t, cfg.TsConfig, "tsconfig.app.json")
		})
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		content  string
		expected string
	}{
		{"unknown json field", ".auto-import.json", `{"configVersion": "1.0", "rules": []}`, "unknown field"},
		{"unknown yaml field", ".auto-import.yaml", "configVersion: \"1.0\"\nrules: []\n", "not found"},
		{"unknown toml key", ".auto-import.toml", "configVersion = \"1.0\"\nrules = 1\n", "unknown keys"},
		{"missing version", ".auto-import.json", `{"extensions": [".ts"]}`, "configVersion is required"},
		{"unsupported version", ".auto-import.json", `{"configVersion": "2.0"}`, "is not supported"},
		{"relative ignore pattern", ".auto-import.json", `{"configVersion": "1.0", "ignore": ["./dist"]}`, "ignore[0]"},
		{"parent ignore pattern", ".auto-import.json", `{"configVersion": "1.0", "ignore": ["../shared"]}`, "starts with '../'"},
		{"broken json", ".auto-import.json", `{"configVersion": `, "failed to parse config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			writeFile(t, path, tt.content)

			_, err := LoadConfig(path)
			assert.ErrorContains(t, err, tt.expected)
		})
	}

	t.Run("unsupported format", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.ini")
		writeFile(t, path, "x=1\n")
		_, err := LoadConfig(path)
		assert.ErrorContains(t, err, "unsupported config format")
	})
}

func TestMergeConfig(t *testing.T) {
	no := false
	base := DefaultConfig()
	base.Ignore = []string{"dist/"}

	merged := mergeConfig(base, Config{Ignore: []string{"generated/"}, UseAliases: &no, DryRun: true})

	assert.Equal(t, merged.ConfigVersion, currentConfigVersion)
	assert.DeepEqual(t, merged.Extensions, base.Extensions)
	assert.DeepEqual(t, merged.Ignore, []string{"dist/", "generated/"})
	assert.Assert(t, !merged.AliasesEnabled())
	assert.Assert(t, merged.DryRun)
	assert.DeepEqual(t, base.Ignore, []string{"dist/"})
}

func TestExtensionSet(t *testing.T) {
	cfg := Config{Extensions: []string{"ts", ".TSX", " .py ", ""}}

	assert.DeepEqual(t, cfg.ExtensionSet(), map[string]bool{".ts": true, ".tsx": true, ".py": true})
}

func clearAutoImportEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"AUTO_IMPORT_DRY_RUN", "AUTO_IMPORT_NO_ALIAS", "AUTO_IMPORT_VERBOSE"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestResolveConfig(t *testing.T) {
	t.Run("defaults without a config file", func(t *testing.T) {
		clearAutoImportEnv(t)
		cfg, path, err := ResolveConfig(t.TempDir(), "")
		assert.NilError(t, err)
		assert.Equal(t, path, "")
		assert.Assert(t, cfg.AliasesEnabled())
		assert.Assert(t, !cfg.DryRun)
		assert.Assert(t, cfg.ExtensionSet()[".rs"])
	})

	t.Run("config file is discovered", func(t *testing.T) {
		clearAutoImportEnv(t)
		root := t.TempDir()
		writeFile(t, filepath.Join(root, ".auto-import.yml"), "configVersion: \"1.0\"\nextensions: [.py]\n")

		cfg, path, err := ResolveConfig(root, "")
		assert.NilError(t, err)
		assert.Equal(t, path, filepath.Join(root, ".auto-import.yml"))
		assert.DeepEqual(t, cfg.Extensions, []string{".py"})
	})

	t.Run("explicit path wins over discovery", func(t *testing.T) {
		clearAutoImportEnv(t)
		root := t.TempDir()
		writeFile(t, filepath.Join(root, ".auto-import.json"), `{"configVersion": "1.0", "extensions": [".ts"]}`)
		explicit := filepath.Join(root, "conf", "auto-import.toml")
		writeFile(t, explicit, "configVersion = \"1.0\"\nextensions = [\".rs\"]\n")

		cfg, path, err := ResolveConfig(root, explicit)
		assert.NilError(t, err)
		assert.Equal(t, path, explicit)
		assert.DeepEqual(t, cfg.Extensions, []string{".rs"})
	})

	t.Run("dotenv and process environment", func(t *testing.T) {
		clearAutoImportEnv(t)
		root := t.TempDir()
		writeFile(t, filepath.Join(root, ".env"), "AUTO_IMPORT_DRY_RUN=true\nAUTO_IMPORT_NO_ALIAS=true\n")
		t.Setenv("AUTO_IMPORT_NO_ALIAS", "false")

		cfg, _, err := ResolveConfig(root, "")
		assert.NilError(t, err)
		assert.Assert(t, cfg.DryRun)
		assert.Assert(t, cfg.AliasesEnabled())
	})

	t.Run("empty variables are ignored", func(t *testing.T) {
		clearAutoImportEnv(t)
		t.Setenv("AUTO_IMPORT_DRY_RUN", "")

		cfg, _, err := ResolveConfig(t.TempDir(), "")
		assert.NilError(t, err)
		assert.Assert(t, !cfg.DryRun)
	})

	t.Run("invalid boolean", func(t *testing.T) {
		clearAutoImportEnv(t)
		t.Setenv("AUTO_IMPORT_VERBOSE", "sometimes")

		_, _, err := ResolveConfig(t.TempDir(), "")
		assert.ErrorContains(t, err, "AUTO_IMPORT_VERBOSE")
	})

	t.Run("broken config file", func(t *testing.T) {
		clearAutoImportEnv(t)
		root := t.TempDir()
		writeFile(t, filepath.Join(root, ".auto-import.json"), `{"configVersion": "9"}`)

		_, path, err := ResolveConfig(root, "")
		assert.ErrorContains(t, err, "is not supported")
		assert.Equal(t, path, filepath.Join(root, ".auto-import.json"))
	})
}
