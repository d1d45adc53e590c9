package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"gotest.tools/v3/assert"
)

func pressKeys(t *testing.T, m setupModel, keys ...tea.KeyMsg) setupModel {
	t.Helper()
	for _, key := range keys {
		next, _ := m.Update(key)
		updated, ok := next.(setupModel)
		assert.Assert(t, ok)
		m = updated
	}
	return m
}

func typeText(text string) []tea.KeyMsg {
	keys := []tea.KeyMsg{}
	for _, r := range text {
		if r == ' ' {
			keys = append(keys, tea.KeyMsg{Type: tea.KeySpace})
			continue
		}
		keys = append(keys, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return keys
}

var (
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keySpace = tea.KeyMsg{Type: tea.KeySpace}
	keyDown  = tea.KeyMsg{Type: tea.KeyDown}
	keyBack  = tea.KeyMsg{Type: tea.KeyShiftTab}
)

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestSetupModelFullFlow(t *testing.T) {
	m := newSetupModel([]string{".ts", ".tsx", ".py"})

	m = pressKeys(t, m, keyDown, keyDown, keySpace, keyEnter)
	assert.Equal(t, m.step, stepIgnore)

	m = pressKeys(t, m, typeText("dist/, generated/x")...)
	m = pressKeys(t, m, tea.KeyMsg{Type: tea.KeyBackspace}, keyEnter)
	assert.Equal(t, m.step, stepAliases)

	m = pressKeys(t, m, keyEnter)
	assert.Equal(t, m.step, stepTsConfig)
	m = pressKeys(t, m, typeText("tsconfig.app.json")...)
	m = pressKeys(t, m, keyEnter)
	assert.Equal(t, m.step, stepConfirm)
	assert.Assert(t, m.View() != "")

	next, cmd := m.Update(keyEnter)
	m = next.(setupModel)
	assert.Assert(t, m.done)
	assert.Assert(t, cmd != nil)

	assert.DeepEqual(t, m.answers(), SetupAnswers{
		Extensions: []string{".ts", ".tsx"},
		Ignore:     []string{"dist/", "generated/"},
		UseAliases: true,
		TsConfig:   "tsconfig.app.json",
	})
}

func TestSetupModelSkipsTsConfigWithoutAliases(t *testing.T) {
	m := newSetupModel([]string{".ts"})

	m = pressKeys(t, m, keyEnter, keyEnter, runeKey('n'), keyEnter)
	assert.Equal(t, m.step, stepConfirm)
	assert.Assert(t, !m.useAliases)

	m = pressKeys(t, m, keyBack)
	assert.Equal(t, m.step, stepAliases)
}

func TestSetupModelRequiresAnExtension(t *testing.T) {
	m := newSetupModel([]string{".ts", ".py"})

	m = pressKeys(t, m, runeKey('a'), keyEnter)
	assert.Equal(t, m.step, stepExtensions)
	assert.Equal(t, m.problem, "select at least one extension")

	m = pressKeys(t, m, runeKey('x'), keyEnter)
	assert.Equal(t, m.step, stepIgnore)
	assert.Equal(t, m.problem, "")
	assert.DeepEqual(t, m.selectedExtensions(), []string{".ts"})
}

func TestSetupModelCancel(t *testing.T) {
	m := newSetupModel([]string{".ts"})

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = next.(setupModel)
	assert.Assert(t, m.cancelled)
	assert.Assert(t, cmd != nil)
	assert.Equal(t, m.View(), "")
}

func TestSetupAnswersConfig(t *testing.T) {
	cfg := SetupAnswers{Extensions: []string{".ts"}, UseAliases: false, TsConfig: "tsconfig.json"}.Config()

	assert.Equal(t, cfg.ConfigVersion, currentConfigVersion)
	assert.Assert(t, !cfg.AliasesEnabled())
	assert.Equal(t, cfg.TsConfig, "")
}

func TestWriteConfigFile(t *testing.T) {
	root := t.TempDir()
	cfg := SetupAnswers{Extensions: []string{".ts", ".vue"}, Ignore: []string{"dist/"}, UseAliases: true}.Config()

	path, err := WriteConfigFile(root, cfg)
	assert.NilError(t, err)
	assert.Equal(t, path, filepath.Join(root, ".auto-import.json"))

	loaded, err := LoadConfig(path)
	assert.NilError(t, err)
	assert.DeepEqual(t, loaded.Extensions, []string{".ts", ".vue"})
	assert.DeepEqual(t, loaded.Ignore, []string{"dist/"})
	assert.Assert(t, loaded.AliasesEnabled())

	content, err := os.ReadFile(path)
	assert.NilError(t, err)
	var raw map[string]any
	assert.NilError(t, json.Unmarshal(content, &raw))
	assert.Equal(t, raw["configVersion"], "1.0")

	_, err = WriteConfigFile(root, cfg)
	assert.ErrorContains(t, err, "config file already exists")

	_, err = WriteConfigFile(t.TempDir(), Config{Ignore: []string{"./dist"}})
	assert.ErrorContains(t, err, "ignore[0]")
}
