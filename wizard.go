package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const wizardConfigFileName = ".auto-import.json"

var (
	wizardTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#FAFAFA")).
				Background(lipgloss.Color("#3B82F6")).
				Padding(0, 1)
	wizardDocStyle      = lipgloss.NewStyle().Margin(1, 2)
	wizardCursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#3B82F6")).Bold(true)
	wizardSelectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	wizardHintStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	wizardErrorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
)

type wizardStep int

const (
	stepExtensions wizardStep = iota
	stepIgnore
	stepAliases
	stepTsConfig
	stepConfirm
)

// SetupAnswers are the choices collected by the init wizard.
type SetupAnswers struct {
	Extensions []string
	Ignore     []string
	UseAliases bool
	TsConfig   string
}

func (a SetupAnswers) Config() Config {
	useAliases := a.UseAliases
	cfg := Config{
		ConfigVersion: currentConfigVersion,
		Extensions:    a.Extensions,
		Ignore:        a.Ignore,
		UseAliases:    &useAliases,
	}
	if a.UseAliases {
		cfg.TsConfig = a.TsConfig
	}
	return cfg
}

type setupModel struct {
	step       wizardStep
	cursor     int
	extensions []string
	selected   map[string]bool
	ignore     string
	useAliases bool
	tsconfig   string
	problem    string
	done       bool
	cancelled  bool
}

func newSetupModel(extensions []string) setupModel {
	selected := map[string]bool{}
	for _, ext := range extensions {
		selected[ext] = true
	}
	return setupModel{
		extensions: extensions,
		selected:   selected,
		useAliases: true,
	}
}

func (m setupModel) Init() tea.Cmd {
	return nil
}

func (m setupModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		m.cancelled = true
		return m, tea.Quit
	case tea.KeyShiftTab:
		m = m.retreat()
		return m, nil
	}

	switch m.step {
	case stepExtensions:
		return m.updateExtensions(key)
	case stepIgnore:
		if key.Type == tea.KeyEnter {
			return m.advance(), nil
		}
		m.ignore = editText(m.ignore, key)
	case stepAliases:
		switch key.String() {
		case "left", "right", "h", "l", " ":
			m.useAliases = !m.useAliases
		case "y":
			m.useAliases = true
		case "n":
			m.useAliases = false
		case "enter":
			return m.advance(), nil
		}
	case stepTsConfig:
		if key.Type == tea.KeyEnter {
			return m.advance(), nil
		}
		m.tsconfig = editText(m.tsconfig, key)
	case stepConfirm:
		switch key.String() {
		case "enter", "y":
			m.done = true
			return m, tea.Quit
		case "n":
			m.cancelled = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m setupModel) updateExtensions(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.extensions)-1 {
			m.cursor++
		}
	case " ", "x":
		if len(m.extensions) > 0 {
			ext := m.extensions[m.cursor]
			m.selected[ext] = !m.selected[ext]
		}
	case "a":
		all := len(m.selectedExtensions()) != len(m.extensions)
		for _, ext := range m.extensions {
			m.selected[ext] = all
		}
	case "enter":
		if len(m.selectedExtensions()) == 0 {
			m.problem = "select at least one extension"
			return m, nil
		}
		return m.advance(), nil
	}
	return m, nil
}

func editText(value string, key tea.KeyMsg) string {
	switch key.Type {
	case tea.KeyRunes:
		return value + string(key.Runes)
	case tea.KeySpace:
		return value + " "
	case tea.KeyBackspace:
		if value == "" {
			return value
		}
		runes := []rune(value)
		return string(runes[:len(runes)-1])
	}
	return value
}

func (m setupModel) advance() setupModel {
	m.problem = ""
	m.step++
	if m.step == stepTsConfig && !m.useAliases {
		m.step++
	}
	return m
}

func (m setupModel) retreat() setupModel {
	m.problem = ""
	if m.step == stepExtensions {
		return m
	}
	m.step--
	if m.step == stepTsConfig && !m.useAliases {
		m.step--
	}
	return m
}

func (m setupModel) selectedExtensions() []string {
	out := []string{}
	for _, ext := range m.extensions {
		if m.selected[ext] {
			out = append(out, ext)
		}
	}
	return out
}

func splitList(value string) []string {
	out := []string{}
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (m setupModel) answers() SetupAnswers {
	return SetupAnswers{
		Extensions: m.selectedExtensions(),
		Ignore:     splitList(m.ignore),
		UseAliases: m.useAliases,
		TsConfig:   strings.TrimSpace(m.tsconfig),
	}
}

func (m setupModel) View() string {
	if m.done || m.cancelled {
		return ""
	}
	var b strings.Builder
	b.WriteString(wizardTitleStyle.Render("auto-import setup"))
	b.WriteString("\n\n")

	switch m.step {
	case stepExtensions:
		b.WriteString("Which file extensions should be processed?\n\n")
		for i, ext := range m.extensions {
			cursor := "  "
			if i == m.cursor {
				cursor = wizardCursorStyle.Render("> ")
			}
			mark := "[ ]"
			if m.selected[ext] {
				mark = wizardSelectedStyle.Render("[x]")
			}
			fmt.Fprintf(&b, "%s%s %s\n", cursor, mark, ext)
		}
		b.WriteString(wizardHintStyle.Render("\nspace: toggle  a: all  enter: next"))
	case stepIgnore:
		b.WriteString("Glob patterns to ignore, comma separated (optional):\n\n")
		fmt.Fprintf(&b, "%s%s\n", wizardCursorStyle.Render("> "), m.ignore)
		b.WriteString(wizardHintStyle.Render("\nenter: next  shift+tab: back"))
	case stepAliases:
		b.WriteString("Use tsconfig path aliases when they match?\n\n")
		yes, no := "yes", "no"
		if m.useAliases {
			yes = wizardSelectedStyle.Render("[yes]")
		} else {
			no = wizardSelectedStyle.Render("[no]")
		}
		fmt.Fprintf(&b, "  %s  %s\n", yes, no)
		b.WriteString(wizardHintStyle.Render("\ny/n: choose  enter: next  shift+tab: back"))
	case stepTsConfig:
		b.WriteString("Path to tsconfig.json (leave empty to detect it):\n\n")
		fmt.Fprintf(&b, "%s%s\n", wizardCursorStyle.Render("> "), m.tsconfig)
		b.WriteString(wizardHintStyle.Render("\nenter: next  shift+tab: back"))
	case stepConfirm:
		a := m.answers()
		b.WriteString("Write " + wizardConfigFileName + " with:\n\n")
		fmt.Fprintf(&b, "  extensions: %s\n", strings.Join(a.Extensions, ", "))
		fmt.Fprintf(&b, "  ignore:     %s\n", strings.Join(a.Ignore, ", "))
		fmt.Fprintf(&b, "  aliases:    %t\n", a.UseAliases)
		if a.UseAliases && a.TsConfig != "" {
			fmt.Fprintf(&b, "  tsconfig:   %s\n", a.TsConfig)
		}
		b.WriteString(wizardHintStyle.Render("\nenter: write  n: cancel  shift+tab: back"))
	}
	if m.problem != "" {
		b.WriteString("\n" + wizardErrorStyle.Render(m.problem))
	}
	return wizardDocStyle.Render(b.String())
}

// RunSetupWizard asks for the project settings. It returns nil answers when
// the user cancels.
func RunSetupWizard(in io.Reader, out io.Writer) (*SetupAnswers, error) {
	p := tea.NewProgram(newSetupModel(DefaultPluginRegistry().Extensions()), tea.WithInput(in), tea.WithOutput(out))
	final, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("setup wizard failed: %w", err)
	}
	m, ok := final.(setupModel)
	if !ok || !m.done {
		return nil, nil
	}
	answers := m.answers()
	return &answers, nil
}

// WriteConfigFile writes cfg as root/.auto-import.json. An existing file is
// never overwritten.
func WriteConfigFile(root string, cfg Config) (string, error) {
	if cfg.ConfigVersion == "" {
		cfg.ConfigVersion = currentConfigVersion
	}
	for i, p := range cfg.Ignore {
		if err := validatePattern(p); err != nil {
			return "", fmt.Errorf("ignore[%d]: %w", i, err)
		}
	}
	configJSON, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal config: %v", err)
	}

	configPath := filepath.Join(root, wizardConfigFileName)
	f, err := os.OpenFile(configPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return "", fmt.Errorf("config file already exists at %s", configPath)
		}
		return "", fmt.Errorf("failed to write config file: %v", err)
	}
	defer f.Close()
	if _, err := f.Write(append(configJSON, '\n')); err != nil {
		return "", fmt.Errorf("failed to write config file: %v", err)
	}
	return configPath, nil
}
