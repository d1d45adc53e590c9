package main

import (
	"errors"
	"path/filepath"
	"strings"
)

// ErrRootNotAccessible is returned when the project root cannot be enumerated.
var ErrRootNotAccessible = errors.New("project root is not accessible")

// DefaultExportName is the synthetic marker used for anonymous default exports.
const DefaultExportName = "default"

// SourceFile is a single file handed over by the project walk.
type SourceFile struct {
	Path    string
	Ext     string
	Content string
	ReadErr error
}

func NewSourceFile(path string, content string) SourceFile {
	return SourceFile{Path: path, Ext: strings.ToLower(filepath.Ext(path)), Content: content}
}

// ImportStatement is one import declaration found in a file.
type ImportStatement struct {
	Source      string   `json:"source"`
	Imports     []string `json:"imports"`
	IsDefault   bool     `json:"isDefault"`
	IsNamespace bool     `json:"isNamespace"`
	StartLine   int      `json:"startLine"`
	EndLine     int      `json:"endLine"`
}

// UsedIdentifier is one reference to a bare identifier. Position is a byte offset.
type UsedIdentifier struct {
	Name     string `json:"name"`
	Position int    `json:"position"`
}

// ExportInfo is one symbol a file exposes.
type ExportInfo struct {
	Name      string `json:"name"`
	Source    string `json:"source"`
	IsDefault bool   `json:"isDefault"`
	IsType    bool   `json:"isType"`
}

// PathAlias maps an import prefix such as "@/" onto an absolute directory.
type PathAlias struct {
	Prefix          string
	TargetDirectory string
}

// ImportSuggestion is the resolved part of a MissingImport.
type ImportSuggestion struct {
	Source    string `json:"source"`
	IsDefault bool   `json:"isDefault"`
}

// MissingImport is an identifier that is used but neither declared nor imported.
type MissingImport struct {
	Identifier string            `json:"identifier"`
	File       string            `json:"file"`
	Suggestion *ImportSuggestion `json:"suggestion,omitempty"`
}

func (m MissingImport) Resolved() bool {
	return m.Suggestion != nil
}

// ResolvedImport is what the edit planner renders into an import line.
type ResolvedImport struct {
	Identifier string
	Specifier  string
	IsDefault  bool
	IsType     bool
	DefinedIn  string
}

// FileEdit carries the new content for one file.
type FileEdit struct {
	Path     string
	Original string
	Updated  string
	Imports  []ResolvedImport
}

// FileReport is the per-file section of RunReport.
type FileReport struct {
	Path    string          `json:"path"`
	Missing []MissingImport `json:"missing"`
	Applied bool            `json:"applied"`
	Err     error           `json:"-"`
	Error   string          `json:"error,omitempty"`
}

// RunReport summarises a single invocation.
type RunReport struct {
	FilesScanned     int          `json:"filesScanned"`
	FilesWithMissing int          `json:"filesWithMissing"`
	MissingTotal     int          `json:"missingTotal"`
	Resolved         int          `json:"resolved"`
	Unresolved       int          `json:"unresolved"`
	Failed           int          `json:"failed"`
	Files            []FileReport `json:"files"`
}
