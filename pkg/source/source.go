package source

import (
	"fmt"
	"path/filepath"
)

type Position struct {
	Line   int
	Column int
}

// Returns a string representation of the Position
func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// IsValid reports whether the position carries a real line number
func (p Position) IsValid() bool {
	return p.Line > 0
}

// Creates a new Position instance
func NewPosition(line, column int) Position {
	return Position{
		Line:   line,
		Column: column,
	}
}

// File is the source-file metadata attached to a call frame for diagnostics.
type File struct {
	Name string // path as given by the host
}

// Creates a new File instance
func NewFile(name string) *File {
	return &File{Name: name}
}

// Base returns the normalized file name without its directory part
func (f *File) Base() string {
	if f == nil || f.Name == "" {
		return "<unknown>"
	}

	return filepath.Base(f.Name)
}

// Locate renders "<file>:<line>" for a position within this file
func (f *File) Locate(pos Position) string {
	if !pos.IsValid() {
		return fmt.Sprintf("%s:?", f.Base())
	}

	return fmt.Sprintf("%s:%d", f.Base(), pos.Line)
}
