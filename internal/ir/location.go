package ir

import "fmt"

// Location is a source position inside a statement document.
// The zero value means "unknown".
type Location struct {
	File   string `json:"file,omitempty"`
	Line   int    `json:"line,omitempty"`
	Column int    `json:"column,omitempty"`
}

// IsValid reports whether the location points somewhere.
func (l Location) IsValid() bool {
	return l.Line > 0
}

func (l Location) String() string {
	if !l.IsValid() {
		return "-"
	}
	if l.File != "" {
		return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
	}
	return fmt.Sprintf("%d:%d", l.Line, l.Column)
}
