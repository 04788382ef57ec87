package utils

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/mitchellh/go-homedir"
)

// StringHelper provides string utility functions.
type StringHelper struct{}

// NewStringHelper creates a new string helper.
func NewStringHelper() *StringHelper {
	return &StringHelper{}
}

// NormalizeWhitespace replaces multiple whitespace with single space.
func (s *StringHelper) NormalizeWhitespace(str string) string {
	return strings.Join(strings.Fields(str), " ")
}

// TruncateDisplay shortens str to at most width terminal cells, ending with "…" when cut.
// Wide runes such as CJK count as two cells.
func (s *StringHelper) TruncateDisplay(str string, width int) string {
	if runewidth.StringWidth(str) <= width {
		return str
	}

	return runewidth.Truncate(str, width, "…")
}

// PadDisplay right-pads str with spaces to width terminal cells.
func (s *StringHelper) PadDisplay(str string, width int) string {
	return runewidth.FillRight(str, width)
}

// ExpandPath resolves a leading "~" to the current user's home directory.
func ExpandPath(path string) (string, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return "", fmt.Errorf("failed to expand path %q: %w", path, err)
	}

	return expanded, nil
}
