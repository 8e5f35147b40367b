package archive

import (
	"errors"
	"fmt"
	"strings"
)

var ErrNotFound = errors.New("not found")

// FormatError reports a malformed line: a bad marker nesting, an unparsable
// value or a key used outside of its section.
type FormatError struct {
	Line  int
	Field string
	Msg   string
}

func (e *FormatError) Error() string {
	return lineMessage("format error", e.Line, e.Field, e.Msg)
}

// ValidationError reports a well formed value that breaks a document rule:
// a negative integer, an undeclared type or a dangling reference.
type ValidationError struct {
	Line  int
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return lineMessage("validation error", e.Line, e.Field, e.Msg)
}

type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("io error: %s: %v", e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

type DecodeError struct {
	Path   string
	Offset int
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode error: %s: invalid UTF-8 at byte %d", e.Path, e.Offset)
}

type CyclicIncludeError struct {
	Path  string
	Chain []string
}

func (e *CyclicIncludeError) Error() string {
	chain := append(append([]string{}, e.Chain...), e.Path)
	return fmt.Sprintf("cyclic include of '%s' (%s)", e.Path, strings.Join(chain, " -> "))
}

func lineMessage(kind string, line int, field, msg string) string {
	var sb strings.Builder
	sb.WriteString(kind)
	if line > 0 {
		fmt.Fprintf(&sb, " on line %d", line)
	}
	if field != "" {
		fmt.Fprintf(&sb, " (%s)", field)
	}
	sb.WriteString(": ")
	sb.WriteString(msg)
	return sb.String()
}
