// Package errors formats DJ compiler diagnostics with source context,
// line/column information, and a caret pointing at the offending
// column.
package errors

import (
	"fmt"
	"strings"

	"github.com/dj-lang/djc/internal/token"
)

// Kind distinguishes the two diagnostic categories of spec §7.
type Kind int

const (
	// External is a diagnosed defect in the user's DJ program.
	External Kind = iota
	// Internal is a violated compiler invariant — a bug in the
	// compiler itself, not in the program it was given.
	Internal
)

// CompilerError is a single diagnostic with position and source context.
type CompilerError struct {
	Kind    Kind
	Message string
	Source  string
	File    string
	Pos     token.Position
}

// NewExternal creates an external (user-program) diagnostic.
func NewExternal(pos token.Position, message, source, file string) *CompilerError {
	return &CompilerError{Kind: External, Pos: pos, Message: message, Source: source, File: file}
}

// NewInternal creates an internal (compiler-invariant) diagnostic.
func NewInternal(pos token.Position, message, source, file string) *CompilerError {
	return &CompilerError{Kind: Internal, Pos: pos, Message: message, Source: source, File: file}
}

// Error implements the error interface.
func (e *CompilerError) Error() string {
	return e.Format(false)
}

// Format renders the error with a single line of source context. If
// color is true, ANSI color codes are used for terminal output.
func (e *CompilerError) Format(color bool) string {
	var sb strings.Builder

	header := "Error"
	if e.Kind == Internal {
		header = "Internal Error"
	}
	if e.File != "" {
		sb.WriteString(fmt.Sprintf("%s in %s:%d:%d\n", header, e.File, e.Pos.Line, e.Pos.Column))
	} else {
		sb.WriteString(fmt.Sprintf("%s at line %d:%d\n", header, e.Pos.Line, e.Pos.Column))
	}

	sourceLine := e.getSourceLine(e.Pos.Line)
	if sourceLine != "" {
		lineNumStr := fmt.Sprintf("%4d | ", e.Pos.Line)
		sb.WriteString(lineNumStr)
		sb.WriteString(sourceLine)
		sb.WriteString("\n")

		sb.WriteString(strings.Repeat(" ", len(lineNumStr)+e.Pos.Column-1))
		if color {
			sb.WriteString("\033[1;31m")
		}
		sb.WriteString("^")
		if color {
			sb.WriteString("\033[0m")
		}
		sb.WriteString("\n")
	}

	if color {
		sb.WriteString("\033[1m")
	}
	sb.WriteString(e.Message)
	if color {
		sb.WriteString("\033[0m")
	}

	return sb.String()
}

func (e *CompilerError) getSourceLine(lineNum int) string {
	if e.Source == "" {
		return ""
	}
	lines := strings.Split(e.Source, "\n")
	if lineNum < 1 || lineNum > len(lines) {
		return ""
	}
	return lines[lineNum-1]
}

// FormatErrors formats a list of errors, numbering them when there is
// more than one.
func FormatErrors(errs []*CompilerError, color bool) string {
	if len(errs) == 0 {
		return ""
	}
	if len(errs) == 1 {
		return errs[0].Format(color)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Compilation failed with %d error(s):\n\n", len(errs)))
	for i, err := range errs {
		sb.WriteString(fmt.Sprintf("[Error %d of %d]\n", i+1, len(errs)))
		sb.WriteString(err.Format(color))
		if i < len(errs)-1 {
			sb.WriteString("\n\n")
		}
	}
	return sb.String()
}
