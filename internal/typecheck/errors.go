package typecheck

import (
	"fmt"

	djerrors "github.com/dj-lang/djc/internal/errors"
	"github.com/dj-lang/djc/internal/st"
	"github.com/dj-lang/djc/internal/symtab"
	"github.com/dj-lang/djc/internal/token"
)

// TypeName renders a type code as a human-readable name for
// diagnostics, e.g. "nat", "any-object", "Object", or a declared
// class name.
func TypeName(t int, table *symtab.ClassTable) string {
	switch t {
	case int(st.NoType):
		return "<no type>"
	case int(st.Unresolved):
		return "<unresolved>"
	case int(st.AnyObject):
		return "any-object"
	case int(st.Nat):
		return "nat"
	}
	if entry := table.Class(t); entry != nil {
		return entry.ClassName
	}
	return fmt.Sprintf("<invalid type %d>", t)
}

func (c *Checker) errorf(line int, format string, args ...any) *djerrors.CompilerError {
	return djerrors.NewExternal(token.Position{Line: line}, fmt.Sprintf(format, args...), c.Source, c.File)
}

func (c *Checker) internalErrorf(line int, format string, args ...any) *djerrors.CompilerError {
	return djerrors.NewInternal(token.Position{Line: line}, fmt.Sprintf(format, args...), c.Source, c.File)
}
