// Package symtab builds the indexed, cross-linked symbol tables the
// type checker and code generator consume: one ClassTable entry per
// declared class (plus the predefined Object at index 0), and the
// main block's locals and expression list.
package symtab

import "github.com/dj-lang/djc/internal/st"

// FieldEntry describes one field (or local variable, which shares
// the same shape per spec §3.3).
type FieldEntry struct {
	VarName     string
	VarNameLine int
	Type        int // st.Type code, or st.Unresolved if the name didn't resolve
	TypeLine    int
	TypeName    string // the type name as written, for diagnostics
}

// MethodEntry describes one declared method.
type MethodEntry struct {
	MethodName     string
	MethodNameLine int
	ReturnType     int
	ReturnTypeLine int
	ReturnTypeName string
	ParamName      string
	ParamNameLine  int
	ParamType      int
	ParamTypeLine  int
	ParamTypeName  string
	IsFinal        bool
	Locals         []*FieldEntry
	Body           *st.Node // the method's body EXPR_LIST
}

// LocalIndex returns the index of a local named name, or -1 if none.
func (m *MethodEntry) LocalIndex(name string) int {
	for i, l := range m.Locals {
		if l.VarName == name {
			return i
		}
	}
	return -1
}

// ClassEntry describes one class, predefined Object included.
type ClassEntry struct {
	ClassName      string
	ClassNameLine  int
	Superclass     int // st.Type code: st.NoType for Object, -3 if unresolved
	SuperclassLine int
	SuperclassName string
	IsFinal        bool
	Fields         []*FieldEntry
	Methods        []*MethodEntry
}

// FieldIndex returns the index of an own field named name, or -1 if none.
func (c *ClassEntry) FieldIndex(name string) int {
	for i, f := range c.Fields {
		if f.VarName == name {
			return i
		}
	}
	return -1
}

// MethodIndex returns the index of an own method named name, or -1 if none.
func (c *ClassEntry) MethodIndex(name string) int {
	for i, m := range c.Methods {
		if m.MethodName == name {
			return i
		}
	}
	return -1
}

// ClassTable is the full indexed class table. Classes[0] is always
// the predefined Object.
type ClassTable struct {
	Classes []*ClassEntry
}

// Class returns the class entry for a type code, or nil if typ does
// not index a user class or Object.
func (t *ClassTable) Class(typ int) *ClassEntry {
	if typ < 0 || typ >= len(t.Classes) {
		return nil
	}
	return t.Classes[typ]
}

// Lookup resolves a class name to its type code, or st.Unresolved if
// no class by that name has been declared.
func (t *ClassTable) Lookup(name string) int {
	for i, c := range t.Classes {
		if c.ClassName == name {
			return i
		}
	}
	return int(st.Unresolved)
}

// NumClasses returns len(Classes), i.e. 1 + the number of user classes.
func (t *ClassTable) NumClasses() int {
	return len(t.Classes)
}

// MainBlock holds the main block's locals and its expression list.
type MainBlock struct {
	Locals []*FieldEntry
	Exprs  *st.Node // the main EXPR_LIST
}

// LocalIndex returns the index of a main-block local named name, or -1.
func (m *MainBlock) LocalIndex(name string) int {
	for i, l := range m.Locals {
		if l.VarName == name {
			return i
		}
	}
	return -1
}
