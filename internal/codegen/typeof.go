package codegen

import (
	"github.com/dj-lang/djc/internal/st"
	"github.com/dj-lang/djc/internal/typecheck"
)

// exprType recomputes the static type of an already-type-checked
// expression. The code generator only ever needs this to resolve a
// dot-expression's receiver type into a field offset; since the
// program is known well-typed at this point, it trusts the tree
// rather than re-diagnosing it — mirroring original_source's own
// codeGenExpr, which likewise calls back into typeExpr rather than
// threading the result through.
func (g *Generator) exprType(n *st.Node, classNumber, methodNumber int) int {
	switch n.Kind {
	case st.NAT_LITERAL_EXPR:
		return int(st.Nat)
	case st.NULL_EXPR:
		return int(st.AnyObject)
	case st.READ_EXPR, st.NOT_EXPR, st.PRINT_EXPR, st.ASSERT_EXPR,
		st.PLUS_EXPR, st.MINUS_EXPR, st.TIMES_EXPR,
		st.EQUALITY_EXPR, st.LESS_THAN_EXPR, st.OR_EXPR, st.WHILE_EXPR:
		return int(st.Nat)
	case st.THIS_EXPR:
		return classNumber
	case st.NEW_EXPR:
		return g.Table.Lookup(n.Child(0).IDValue)
	case st.IF_THEN_ELSE_EXPR:
		thenType := g.exprListType(n.Child(1), classNumber, methodNumber)
		elseType := g.exprListType(n.Child(2), classNumber, methodNumber)
		if thenType == int(st.Nat) && elseType == int(st.Nat) {
			return int(st.Nat)
		}
		return typecheck.Join(thenType, elseType, g.Table)
	case st.ID_EXPR:
		return g.varType(n.Child(0).IDValue, classNumber, methodNumber)
	case st.ASSIGN_EXPR:
		return g.varType(n.Child(0).IDValue, classNumber, methodNumber)
	case st.DOT_ID_EXPR, st.DOT_ASSIGN_EXPR:
		recvType := g.exprType(n.Child(0), classNumber, methodNumber)
		_, fieldIdx, cls := g.searchField(recvType, n.Child(1).IDValue)
		return g.Table.Class(cls).Fields[fieldIdx].Type
	case st.METHOD_CALL_EXPR, st.DOT_METHOD_CALL_EXPR:
		return g.Table.Class(n.StaticClassNum).Methods[n.StaticMemberNum].ReturnType
	default:
		return int(st.Unresolved)
	}
}

func (g *Generator) exprListType(list *st.Node, classNumber, methodNumber int) int {
	result := int(st.NoType)
	for _, e := range list.Children {
		result = g.exprType(e, classNumber, methodNumber)
	}
	return result
}

// varType returns a variable's declared type under the same lookup
// priority resolveVar uses for addressing.
func (g *Generator) varType(name string, classNumber, methodNumber int) int {
	if classNumber > 0 {
		method := g.Table.Class(classNumber).Methods[methodNumber]
		if name == method.ParamName {
			return method.ParamType
		}
		if idx := method.LocalIndex(name); idx >= 0 {
			return method.Locals[idx].Type
		}
		_, fieldIdx, cls := g.searchField(classNumber, name)
		return g.Table.Class(cls).Fields[fieldIdx].Type
	}
	if idx := g.Main.LocalIndex(name); idx >= 0 {
		return g.Main.Locals[idx].Type
	}
	return int(st.Unresolved)
}

// searchField walks the class chain starting at start, up to but not
// including Object, looking for a field named name. It returns
// (found, fieldIdx, declaringClass); the program is
// already known well-typed, so an unmatched search never occurs.
func (g *Generator) searchField(start int, name string) (ok bool, fieldIdx, declClass int) {
	for cur := start; cur >= 1; {
		entry := g.Table.Class(cur)
		if idx := entry.FieldIndex(name); idx >= 0 {
			return true, idx, cur
		}
		cur = entry.Superclass
	}
	return false, -1, -1
}
