// Package typecheck implements the DJ static semantic analyzer: class
// hierarchy and member validation (spec §4.2.1-4.2.3), full expression
// type judgment (§4.2.4), the subtype/join relation (§4.2.5), and
// expression-list typing (§4.2.6). It never attempts error recovery:
// the first defect found is returned and checking stops, per §7.
package typecheck

import (
	"github.com/dj-lang/djc/internal/st"
	"github.com/dj-lang/djc/internal/symtab"
)

// Checker validates a class table and main block built by symtab.Build
// and annotates every expression node's StaticClassNum/StaticMemberNum
// for the code generator.
type Checker struct {
	Table  *symtab.ClassTable
	Main   *symtab.MainBlock
	Source string
	File   string
}

// New creates a Checker over a built class table and main block.
// Source and file are carried through only for diagnostic formatting.
func New(table *symtab.ClassTable, main *symtab.MainBlock, source, file string) *Checker {
	return &Checker{Table: table, Main: main, Source: source, File: file}
}

// Check runs the full §4.2 rule set and returns the first violation
// found, or nil if the program is well-typed.
func (c *Checker) Check() error {
	if err := c.checkAcyclic(); err != nil {
		return err
	}
	for i := 1; i < c.Table.NumClasses(); i++ {
		if err := c.checkClassDecl(i); err != nil {
			return err
		}
	}
	for i := 1; i < c.Table.NumClasses(); i++ {
		if err := c.checkFields(i); err != nil {
			return err
		}
		if err := c.checkMethods(i); err != nil {
			return err
		}
	}
	return c.checkMain()
}

// checkAcyclic walks every user class's superclass chain. A chain
// that takes more steps than there are classes cannot be terminating
// at the -4 sentinel and must instead be cyclic.
func (c *Checker) checkAcyclic() error {
	limit := c.Table.NumClasses()
	for i := 1; i < c.Table.NumClasses(); i++ {
		cur := i
		for steps := 0; ; steps++ {
			if steps > limit {
				entry := c.Table.Class(i)
				return c.errorf(entry.SuperclassLine, "class %q participates in a cyclic inheritance chain", entry.ClassName)
			}
			entry := c.Table.Class(cur)
			if entry == nil {
				break
			}
			if entry.Superclass == int(st.NoType) {
				break
			}
			cur = entry.Superclass
		}
	}
	return nil
}

func (c *Checker) checkClassDecl(i int) error {
	entry := c.Table.Class(i)

	if entry.ClassName == "Object" {
		return c.errorf(entry.ClassNameLine, "class cannot be named Object")
	}
	for j := 1; j < c.Table.NumClasses(); j++ {
		if j == i {
			continue
		}
		if c.Table.Class(j).ClassName == entry.ClassName {
			return c.errorf(entry.ClassNameLine, "duplicate class name %q", entry.ClassName)
		}
	}

	if entry.Superclass < int(st.ObjectType) {
		return c.errorf(entry.SuperclassLine, "unresolved superclass name %q", entry.SuperclassName)
	}
	super := c.Table.Class(entry.Superclass)
	if super.IsFinal {
		return c.errorf(entry.SuperclassLine, "class %q cannot extend final class %q", entry.ClassName, super.ClassName)
	}
	return nil
}

func (c *Checker) checkFields(i int) error {
	entry := c.Table.Class(i)
	for fi, f := range entry.Fields {
		if f.Type < int(st.Nat) {
			return c.errorf(f.TypeLine, "unresolved type name %q for field %q", f.TypeName, f.VarName)
		}
		for fj, g := range entry.Fields {
			if fj != fi && g.VarName == f.VarName {
				return c.errorf(f.VarNameLine, "duplicate field name %q in class %q", f.VarName, entry.ClassName)
			}
		}
		if cls, _, ok := searchField(entry.Superclass, f.VarName, c.Table); ok {
			return c.errorf(f.VarNameLine, "field %q shadows a field already declared in ancestor class %q", f.VarName, c.Table.Class(cls).ClassName)
		}
	}
	return nil
}

func (c *Checker) checkMethods(i int) error {
	entry := c.Table.Class(i)
	for mi, m := range entry.Methods {
		if m.ReturnType < int(st.Nat) {
			return c.errorf(m.ReturnTypeLine, "unresolved return type %q for method %q", m.ReturnTypeName, m.MethodName)
		}
		if m.ParamType < int(st.Nat) {
			return c.errorf(m.ParamTypeLine, "unresolved parameter type %q for method %q", m.ParamTypeName, m.MethodName)
		}
		for mj, n := range entry.Methods {
			if mj != mi && n.MethodName == m.MethodName {
				return c.errorf(m.MethodNameLine, "duplicate method name %q in class %q", m.MethodName, entry.ClassName)
			}
		}

		cur := entry.Superclass
		for cur >= 1 {
			ancestor := c.Table.Class(cur)
			if idx := ancestor.MethodIndex(m.MethodName); idx >= 0 {
				base := ancestor.Methods[idx]
				if base.IsFinal {
					return c.errorf(m.MethodNameLine, "method %q overrides final method declared in class %q", m.MethodName, ancestor.ClassName)
				}
				if base.ReturnType != m.ReturnType || base.ParamType != m.ParamType {
					return c.errorf(m.MethodNameLine, "method %q overrides class %q's method with an incompatible signature", m.MethodName, ancestor.ClassName)
				}
				break
			}
			cur = ancestor.Superclass
		}

		for li, l := range m.Locals {
			if l.VarName == m.ParamName {
				return c.errorf(l.VarNameLine, "local %q shadows parameter %q in method %q", l.VarName, m.ParamName, m.MethodName)
			}
			for lj, k := range m.Locals {
				if lj != li && k.VarName == l.VarName {
					return c.errorf(l.VarNameLine, "duplicate local name %q in method %q", l.VarName, m.MethodName)
				}
			}
			if l.Type < int(st.Nat) {
				return c.errorf(l.TypeLine, "unresolved type name %q for local %q", l.TypeName, l.VarName)
			}
		}

		mctx := &ctx{table: c.Table, classIdx: i, methodIdx: mi, method: m}
		resultType, err := c.typeExprList(m.Body, mctx)
		if err != nil {
			return err
		}
		if !Subtype(resultType, m.ReturnType, c.Table) {
			return c.errorf(m.MethodNameLine, "method %q's body produces %s, not assignable to declared return type %s",
				m.MethodName, TypeName(resultType, c.Table), TypeName(m.ReturnType, c.Table))
		}
	}
	return nil
}

func (c *Checker) checkMain() error {
	for li, l := range c.Main.Locals {
		if l.Type < int(st.Nat) {
			return c.errorf(l.TypeLine, "unresolved type name %q for local %q", l.TypeName, l.VarName)
		}
		for lj, k := range c.Main.Locals {
			if lj != li && k.VarName == l.VarName {
				return c.errorf(l.VarNameLine, "duplicate local name %q in main block", l.VarName)
			}
		}
	}
	mctx := &ctx{table: c.Table, classIdx: -1, methodIdx: -1, main: c.Main}
	_, err := c.typeExprList(c.Main.Exprs, mctx)
	return err
}

// ctx is the lexical context an expression is type-checked in: either
// inside a method body (method non-nil) or the main block (main non-nil).
type ctx struct {
	table     *symtab.ClassTable
	classIdx  int // enclosing class index, or -1 for main
	methodIdx int // enclosing method index within its class, or -1 for main
	method    *symtab.MethodEntry
	main      *symtab.MainBlock
}

// searchField walks the class chain starting at start, up to but not
// including Object, looking for a field named name.
func searchField(start int, name string, table *symtab.ClassTable) (classIdx, fieldIdx int, ok bool) {
	for cur := start; cur >= 1; {
		entry := table.Class(cur)
		if entry == nil {
			return -1, -1, false
		}
		if idx := entry.FieldIndex(name); idx >= 0 {
			return cur, idx, true
		}
		cur = entry.Superclass
	}
	return -1, -1, false
}

// searchMethod walks the class chain starting at start, climbing
// while the class index is ≥ 0 — i.e. including Object, which has no
// methods and so never contributes a match.
func searchMethod(start int, name string, table *symtab.ClassTable) (classIdx, methodIdx int, ok bool) {
	for cur := start; cur >= 0; {
		entry := table.Class(cur)
		if entry == nil {
			return -1, -1, false
		}
		if idx := entry.MethodIndex(name); idx >= 0 {
			return cur, idx, true
		}
		cur = entry.Superclass
	}
	return -1, -1, false
}

// resolveVariable looks up name in priority order: for a method body,
// parameter then locals then the enclosing class's fields walking up
// to but not including Object; for main, main-block locals only.
func resolveVariable(name string, c *ctx) (typ int, ok bool) {
	if c.main != nil {
		if idx := c.main.LocalIndex(name); idx >= 0 {
			return c.main.Locals[idx].Type, true
		}
		return 0, false
	}
	if name == c.method.ParamName {
		return c.method.ParamType, true
	}
	if idx := c.method.LocalIndex(name); idx >= 0 {
		return c.method.Locals[idx].Type, true
	}
	if cls, fieldIdx, found := searchField(c.classIdx, name, c.table); found {
		return c.table.Class(cls).Fields[fieldIdx].Type, true
	}
	return 0, false
}

// typeExprList types every expression in an EXPR_LIST in order and
// returns the type of the last one. An empty list is a malformed tree
// — the grammar always produces at least one expression.
func (c *Checker) typeExprList(list *st.Node, ctx *ctx) (int, error) {
	if list == nil || list.Kind != st.EXPR_LIST || len(list.Children) == 0 {
		line := 0
		if list != nil {
			line = list.Line
		}
		return 0, c.internalErrorf(line, "typecheck: empty or malformed expression list")
	}
	result := int(st.NoType)
	for _, e := range list.Children {
		t, err := c.typeExpr(e, ctx)
		if err != nil {
			return 0, err
		}
		result = t
	}
	return result, nil
}

// typeExpr resolves and records the static type of one expression
// node, per spec §4.2.4. It first stamps the node's StaticClassNum and
// StaticMemberNum with the enclosing context; method-call nodes
// overwrite these with the resolved dispatch target.
func (c *Checker) typeExpr(n *st.Node, ctx *ctx) (int, error) {
	if n == nil {
		return 0, c.internalErrorf(0, "typecheck: nil expression node")
	}
	n.StaticClassNum = ctx.classIdx
	n.StaticMemberNum = ctx.methodIdx

	switch n.Kind {
	case st.NAT_LITERAL_EXPR:
		return int(st.Nat), nil

	case st.NULL_EXPR:
		return int(st.AnyObject), nil

	case st.READ_EXPR:
		return int(st.Nat), nil

	case st.THIS_EXPR:
		if ctx.main != nil {
			return 0, c.errorf(n.Line, "this is not valid in the main block")
		}
		return ctx.classIdx, nil

	case st.NEW_EXPR:
		idNode := n.Child(0)
		cls := c.Table.Lookup(idNode.IDValue)
		if cls < int(st.ObjectType) {
			return 0, c.errorf(idNode.Line, "unresolved class name %q in new expression", idNode.IDValue)
		}
		return cls, nil

	case st.NOT_EXPR, st.PRINT_EXPR, st.ASSERT_EXPR:
		operand := n.Child(0)
		t, err := c.typeExpr(operand, ctx)
		if err != nil {
			return 0, err
		}
		if t != int(st.Nat) {
			return 0, c.errorf(operand.Line, "operand of %s must be nat, got %s", n.Kind, TypeName(t, c.Table))
		}
		return int(st.Nat), nil

	case st.PLUS_EXPR, st.MINUS_EXPR, st.TIMES_EXPR:
		return c.typeArithmetic(n, ctx)

	case st.EQUALITY_EXPR, st.LESS_THAN_EXPR, st.OR_EXPR:
		return c.typeComparison(n, ctx)

	case st.IF_THEN_ELSE_EXPR:
		return c.typeIfThenElse(n, ctx)

	case st.WHILE_EXPR:
		return c.typeWhile(n, ctx)

	case st.ID_EXPR:
		name := n.Child(0).IDValue
		t, ok := resolveVariable(name, ctx)
		if !ok {
			return 0, c.errorf(n.Line, "unknown identifier %q", name)
		}
		return t, nil

	case st.ASSIGN_EXPR:
		return c.typeAssign(n, ctx)

	case st.DOT_ID_EXPR:
		return c.typeDotID(n, ctx)

	case st.DOT_ASSIGN_EXPR:
		return c.typeDotAssign(n, ctx)

	case st.METHOD_CALL_EXPR:
		return c.typeMethodCall(n, ctx)

	case st.DOT_METHOD_CALL_EXPR:
		return c.typeDotMethodCall(n, ctx)

	default:
		return 0, c.internalErrorf(n.Line, "typecheck: unexpected expression kind %s", n.Kind)
	}
}


func (c *Checker) typeArithmetic(n *st.Node, ctx *ctx) (int, error) {
	left := n.Child(0)
	right := n.Child(1)
	lt, err := c.typeExpr(left, ctx)
	if err != nil {
		return 0, err
	}
	rt, err := c.typeExpr(right, ctx)
	if err != nil {
		return 0, err
	}
	if lt != int(st.Nat) || rt != int(st.Nat) {
		return 0, c.errorf(n.Line, "operands of %s must both be nat", n.Kind)
	}
	return int(st.Nat), nil
}

func (c *Checker) typeComparison(n *st.Node, ctx *ctx) (int, error) {
	left := n.Child(0)
	right := n.Child(1)
	lt, err := c.typeExpr(left, ctx)
	if err != nil {
		return 0, err
	}
	rt, err := c.typeExpr(right, ctx)
	if err != nil {
		return 0, err
	}
	if !Subtype(lt, rt, c.Table) && !Subtype(rt, lt, c.Table) {
		return 0, c.errorf(n.Line, "operands of %s have unrelated types %s and %s", n.Kind, TypeName(lt, c.Table), TypeName(rt, c.Table))
	}
	return int(st.Nat), nil
}

func (c *Checker) typeIfThenElse(n *st.Node, ctx *ctx) (int, error) {
	cond := n.Child(0)
	thenList := n.Child(1)
	elseList := n.Child(2)

	ct, err := c.typeExpr(cond, ctx)
	if err != nil {
		return 0, err
	}
	if ct != int(st.Nat) {
		return 0, c.errorf(cond.Line, "if condition must be nat, got %s", TypeName(ct, c.Table))
	}
	tt, err := c.typeExprList(thenList, ctx)
	if err != nil {
		return 0, err
	}
	et, err := c.typeExprList(elseList, ctx)
	if err != nil {
		return 0, err
	}

	tIsNat := tt == int(st.Nat)
	eIsNat := et == int(st.Nat)
	if tIsNat && eIsNat {
		return int(st.Nat), nil
	}
	if tIsNat != eIsNat {
		return 0, c.errorf(n.Line, "if branches have incompatible types %s and %s", TypeName(tt, c.Table), TypeName(et, c.Table))
	}
	return Join(tt, et, c.Table), nil
}

func (c *Checker) typeWhile(n *st.Node, ctx *ctx) (int, error) {
	cond := n.Child(0)
	body := n.Child(1)
	ct, err := c.typeExpr(cond, ctx)
	if err != nil {
		return 0, err
	}
	if ct != int(st.Nat) {
		return 0, c.errorf(cond.Line, "while condition must be nat, got %s", TypeName(ct, c.Table))
	}
	if _, err := c.typeExprList(body, ctx); err != nil {
		return 0, err
	}
	return int(st.Nat), nil
}

func (c *Checker) typeAssign(n *st.Node, ctx *ctx) (int, error) {
	idNode := n.Child(0)
	valueNode := n.Child(1)

	varType, ok := resolveVariable(idNode.IDValue, ctx)
	if !ok {
		return 0, c.errorf(idNode.Line, "unknown identifier %q", idNode.IDValue)
	}
	vt, err := c.typeExpr(valueNode, ctx)
	if err != nil {
		return 0, err
	}
	if !Subtype(vt, varType, c.Table) {
		return 0, c.errorf(n.Line, "cannot assign %s to %q of type %s", TypeName(vt, c.Table), idNode.IDValue, TypeName(varType, c.Table))
	}
	return varType, nil
}

func (c *Checker) typeDotID(n *st.Node, ctx *ctx) (int, error) {
	recv := n.Child(0)
	nameNode := n.Child(1)

	rt, err := c.typeExpr(recv, ctx)
	if err != nil {
		return 0, err
	}
	if rt < int(st.ObjectType)+1 {
		return 0, c.errorf(n.Line, "cannot access field %q on receiver of type %s", nameNode.IDValue, TypeName(rt, c.Table))
	}
	_, fieldIdx, ok := searchField(rt, nameNode.IDValue, c.Table)
	if !ok {
		return 0, c.errorf(n.Line, "class %q has no field %q", TypeName(rt, c.Table), nameNode.IDValue)
	}
	cls, _, _ := searchField(rt, nameNode.IDValue, c.Table)
	return c.Table.Class(cls).Fields[fieldIdx].Type, nil
}

func (c *Checker) typeDotAssign(n *st.Node, ctx *ctx) (int, error) {
	recv := n.Child(0)
	nameNode := n.Child(1)
	valueNode := n.Child(2)

	rt, err := c.typeExpr(recv, ctx)
	if err != nil {
		return 0, err
	}
	if rt < int(st.ObjectType)+1 {
		return 0, c.errorf(n.Line, "cannot access field %q on receiver of type %s", nameNode.IDValue, TypeName(rt, c.Table))
	}
	cls, fieldIdx, ok := searchField(rt, nameNode.IDValue, c.Table)
	if !ok {
		return 0, c.errorf(n.Line, "class %q has no field %q", TypeName(rt, c.Table), nameNode.IDValue)
	}
	fieldType := c.Table.Class(cls).Fields[fieldIdx].Type

	vt, err := c.typeExpr(valueNode, ctx)
	if err != nil {
		return 0, err
	}
	if !Subtype(vt, fieldType, c.Table) {
		return 0, c.errorf(n.Line, "cannot assign %s to field %q of type %s", TypeName(vt, c.Table), nameNode.IDValue, TypeName(fieldType, c.Table))
	}
	return fieldType, nil
}

func (c *Checker) typeMethodCall(n *st.Node, ctx *ctx) (int, error) {
	if ctx.main != nil {
		return 0, c.errorf(n.Line, "method call with implicit this is not valid in the main block")
	}
	nameNode := n.Child(0)
	argNode := n.Child(1)

	cls, methodIdx, ok := searchMethod(ctx.classIdx, nameNode.IDValue, c.Table)
	if !ok {
		return 0, c.errorf(n.Line, "unknown method %q", nameNode.IDValue)
	}
	method := c.Table.Class(cls).Methods[methodIdx]

	at, err := c.typeExpr(argNode, ctx)
	if err != nil {
		return 0, err
	}
	if !Subtype(at, method.ParamType, c.Table) {
		return 0, c.errorf(n.Line, "argument of type %s not assignable to parameter %q of type %s",
			TypeName(at, c.Table), method.ParamName, TypeName(method.ParamType, c.Table))
	}

	n.StaticClassNum = cls
	n.StaticMemberNum = methodIdx
	return method.ReturnType, nil
}

func (c *Checker) typeDotMethodCall(n *st.Node, ctx *ctx) (int, error) {
	recv := n.Child(0)
	nameNode := n.Child(1)
	argNode := n.Child(2)

	rt, err := c.typeExpr(recv, ctx)
	if err != nil {
		return 0, err
	}
	if rt < int(st.ObjectType)+1 {
		return 0, c.errorf(n.Line, "cannot call method %q on receiver of type %s", nameNode.IDValue, TypeName(rt, c.Table))
	}
	cls, methodIdx, ok := searchMethod(rt, nameNode.IDValue, c.Table)
	if !ok {
		return 0, c.errorf(n.Line, "class %q has no method %q", TypeName(rt, c.Table), nameNode.IDValue)
	}
	method := c.Table.Class(cls).Methods[methodIdx]

	at, err := c.typeExpr(argNode, ctx)
	if err != nil {
		return 0, err
	}
	if !Subtype(at, method.ParamType, c.Table) {
		return 0, c.errorf(n.Line, "argument of type %s not assignable to parameter %q of type %s",
			TypeName(at, c.Table), method.ParamName, TypeName(method.ParamType, c.Table))
	}

	n.StaticClassNum = cls
	n.StaticMemberNum = methodIdx
	return method.ReturnType, nil
}

