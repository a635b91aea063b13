// Package codegen lowers a type-checked DJ syntax tree into x86-64
// NASM assembly for Linux, per spec §4.3: a stack-frame calling
// convention, a bump-allocated heap for `new`, and a linearized
// virtual-dispatch table for method calls. Grounded throughout in
// original_source/src/codegen/codegen.c, the C implementation this
// package's emission logic was distilled from.
package codegen

import (
	"fmt"
	"strings"

	djerrors "github.com/dj-lang/djc/internal/errors"
	"github.com/dj-lang/djc/internal/st"
	"github.com/dj-lang/djc/internal/symtab"
	"github.com/dj-lang/djc/internal/token"
)

// Generator holds the state threaded through one code-generation run:
// the resolved class table and main block, the output buffer, and
// the label counter (one per Generator, so separate runs never share
// labels).
type Generator struct {
	Table  *symtab.ClassTable
	Main   *symtab.MainBlock
	Source string
	File   string

	out         strings.Builder
	labelNumber int
}

// New creates a Generator over a type-checked class table and main
// block.
func New(table *symtab.ClassTable, main *symtab.MainBlock, source, file string) *Generator {
	return &Generator{Table: table, Main: main, Source: source, File: file, labelNumber: 1}
}

// Generate lowers the whole program and returns the assembled NASM
// source text.
func (g *Generator) Generate() (string, error) {
	g.writeln("section .bss")
	g.writef("    heap_memory resq %d\n", heapWords)
	g.writeln("    input_buffer resb 21")

	g.writeln("")
	g.writeln("section .text")
	g.writeln("    global _start")

	g.writeRuntimeHelpers()

	g.writeln("")
	g.writeln("_start:")
	g.writeln("    mov rbp, rsp")
	g.writeln("    lea r15, [rel heap_memory]")

	for range g.Main.Locals {
		g.decSP()
		g.writeln("    mov qword [rsp], 0")
	}

	if err := g.genExprs(g.Main.Exprs, -1, -1); err != nil {
		return "", err
	}

	g.writeln("    mov rdi, 0")
	g.writeln("    call _exit_program")

	for i := 1; i < g.Table.NumClasses(); i++ {
		class := g.Table.Class(i)
		for j, m := range class.Methods {
			g.writef("%s: ; %s.%s\n", methodLabel(i, j), class.ClassName, m.MethodName)
			g.genPrologue(i, j)
			if err := g.genExprs(m.Body, i, j); err != nil {
				return "", err
			}
			g.genEpilogue()
		}
	}

	g.writeVTable()

	return g.out.String(), nil
}

func methodLabel(classNumber, methodNumber int) string {
	return fmt.Sprintf("class%dmethod%d", classNumber, methodNumber)
}

func (g *Generator) writeln(s string) {
	g.out.WriteString(s)
	g.out.WriteByte('\n')
}

func (g *Generator) writef(format string, args ...any) {
	fmt.Fprintf(&g.out, format, args...)
}

func (g *Generator) nextLabel() int {
	n := g.labelNumber
	g.labelNumber++
	return n
}

func (g *Generator) incSP() { g.writef("    add rsp, %d\n", wordSize) }
func (g *Generator) decSP() { g.writef("    sub rsp, %d\n", wordSize) }

// checkNullDereference emits a guard over the object pointer sitting
// at [rsp]: if it is 0, exit with status 1.
func (g *Generator) checkNullDereference() {
	ok := g.nextLabel()
	g.writeln("    cmp qword [rsp], 0")
	g.writef("    jne .L_null_ok_%d\n", ok)
	g.writeln("    mov rdi, 1")
	g.writeln("    call _exit_program")
	g.writef(".L_null_ok_%d:\n", ok)
}

func (g *Generator) internalErrorf(line int, format string, args ...any) error {
	return djerrors.NewInternal(token.Position{Line: line}, fmt.Sprintf(format, args...), g.Source, g.File)
}

func (g *Generator) genPrologue(classNumber, methodNumber int) {
	g.writeln("    push rbp")
	g.writeln("    mov rbp, rsp")
	method := g.Table.Class(classNumber).Methods[methodNumber]
	for range method.Locals {
		g.decSP()
		g.writeln("    mov qword [rsp], 0")
	}
}

// genEpilogue assumes the body's result word is at [rsp]: it moves
// that result to rax, tears down the frame, discards the five-word
// call frame the caller pushed, then pushes the result back and
// jumps to the caller's return site.
func (g *Generator) genEpilogue() {
	g.writeln("    mov rax, [rsp]")
	g.writeln("    mov rsp, rbp")
	g.writeln("    pop rbp")
	g.writef("    mov rbx, [rsp + %d]\n", 4*wordSize)
	g.writef("    add rsp, %d\n", 5*wordSize)
	g.decSP()
	g.writeln("    mov [rsp], rax")
	g.writeln("    jmp rbx")
}

// genExprs lowers an EXPR_LIST: each expression's result word is
// popped before the next one runs, except the list's last, so the
// list's value is whatever the final expression leaves at [rsp].
func (g *Generator) genExprs(list *st.Node, classNumber, methodNumber int) error {
	if list == nil || list.Kind != st.EXPR_LIST || len(list.Children) == 0 {
		line := 0
		if list != nil {
			line = list.Line
		}
		return g.internalErrorf(line, "codegen: empty or malformed expression list")
	}
	for i, e := range list.Children {
		if err := g.genExpr(e, classNumber, methodNumber); err != nil {
			return err
		}
		if i < len(list.Children)-1 {
			g.incSP()
		}
	}
	return nil
}

// genExpr lowers one expression node. classNumber == 0 should never
// reach here except for a NAT_LITERAL_EXPR — Object carries no
// methods, so nothing else is ever generated in its context.
func (g *Generator) genExpr(n *st.Node, classNumber, methodNumber int) error {
	if n == nil {
		return g.internalErrorf(0, "codegen: nil expression node")
	}
	if classNumber == 0 && n.Kind != st.NAT_LITERAL_EXPR {
		return g.internalErrorf(n.Line, "codegen: unexpected codegen in Object's context")
	}

	switch n.Kind {
	case st.NAT_LITERAL_EXPR:
		g.decSP()
		g.writef("    mov qword [rsp], %d\n", n.NumValue)
		return nil

	case st.NULL_EXPR:
		g.decSP()
		g.writeln("    mov qword [rsp], 0")
		return nil

	case st.NEW_EXPR:
		return g.genNew(n)

	case st.THIS_EXPR:
		g.decSP()
		g.writeln("    mov rax, [rbp + 32]")
		g.writeln("    mov [rsp], rax")
		return nil

	case st.READ_EXPR:
		g.writeln("    call _read_int")
		g.decSP()
		g.writeln("    mov [rsp], rax")
		return nil

	case st.PRINT_EXPR:
		if err := g.genExpr(n.Child(0), classNumber, methodNumber); err != nil {
			return err
		}
		g.writeln("    mov rax, [rsp]")
		g.writeln("    call _print_int")
		return nil

	case st.WHILE_EXPR:
		return g.genWhile(n, classNumber, methodNumber)

	case st.IF_THEN_ELSE_EXPR:
		return g.genIfThenElse(n, classNumber, methodNumber)

	case st.PLUS_EXPR:
		return g.genArithmetic(n, classNumber, methodNumber, "add")
	case st.MINUS_EXPR:
		return g.genArithmetic(n, classNumber, methodNumber, "sub")
	case st.TIMES_EXPR:
		return g.genArithmetic(n, classNumber, methodNumber, "imul")

	case st.EQUALITY_EXPR:
		return g.genComparison(n, classNumber, methodNumber, "je")
	case st.LESS_THAN_EXPR:
		return g.genComparison(n, classNumber, methodNumber, "jl")

	case st.NOT_EXPR:
		return g.genNot(n, classNumber, methodNumber)

	case st.OR_EXPR:
		return g.genOr(n, classNumber, methodNumber)

	case st.ASSERT_EXPR:
		return g.genAssert(n, classNumber, methodNumber)

	case st.ID_EXPR:
		return g.genIDExpr(n, classNumber, methodNumber)

	case st.ASSIGN_EXPR:
		return g.genAssign(n, classNumber, methodNumber)

	case st.DOT_ID_EXPR:
		return g.genDotID(n, classNumber, methodNumber)

	case st.DOT_ASSIGN_EXPR:
		return g.genDotAssign(n, classNumber, methodNumber)

	case st.METHOD_CALL_EXPR, st.DOT_METHOD_CALL_EXPR:
		return g.genMethodCall(n, classNumber, methodNumber)

	default:
		return g.internalErrorf(n.Line, "codegen: unexpected expression kind %s", n.Kind)
	}
}

func (g *Generator) genNew(n *st.Node) error {
	idNode := n.Child(0)
	objType := g.Table.Lookup(idNode.IDValue)
	if objType < int(st.ObjectType) {
		return g.internalErrorf(n.Line, "codegen: unresolved class %q reached codegen", idNode.IDValue)
	}

	g.writef("    mov rax, %d\n", objType)
	g.writeln("    mov [r15], rax")
	g.decSP()
	g.writeln("    mov [rsp], r15")
	g.writef("    add r15, %d\n", wordSize)

	for _, cls := range AncestorChain(objType, g.Table) {
		for range g.Table.Class(cls).Fields {
			g.writeln("    mov qword [r15], 0")
			g.writef("    add r15, %d\n", wordSize)
		}
	}
	return nil
}

func (g *Generator) genWhile(n *st.Node, classNumber, methodNumber int) error {
	cond, body := n.Child(0), n.Child(1)
	loopLabel := g.nextLabel()
	endLabel := g.nextLabel()

	g.writef(".L%d:\n", loopLabel)
	if err := g.genExpr(cond, classNumber, methodNumber); err != nil {
		return err
	}
	g.writeln("    mov rax, [rsp]")
	g.writeln("    cmp rax, 0")
	g.writef("    je .L%d\n", endLabel)
	g.incSP()
	if err := g.genExprs(body, classNumber, methodNumber); err != nil {
		return err
	}
	g.incSP()
	g.writef("    jmp .L%d\n", loopLabel)
	g.writef(".L%d:\n", endLabel)
	g.writeln("    mov qword [rsp], 0")
	return nil
}

func (g *Generator) genIfThenElse(n *st.Node, classNumber, methodNumber int) error {
	cond, thenList, elseList := n.Child(0), n.Child(1), n.Child(2)
	if err := g.genExpr(cond, classNumber, methodNumber); err != nil {
		return err
	}
	falseLabel := g.nextLabel()
	endLabel := g.nextLabel()
	g.writeln("    mov rax, [rsp]")
	g.writeln("    cmp rax, 0")
	g.writef("    je .L%d\n", falseLabel)
	g.incSP()
	if err := g.genExprs(thenList, classNumber, methodNumber); err != nil {
		return err
	}
	g.writef("    jmp .L%d\n", endLabel)
	g.writef(".L%d:\n", falseLabel)
	g.incSP()
	if err := g.genExprs(elseList, classNumber, methodNumber); err != nil {
		return err
	}
	g.writef(".L%d:\n", endLabel)
	return nil
}

func (g *Generator) genArithmetic(n *st.Node, classNumber, methodNumber int, op string) error {
	left, right := n.Child(0), n.Child(1)
	if err := g.genExpr(left, classNumber, methodNumber); err != nil {
		return err
	}
	if err := g.genExpr(right, classNumber, methodNumber); err != nil {
		return err
	}
	g.writef("    mov rax, [rsp + %d]\n", wordSize)
	g.writeln("    mov rbx, [rsp]")
	g.writef("    %s rax, rbx\n", op)
	g.incSP()
	g.writeln("    mov [rsp], rax")
	return nil
}

func (g *Generator) genComparison(n *st.Node, classNumber, methodNumber int, jumpOnTrue string) error {
	left, right := n.Child(0), n.Child(1)
	if err := g.genExpr(left, classNumber, methodNumber); err != nil {
		return err
	}
	if err := g.genExpr(right, classNumber, methodNumber); err != nil {
		return err
	}
	trueLabel := g.nextLabel()
	endLabel := g.nextLabel()
	g.writef("    mov rax, [rsp + %d]\n", wordSize)
	g.writeln("    mov rbx, [rsp]")
	g.writeln("    cmp rax, rbx")
	g.writef("    %s .L%d\n", jumpOnTrue, trueLabel)
	g.incSP()
	g.writeln("    mov qword [rsp], 0")
	g.writef("    jmp .L%d\n", endLabel)
	g.writef(".L%d:\n", trueLabel)
	g.incSP()
	g.writeln("    mov qword [rsp], 1")
	g.writef(".L%d:\n", endLabel)
	return nil
}

func (g *Generator) genNot(n *st.Node, classNumber, methodNumber int) error {
	if err := g.genExpr(n.Child(0), classNumber, methodNumber); err != nil {
		return err
	}
	trueLabel := g.nextLabel()
	endLabel := g.nextLabel()
	g.writeln("    mov rax, [rsp]")
	g.writeln("    cmp rax, 0")
	g.writef("    je .L%d\n", trueLabel)
	g.writeln("    mov qword [rsp], 0")
	g.writef("    jmp .L%d\n", endLabel)
	g.writef(".L%d:\n", trueLabel)
	g.writeln("    mov qword [rsp], 1")
	g.writef(".L%d:\n", endLabel)
	return nil
}

func (g *Generator) genOr(n *st.Node, classNumber, methodNumber int) error {
	left, right := n.Child(0), n.Child(1)
	trueLabel := g.nextLabel()
	endLabel := g.nextLabel()
	if err := g.genExpr(left, classNumber, methodNumber); err != nil {
		return err
	}
	g.writeln("    mov rax, [rsp]")
	g.writeln("    cmp rax, 0")
	g.writef("    jne .L%d\n", trueLabel)
	g.incSP()
	if err := g.genExpr(right, classNumber, methodNumber); err != nil {
		return err
	}
	g.writeln("    mov rax, [rsp]")
	g.writeln("    cmp rax, 0")
	g.writef("    jne .L%d\n", trueLabel)
	g.writef("    jmp .L%d\n", endLabel)
	g.writef(".L%d:\n", trueLabel)
	g.writeln("    mov qword [rsp], 1")
	g.writef(".L%d:\n", endLabel)
	return nil
}

// genAssert always leaves 1 on the stack on success, keeping assert
// composable as a nat-typed expression — see SPEC_FULL.md §4, item 2.
func (g *Generator) genAssert(n *st.Node, classNumber, methodNumber int) error {
	if err := g.genExpr(n.Child(0), classNumber, methodNumber); err != nil {
		return err
	}
	okLabel := g.nextLabel()
	g.writeln("    mov rax, [rsp]")
	g.writeln("    cmp rax, 0")
	g.writef("    jne .L%d\n", okLabel)
	g.writeln("    mov rdi, 1")
	g.writeln("    call _exit_program")
	g.writef(".L%d:\n", okLabel)
	g.writeln("    mov qword [rsp], 1")
	return nil
}

func (g *Generator) genIDExpr(n *st.Node, classNumber, methodNumber int) error {
	g.decSP()
	kind, index, offset := g.resolveVar(n.Child(0).IDValue, classNumber, methodNumber)
	switch kind {
	case varParam:
		g.writeln("    mov rax, [rbp + 8]")
	case varLocal, varMainLocal:
		g.writef("    mov rax, [rbp - %d]\n", (index+1)*wordSize)
	case varField:
		g.writeln("    mov rax, [rbp + 32]")
		g.writef("    mov rax, [rax + %d]\n", (offset+1)*wordSize)
	}
	g.writeln("    mov [rsp], rax")
	return nil
}

func (g *Generator) genAssign(n *st.Node, classNumber, methodNumber int) error {
	idNode, valueNode := n.Child(0), n.Child(1)
	if err := g.genExpr(valueNode, classNumber, methodNumber); err != nil {
		return err
	}
	kind, index, offset := g.resolveVar(idNode.IDValue, classNumber, methodNumber)
	switch kind {
	case varParam:
		g.writeln("    mov rbx, rbp")
		g.writeln("    add rbx, 8")
	case varLocal, varMainLocal:
		g.writeln("    mov rbx, rbp")
		g.writef("    sub rbx, %d\n", (index+1)*wordSize)
	case varField:
		g.writeln("    mov rbx, [rbp + 32]")
		g.writef("    add rbx, %d\n", (offset+1)*wordSize)
	}
	g.writeln("    mov rax, [rsp]")
	g.writeln("    mov [rbx], rax")
	return nil
}

func (g *Generator) genDotID(n *st.Node, classNumber, methodNumber int) error {
	recv, nameNode := n.Child(0), n.Child(1)
	if err := g.genExpr(recv, classNumber, methodNumber); err != nil {
		return err
	}
	g.checkNullDereference()
	recvType := g.exprType(recv, classNumber, methodNumber)
	offset := FieldOffset(recvType, nameNode.IDValue, g.Table)

	g.writeln("    mov rax, [rsp]")
	g.writef("    mov rax, [rax + %d]\n", (offset+1)*wordSize)
	g.writeln("    mov [rsp], rax")
	return nil
}

func (g *Generator) genDotAssign(n *st.Node, classNumber, methodNumber int) error {
	recv, nameNode, valueNode := n.Child(0), n.Child(1), n.Child(2)

	if err := g.genExpr(valueNode, classNumber, methodNumber); err != nil {
		return err
	}
	if err := g.genExpr(recv, classNumber, methodNumber); err != nil {
		return err
	}
	g.checkNullDereference()
	recvType := g.exprType(recv, classNumber, methodNumber)
	offset := FieldOffset(recvType, nameNode.IDValue, g.Table)

	g.writeln("    mov rbx, [rsp]")
	g.writef("    add rbx, %d\n", (offset+1)*wordSize)
	g.writef("    mov rax, [rsp + %d]\n", wordSize)
	g.writeln("    mov [rbx], rax")
	g.incSP()
	return nil
}

// genMethodCall emits a call frame of five words — [Arg][SMethod]
// [SClass][This][RetAddr] — and jumps into the shared dispatcher,
// which resolves the (staticClass, staticMethod, dynamicType) triple
// to a concrete target and jumps there directly; the target's
// epilogue jumps back to the return-site label below.
func (g *Generator) genMethodCall(n *st.Node, classNumber, methodNumber int) error {
	retLabel := g.nextLabel()

	g.decSP()
	g.writef("    mov rax, .L_ret_%d\n", retLabel)
	g.writeln("    mov [rsp], rax")

	if n.Kind == st.METHOD_CALL_EXPR {
		g.decSP()
		g.writeln("    mov rax, [rbp + 32]")
		g.writeln("    mov [rsp], rax")
	} else {
		if err := g.genExpr(n.Child(0), classNumber, methodNumber); err != nil {
			return err
		}
		g.checkNullDereference()
	}

	g.decSP()
	g.writef("    mov qword [rsp], %d\n", n.StaticClassNum)
	g.decSP()
	g.writef("    mov qword [rsp], %d\n", n.StaticMemberNum)

	argIdx := 1
	if n.Kind == st.DOT_METHOD_CALL_EXPR {
		argIdx = 2
	}
	if err := g.genExpr(n.Child(argIdx), classNumber, methodNumber); err != nil {
		return err
	}

	g.writeln("    jmp _VTable_Dispatch")
	g.writef(".L_ret_%d:\n", retLabel)
	return nil
}

type varKind int

const (
	varParam varKind = iota
	varLocal
	varField
	varMainLocal
)

// resolveVar determines how to address a variable by name within the
// given context, mirroring the lookup order the type checker used to
// validate it: parameter, then locals, then the enclosing class's
// fields; main block locals only in main's context (classNumber <= 0).
func (g *Generator) resolveVar(name string, classNumber, methodNumber int) (kind varKind, index, fieldOffset int) {
	if classNumber > 0 {
		method := g.Table.Class(classNumber).Methods[methodNumber]
		if name == method.ParamName {
			return varParam, 0, 0
		}
		if idx := method.LocalIndex(name); idx >= 0 {
			return varLocal, idx, 0
		}
		return varField, 0, FieldOffset(classNumber, name, g.Table)
	}
	idx := g.Main.LocalIndex(name)
	return varMainLocal, idx, 0
}
