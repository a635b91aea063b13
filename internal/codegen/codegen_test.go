package codegen_test

import (
	"strings"
	"testing"

	"github.com/dj-lang/djc/internal/codegen"
	"github.com/dj-lang/djc/internal/parser"
	"github.com/dj-lang/djc/internal/symtab"
	"github.com/dj-lang/djc/internal/typecheck"
)

func compile(t *testing.T, source string) string {
	t.Helper()
	program, err := parser.New(source, "test.dj").Parse()
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	table, main, berr := symtab.Build(program)
	if berr != nil {
		t.Fatalf("unexpected build error: %v", berr)
	}
	if cerr := typecheck.New(table, main, source, "test.dj").Check(); cerr != nil {
		t.Fatalf("unexpected type error: %v", cerr)
	}
	asm, gerr := codegen.New(table, main, source, "test.dj").Generate()
	if gerr != nil {
		t.Fatalf("unexpected codegen error: %v", gerr)
	}
	return asm
}

func TestGenerateEmitsEntryPointAndExit(t *testing.T) {
	asm := compile(t, `main { 0; }`)
	if !strings.Contains(asm, "_start:") {
		t.Fatalf("expected emitted assembly to define _start")
	}
	if !strings.Contains(asm, "global _start") {
		t.Fatalf("expected emitted assembly to export _start")
	}
	if !strings.Contains(asm, "call _exit_program") {
		t.Fatalf("expected the main block to fall through to _exit_program")
	}
}

func TestGenerateEmitsOneLabelPerMethod(t *testing.T) {
	asm := compile(t, `
class A extends Object { nat f(nat x) { 1; } nat g(nat x) { 2; } }
main { 0; }`)
	if !strings.Contains(asm, "class1method0:") {
		t.Fatalf("expected a label for A's first method")
	}
	if !strings.Contains(asm, "class1method1:") {
		t.Fatalf("expected a label for A's second method")
	}
}

func TestGenerateDispatchSiteJumpsToVTable(t *testing.T) {
	asm := compile(t, `
class A extends Object { nat f(nat x) { 1; } }
class B extends A { nat f(nat x) { 2; } }
main { A a; a = new B(); printNat(a.f(0)); }`)
	if !strings.Contains(asm, "jmp _VTable_Dispatch") {
		t.Fatalf("expected a dynamic dispatch call site to reference _VTable_Dispatch")
	}
}

func TestGenerateNewStampsTypeTagAndBumpsHeapPointer(t *testing.T) {
	asm := compile(t, `
class A extends Object { nat f; }
main { A a; a = new A(); }`)
	if !strings.Contains(asm, "mov rax, 1\n    mov [r15], rax") {
		t.Fatalf("expected new A() to stamp type tag 1 at [r15], got:\n%s", asm)
	}
	if !strings.Contains(asm, "add r15,") {
		t.Fatalf("expected the heap bump pointer to advance after allocation")
	}
}

func TestFieldOffsetIsIndependentOfAccessorStaticType(t *testing.T) {
	src := `
class A extends Object { nat f; }
class B extends A { nat g; }
main { 0; }`
	program, _ := parser.New(src, "t.dj").Parse()
	table, _, _ := symtab.Build(program)

	// f is declared on A; its offset must be the same whether it is
	// reached starting the climb at A itself or at B.
	offsetFromA := codegen.FieldOffset(1, "f", table)
	offsetFromB := codegen.FieldOffset(2, "f", table)
	if offsetFromA != offsetFromB {
		t.Fatalf("expected f's offset to be accessor-independent, got %d from A and %d from B",
			offsetFromA, offsetFromB)
	}
}

func TestFieldCountIncludesInheritedFields(t *testing.T) {
	src := `
class A extends Object { nat f; }
class B extends A { nat g; }
main { 0; }`
	program, _ := parser.New(src, "t.dj").Parse()
	table, _, _ := symtab.Build(program)
	if got := codegen.FieldCount(2, table); got != 2 {
		t.Fatalf("expected B to carry 2 fields (own + inherited), got %d", got)
	}
}

func TestAncestorChainRunsFromObjectToSelf(t *testing.T) {
	src := `
class A extends Object {}
class B extends A {}
main { 0; }`
	program, _ := parser.New(src, "t.dj").Parse()
	table, _, _ := symtab.Build(program)
	chain := codegen.AncestorChain(2, table)
	if len(chain) != 3 || chain[0] != 0 || chain[len(chain)-1] != 2 {
		t.Fatalf("expected the chain Object(0) -> A(1) -> B(2), got %v", chain)
	}
}
