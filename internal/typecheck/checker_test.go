package typecheck_test

import (
	"strings"
	"testing"

	"github.com/dj-lang/djc/internal/parser"
	"github.com/dj-lang/djc/internal/st"
	"github.com/dj-lang/djc/internal/symtab"
	"github.com/dj-lang/djc/internal/typecheck"
)

func build(t *testing.T, source string) (*symtab.ClassTable, *symtab.MainBlock) {
	t.Helper()
	program, err := parser.New(source, "test.dj").Parse()
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	table, main, berr := symtab.Build(program)
	if berr != nil {
		t.Fatalf("unexpected build error: %v", berr)
	}
	return table, main
}

func check(t *testing.T, source string) error {
	t.Helper()
	table, main := build(t, source)
	return typecheck.New(table, main, source, "test.dj").Check()
}

func TestCheckAcceptsWellTypedProgram(t *testing.T) {
	src := `
class A extends Object { nat v; nat get(nat x) { this.v; } }
main { A a; a = new A(); a.v = 1; printNat(a.get(0)); }`
	if err := check(t, src); err != nil {
		t.Fatalf("unexpected type error: %v", err)
	}
}

func TestCheckRejectsDuplicateClassName(t *testing.T) {
	src := `class A extends Object {} class A extends Object {} main { 0; }`
	err := check(t, src)
	if err == nil || !strings.Contains(err.Error(), "duplicate class name") {
		t.Fatalf("expected a duplicate class name error, got %v", err)
	}
}

func TestCheckRejectsExtendingFinalClass(t *testing.T) {
	src := `final class A extends Object {} class B extends A {} main { 0; }`
	err := check(t, src)
	if err == nil || !strings.Contains(err.Error(), "final") {
		t.Fatalf("expected a final-class-extension error, got %v", err)
	}
}

func TestCheckRejectsOverridingFinalMethod(t *testing.T) {
	src := `
class A extends Object { final nat f(nat x) { 1; } }
class B extends A { nat f(nat x) { 2; } }
main { 0; }`
	err := check(t, src)
	if err == nil || !strings.Contains(err.Error(), "final") {
		t.Fatalf("expected an override-of-final-method error, got %v", err)
	}
}

func TestCheckRejectsIncompatibleOverrideSignature(t *testing.T) {
	src := `
class A extends Object {}
class B extends Object { nat f(nat x) { 1; } }
class C extends B { A f(nat x) { new A(); } }
main { 0; }`
	err := check(t, src)
	if err == nil || !strings.Contains(err.Error(), "incompatible signature") {
		t.Fatalf("expected an incompatible override signature error, got %v", err)
	}
}

func TestCheckRejectsUnknownIdentifier(t *testing.T) {
	src := `main { printNat(nope); }`
	err := check(t, src)
	if err == nil || !strings.Contains(err.Error(), "unknown identifier") {
		t.Fatalf("expected an unknown identifier error, got %v", err)
	}
}

func TestCheckRejectsAssigningIncompatibleType(t *testing.T) {
	src := `class A extends Object {} main { A a; a = 1; }`
	err := check(t, src)
	if err == nil {
		t.Fatalf("expected an assignment type error")
	}
}

func TestCheckAllowsUpcastAssignment(t *testing.T) {
	src := `
class A extends Object {}
class B extends A {}
main { A a; a = new B(); }`
	if err := check(t, src); err != nil {
		t.Fatalf("unexpected error assigning a subclass instance: %v", err)
	}
}

func TestCheckAnnotatesMethodCallDispatchTarget(t *testing.T) {
	src := `
class A extends Object { nat f(nat x) { 1; } }
class B extends A { nat f(nat x) { 2; } }
main { A a; a = new B(); printNat(a.f(0)); }`
	table, main := build(t, src)
	if err := typecheck.New(table, main, src, "test.dj").Check(); err != nil {
		t.Fatalf("unexpected type error: %v", err)
	}
	call := main.Exprs.Children[1].Child(0)
	if call.Kind != st.DOT_METHOD_CALL_EXPR {
		t.Fatalf("expected the call expression, got %s", call.Kind)
	}
	if call.StaticClassNum != 1 {
		t.Fatalf("expected the call's static dispatch class to stay A (index 1), got %d", call.StaticClassNum)
	}
}

func TestSubtypeReflexiveAndNullSubtypesEveryClass(t *testing.T) {
	src := `class A extends Object {} main { 0; }`
	table, _ := build(t, src)
	if !typecheck.Subtype(1, 1, table) {
		t.Fatalf("expected subtype to be reflexive")
	}
	if !typecheck.Subtype(int(st.AnyObject), 1, table) {
		t.Fatalf("expected null's type to be a subtype of every class")
	}
	if typecheck.Subtype(1, int(st.AnyObject), table) {
		t.Fatalf("did not expect a class to be a subtype of null's type")
	}
}

func TestSubtypeTransitiveThroughAncestorChain(t *testing.T) {
	src := `
class A extends Object {}
class B extends A {}
class C extends B {}
main { 0; }`
	table, _ := build(t, src)
	if !typecheck.Subtype(3, 1, table) {
		t.Fatalf("expected C to be a subtype of A through B")
	}
	if typecheck.Subtype(1, 3, table) {
		t.Fatalf("did not expect A to be a subtype of C")
	}
}

func TestJoinIsCommutativeAndIdempotent(t *testing.T) {
	src := `
class A extends Object {}
class B extends A {}
class C extends A {}
main { 0; }`
	table, _ := build(t, src)
	if got := typecheck.Join(2, 3, table); got != 1 {
		t.Fatalf("expected the join of two siblings to be their parent A (1), got %d", got)
	}
	if typecheck.Join(2, 3, table) != typecheck.Join(3, 2, table) {
		t.Fatalf("expected join to be commutative")
	}
	if typecheck.Join(2, 2, table) != 2 {
		t.Fatalf("expected join to be idempotent")
	}
}
