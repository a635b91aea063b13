package compiler

import (
	"strings"
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"
)

// TestMain lets go-snaps clean up obsolete snapshots after the suite runs.
func TestMain(m *testing.M) {
	v := m.Run()
	snaps.Clean(m)
	_ = v
}

// The end-to-end scenarios below (S1-S7) compile literal DJ source to
// NASM. Since the test suite never shells out to nasm/ld, each case
// asserts what the compiler itself is responsible for —
// success/failure and, for the passing cases, that the emitted
// assembly contains the expected shape — rather than the emitted
// binary's stdout.

func TestCompileArithmeticPrecedence(t *testing.T) {
	// S1: main { printNat(1+2*3); }
	result, cerr := Compile(`main { printNat(1+2*3); }`, "s1.dj")
	if cerr != nil {
		t.Fatalf("unexpected compile error: %v", cerr)
	}
	if !strings.Contains(result.Asm, "_print_int") {
		t.Fatalf("expected emitted assembly to call _print_int")
	}
	snaps.MatchSnapshot(t, "s1_arithmetic_precedence", result.Asm)
}

func TestCompileWhileLoop(t *testing.T) {
	// S2: counts down from 5 to 1.
	src := `main { nat x; x = 5; while(0<x) { printNat(x); x = x-1; }; }`
	result, cerr := Compile(src, "s2.dj")
	if cerr != nil {
		t.Fatalf("unexpected compile error: %v", cerr)
	}
	snaps.MatchSnapshot(t, "s2_while_loop", result.Asm)
}

func TestCompileFieldAccessAndMethodCall(t *testing.T) {
	// S3: this.v inside a method, field write/read through main.
	src := `
class A extends Object { nat v; nat get(nat u) { this.v; } }
main { A a; a = new A(); a.v = 42; printNat(a.get(0)); }`
	result, cerr := Compile(src, "s3.dj")
	if cerr != nil {
		t.Fatalf("unexpected compile error: %v", cerr)
	}
	snaps.MatchSnapshot(t, "s3_field_and_method", result.Asm)
}

func TestCompileDynamicDispatch(t *testing.T) {
	// S4: a statically-A-typed, dynamically-B receiver must dispatch
	// to B's override.
	src := `
class A extends Object { nat f(nat x) { 1; } }
class B extends A { nat f(nat x) { 2; } }
main { A a; a = new B(); printNat(a.f(0)); }`
	result, cerr := Compile(src, "s4.dj")
	if cerr != nil {
		t.Fatalf("unexpected compile error: %v", cerr)
	}
	if !strings.Contains(result.Asm, "_VTable_Dispatch") {
		t.Fatalf("expected emitted assembly to reference _VTable_Dispatch")
	}
	snaps.MatchSnapshot(t, "s4_dynamic_dispatch", result.Asm)
}

func TestCompileNullDereferenceIsRuntimeNotCompileTime(t *testing.T) {
	// S5: the receiver is well-typed but never assigned; compilation
	// must succeed (the null check happens in the emitted code, not
	// at compile time).
	src := `
class A extends Object { nat v; }
main { A a; printNat(a.v); }`
	result, cerr := Compile(src, "s5.dj")
	if cerr != nil {
		t.Fatalf("expected compilation to succeed with a runtime-deferred null check, got: %v", cerr)
	}
	if !strings.Contains(result.Asm, "_exit_program") {
		t.Fatalf("expected a null-dereference guard that exits the program")
	}
}

func TestCompileDuplicateClassNameRejected(t *testing.T) {
	// S6
	src := `class A extends Object {} class A extends Object {} main { 0; }`
	_, cerr := Compile(src, "s6.dj")
	if cerr == nil {
		t.Fatalf("expected a duplicate-class-name error")
	}
	if !strings.Contains(cerr.Message, "duplicate class name") {
		t.Fatalf("expected duplicate class name diagnostic, got: %s", cerr.Message)
	}
}

func TestCompileExtendingFinalClassRejected(t *testing.T) {
	// S7
	src := `final class A extends Object {} class B extends A {} main { 0; }`
	_, cerr := Compile(src, "s7.dj")
	if cerr == nil {
		t.Fatalf("expected a final-class-extension error")
	}
	if !strings.Contains(cerr.Message, "final") {
		t.Fatalf("expected an error mentioning the final class, got: %s", cerr.Message)
	}
}

func TestCompileEmptyMethodBodyRejected(t *testing.T) {
	src := `class A extends Object { nat f(nat x) { } } main { 0; }`
	_, cerr := Compile(src, "empty-method.dj")
	if cerr == nil {
		t.Fatalf("expected a syntax error for an empty method body")
	}
}
