package parser

import (
	"testing"

	"github.com/dj-lang/djc/internal/st"
)

func mustParse(t *testing.T, src string) *st.Node {
	t.Helper()
	program, err := New(src, "test.dj").Parse()
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	return program
}

func TestParseMinimalMain(t *testing.T) {
	program := mustParse(t, `main { 0; }`)

	if program.Kind != st.PROGRAM {
		t.Fatalf("expected PROGRAM, got %s", program.Kind)
	}
	classes := program.Child(0)
	if len(classes.Children) != 0 {
		t.Fatalf("expected no classes, got %d", len(classes.Children))
	}
	if len(program.Child(1).Children) != 0 {
		t.Fatalf("expected no main locals")
	}
	if len(program.Child(2).Children) != 1 {
		t.Fatalf("expected exactly one main expression")
	}
}

func TestParseMainLocalsAndExprs(t *testing.T) {
	program := mustParse(t, `
main {
	nat x;
	x = 3;
	printNat(x);
}`)

	locals := program.Child(1)
	if len(locals.Children) != 1 {
		t.Fatalf("expected 1 local, got %d", len(locals.Children))
	}
	if locals.Child(0).Kind != st.VAR_DECL {
		t.Fatalf("expected VAR_DECL, got %s", locals.Child(0).Kind)
	}

	exprs := program.Child(2)
	if len(exprs.Children) != 2 {
		t.Fatalf("expected 2 expressions, got %d", len(exprs.Children))
	}
	if exprs.Child(0).Kind != st.ASSIGN_EXPR {
		t.Fatalf("expected ASSIGN_EXPR, got %s", exprs.Child(0).Kind)
	}
	if exprs.Child(1).Kind != st.PRINT_EXPR {
		t.Fatalf("expected PRINT_EXPR, got %s", exprs.Child(1).Kind)
	}
}

func TestParseClassWithFieldAndMethod(t *testing.T) {
	program := mustParse(t, `
class Counter extends Object {
	nat value;

	nat bump(nat amount) {
		value = value + amount;
		value;
	}
}

main {
	Counter c;
	c = new Counter();
}`)

	classes := program.Child(0)
	if len(classes.Children) != 1 {
		t.Fatalf("expected 1 class, got %d", len(classes.Children))
	}
	class := classes.Child(0)
	if class.Kind != st.NONFINAL_CLASS_DECL {
		t.Fatalf("expected NONFINAL_CLASS_DECL, got %s", class.Kind)
	}
	if class.Child(0).IDValue != "Counter" {
		t.Fatalf("expected class name Counter, got %q", class.Child(0).IDValue)
	}
	if class.Child(1).IDValue != "Object" {
		t.Fatalf("expected superclass Object, got %q", class.Child(1).IDValue)
	}

	fields := class.Child(2)
	if len(fields.Children) != 1 || fields.Child(0).Child(1).IDValue != "value" {
		t.Fatalf("expected field 'value', got %+v", fields)
	}

	methods := class.Child(3)
	if len(methods.Children) != 1 {
		t.Fatalf("expected 1 method, got %d", len(methods.Children))
	}
	method := methods.Child(0)
	if method.Child(1).IDValue != "bump" {
		t.Fatalf("expected method name bump, got %q", method.Child(1).IDValue)
	}
	if method.Child(3).IDValue != "amount" {
		t.Fatalf("expected param name amount, got %q", method.Child(3).IDValue)
	}
}
