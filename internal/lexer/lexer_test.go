package lexer

import (
	"testing"

	"github.com/dj-lang/djc/internal/token"
)

func TestNextToken(t *testing.T) {
	input := `class Counter extends Object {
		nat v;
		nat get() { this.v; }
	}
	main { nat x; x = 5; x = x+1*2-3; }`

	tests := []struct {
		expectedType    token.Type
		expectedLiteral string
	}{
		{token.CLASS, "class"},
		{token.IDENT, "Counter"},
		{token.EXTENDS, "extends"},
		{token.IDENT, "Object"},
		{token.LBRACE, "{"},
		{token.NAT, "nat"},
		{token.IDENT, "v"},
		{token.SEMI, ";"},
		{token.NAT, "nat"},
		{token.IDENT, "get"},
		{token.LPAREN, "("},
		{token.RPAREN, ")"},
		{token.LBRACE, "{"},
		{token.THIS, "this"},
		{token.DOT, "."},
		{token.IDENT, "v"},
		{token.SEMI, ";"},
		{token.RBRACE, "}"},
		{token.RBRACE, "}"},
		{token.MAIN, "main"},
		{token.LBRACE, "{"},
		{token.NAT, "nat"},
		{token.IDENT, "x"},
		{token.SEMI, ";"},
		{token.IDENT, "x"},
		{token.ASSIGN, "="},
		{token.NAT_LITERAL, "5"},
		{token.SEMI, ";"},
		{token.IDENT, "x"},
		{token.ASSIGN, "="},
		{token.IDENT, "x"},
		{token.PLUS, "+"},
		{token.NAT_LITERAL, "1"},
		{token.STAR, "*"},
		{token.NAT_LITERAL, "2"},
		{token.MINUS, "-"},
		{token.NAT_LITERAL, "3"},
		{token.SEMI, ";"},
		{token.RBRACE, "}"},
		{token.EOF, ""},
	}

	l := New(input)
	for i, tt := range tests {
		tok := l.NextToken()
		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%v, got=%v (literal=%q)",
				i, tt.expectedType, tok.Type, tok.Literal)
		}
		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q", i, tt.expectedLiteral, tok.Literal)
		}
	}
}

func TestOperatorsAndKeywords(t *testing.T) {
	input := `final assert if else while new null printNat readNat == < || !`

	tests := []struct {
		expectedType    token.Type
		expectedLiteral string
	}{
		{token.FINAL, "final"},
		{token.ASSERT, "assert"},
		{token.IF, "if"},
		{token.ELSE, "else"},
		{token.WHILE, "while"},
		{token.NEW, "new"},
		{token.NULL, "null"},
		{token.PRINT, "printNat"},
		{token.READ, "readNat"},
		{token.EQ, "=="},
		{token.LT, "<"},
		{token.OROR, "||"},
		{token.BANG, "!"},
		{token.EOF, ""},
	}

	l := New(input)
	for i, tt := range tests {
		tok := l.NextToken()
		if tok.Type != tt.expectedType || tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - expected {%v %q}, got {%v %q}",
				i, tt.expectedType, tt.expectedLiteral, tok.Type, tok.Literal)
		}
	}
}

func TestLineAndColumnTracking(t *testing.T) {
	input := "main {\n  nat x;\n}"
	l := New(input)

	l.NextToken() // main
	l.NextToken() // {
	tok := l.NextToken()
	if tok.Pos.Line != 2 {
		t.Fatalf("expected nat on line 2, got line %d", tok.Pos.Line)
	}
}

func TestIllegalCharacterRecorded(t *testing.T) {
	l := New("nat x & 1;")
	for {
		tok := l.NextToken()
		if tok.Type == token.EOF {
			break
		}
	}
	if len(l.Errors()) == 0 {
		t.Fatalf("expected a lex error for the illegal '&' character")
	}
}
