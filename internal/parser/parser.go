// Package parser implements a small Pratt parser over internal/lexer's
// token stream, producing the st.Node trees that internal/symtab,
// internal/typecheck, and internal/codegen consume. It follows the
// teacher compiler's parser shape (precedence table, prefix/infix
// parse function maps, a current token plus two lookahead tokens)
// scaled down to DJ's
// much smaller grammar, which has no operator overloading, no
// argument lists beyond one, and no error-recovery requirement: the
// first syntax error stops parsing, matching spec §7's no-recovery
// compiler policy.
package parser

import (
	"fmt"

	djerrors "github.com/dj-lang/djc/internal/errors"
	"github.com/dj-lang/djc/internal/lexer"
	"github.com/dj-lang/djc/internal/st"
	"github.com/dj-lang/djc/internal/token"
)

// Precedence levels, lowest to highest. DOT binds tightest since field
// access and method calls are its only associated forms; assignment
// is not a general infix operator in DJ (its left side must be a bare
// or dotted identifier), so it has no entry here at all.
const (
	LOWEST int = iota
	OR_PREC
	EQUALITY_PREC
	SUM_PREC
	PRODUCT_PREC
	PREFIX_PREC
	CALL_PREC
)

var precedences = map[token.Type]int{
	token.OROR:  OR_PREC,
	token.EQ:    EQUALITY_PREC,
	token.LT:    EQUALITY_PREC,
	token.PLUS:  SUM_PREC,
	token.MINUS: SUM_PREC,
	token.STAR:  PRODUCT_PREC,
	token.DOT:   CALL_PREC,
}

type prefixParseFn func() (*st.Node, error)
type infixParseFn func(left *st.Node) (*st.Node, error)

// Parser turns a token stream into a PROGRAM syntax tree.
type Parser struct {
	l      *lexer.Lexer
	source string
	file   string

	curTok   token.Token
	peekTok  token.Token
	peek2Tok token.Token

	prefixParseFns map[token.Type]prefixParseFn
	infixParseFns  map[token.Type]infixParseFn
}

// New creates a Parser over src, attributing diagnostics to file.
func New(src, file string) *Parser {
	p := &Parser{l: lexer.New(src), source: src, file: file}

	p.prefixParseFns = map[token.Type]prefixParseFn{
		token.NAT_LITERAL: p.parseNatLiteral,
		token.NULL:        p.parseNull,
		token.THIS:        p.parseThis,
		token.NEW:         p.parseNew,
		token.LPAREN:      p.parseGroup,
		token.BANG:        p.parseNot,
		token.IDENT:       p.parseIdentExpr,
		token.IF:          p.parseIfThenElse,
		token.WHILE:       p.parseWhile,
		token.ASSERT:      p.parseAssert,
		token.PRINT:       p.parsePrint,
		token.READ:        p.parseRead,
	}
	p.infixParseFns = map[token.Type]infixParseFn{
		token.PLUS:  p.parseBinary(st.PLUS_EXPR),
		token.MINUS: p.parseBinary(st.MINUS_EXPR),
		token.STAR:  p.parseBinary(st.TIMES_EXPR),
		token.EQ:    p.parseBinary(st.EQUALITY_EXPR),
		token.LT:    p.parseBinary(st.LESS_THAN_EXPR),
		token.OROR:  p.parseBinary(st.OR_EXPR),
		token.DOT:   p.parseDot,
	}

	p.curTok = p.l.NextToken()
	p.peekTok = p.l.NextToken()
	p.peek2Tok = p.l.NextToken()
	return p
}

func (p *Parser) nextToken() {
	p.curTok = p.peekTok
	p.peekTok = p.peek2Tok
	p.peek2Tok = p.l.NextToken()
}

func (p *Parser) curIs(t token.Type) bool   { return p.curTok.Type == t }
func (p *Parser) peekIs(t token.Type) bool  { return p.peekTok.Type == t }
func (p *Parser) peek2Is(t token.Type) bool { return p.peek2Tok.Type == t }

func (p *Parser) peekPrecedence() int {
	if prec, ok := precedences[p.peekTok.Type]; ok {
		return prec
	}
	return LOWEST
}

func (p *Parser) errorf(pos token.Position, format string, args ...any) error {
	return djerrors.NewExternal(pos, fmt.Sprintf(format, args...), p.source, p.file)
}

// expect advances past the current token if it matches t, otherwise
// reports a syntax error naming what was expected instead.
func (p *Parser) expect(t token.Type) error {
	if !p.curIs(t) {
		return p.errorf(p.curTok.Pos, "expected %s, found %s", t, p.curTok.Type)
	}
	p.nextToken()
	return nil
}

func (p *Parser) expectIdent() (string, token.Position, error) {
	if !p.curIs(token.IDENT) {
		return "", token.Position{}, p.errorf(p.curTok.Pos, "expected identifier, found %s", p.curTok.Type)
	}
	name, pos := p.curTok.Literal, p.curTok.Pos
	p.nextToken()
	return name, pos, nil
}

// Parse consumes the whole token stream and returns the PROGRAM node.
func (p *Parser) Parse() (*st.Node, error) {
	line := p.curTok.Pos.Line

	var classes []*st.Node
	for p.curIs(token.FINAL) || p.curIs(token.CLASS) {
		decl, err := p.parseClassDecl()
		if err != nil {
			return nil, err
		}
		classes = append(classes, decl)
	}

	if err := p.expect(token.MAIN); err != nil {
		return nil, err
	}
	if err := p.expect(token.LBRACE); err != nil {
		return nil, err
	}
	mainVars, err := p.parseVarDeclList()
	if err != nil {
		return nil, err
	}
	mainExprs, err := p.parseExprList()
	if err != nil {
		return nil, err
	}
	if err := p.expect(token.RBRACE); err != nil {
		return nil, err
	}
	if !p.curIs(token.EOF) {
		return nil, p.errorf(p.curTok.Pos, "expected end of file, found %s", p.curTok.Type)
	}

	return st.New(st.PROGRAM, line,
		st.New(st.CLASS_DECL_LIST, line, classes...),
		mainVars,
		mainExprs,
	), nil
}

// isVarDeclStart reports whether the current position begins a
// variable declaration rather than a method declaration or an
// expression. A declaration's shape is always type-name,
// variable-name, semicolon, which takes three tokens to tell apart
// from a same-shaped method header (type-name, method-name, LPAREN)
// and from an expression (a bare identifier is never itself followed
// by a second identifier).
func (p *Parser) isVarDeclStart() bool {
	isType := p.curIs(token.NAT) || p.curIs(token.IDENT)
	return isType && p.peekIs(token.IDENT) && p.peek2Is(token.SEMI)
}

func (p *Parser) parseDataType() (*st.Node, error) {
	line := p.curTok.Pos.Line
	if p.curIs(token.NAT) {
		p.nextToken()
		return st.New(st.NAT_TYPE, line), nil
	}
	name, pos, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	return st.NewID(pos.Line, name), nil
}

func (p *Parser) parseVarDecl() (*st.Node, error) {
	line := p.curTok.Pos.Line
	typeNode, err := p.parseDataType()
	if err != nil {
		return nil, err
	}
	name, pos, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if err := p.expect(token.SEMI); err != nil {
		return nil, err
	}
	return st.New(st.VAR_DECL, line, typeNode, st.NewID(pos.Line, name)), nil
}

func (p *Parser) parseVarDeclList() (*st.Node, error) {
	line := p.curTok.Pos.Line
	var decls []*st.Node
	for p.isVarDeclStart() {
		decl, err := p.parseVarDecl()
		if err != nil {
			return nil, err
		}
		decls = append(decls, decl)
	}
	return st.New(st.VAR_DECL_LIST, line, decls...), nil
}

// parseExprList parses a nonempty expression list: the grammar has no
// empty alternative for expression_list, so an immediate RBRACE here
// is a syntax error rather than a degenerate empty body.
func (p *Parser) parseExprList() (*st.Node, error) {
	line := p.curTok.Pos.Line
	var exprs []*st.Node
	for !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
		expr, err := p.parseExpression(LOWEST)
		if err != nil {
			return nil, err
		}
		if err := p.expect(token.SEMI); err != nil {
			return nil, err
		}
		exprs = append(exprs, expr)
	}
	if len(exprs) == 0 {
		return nil, p.errorf(p.curTok.Pos, "expression list must not be empty")
	}
	return st.New(st.EXPR_LIST, line, exprs...), nil
}

func (p *Parser) parseClassDecl() (*st.Node, error) {
	line := p.curTok.Pos.Line
	isFinal := false
	if p.curIs(token.FINAL) {
		isFinal = true
		p.nextToken()
	}
	if err := p.expect(token.CLASS); err != nil {
		return nil, err
	}
	name, namePos, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if err := p.expect(token.EXTENDS); err != nil {
		return nil, err
	}
	super, superPos, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if err := p.expect(token.LBRACE); err != nil {
		return nil, err
	}
	fields, err := p.parseVarDeclList()
	if err != nil {
		return nil, err
	}
	var methods []*st.Node
	for p.curIs(token.FINAL) || p.curIs(token.NAT) || p.curIs(token.IDENT) {
		method, err := p.parseMethodDecl()
		if err != nil {
			return nil, err
		}
		methods = append(methods, method)
	}
	if err := p.expect(token.RBRACE); err != nil {
		return nil, err
	}

	kind := st.NONFINAL_CLASS_DECL
	if isFinal {
		kind = st.FINAL_CLASS_DECL
	}
	return st.New(kind, line,
		st.NewID(namePos.Line, name),
		st.NewID(superPos.Line, super),
		fields,
		st.New(st.METHOD_DECL_LIST, line, methods...),
	), nil
}

func (p *Parser) parseMethodDecl() (*st.Node, error) {
	line := p.curTok.Pos.Line
	isFinal := false
	if p.curIs(token.FINAL) {
		isFinal = true
		p.nextToken()
	}
	returnType, err := p.parseDataType()
	if err != nil {
		return nil, err
	}
	name, namePos, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	paramType, err := p.parseDataType()
	if err != nil {
		return nil, err
	}
	paramName, paramPos, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	if err := p.expect(token.LBRACE); err != nil {
		return nil, err
	}
	locals, err := p.parseVarDeclList()
	if err != nil {
		return nil, err
	}
	body, err := p.parseExprList()
	if err != nil {
		return nil, err
	}
	if err := p.expect(token.RBRACE); err != nil {
		return nil, err
	}

	kind := st.NONFINAL_METHOD_DECL
	if isFinal {
		kind = st.FINAL_METHOD_DECL
	}
	return st.New(kind, line,
		returnType,
		st.NewID(namePos.Line, name),
		paramType,
		st.NewID(paramPos.Line, paramName),
		locals,
		body,
	), nil
}

// parseExpression is the Pratt driver: a prefix form anchors the
// expression, then infix forms fold in left-associatively while their
// precedence out-binds the caller's floor.
func (p *Parser) parseExpression(precedence int) (*st.Node, error) {
	prefix, ok := p.prefixParseFns[p.curTok.Type]
	if !ok {
		return nil, p.errorf(p.curTok.Pos, "unexpected token %s in expression", p.curTok.Type)
	}
	left, err := prefix()
	if err != nil {
		return nil, err
	}
	for !p.curIs(token.SEMI) && precedence < p.curPrecedence() {
		infix, ok := p.infixParseFns[p.curTok.Type]
		if !ok {
			return left, nil
		}
		left, err = infix(left)
		if err != nil {
			return nil, err
		}
	}
	return left, nil
}

// curPrecedence mirrors peekPrecedence but is evaluated after the
// prefix form has already consumed its tokens, so the loop in
// parseExpression checks the *current* token rather than a lookahead.
func (p *Parser) curPrecedence() int {
	if prec, ok := precedences[p.curTok.Type]; ok {
		return prec
	}
	return LOWEST
}

func (p *Parser) parseNatLiteral() (*st.Node, error) {
	line := p.curTok.Pos.Line
	var value uint64
	if _, err := fmt.Sscanf(p.curTok.Literal, "%d", &value); err != nil {
		return nil, p.errorf(p.curTok.Pos, "invalid nat literal %q", p.curTok.Literal)
	}
	p.nextToken()
	return st.NewNatLiteral(line, value), nil
}

func (p *Parser) parseNull() (*st.Node, error) {
	line := p.curTok.Pos.Line
	p.nextToken()
	return st.New(st.NULL_EXPR, line), nil
}

func (p *Parser) parseThis() (*st.Node, error) {
	line := p.curTok.Pos.Line
	p.nextToken()
	return st.New(st.THIS_EXPR, line), nil
}

func (p *Parser) parseNew() (*st.Node, error) {
	line := p.curTok.Pos.Line
	p.nextToken()
	name, pos, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	if err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	return st.New(st.NEW_EXPR, line, st.NewID(pos.Line, name)), nil
}

func (p *Parser) parseGroup() (*st.Node, error) {
	p.nextToken()
	inner, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, err
	}
	if err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	return inner, nil
}

func (p *Parser) parseNot() (*st.Node, error) {
	line := p.curTok.Pos.Line
	p.nextToken()
	operand, err := p.parseExpression(PREFIX_PREC)
	if err != nil {
		return nil, err
	}
	return st.New(st.NOT_EXPR, line, operand), nil
}

func (p *Parser) parseAssert() (*st.Node, error) {
	line := p.curTok.Pos.Line
	p.nextToken()
	operand, err := p.parseExpression(PREFIX_PREC)
	if err != nil {
		return nil, err
	}
	return st.New(st.ASSERT_EXPR, line, operand), nil
}

func (p *Parser) parsePrint() (*st.Node, error) {
	line := p.curTok.Pos.Line
	p.nextToken()
	if err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	operand, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, err
	}
	if err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	return st.New(st.PRINT_EXPR, line, operand), nil
}

func (p *Parser) parseRead() (*st.Node, error) {
	line := p.curTok.Pos.Line
	p.nextToken()
	if err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	if err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	return st.New(st.READ_EXPR, line), nil
}

func (p *Parser) parseIfThenElse() (*st.Node, error) {
	line := p.curTok.Pos.Line
	p.nextToken()
	if err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, err
	}
	if err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	if err := p.expect(token.LBRACE); err != nil {
		return nil, err
	}
	thenList, err := p.parseExprList()
	if err != nil {
		return nil, err
	}
	if err := p.expect(token.RBRACE); err != nil {
		return nil, err
	}
	if err := p.expect(token.ELSE); err != nil {
		return nil, err
	}
	if err := p.expect(token.LBRACE); err != nil {
		return nil, err
	}
	elseList, err := p.parseExprList()
	if err != nil {
		return nil, err
	}
	if err := p.expect(token.RBRACE); err != nil {
		return nil, err
	}
	return st.New(st.IF_THEN_ELSE_EXPR, line, cond, thenList, elseList), nil
}

func (p *Parser) parseWhile() (*st.Node, error) {
	line := p.curTok.Pos.Line
	p.nextToken()
	if err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, err
	}
	if err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	if err := p.expect(token.LBRACE); err != nil {
		return nil, err
	}
	body, err := p.parseExprList()
	if err != nil {
		return nil, err
	}
	if err := p.expect(token.RBRACE); err != nil {
		return nil, err
	}
	return st.New(st.WHILE_EXPR, line, cond, body), nil
}

// parseIdentExpr handles every expression form that starts with a
// bare identifier: a plain variable reference, an assignment, or a
// same-class method call (an implicit-this dispatch written without
// a receiver).
func (p *Parser) parseIdentExpr() (*st.Node, error) {
	name, pos, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	switch p.curTok.Type {
	case token.ASSIGN:
		p.nextToken()
		value, err := p.parseExpression(LOWEST)
		if err != nil {
			return nil, err
		}
		return st.New(st.ASSIGN_EXPR, pos.Line, st.NewID(pos.Line, name), value), nil
	case token.LPAREN:
		p.nextToken()
		arg, err := p.parseExpression(LOWEST)
		if err != nil {
			return nil, err
		}
		if err := p.expect(token.RPAREN); err != nil {
			return nil, err
		}
		return st.New(st.METHOD_CALL_EXPR, pos.Line, st.NewID(pos.Line, name), arg), nil
	default:
		return st.New(st.ID_EXPR, pos.Line, st.NewID(pos.Line, name)), nil
	}
}

// parseBinary builds an infixParseFn for a fixed-precedence,
// left-associative binary operator: the right operand parses at the
// operator's own precedence, so a chain like a+b+c nests as (a+b)+c.
func (p *Parser) parseBinary(kind st.Kind) infixParseFn {
	return func(left *st.Node) (*st.Node, error) {
		line := p.curTok.Pos.Line
		prec := p.curPrecedence()
		p.nextToken()
		right, err := p.parseExpression(prec)
		if err != nil {
			return nil, err
		}
		return st.New(kind, line, left, right), nil
	}
}

// parseDot handles the three forms that follow a dotted receiver:
// plain field access, field assignment, and a method call.
func (p *Parser) parseDot(recv *st.Node) (*st.Node, error) {
	line := p.curTok.Pos.Line
	p.nextToken()
	name, namePos, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	switch p.curTok.Type {
	case token.ASSIGN:
		p.nextToken()
		value, err := p.parseExpression(LOWEST)
		if err != nil {
			return nil, err
		}
		return st.New(st.DOT_ASSIGN_EXPR, line, recv, st.NewID(namePos.Line, name), value), nil
	case token.LPAREN:
		p.nextToken()
		arg, err := p.parseExpression(LOWEST)
		if err != nil {
			return nil, err
		}
		if err := p.expect(token.RPAREN); err != nil {
			return nil, err
		}
		return st.New(st.DOT_METHOD_CALL_EXPR, line, recv, st.NewID(namePos.Line, name), arg), nil
	default:
		return st.New(st.DOT_ID_EXPR, line, recv, st.NewID(namePos.Line, name)), nil
	}
}
