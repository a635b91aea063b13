// Package compiler orchestrates the full pipeline — parse, build the
// symbol table, type-check, generate code — behind a single entry
// point for both the CLI and tests.
package compiler

import (
	"github.com/dj-lang/djc/internal/codegen"
	djerrors "github.com/dj-lang/djc/internal/errors"
	"github.com/dj-lang/djc/internal/parser"
	"github.com/dj-lang/djc/internal/symtab"
	"github.com/dj-lang/djc/internal/token"
	"github.com/dj-lang/djc/internal/typecheck"
)

// Result carries the artifacts of a successful compilation that a
// caller might want beyond the emitted assembly — e.g. a future
// `--dump-symbols` CLI flag.
type Result struct {
	Asm   string
	Table *symtab.ClassTable
	Main  *symtab.MainBlock
}

// Compile runs source through the whole pipeline and returns the
// generated NASM text, or the first diagnostic raised by any stage —
// parsing, symbol-table construction, type checking, or code
// generation all stop at the first error, with no recovery.
func Compile(source, file string) (*Result, *djerrors.CompilerError) {
	program, err := parser.New(source, file).Parse()
	if err != nil {
		return nil, asCompilerError(err, source, file)
	}

	table, main, err := symtab.Build(program)
	if err != nil {
		return nil, asCompilerError(err, source, file)
	}

	checker := typecheck.New(table, main, source, file)
	if err := checker.Check(); err != nil {
		return nil, asCompilerError(err, source, file)
	}

	gen := codegen.New(table, main, source, file)
	asm, err := gen.Generate()
	if err != nil {
		return nil, asCompilerError(err, source, file)
	}

	return &Result{Asm: asm, Table: table, Main: main}, nil
}

// asCompilerError recovers the *djerrors.CompilerError every stage
// already raises; a plain error would only occur by a stage failing
// to wrap its diagnostic, which is itself a compiler defect.
func asCompilerError(err error, source, file string) *djerrors.CompilerError {
	if ce, ok := err.(*djerrors.CompilerError); ok {
		return ce
	}
	return djerrors.NewInternal(token.Position{}, err.Error(), source, file)
}
