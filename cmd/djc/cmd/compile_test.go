package cmd

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRunCompileWritesAssembly(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "prog.dj")
	if err := os.WriteFile(src, []byte(`main { printNat(1+2*3); }`), 0o644); err != nil {
		t.Fatalf("failed to write source fixture: %v", err)
	}

	out := filepath.Join(dir, "prog.asm")
	outputFile = out
	runAfterBuild = false
	defer func() {
		outputFile = "program.asm"
		runAfterBuild = false
	}()

	if err := runCompile(nil, []string{src}); err != nil {
		t.Fatalf("unexpected compile error: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("expected %s to be written: %v", out, err)
	}
	if len(data) == 0 {
		t.Fatalf("expected nonempty assembly output")
	}
}

func TestRunCompileReportsSyntaxErrors(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "bad.dj")
	if err := os.WriteFile(src, []byte(`main { `), 0o644); err != nil {
		t.Fatalf("failed to write source fixture: %v", err)
	}

	outputFile = filepath.Join(dir, "bad.asm")
	runAfterBuild = false
	defer func() {
		outputFile = "program.asm"
	}()

	if err := runCompile(nil, []string{src}); err == nil {
		t.Fatalf("expected an error for unterminated source")
	}
}
