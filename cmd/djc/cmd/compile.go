package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/dj-lang/djc/internal/compiler"
	"github.com/spf13/cobra"
)

var (
	outputFile    string
	runAfterBuild bool
)

var compileCmd = &cobra.Command{
	Use:   "compile <file>",
	Short: "Compile a DJ source file to NASM assembly",
	Long: `Compile reads a single DJ source file, runs it through symbol-table
construction, type checking, and code generation, and writes the
resulting x86-64 NASM assembly to program.asm (or the file named by
-o).

With --run, it additionally shells out to nasm and ld to assemble and
link program.asm, then executes the resulting binary.`,
	Args: cobra.ExactArgs(1),
	RunE: runCompile,
}

func init() {
	rootCmd.AddCommand(compileCmd)

	compileCmd.Flags().StringVarP(&outputFile, "output", "o", "program.asm", "output assembly file")
	compileCmd.Flags().BoolVar(&runAfterBuild, "run", false, "assemble, link, and run the compiled program")
}

func runCompile(_ *cobra.Command, args []string) error {
	filename := args[0]

	content, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	result, cerr := compiler.Compile(string(content), filename)
	if cerr != nil {
		fmt.Fprintln(os.Stderr, cerr.Format(true))
		return fmt.Errorf("compilation failed")
	}

	if err := os.WriteFile(outputFile, []byte(result.Asm), 0o644); err != nil {
		return fmt.Errorf("failed to write output file %s: %w", outputFile, err)
	}
	fmt.Printf("Compiled %s -> %s\n", filename, outputFile)

	if !runAfterBuild {
		return nil
	}
	return assembleLinkAndRun(outputFile)
}

// assembleLinkAndRun drives the external assembler and linker: nasm to
// object code, ld to a static binary, then execs the result so
// `djc compile --run` behaves like a single command rather than a
// three-step manual pipeline.
func assembleLinkAndRun(asmFile string) error {
	objFile := trimExt(asmFile) + ".o"
	binFile := trimExt(asmFile)

	nasm := exec.Command("nasm", "-f", "elf64", asmFile, "-o", objFile)
	nasm.Stdout, nasm.Stderr = os.Stdout, os.Stderr
	if err := nasm.Run(); err != nil {
		return fmt.Errorf("nasm failed: %w", err)
	}

	ld := exec.Command("ld", objFile, "-o", binFile)
	ld.Stdout, ld.Stderr = os.Stdout, os.Stderr
	if err := ld.Run(); err != nil {
		return fmt.Errorf("ld failed: %w", err)
	}

	run := exec.Command("./" + binFile)
	run.Stdin, run.Stdout, run.Stderr = os.Stdin, os.Stdout, os.Stderr
	return run.Run()
}

func trimExt(path string) string {
	ext := filepath.Ext(path)
	if ext == "" {
		return path
	}
	return path[:len(path)-len(ext)]
}
