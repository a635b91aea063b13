package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Version information (set by build flags)
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "djc",
	Short: "DJ compiler",
	Long: `djc compiles DJ, a small class-based object-oriented language, to
x86-64 NASM assembly for Linux.

DJ supports single inheritance, a single primitive type (nat), and
nullable object references, with no arrays, strings, generics, method
overloading, modules, or garbage collection.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(`{{with .Name}}{{printf "%%s " .}}{{end}}{{printf "version %%s" .Version}}
Commit: %s
Built:  %s
`, GitCommit, BuildDate))
}
