// Command djc is the DJ compiler's command-line entry point.
package main

import (
	"os"

	"github.com/dj-lang/djc/cmd/djc/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
