// The main package for the page-archiver executable.
package main

import (
	"os"

	"github.com/JakeFAU/page-archiver/cmd"
)

// main defers all execution to the Cobra CLI and exits with the code it maps
// from the run outcome.
func main() {
	os.Exit(cmd.Execute())
}
