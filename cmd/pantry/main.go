// Pantry keeps a recipe collection and a shopping list in sync with a
// remote document backend.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/pantry/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
