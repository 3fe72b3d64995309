// Command tallyreg runs tally regression scenarios against a transport engine.
package main

import (
	"fmt"
	"os"

	"github.com/etamimi93/openmc/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
