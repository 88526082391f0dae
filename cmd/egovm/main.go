// Command egovm runs and inspects ego bytecode programs.
package main

import (
	"fmt"
	"os"

	"github.com/kristofer/egovm/cmd/egovm/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
