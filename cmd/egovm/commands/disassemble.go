package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kristofer/egovm/pkg/disasm"
)

var disassembleCmd = &cobra.Command{
	Use:     "disassemble <file.ego>",
	Aliases: []string{"disasm"},
	Short:   "Print a human-readable listing of a bytecode file",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		program, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading bytecode: %w", err)
		}
		out, err := disasm.Disassemble(program)
		if err != nil {
			return fmt.Errorf("disassembling %s: %w", args[0], err)
		}
		fmt.Print(out)
		return nil
	},
}
