// Package commands implements the egovm CLI's subcommands.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/kristofer/egovm/internal/config"
	"github.com/kristofer/egovm/internal/logging"
)

// Version information injected at build time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// cfg holds the configuration flags populate before any subcommand
// constructs a VM.
var cfg = config.Default()

var rootCmd = &cobra.Command{
	Use:   "egovm",
	Short: "A bytecode virtual machine",
	Long: `egovm runs and inspects ego bytecode programs: a flat, little-endian
binary instruction stream over a stack-based interpreter with a
reference-counted heap.

There is no source language or compiler bundled here - feed it a .ego
bytecode file, or use "egovm disassemble" to read one.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	},
}

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format (text|json)")
	rootCmd.PersistentFlags().BoolVar(&cfg.Debug, "debug", cfg.Debug, "Enable per-opcode dispatch tracing")
	rootCmd.PersistentFlags().IntVar(&cfg.EventQueueCapacity, "event-queue-capacity", cfg.EventQueueCapacity, "Capacity of the scheduler's async-event queue")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(disassembleCmd)
	rootCmd.AddCommand(versionCmd)
}
