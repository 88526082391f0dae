package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kristofer/egovm/internal/logging"
	"github.com/kristofer/egovm/pkg/natives/timers"
	"github.com/kristofer/egovm/pkg/vm"
)

var keepAlive time.Duration

var runCmd = &cobra.Command{
	Use:   "run <file.ego>",
	Short: "Run a compiled bytecode file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		program, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading bytecode: %w", err)
		}

		machine := vm.New(vm.WithEventQueueCapacity(cfg.EventQueueCapacity))
		machine.Debug = cfg.Debug
		machine.Natives().Register(timers.Module())

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			<-sigCh
			logging.Info("shutdown signal received")
			cancel()
		}()

		result, err := machine.Run(ctx, program)
		if err != nil {
			return fmt.Errorf("running %s: %w", args[0], err)
		}
		logging.Debug("run finished", "result", result.String())

		if keepAlive <= 0 {
			return nil
		}

		// Async natives (e.g. the "time" module's interval/timeout) can
		// still have pending callbacks after the top-level script returns.
		// Pump keeps servicing them for up to --keep-alive, since nothing
		// in this demo CLI tracks how many timer tasks are still live; a
		// host embedding pkg/vm directly would size this against its own
		// notion of "no more outstanding work" instead of a fixed deadline.
		pumpCtx, pumpCancel := context.WithTimeout(ctx, keepAlive)
		defer pumpCancel()
		pumpErr := machine.Pump(pumpCtx)
		if pumpErr != nil && pumpCtx.Err() == nil {
			return fmt.Errorf("pumping events for %s: %w", args[0], pumpErr)
		}
		return nil
	},
}

func init() {
	runCmd.Flags().DurationVar(&keepAlive, "keep-alive", 0, "Keep servicing async callbacks (intervals, timeouts) for this long after the script returns")
}
