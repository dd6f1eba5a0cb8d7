package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/timmy/hrnotify/internal/automation"
	"github.com/timmy/hrnotify/internal/logger"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Parallel bool
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <batch>",
		Short: "Run a batch of automations",
		Long: `Run every automation of a batch and print the summed tally.

Batches:
  daily   individual_overtime, work_anniversary
  weekly  manager_summary, coordinator_summary
  all     every automation

Example:
  hrnotify run daily
  hrnotify run all --parallel --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runBatch(ctx, opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Parallel, "parallel", false, "run the automations of the batch concurrently")

	return cmd
}

func runBatch(ctx context.Context, opts *RunOptions, batch string, cmd *cobra.Command) error {
	a, err := openApp(ctx, opts.RootOptions)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.CtxError(ctx, "Failed to close application: %v", err)
		}
	}()

	report, err := a.Batches.Run(ctx, batch, opts.Parallel)
	if err != nil {
		return err
	}

	out := newOutput(opts.Format, cmd.OutOrStdout())
	return out.Report(report)
}

// NewRunOneCommand creates the run-one command.
func NewRunOneCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run-one <automation>",
		Short: "Run a single automation",
		Example: `  hrnotify run-one individual_overtime
  DATE_MODE=specific SPECIFIC_DATE=2025-07-02 hrnotify run-one work_anniversary`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := openApp(ctx, rootOpts)
			if err != nil {
				return err
			}
			defer a.Close()

			tally, err := a.Controller.Run(ctx, args[0])
			if err != nil {
				return fmt.Errorf("%w (see `hrnotify list`)", err)
			}

			out := newOutput(rootOpts.Format, cmd.OutOrStdout())
			return out.Report(automation.Report{
				Batch:   args[0],
				Tally:   tally,
				Results: []automation.Result{{Automation: args[0], Tally: tally}},
			})
		},
	}
}
