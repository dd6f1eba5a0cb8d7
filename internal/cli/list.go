package cli

import (
	"github.com/spf13/cobra"
	"github.com/timmy/hrnotify/internal/automation"
)

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "list",
		Short:        "List automations and batches",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			controller := automation.NewController(automation.Deps{}, automation.Settings{})
			out := newOutput(rootOpts.Format, cmd.OutOrStdout())
			return out.Catalog(controller.Automations(), automation.DefaultBatches())
		},
	}
}
