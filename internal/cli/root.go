// Package cli implements the hrnotify command line.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/timmy/hrnotify/internal/app"
	"github.com/timmy/hrnotify/internal/config"
	"github.com/timmy/hrnotify/internal/logger"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Format     string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "hrnotify",
		Short: "HR workforce notifications",
		Long:  "Evaluates workforce rules against the contributor dataset and sends the resulting email notifications.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to config file (default ./configs/config.yaml)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewRunOneCommand(opts))
	cmd.AddCommand(NewPreviewCommand(opts))
	cmd.AddCommand(NewListCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// openApp loads configuration and builds the application. The caller
// must Close the returned App.
func openApp(ctx context.Context, opts *RootOptions) (*app.App, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	a, err := app.New(logger.SetComponent(ctx, "cli"), cfg)
	if err != nil {
		return nil, fmt.Errorf("init application: %w", err)
	}
	return a, nil
}
