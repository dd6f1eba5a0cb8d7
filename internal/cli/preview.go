package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/timmy/hrnotify/internal/app"
	"github.com/timmy/hrnotify/internal/config"
	"github.com/timmy/hrnotify/internal/notify"
)

// PreviewOptions holds flags for the preview command.
type PreviewOptions struct {
	*RootOptions
	OutDir string
}

// NewPreviewCommand creates the preview command.
func NewPreviewCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PreviewOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Render every email template with sample data",
		Long: `Render every email template with sample data and write one HTML file
per template to the output directory. Nothing is sent.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.ConfigPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			renderer, err := notify.NewEmbeddedRenderer()
			if err != nil {
				return err
			}
			previews, err := app.RenderPreviews(cmd.Context(), renderer, cfg, time.Now())
			if err != nil {
				return err
			}
			files, err := writePreviews(opts.OutDir, previews)
			if err != nil {
				return err
			}
			return newOutput(opts.Format, cmd.OutOrStdout()).Files(files)
		},
	}

	cmd.Flags().StringVarP(&opts.OutDir, "out", "o", "previews", "output directory")

	return cmd
}

// writePreviews writes previews as <out>/<template id with / replaced by _>
// and returns the written paths in template order.
func writePreviews(outDir string, previews map[string]string) ([]string, error) {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	ids := make([]string, 0, len(previews))
	for id := range previews {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	files := make([]string, 0, len(ids))
	for _, id := range ids {
		path := filepath.Join(outDir, "preview_"+strings.ReplaceAll(id, "/", "_"))
		if err := os.WriteFile(path, []byte(previews[id]), 0644); err != nil {
			return nil, fmt.Errorf("write %s: %w", path, err)
		}
		files = append(files, path)
	}
	return files, nil
}
