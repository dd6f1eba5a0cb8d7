package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/timmy/hrnotify/internal/automation"
)

// output renders command results as text or JSON.
type output struct {
	format string
	w      io.Writer
}

func newOutput(format string, w io.Writer) *output {
	return &output{format: format, w: w}
}

func (o *output) json(v any) error {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Report prints a batch or single-automation report.
func (o *output) Report(r automation.Report) error {
	if o.format == "json" {
		return o.json(r)
	}

	fmt.Fprintf(o.w, "%s: %d sent, %d failed\n", r.Batch, r.Tally.Succeeded, r.Tally.Failed)
	for _, res := range r.Results {
		line := fmt.Sprintf("  %-22s %d sent, %d failed", res.Automation, res.Tally.Succeeded, res.Tally.Failed)
		if res.Error != "" {
			line += "  error: " + res.Error
		}
		fmt.Fprintln(o.w, line)
	}
	return nil
}

// Catalog prints automations and batches.
func (o *output) Catalog(infos []automation.Info, batches map[string][]string) error {
	if o.format == "json" {
		return o.json(map[string]any{"automations": infos, "batches": batches})
	}

	fmt.Fprintln(o.w, "Automations:")
	for _, info := range infos {
		fmt.Fprintf(o.w, "  %-22s %s\n", info.Name, info.Description)
	}

	names := make([]string, 0, len(batches))
	for name := range batches {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(o.w, "Batches:")
	for _, name := range names {
		fmt.Fprintf(o.w, "  %-22s %s\n", name, strings.Join(batches[name], ", "))
	}
	return nil
}

// Files prints written file paths.
func (o *output) Files(paths []string) error {
	if o.format == "json" {
		return o.json(map[string]any{"files": paths})
	}
	for _, p := range paths {
		fmt.Fprintln(o.w, p)
	}
	return nil
}
