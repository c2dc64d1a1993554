package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fieldwatch/fieldwatch/internal/demo"
	"github.com/fieldwatch/fieldwatch/internal/hook"
)

// NewHooksCommand creates the `fieldwatch hooks` command: a diagnostic
// listing of the built registry - trigger, watch path, condition summary,
// priority - for every registered type.
func NewHooksCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "hooks",
		Short: "List registered lifecycle hooks",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := hook.NewRegistry()
			if err := demo.BuildRegistry(reg, nil); err != nil {
				return fmt.Errorf("build registry: %w", err)
			}
			return WriteHookListing(cmd.OutOrStdout(), reg.Describe(), opts.Format)
		},
	}
}

// WriteHookListing renders registry listing rows as a text table or JSON.
func WriteHookListing(w io.Writer, infos []hook.Info, format string) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(infos)
	}

	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TYPE\tHOOK\tTRIGGER\tWATCH\tCONDITION\tPRIORITY\tASYNC\tON COMMIT")
	for _, info := range infos {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			info.TypeName,
			info.Name,
			info.Trigger,
			orDash(info.Watch),
			orDash(info.Condition),
			info.Priority,
			yesNo(info.Async),
			yesNo(info.OnCommit),
		)
	}
	return tw.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
