package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/manhwa-tools/manhwa-translator/internal/models"
	"github.com/spf13/cobra"
)

var statusColors = map[models.Status]*color.Color{
	models.StatusPending:    color.New(color.FgWhite),
	models.StatusWaiting:    color.New(color.FgCyan),
	models.StatusProcessing: color.New(color.FgYellow),
	models.StatusCompleted:  color.New(color.FgGreen),
	models.StatusError:      color.New(color.FgRed, color.Bold),
}

func newStatusCmd(flags *rootFlags) *cobra.Command {
	var showBlocks, noColor bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "List the collection with statuses and progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			if noColor {
				color.NoColor = true
			}
			a, err := openApp(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer a.close()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Project %s (%s)\n\n", color.New(color.Bold).Sprint(a.state.Name), a.state.Genre)
			printEntries(out, a.state.Images.Snapshot(), showBlocks)

			stats := a.state.Images.Stats()
			fmt.Fprintf(out, "\n%d/%d processed, %s, %s\n", stats.Processed, stats.Total,
				color.GreenString("%d succeeded", stats.Success),
				color.RedString("%d failed", stats.Failed))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&showBlocks, "blocks", "b", false, "Print translated blocks")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colors")
	return cmd
}

func printEntries(out io.Writer, entries []models.ImageEntry, showBlocks bool) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tSEL\tSTATUS\tBLOCKS\tID\tSOURCE")
	for i, e := range entries {
		sel := " "
		if e.Selected {
			sel = "x"
		}
		c, ok := statusColors[e.Status]
		if !ok {
			c = color.New(color.Reset)
		}
		source := e.URL
		if e.Filename != "" {
			source = e.Filename
		}
		if len(source) > 60 {
			source = source[:57] + "..."
		}
		fmt.Fprintf(tw, "%d\t[%s]\t%s\t%d\t%s\t%s\n", i+1, sel, c.Sprint(e.Status), len(e.Blocks), e.ID, source)
	}
	_ = tw.Flush()

	if !showBlocks {
		return
	}
	for i, e := range entries {
		if len(e.Blocks) == 0 {
			continue
		}
		fmt.Fprintf(out, "\nPage %d (%s)\n", i+1, e.ID)
		for j, b := range e.Blocks {
			fmt.Fprintf(out, "  %d. [%s] %s\n", j, b.Type, b.Text)
		}
	}
}
