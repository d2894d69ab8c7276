package cmd

import (
	"fmt"
	"os"

	"github.com/manhwa-tools/manhwa-translator/internal/pipeline"
	"github.com/manhwa-tools/manhwa-translator/internal/translation"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

func newTranslateCmd(flags *rootFlags) *cobra.Command {
	var reset, resume bool

	cmd := &cobra.Command{
		Use:   "translate",
		Short: "Translate the selected pages",
		Long: `Translates every selected page that is pending or failed, one page at a
time and in collection order. The last line of the previous page is sent as
context, and new names, places and skills found on a page are added to the
project glossary.

Press Ctrl+C to stop. The page in flight is discarded and stays pending;
pages not yet started stay waiting until "translate --resume".`,
		Example: `  # Translate pending and failed pages
  manhwa-translator translate

  # Translate everything again
  manhwa-translator translate --reset

  # Continue a stopped run
  manhwa-translator translate --resume`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withApp(ctx, flags, func(a *app) error {
				settings := a.runSettings()
				translator, err := translation.ForSettings(settings)
				if err != nil {
					return err
				}

				var bar *progressbar.ProgressBar
				runner := pipeline.New(a.state.Images, a.state.Glossary, translator, a.loader,
					pipeline.WithObserver(func(e pipeline.Event) {
						switch e.Kind {
						case pipeline.EventStarted:
							if bar == nil {
								bar = newProgressBar(e.Total)
							}
							bar.Describe(fmt.Sprintf("page %d/%d", e.Index+1, e.Total))
						case pipeline.EventCompleted, pipeline.EventFailed:
							if bar != nil {
								_ = bar.Add(1)
							}
						case pipeline.EventFinished:
							if bar != nil {
								_ = bar.Finish()
							}
						}
					}))

				var done <-chan struct{}
				if resume {
					done, err = runner.Resume(ctx, settings)
				} else {
					done, err = runner.Start(ctx, settings, reset)
				}
				if err != nil {
					return err
				}
				<-done

				out := cmd.OutOrStdout()
				stats := a.state.Images.Stats()
				fmt.Fprintf(out, "%d translated, %d failed, %d selected\n", stats.Success, stats.Failed, stats.Total)
				if ctx.Err() != nil {
					fmt.Fprintln(out, `Stopped. Run "translate --resume" to continue.`)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&reset, "reset", false, "Clear existing translations and translate every selected page")
	cmd.Flags().BoolVar(&resume, "resume", false, "Requeue pages left waiting by a stopped run")
	cmd.MarkFlagsMutuallyExclusive("reset", "resume")
	return cmd
}

func newProgressBar(total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetItsString("pages"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "│",
			BarEnd:        "│",
		}),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(os.Stderr, "\n")
		}),
		progressbar.OptionSetRenderBlankState(true),
	)
}
