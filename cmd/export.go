package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/manhwa-tools/manhwa-translator/internal/export"
	"github.com/spf13/cobra"
)

func newExportCmd(flags *rootFlags) *cobra.Command {
	var (
		format  string
		output  string
		noSFX   bool
		font    string
		workers int
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the selected pages as PDF, Word or Markdown",
		Long: `Writes the selected pages in collection order.

  pdf  one page per image, followed by a page with its translation
  doc  Word-compatible document with the translated text of every page
  md   the same text as Markdown

The PDF core font cannot render Persian script, so PDF export of Persian
text needs --font with a TrueType font such as Vazirmatn. Translation pages
are then written right to left.`,
		Example: `  manhwa-translator export --format doc --no-sfx
  manhwa-translator export --format pdf --font Vazirmatn-Regular.ttf -o chapter.pdf`,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			a, err := openApp(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer a.close()

			pages := export.Pages(a.state.Images.Snapshot(), !noSFX)
			if len(pages) == 0 {
				return fmt.Errorf("no selected images to export")
			}
			if output == "" {
				output = f.Filename(a.state.Name)
			}

			exporter := export.New(a.loader, export.WithFont(font), export.WithWorkers(workers))
			var buf bytes.Buffer
			if err := exporter.Write(cmd.Context(), &buf, f, filepath.Base(output), pages); err != nil {
				return err
			}
			if err := os.WriteFile(output, buf.Bytes(), 0644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d pages to %s\n", len(pages), output)
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "pdf", "Output format (pdf, doc, md)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default <project>-chapter.<format>)")
	cmd.Flags().BoolVar(&noSFX, "no-sfx", false, "Leave out sound effect blocks")
	cmd.Flags().StringVar(&font, "font", os.Getenv("MANHWA_PDF_FONT"), "TrueType font for PDF text")
	cmd.Flags().IntVar(&workers, "workers", 4, "Images fetched in parallel for PDF export")
	return cmd
}
