package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/manhwa-tools/manhwa-translator/internal/collection"
	"github.com/manhwa-tools/manhwa-translator/internal/models"
	"github.com/manhwa-tools/manhwa-translator/internal/scraper"
	"github.com/spf13/cobra"
)

func newScrapeCmd(flags *rootFlags) *cobra.Command {
	var useTitle bool

	cmd := &cobra.Command{
		Use:   "scrape <chapter-url>",
		Short: "Add the images of a chapter page to the collection",
		Long: `Fetches a chapter page and appends every image it references, in page
order. Lazy-loaded images are resolved; vector images and placeholders are
skipped. When the page cannot be fetched through any source, download the
images and add them with "add --file" instead.`,
		Example: `  manhwa-translator scrape https://example.com/solo-leveling/chapter-1 --use-title`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), flags, func(a *app) error {
				res, err := scraper.New().Scrape(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				entries := make([]models.ImageEntry, len(res.Images))
				for i, u := range res.Images {
					entries[i] = models.ImageEntry{URL: u}
				}
				added := a.state.Images.Append(entries...)
				if useTitle && res.Title != "" {
					a.state.Name = res.Title
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %d images from %q\n", len(added), res.Title)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&useTitle, "use-title", false, "Use the page title as project name")
	return cmd
}

func newAddCmd(flags *rootFlags) *cobra.Command {
	var files []string
	var stdin bool

	cmd := &cobra.Command{
		Use:   "add [image-url...]",
		Short: "Add images by URL, from local files or from stdin",
		Example: `  # Add remote images
  manhwa-translator add https://cdn.example.com/01.jpg https://cdn.example.com/02.jpg

  # Add downloaded pages
  manhwa-translator add --file pages/01.png --file pages/02.png

  # Paste an image from the clipboard
  wl-paste | manhwa-translator add --stdin`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && len(files) == 0 && !stdin {
				return fmt.Errorf("nothing to add: give image URLs, --file or --stdin")
			}
			return withApp(cmd.Context(), flags, func(a *app) error {
				var entries []models.ImageEntry
				for _, u := range args {
					entries = append(entries, models.ImageEntry{URL: strings.TrimSpace(u)})
				}
				for _, path := range files {
					data, err := os.ReadFile(path)
					if err != nil {
						return fmt.Errorf("read %s: %w", path, err)
					}
					entry, err := a.uploads.Save(data, filepath.Base(path))
					if err != nil {
						return err
					}
					entries = append(entries, entry)
				}
				if stdin {
					data, err := io.ReadAll(cmd.InOrStdin())
					if err != nil {
						return fmt.Errorf("read stdin: %w", err)
					}
					entry, err := a.uploads.Save(data, "pasted.png")
					if err != nil {
						return err
					}
					entries = append(entries, entry)
				}

				added := a.state.Images.Append(entries...)
				for _, e := range added {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", e.ID, e.URL)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringArrayVarP(&files, "file", "f", nil, "Local image file (repeatable)")
	cmd.Flags().BoolVar(&stdin, "stdin", false, "Read one image from stdin")
	return cmd
}

func newRemoveCmd(flags *rootFlags) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "remove [entry-id...]",
		Short: "Remove entries from the collection",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), flags, func(a *app) error {
				if all {
					a.state.Images.ResetAll()
					return nil
				}
				for _, id := range args {
					if !a.state.Images.Remove(id) {
						return fmt.Errorf("%w: %s", collection.ErrNotFound, id)
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Clear the whole collection")
	return cmd
}

func newSelectCmd(flags *rootFlags) *cobra.Command {
	var all, none, off, toggle bool

	cmd := &cobra.Command{
		Use:   "select [entry-id...]",
		Short: "Choose which entries are translated and exported",
		Example: `  manhwa-translator select --none
  manhwa-translator select 3f0c... 9a1b...
  manhwa-translator select --off 3f0c...`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), flags, func(a *app) error {
				switch {
				case all:
					a.state.Images.SelectAll()
				case none:
					a.state.Images.DeselectAll()
				}
				for _, id := range args {
					found := false
					if toggle {
						_, found = a.state.Images.ToggleSelect(id)
					} else {
						found = a.state.Images.SetSelected(id, !off)
					}
					if !found {
						return fmt.Errorf("%w: %s", collection.ErrNotFound, id)
					}
				}
				stats := a.state.Images.Stats()
				fmt.Fprintf(cmd.OutOrStdout(), "%d of %d images selected\n", stats.Total, a.state.Images.Len())
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Select every entry")
	cmd.Flags().BoolVar(&none, "none", false, "Deselect every entry")
	cmd.Flags().BoolVar(&off, "off", false, "Deselect the given entries")
	cmd.Flags().BoolVar(&toggle, "toggle", false, "Flip the selection of the given entries")
	cmd.MarkFlagsMutuallyExclusive("all", "none")
	cmd.MarkFlagsMutuallyExclusive("off", "toggle")
	return cmd
}

func newProjectCmd(flags *rootFlags) *cobra.Command {
	var genre string

	cmd := &cobra.Command{
		Use:   "project [name]",
		Short: "Show or change the project name and genre",
		Long: `The project name scopes the glossary and names exported files. The genre
sets the tone of translations: ` + genreList() + `.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), flags, func(a *app) error {
				if len(args) == 1 && strings.TrimSpace(args[0]) != "" {
					a.state.Name = strings.TrimSpace(args[0])
				}
				if genre != "" {
					a.state.Genre = models.ParseGenre(genre)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Project: %s\nGenre:   %s\n", a.state.Name, a.state.Genre)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&genre, "genre", "", "Translation genre")
	return cmd
}

func genreList() string {
	names := make([]string, len(models.Genres))
	for i, g := range models.Genres {
		names[i] = string(g)
	}
	return strings.Join(names, ", ")
}
