package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/manhwa-tools/manhwa-translator/internal/glossary"
	"github.com/manhwa-tools/manhwa-translator/internal/models"
	"github.com/spf13/cobra"
)

func newGlossaryCmd(flags *rootFlags) *cobra.Command {
	var projectName string

	cmd := &cobra.Command{
		Use:   "glossary",
		Short: "Manage the project glossary",
		Long: `The glossary maps original terms to fixed translations. Items of the
current project and of the special project "Global" are sent with every
page. Terms found during translation are added automatically and never
overwrite existing ones.`,
	}
	cmd.PersistentFlags().StringVar(&projectName, "project", "", "Glossary project (default the current project)")

	scope := func(a *app) string {
		if projectName != "" {
			return projectName
		}
		return a.state.Name
	}

	cmd.AddCommand(newGlossaryListCmd(flags, scope))
	cmd.AddCommand(newGlossaryAddCmd(flags, scope))
	cmd.AddCommand(newGlossaryRemoveCmd(flags))
	cmd.AddCommand(newGlossaryImportCmd(flags, scope))
	cmd.AddCommand(newGlossaryExportCmd(flags, scope))
	return cmd
}

func newGlossaryListCmd(flags *rootFlags, scope func(*app) string) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List glossary items",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer a.close()

			items := a.state.Glossary.ForProject(scope(a))
			if all {
				items = a.state.Glossary.All()
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTERM\tTRANSLATION\tCATEGORY\tPROJECT")
			for _, item := range items {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", item.ID, item.Term, item.Translation, item.Category, item.Project)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "List every project")
	return cmd
}

func newGlossaryAddCmd(flags *rootFlags, scope func(*app) string) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:     "add <term> <translation>",
		Short:   "Add a glossary item",
		Example: `  manhwa-translator glossary add "Jin-Woo" "جین-وو" --category Names`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), flags, func(a *app) error {
				item, ok := a.state.Glossary.Add(args[0], args[1], models.Category(category), scope(a))
				if !ok {
					return fmt.Errorf("term and translation must not be blank")
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s -> %s %s\n", item.ID, item.Term, item.Translation, item.Category)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", string(models.CategoryNames), "Category (Names, Places, Skills, Other)")
	return cmd
}

func newGlossaryRemoveCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <item-id...>",
		Short: "Remove glossary items",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), flags, func(a *app) error {
				for _, id := range args {
					if !a.state.Glossary.Delete(id) {
						return fmt.Errorf("glossary item not found: %s", id)
					}
				}
				return nil
			})
		},
	}
}

func newGlossaryImportCmd(flags *rootFlags, scope func(*app) string) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import glossary items from txt, csv, xlsx or parquet",
		Long: `Imports items into the project. Text lines are "term translation #Category"
or "term,translation,#Category"; lines without a category become #Names.
A header row starting with "Term," is recognised.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := format
			if raw == "" {
				raw = filepath.Ext(args[0])
			}
			f, err := glossary.ParseFormat(raw)
			if err != nil {
				return err
			}
			file, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open glossary: %w", err)
			}
			defer file.Close()

			return withApp(cmd.Context(), flags, func(a *app) error {
				items, err := glossary.Decode(file, f, scope(a))
				if err != nil {
					return err
				}
				added := a.state.Glossary.Import(items...)
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d items into %s\n", added, scope(a))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&format, "format", "", "Input format (default from extension)")
	return cmd
}

func newGlossaryExportCmd(flags *rootFlags, scope func(*app) string) *cobra.Command {
	var format, output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the project glossary as txt, csv, doc, xlsx or parquet",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := glossary.ParseFormat(format)
			if err != nil {
				return err
			}
			a, err := openApp(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer a.close()

			project := scope(a)
			var buf bytes.Buffer
			if err := glossary.Encode(&buf, f, a.state.Glossary.ForProject(project)); err != nil {
				return err
			}
			if output == "-" {
				_, err := cmd.OutOrStdout().Write(buf.Bytes())
				return err
			}
			if output == "" {
				output = f.Filename(project)
			}
			if err := os.WriteFile(output, buf.Bytes(), 0644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported glossary to %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "csv", "Output format")
	cmd.Flags().StringVarP(&output, "output", "o", "", `Output file, "-" for stdout (default glossary-<project>.<format>)`)
	return cmd
}
