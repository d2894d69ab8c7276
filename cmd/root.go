package cmd

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/manhwa-tools/manhwa-translator/internal/project"
	"github.com/spf13/cobra"
)

type rootFlags struct {
	configPath  string
	projectPath string
	verbose     bool
}

func NewRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "manhwa-translator",
		Short: "Translate manhwa chapters into Persian with vision LLMs",
		Long: `Manhwa Translator collects the page images of a chapter, translates the
text of each page with a vision-capable LLM (Gemini, OpenAI or Ollama) and
exports the result as PDF, Word or Markdown.

A project-scoped glossary keeps names, places and skills consistent across
pages. Working state is kept in a project file in the current directory.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			level := slog.LevelInfo
			if flags.verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "Settings file (default <user config dir>/manhwa-translator/config.toml)")
	cmd.PersistentFlags().StringVar(&flags.projectPath, "project-file", project.DefaultPath, "Project file holding the collection and glossary")
	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Verbose logging")

	// Add subcommands
	cmd.AddCommand(newScrapeCmd(flags))
	cmd.AddCommand(newAddCmd(flags))
	cmd.AddCommand(newRemoveCmd(flags))
	cmd.AddCommand(newSelectCmd(flags))
	cmd.AddCommand(newProjectCmd(flags))
	cmd.AddCommand(newTranslateCmd(flags))
	cmd.AddCommand(newStopCmd())
	cmd.AddCommand(newStatusCmd(flags))
	cmd.AddCommand(newEditCmd(flags))
	cmd.AddCommand(newExportCmd(flags))
	cmd.AddCommand(newGlossaryCmd(flags))
	cmd.AddCommand(newConfigCmd(flags))
	cmd.AddCommand(newServeCmd(flags))

	return cmd
}
