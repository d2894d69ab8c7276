package cmd

import (
	"fmt"
	"strings"

	"github.com/manhwa-tools/manhwa-translator/internal/config"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
)

func newConfigCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change persistent settings",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the settings with the API key masked",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, settings, err := loadSettings(flags)
			if err != nil {
				return err
			}
			data, err := toml.Marshal(settings.Masked())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "# %s\n%s", path, data)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set-key <api-key>",
		Short: "Store the translation API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return updateSettings(flags, "api_key", args[0])
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change one setting",
		Long:  "Keys: " + strings.Join(config.Keys, ", "),
		Example: `  manhwa-translator config set provider openai
  manhwa-translator config set genre wuxia`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return updateSettings(flags, args[0], args[1])
		},
	})

	return cmd
}

// updateSettings changes key in the settings file. Environment overrides
// are not written back.
func updateSettings(flags *rootFlags, key, value string) error {
	path := flags.configPath
	if path == "" {
		var err error
		if path, err = config.DefaultPath(); err != nil {
			return err
		}
	}
	settings, err := config.Read(path)
	if err != nil {
		return err
	}
	if err := settings.Set(key, value); err != nil {
		return err
	}
	return config.Save(path, settings)
}
