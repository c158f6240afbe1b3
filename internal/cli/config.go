package cli

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/matzehuels/vkmsctl/internal/config"
)

// configCommand creates the config command.
func (c *CLI) configCommand() *cobra.Command {
	var asTOML bool

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		Long: `Show the settings in effect after reading the config file and applying
command-line flags.

Use --toml to print them in config file form.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if asTOML {
				return toml.NewEncoder(cmd.OutOrStdout()).Encode(c.Config)
			}
			source := c.Config.Source
			if source == "" {
				source = "(defaults)"
			}
			printKeyValue("config file", source)
			printKeyValue("configfs_path", c.Config.ConfigfsPath)
			printKeyValue("encoding", c.Config.Encoding)
			printKeyValue("verbose", fmt.Sprint(c.Config.Verbose))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asTOML, "toml", false, "print as TOML")
	cmd.AddCommand(c.configPathCommand())

	return cmd
}

// configPathCommand creates the "config path" subcommand.
func (c *CLI) configPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the default config file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), config.DefaultPath())
			return err
		},
	}
}
