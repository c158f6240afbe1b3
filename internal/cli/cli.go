// Package cli implements the vkmsctl command-line interface.
//
// The commands create, inspect, enable, disable and remove VKMS devices
// under a configfs mount. They parse input into a topology and call the
// configfs core; they never touch the control tree themselves.
//
// # Commands
//
//   - create: materialize a device from a JSON or YAML topology file
//   - list: print devices read back from the control tree
//   - remove: disable and tear down a device
//   - enable, disable: toggle a device's enabled attribute
//   - graph: render a device as a Graphviz diagram
//   - config: show the effective configuration
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging, which
// includes every control-tree step. The logger is passed through
// context.Context.
package cli

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/vkmsctl/internal/config"
	"github.com/matzehuels/vkmsctl/pkg/buildinfo"
	"github.com/matzehuels/vkmsctl/pkg/configfs"
	"github.com/matzehuels/vkmsctl/pkg/errors"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for display.
const appName = "vkmsctl"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Config config.Config

	flags globalFlags
}

// globalFlags are the persistent flags of the root command.
type globalFlags struct {
	configPath   string
	configfsPath string
	encoding     string
	verbose      bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "vkmsctl configures virtual KMS devices through configfs",
		Long: `vkmsctl creates, inspects and removes VKMS (virtual kernel mode setting)
devices by driving the vkms configfs interface. A device is described by a
JSON or YAML topology of planes, CRTCs, encoders and connectors.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := c.configure(cmd); err != nil {
				return err
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "%s", cmd.CommandPath())
	})

	pf := root.PersistentFlags()
	pf.StringVar(&c.flags.configPath, "config", "", "config file (default "+config.DefaultPath()+")")
	pf.StringVar(&c.flags.configfsPath, "configfs-path", configfs.DefaultRoot, "configfs mount point")
	pf.StringVar(&c.flags.encoding, "encoding", configfs.EncodingKernel, "attribute encoding: kernel, text")
	pf.BoolVarP(&c.flags.verbose, "verbose", "v", false, "enable verbose logging")

	// Register all subcommands
	root.AddCommand(c.createCommand())
	root.AddCommand(c.listCommand())
	root.AddCommand(c.removeCommand())
	root.AddCommand(c.stateCommand(true))
	root.AddCommand(c.stateCommand(false))
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Configuration
// =============================================================================

// configure loads the config file and applies the flags that were set on
// the command line on top of it.
func (c *CLI) configure(cmd *cobra.Command) error {
	cfg, err := config.Load(c.flags.configPath)
	if err != nil {
		return err
	}

	pf := cmd.Root().PersistentFlags()
	if pf.Changed("configfs-path") {
		cfg.ConfigfsPath = c.flags.configfsPath
	}
	if pf.Changed("encoding") {
		if _, err := configfs.CodecByName(c.flags.encoding); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "--encoding")
		}
		cfg.Encoding = c.flags.encoding
	}
	if pf.Changed("verbose") {
		cfg.Verbose = c.flags.verbose
	}

	level := LogInfo
	if cfg.Verbose {
		level = LogDebug
	}
	c.SetLogLevel(level)
	c.Config = cfg
	return nil
}

// =============================================================================
// Core Factories
// =============================================================================

// backend opens the control tree and the attribute codec selected by the
// effective configuration.
func (c *CLI) backend() (*configfs.Tree, configfs.Codec, error) {
	codec, err := configfs.CodecByName(c.Config.Encoding)
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "encoding")
	}
	return configfs.OpenTree(c.Config.ConfigfsPath, c.Logger), codec, nil
}

func (c *CLI) newReader() (*configfs.Reader, error) {
	tree, codec, err := c.backend()
	if err != nil {
		return nil, err
	}
	return configfs.NewReader(tree, codec), nil
}

func (c *CLI) newLifecycle() (*configfs.Lifecycle, error) {
	tree, codec, err := c.backend()
	if err != nil {
		return nil, err
	}
	return configfs.NewLifecycle(tree, codec, c.Logger), nil
}
