package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/vkmsctl/pkg/configfs"
)

// removeCommand creates the remove command for tearing down a device.
func (c *CLI) removeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "remove [name]",
		Aliases: []string{"rm"},
		Short:   "Disable and remove a device",
		Long: `Disable a VKMS device if needed and remove its control-tree subtree.

Links are removed first, then entities, collections and the device root.
If the kernel rejects a step the removal stops and the paths still present
are listed; nothing is restored.

Without a name an interactive picker lists the devices in the tree.`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: c.completeDevices,
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			return c.runRemove(cmd.Context(), name)
		},
	}

	return cmd
}

// runRemove removes the named device, asking for one when name is empty.
func (c *CLI) runRemove(ctx context.Context, name string) error {
	logger := loggerFromContext(ctx)

	tree, codec, err := c.backend()
	if err != nil {
		return err
	}

	if name == "" {
		rows, err := deviceRows(ctx, configfs.NewReader(tree, codec))
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			printInfo("No devices under %s", c.Config.ConfigfsPath)
			return nil
		}
		if name, err = pickDevice("Remove Device", rows); err != nil {
			return err
		}
		if name == "" {
			printInfo("Nothing removed")
			return nil
		}
	}

	lc := configfs.NewLifecycle(tree, codec, logger)
	prog := newProgress(logger)
	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Removing %s...", name))
	restore := trackSteps(spinner, "Removing "+name)
	spinner.Start()

	err = lc.Remove(ctx, name)
	restore()
	if err != nil {
		spinner.StopWithError(fmt.Sprintf("Could not remove %s", name))
		return err
	}
	spinner.Stop()
	prog.done("remove " + name)

	printSuccess("Removed %s", StyleHighlight.Render(name))
	return nil
}
