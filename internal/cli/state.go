package cli

import (
	"context"

	"github.com/spf13/cobra"
)

// stateCommand creates the enable or disable command.
func (c *CLI) stateCommand(enable bool) *cobra.Command {
	use, short, long := "disable [name]", "Disable a device",
		`Write the disabled token to a device's enabled attribute.

Disabling a disabled device succeeds and changes nothing.`
	if enable {
		use, short, long = "enable [name]", "Enable a device",
			`Write the enabled token to a device's enabled attribute.

The device is read back and validated first: a device whose control tree
cannot be decoded is never activated. Enabling an enabled device succeeds
and changes nothing.`
	}

	return &cobra.Command{
		Use:               use,
		Short:             short,
		Long:              long,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: c.completeDevices,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runSetState(cmd.Context(), args[0], enable)
		},
	}
}

// runSetState enables or disables the named device.
func (c *CLI) runSetState(ctx context.Context, name string, enable bool) error {
	lc, err := c.newLifecycle()
	if err != nil {
		return err
	}
	lc.Logger = loggerFromContext(ctx)

	if enable {
		err = lc.Enable(ctx, name)
	} else {
		err = lc.Disable(ctx, name)
	}
	if err != nil {
		return err
	}

	printSuccess("%s is %s", StyleHighlight.Render(name), enabledLabel(enable))
	return nil
}
