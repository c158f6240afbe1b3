package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/vkmsctl/pkg/configfs"
	"github.com/matzehuels/vkmsctl/pkg/errors"
	"github.com/matzehuels/vkmsctl/pkg/io"
)

// createCommand creates the create command for materializing a device.
func (c *CLI) createCommand() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "create [file]",
		Short: "Create a device from a topology file",
		Long: `Create a VKMS device from a JSON or YAML topology file.

The format is chosen by extension (.yaml and .yml are YAML, anything else is
JSON); "-" reads JSON from standard input. The topology is validated before
the control tree is touched. If any step fails, every step already applied
is undone.

Use --dry-run to print the control-tree steps without applying them.`,
		Example: `  vkmsctl create dev1.json
  vkmsctl create --dry-run dev1.yaml
  cat dev1.json | vkmsctl create -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runCreate(cmd.Context(), args[0], dryRun)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the plan without changing the control tree")

	return cmd
}

// runCreate loads the topology and materializes it.
func (c *CLI) runCreate(ctx context.Context, input string, dryRun bool) error {
	logger := loggerFromContext(ctx)

	d, err := io.Import(input)
	if err != nil {
		return err
	}
	logger.Debug("loaded topology", "file", input, "device", d.Name, "entities", d.EntityCount())

	tree, codec, err := c.backend()
	if err != nil {
		return err
	}
	m := configfs.NewMaterializer(tree, codec, logger)

	if dryRun {
		plan, err := m.Plan(d)
		if err != nil {
			return err
		}
		printInfo("Plan for %s under %s (%d steps)",
			StyleHighlight.Render(d.Name), tree.Layout.Root, len(plan.Steps))
		for i, s := range plan.Steps {
			printDetail("%3d  %s", i+1, s)
		}
		return nil
	}

	prog := newProgress(logger)
	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Creating %s...", d.Name))
	restore := trackSteps(spinner, "Creating "+d.Name)
	spinner.Start()

	err = m.Create(ctx, d)
	restore()
	if err != nil {
		spinner.StopWithError(fmt.Sprintf("Could not create %s", d.Name))
		if left := leftovers(err); len(left) > 0 {
			printWarning("Rollback incomplete: %s may remain under %s", plural(len(left), "path"), tree.Layout.Root)
		}
		return err
	}
	spinner.Stop()
	prog.done("create " + d.Name)

	printSuccess("Created %s", StyleHighlight.Render(d.Name))
	printStats(d)
	if !d.Enabled {
		printNextStep("Enable it", fmt.Sprintf("%s enable %s", appName, d.Name))
	}
	return nil
}

// leftovers returns the rollback failures attached to a failed create.
func leftovers(err error) []string {
	if !errors.Is(err, errors.ErrCodeMaterializeFailed) {
		return nil
	}
	return errors.DetailLines(err)
}
