package cli

import (
	"context"
	"fmt"
	stdio "io"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/vkmsctl/pkg/errors"
	"github.com/matzehuels/vkmsctl/pkg/render"
)

const (
	formatSVG = "svg"
	formatPNG = "png"
	formatDOT = "dot"
)

// graphCommand creates the graph command for rendering a device.
func (c *CLI) graphCommand() *cobra.Command {
	var format, output string

	cmd := &cobra.Command{
		Use:   "graph [name]",
		Short: "Render a device as a diagram",
		Long: `Render a device read back from the control tree as a Graphviz diagram.

Planes, CRTCs, encoders and connectors are drawn in one cluster each, with
an edge for every possible_crtcs and possible_encoders link. The output
defaults to <name>.<format>; use "-o -" to write to standard output.`,
		Example: `  vkmsctl graph dev1
  vkmsctl graph dev1 -f dot -o - | dot -Tpdf > dev1.pdf`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: c.completeDevices,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runGraph(cmd.Context(), cmd.OutOrStdout(), args[0], format, output)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", formatSVG, "output format: svg, png, dot")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, or - for standard output")
	_ = cmd.RegisterFlagCompletionFunc("format", cobra.FixedCompletions(
		[]string{formatSVG, formatPNG, formatDOT}, cobra.ShellCompDirectiveNoFileComp))

	return cmd
}

// runGraph reads the device and writes its diagram.
func (c *CLI) runGraph(ctx context.Context, w stdio.Writer, name, format, output string) error {
	if format != formatSVG && format != formatPNG && format != formatDOT {
		return errors.New(errors.ErrCodeInvalidInput, "unsupported format %q (allowed: svg, png, dot)", format)
	}

	reader, err := c.newReader()
	if err != nil {
		return err
	}
	d, err := reader.Read(ctx, name)
	if err != nil {
		return err
	}

	dot := render.ToDOT(d)
	var data []byte
	switch format {
	case formatDOT:
		data = []byte(dot)
	case formatSVG:
		data, err = render.RenderSVG(ctx, dot)
	case formatPNG:
		data, err = render.RenderPNG(ctx, dot)
	}
	if err != nil {
		return fmt.Errorf("render %s: %w", format, err)
	}

	if output == "-" {
		_, err := w.Write(data)
		return err
	}
	if output == "" {
		output = name + "." + format
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}
	printSuccess("Rendered %s", StyleHighlight.Render(name))
	printFile(output)
	return nil
}
