package cli

import (
	"context"
	"fmt"
	stdio "io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/vkmsctl/pkg/errors"
	"github.com/matzehuels/vkmsctl/pkg/io"
	"github.com/matzehuels/vkmsctl/pkg/topology"
)

const (
	formatJSON  = "json"
	formatYAML  = "yaml"
	formatTable = "table"
)

// listCommand creates the list command for reading devices back.
func (c *CLI) listCommand() *cobra.Command {
	var format, output string

	cmd := &cobra.Command{
		Use:     "list [name...]",
		Aliases: []string{"ls"},
		Short:   "List devices found in the control tree",
		Long: `List VKMS devices reconstructed from the control tree.

Without names every device under <configfs>/vkms is listed. JSON and YAML
output uses the same schema that create accepts, so a listed device can be
fed back to create.`,
		Example: `  vkmsctl list
  vkmsctl list -f table
  vkmsctl list dev1 -f yaml -o dev1.yaml`,
		ValidArgsFunction: c.completeDevices,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runList(cmd.Context(), cmd.OutOrStdout(), args, format, output)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", formatJSON, "output format: json, yaml, table")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to a file instead of standard output")
	_ = cmd.RegisterFlagCompletionFunc("format", cobra.FixedCompletions(
		[]string{formatJSON, formatYAML, formatTable}, cobra.ShellCompDirectiveNoFileComp))

	return cmd
}

// runList reads the requested devices and writes them in format.
func (c *CLI) runList(ctx context.Context, w stdio.Writer, names []string, format, output string) error {
	switch format {
	case formatJSON, formatYAML, formatTable:
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unsupported format %q (allowed: json, yaml, table)", format)
	}

	reader, err := c.newReader()
	if err != nil {
		return err
	}

	var devices []*topology.Device
	if len(names) == 0 {
		if devices, err = reader.List(ctx); err != nil {
			return err
		}
	} else {
		for _, name := range names {
			d, err := reader.Read(ctx, name)
			if err != nil {
				return err
			}
			devices = append(devices, d)
		}
	}
	loggerFromContext(ctx).Debug("read devices", "count", len(devices))

	if format == formatTable {
		if len(devices) == 0 {
			printInfo("No devices under %s", c.Config.ConfigfsPath)
			return nil
		}
		_, err := fmt.Fprintln(w, deviceTable(devices))
		return err
	}

	if output != "" {
		if err := io.Export(devices, output, io.Format(format)); err != nil {
			return err
		}
		printSuccess("Wrote %d device(s)", len(devices))
		printFile(output)
		return nil
	}
	return io.Write(devices, w, io.Format(format))
}

// deviceTable renders one row per device.
func deviceTable(devices []*topology.Device) string {
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	cell := lipgloss.NewStyle().Padding(0, 1)

	rows := make([][]string, 0, len(devices))
	for _, d := range devices {
		rows = append(rows, []string{
			d.Name,
			enabledLabel(d.Enabled),
			strconv.Itoa(len(d.Planes)),
			strconv.Itoa(len(d.Crtcs)),
			strconv.Itoa(len(d.Encoders)),
			strconv.Itoa(len(d.Connectors)),
			strconv.Itoa(d.LinkCount()),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Device", "State", "Planes", "CRTCs", "Encoders", "Connectors", "Links").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle.Padding(0, 1)
			}
			if row >= len(devices) {
				return cell
			}
			switch col {
			case 0:
				return cell.Foreground(colorCyan)
			case 1:
				if devices[row].Enabled {
					return cell.Foreground(colorGreen)
				}
				return cell.Foreground(colorGray)
			}
			return cell
		})

	return t.Render()
}
