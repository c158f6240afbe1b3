package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/matzehuels/vkmsctl/pkg/topology"
)

var clusterColors = map[string]string{
	"planes":     "#dbeafe",
	"crtcs":      "#fef3c7",
	"encoders":   "#dcfce7",
	"connectors": "#fce7f3",
}

// ToDOT converts a device to Graphviz DOT format.
// Node IDs are prefixed with their collection so equal names in different
// collections stay distinct. The graph label shows the device name and
// whether it is enabled.
func ToDOT(d *topology.Device) string {
	var buf bytes.Buffer
	state := "disabled"
	if d.Enabled {
		state = "enabled"
	}

	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  compound=true;\n")
	fmt.Fprintf(&buf, "  label=%q;\n", fmt.Sprintf("%s (%s)", d.Name, state))
	buf.WriteString("  labelloc=t;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.8;\n")
	buf.WriteString("  nodesep=0.3;\n")

	var planes, crtcs, encoders, connectors []string
	for _, p := range d.Planes {
		planes = append(planes, nodeLine("planes", p.Name, fmt.Sprintf("%s\n%s", p.Name, p.Type), p.Type == topology.PlanePrimary))
	}
	for _, c := range d.Crtcs {
		label := c.Name
		if c.IsWritebackEnabled {
			label += "\nwriteback"
		}
		crtcs = append(crtcs, nodeLine("crtcs", c.Name, label, false))
	}
	for _, e := range d.Encoders {
		encoders = append(encoders, nodeLine("encoders", e.Name, e.Name, false))
	}
	for _, c := range d.Connectors {
		connectors = append(connectors, nodeLine("connectors", c.Name, fmt.Sprintf("%s\n%s", c.Name, c.Status), c.Status == topology.StatusConnected))
	}

	writeCluster(&buf, "planes", planes)
	writeCluster(&buf, "crtcs", crtcs)
	writeCluster(&buf, "encoders", encoders)
	writeCluster(&buf, "connectors", connectors)

	buf.WriteString("\n")
	for _, p := range d.Planes {
		for _, c := range p.PossibleCrtcs {
			fmt.Fprintf(&buf, "  %q -> %q;\n", nodeID("planes", p.Name), nodeID("crtcs", c))
		}
	}
	for _, e := range d.Encoders {
		for _, c := range e.PossibleCrtcs {
			fmt.Fprintf(&buf, "  %q -> %q;\n", nodeID("encoders", e.Name), nodeID("crtcs", c))
		}
	}
	for _, c := range d.Connectors {
		for _, e := range c.PossibleEncoders {
			fmt.Fprintf(&buf, "  %q -> %q;\n", nodeID("connectors", c.Name), nodeID("encoders", e))
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeID(collection, name string) string {
	return collection + "/" + name
}

func nodeLine(collection, name, label string, bold bool) string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	if bold {
		attrs = append(attrs, "penwidth=2")
	}
	return fmt.Sprintf("    %q [%s];\n", nodeID(collection, name), strings.Join(attrs, ", "))
}

func writeCluster(buf *bytes.Buffer, collection string, nodes []string) {
	if len(nodes) == 0 {
		return
	}
	fmt.Fprintf(buf, "\n  subgraph \"cluster_%s\" {\n", collection)
	fmt.Fprintf(buf, "    label=%q;\n", collection)
	buf.WriteString("    style=\"rounded,filled\";\n")
	fmt.Fprintf(buf, "    fillcolor=%q;\n", clusterColors[collection])
	buf.WriteString("    color=\"#94a3b8\";\n")
	for _, n := range nodes {
		buf.WriteString(n)
	}
	buf.WriteString("  }\n")
}
