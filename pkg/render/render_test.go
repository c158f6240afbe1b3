package render

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/vkmsctl/pkg/topology"
)

func testDevice() *topology.Device {
	return &topology.Device{
		Name:    "dev1",
		Enabled: true,
		Planes: []*topology.Plane{
			{Name: "p0", Type: topology.PlanePrimary, PossibleCrtcs: []string{"c0"}},
		},
		Crtcs:    []*topology.Crtc{{Name: "c0", IsWritebackEnabled: true}},
		Encoders: []*topology.Encoder{{Name: "e0", PossibleCrtcs: []string{"c0"}}},
		Connectors: []*topology.Connector{
			{Name: "hdmi", Status: topology.StatusDisconnected, PossibleEncoders: []string{"e0"}},
		},
	}
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(testDevice())

	want := []string{
		"digraph G {",
		`label="dev1 (enabled)"`,
		`subgraph "cluster_planes"`,
		`subgraph "cluster_connectors"`,
		`"planes/p0" -> "crtcs/c0";`,
		`"encoders/e0" -> "crtcs/c0";`,
		`"connectors/hdmi" -> "encoders/e0";`,
		`label="c0\nwriteback"`,
		`label="hdmi\ndisconnected"`,
	}
	for _, s := range want {
		if !strings.Contains(dot, s) {
			t.Errorf("DOT output missing %q:\n%s", s, dot)
		}
	}
}

func TestToDOTSameNameInCollections(t *testing.T) {
	d := &topology.Device{
		Name:     "dev1",
		Planes:   []*topology.Plane{{Name: "x", Type: topology.PlaneOverlay, PossibleCrtcs: []string{"x"}}},
		Crtcs:    []*topology.Crtc{{Name: "x"}},
		Encoders: []*topology.Encoder{},
	}
	dot := ToDOT(d)
	if !strings.Contains(dot, `"planes/x" -> "crtcs/x";`) {
		t.Errorf("entities with equal names should stay distinct:\n%s", dot)
	}
	if strings.Contains(dot, "cluster_encoders") {
		t.Error("empty collections should not get a cluster")
	}
	if !strings.Contains(dot, "(disabled)") {
		t.Error("graph label should show the disabled state")
	}
}

func TestRenderSVG(t *testing.T) {
	svg, err := RenderSVG(context.Background(), ToDOT(testDevice()))
	if err != nil {
		t.Fatalf("RenderSVG() error = %v", err)
	}
	if !bytes.Contains(svg, []byte("<svg")) {
		t.Errorf("output is not SVG: %.200s", svg)
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="10pt" height="20pt" viewBox="0.00 0.00 100.00 200.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`)
	out := string(normalizeViewBox(in))
	if !strings.Contains(out, `viewBox="0 0 100.00 200.00" width="100" height="200"`) {
		t.Errorf("normalizeViewBox() = %s", out)
	}

	plain := []byte("<svg><g/></svg>")
	if got := normalizeViewBox(plain); !bytes.Equal(got, plain) {
		t.Errorf("svg without viewBox changed: %s", got)
	}
}
