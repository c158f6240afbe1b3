// Package render draws device topologies as Graphviz diagrams.
//
// # Overview
//
// [ToDOT] turns a device into a DOT digraph with one cluster per entity
// collection. Edges follow the possible-CRTC and possible-encoder
// references: plane → crtc, encoder → crtc and connector → encoder.
// [RenderSVG] and [RenderPNG] lay the graph out with the Graphviz library
// linked into the binary, so no external tool is needed.
//
//	dot := render.ToDOT(dev)
//	svg, err := render.RenderSVG(ctx, dot)
package render
