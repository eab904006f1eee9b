// Package dot renders support trees and support graphs as Graphviz diagrams.
//
// # Overview
//
// Trees are drawn bottom-up: the canvas sits at the bottom and every region
// is placed on the row of its depth, above the region that supports it. This
// matches how the regions stack in the source image.
//
//	src := dot.ToDOT(t, dot.Options{Junctions: set})
//	svg, err := dot.RenderSVG(ctx, src)
//
// [GraphDOT] draws the full candidate graph instead, with necessary edges in
// bold, which helps explain why a search returned no trees.
//
// # Options
//
//   - Labels: display names per node id. Missing entries fall back to the id.
//   - Junctions: regions that take part in an X-junction are highlighted.
//   - Detailed: labels also show the node depth.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering.
package dot
