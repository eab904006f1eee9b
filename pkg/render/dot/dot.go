package dot

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/supportree/pkg/core/support"
	"github.com/matzehuels/supportree/pkg/core/tree"
	"github.com/matzehuels/supportree/pkg/core/xjunction"
)

const (
	canvasFill   = "lightgrey"
	junctionFill = "\"#ffe9a8\""
)

// Options configures diagram generation.
type Options struct {
	// Labels maps node ids to display names. Node 0 defaults to "canvas".
	Labels []string

	// Junctions highlights regions that appear in any junction.
	Junctions *xjunction.Set

	// Detailed adds the depth to tree node labels.
	Detailed bool
}

// ToDOT converts a support tree to Graphviz DOT. Nodes of equal depth share a
// rank and the canvas is drawn at the bottom.
func ToDOT(t *tree.Tree, opts Options) string {
	var buf bytes.Buffer
	writeHeader(&buf, "SupportTree")

	for v := range t.N() {
		label := opts.label(v)
		if opts.Detailed {
			label = fmt.Sprintf("%s\ndepth %d", label, t.Depth(v))
		}
		fmt.Fprintf(&buf, "  n%d [%s];\n", v, strings.Join(opts.attrs(v, label), ", "))
	}

	buf.WriteString("\n")
	for d, layer := range t.Layers() {
		ids := make([]string, len(layer))
		for i, v := range layer {
			ids[i] = "n" + strconv.Itoa(v)
		}
		fmt.Fprintf(&buf, "  { rank=same; %s; } // depth %d\n", strings.Join(ids, "; "), d)
	}

	buf.WriteString("\n")
	for _, e := range t.Edges() {
		fmt.Fprintf(&buf, "  n%d -> n%d;\n", e.From, e.To)
	}

	buf.WriteString("}\n")
	return buf.String()
}

// GraphDOT converts a candidate support graph to Graphviz DOT. Necessary
// edges are drawn bold.
func GraphDOT(g *support.Graph, opts Options) string {
	var buf bytes.Buffer
	writeHeader(&buf, "SupportGraph")

	for v := range g.N() {
		fmt.Fprintf(&buf, "  n%d [%s];\n", v, strings.Join(opts.attrs(v, opts.label(v)), ", "))
	}

	buf.WriteString("\n")
	for _, e := range g.Pairs() {
		if id, _ := g.Lookup(e.From, e.To); g.IsNecessary(id) {
			fmt.Fprintf(&buf, "  n%d -> n%d [penwidth=2.5];\n", e.From, e.To)
			continue
		}
		fmt.Fprintf(&buf, "  n%d -> n%d [style=dashed, color=grey40];\n", e.From, e.To)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func writeHeader(buf *bytes.Buffer, name string) {
	fmt.Fprintf(buf, "digraph %s {\n", name)
	buf.WriteString("  rankdir=BT;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=18, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")
}

func (o Options) label(v int) string {
	if v < len(o.Labels) && o.Labels[v] != "" {
		return o.Labels[v]
	}
	if v == support.Root {
		return "canvas"
	}
	return strconv.Itoa(v)
}

func (o Options) attrs(v int, label string) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	switch {
	case v == support.Root:
		attrs = append(attrs, "shape=box", "style=filled", "fillcolor="+canvasFill)
	case o.Junctions != nil && o.Junctions.ContainsRegion(v):
		attrs = append(attrs, "fillcolor="+junctionFill, "penwidth=2")
	}
	return attrs
}

// RenderSVG renders DOT source to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox drops Graphviz's pt-based size so the SVG scales with its
// container.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}
