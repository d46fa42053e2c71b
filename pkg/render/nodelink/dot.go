package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/pyview/hiergraph/pkg/entity"
	"github.com/pyview/hiergraph/pkg/graph"
	"github.com/pyview/hiergraph/pkg/render"
)

// CycleColor is the stroke color of nodes and edges in a cycle.
const CycleColor = "#d62728"

// Options configures node-link diagram rendering.
type Options struct {
	// Title is drawn above the diagram when set.
	Title string

	// EdgeLabels labels every edge with its kind.
	EdgeLabels bool

	// LeftToRight lays the diagram out horizontally instead of top-down.
	LeftToRight bool
}

// ToDOT converts view elements to Graphviz DOT.
//
// Every container becomes a "cluster_" subgraph nested under its parent
// container, and every node is written inside the container it is assigned
// to. Nodes and edges in a cycle are drawn in [CycleColor].
func ToDOT(el graph.Elements, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	if opts.LeftToRight {
		buf.WriteString("  rankdir=LR;\n")
	} else {
		buf.WriteString("  rankdir=TB;\n")
	}
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  compound=true;\n")
	buf.WriteString("  fontname=\"Helvetica\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontname=\"Helvetica\", fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [color=\"#555555\", arrowsize=0.7];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	if opts.Title != "" {
		fmt.Fprintf(&buf, "  label=%q;\n  labelloc=t;\n", opts.Title)
	}
	buf.WriteString("\n")

	t := newTree(el)
	for _, n := range t.nodes[""] {
		writeNode(&buf, n, "  ")
	}
	for _, c := range t.children[""] {
		t.writeCluster(&buf, c, "  ")
	}

	if len(el.Edges) > 0 {
		buf.WriteString("\n")
	}
	for _, e := range el.Edges {
		fmt.Fprintf(&buf, "  %q -> %q", e.Source, e.Target)
		if attrs := edgeAttrs(e, opts); len(attrs) > 0 {
			fmt.Fprintf(&buf, " [%s]", strings.Join(attrs, ", "))
		}
		buf.WriteString(";\n")
	}

	buf.WriteString("}\n")
	return buf.String()
}

// tree indexes containers and nodes by their parent container. The empty key
// holds top-level entries.
type tree struct {
	children map[string][]graph.Container
	nodes    map[string][]graph.Node
}

func newTree(el graph.Elements) *tree {
	known := make(map[string]bool, len(el.Containers))
	for _, c := range el.Containers {
		known[c.ID] = true
	}
	t := &tree{
		children: make(map[string][]graph.Container),
		nodes:    make(map[string][]graph.Node),
	}
	for _, c := range el.Containers {
		parent := c.ParentContainerID
		if !known[parent] || parent == c.ID {
			parent = ""
		}
		t.children[parent] = append(t.children[parent], c)
	}
	for _, n := range el.Nodes {
		parent := n.ContainerParentID
		if !known[parent] {
			parent = ""
		}
		t.nodes[parent] = append(t.nodes[parent], n)
	}
	return t
}

func (t *tree) writeCluster(buf *bytes.Buffer, c graph.Container, indent string) {
	fmt.Fprintf(buf, "%ssubgraph %q {\n", indent, "cluster_"+c.ID)
	inner := indent + "  "
	fmt.Fprintf(buf, "%slabel=%q;\n", inner, c.Label)
	fmt.Fprintf(buf, "%sstyle=\"rounded,filled\";\n", inner)
	fmt.Fprintf(buf, "%sfillcolor=%q;\n", inner, clusterFill(c.Kind))
	fmt.Fprintf(buf, "%scolor=\"#999999\";\n", inner)
	for _, n := range t.nodes[c.ID] {
		writeNode(buf, n, inner)
	}
	for _, child := range t.children[c.ID] {
		t.writeCluster(buf, child, inner)
	}
	fmt.Fprintf(buf, "%s}\n", indent)
}

func clusterFill(kind string) string {
	switch kind {
	case graph.ContainerModule:
		return "#eef3fb"
	case graph.ContainerClass:
		return "#fbf4e6"
	default:
		return "#f7f7f7"
	}
}

func writeNode(buf *bytes.Buffer, n graph.Node, indent string) {
	fmt.Fprintf(buf, "%s%q [%s];\n", indent, n.ID, strings.Join(nodeAttrs(n), ", "))
}

func nodeAttrs(n graph.Node) []string {
	attrs := []string{fmt.Sprintf("label=%q", n.Name)}
	switch n.Kind {
	case entity.KindPackage.String():
		attrs = append(attrs, "shape=folder")
	case entity.KindClass.String():
		attrs = append(attrs, "shape=component")
	case entity.KindMethod.String():
		attrs = append(attrs, "shape=ellipse")
	case entity.KindField.String():
		attrs = append(attrs, "shape=note", "fontsize=12")
	}
	if n.Synthetic {
		attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=lightgrey")
	}
	if n.IsInCycle {
		attrs = append(attrs, fmt.Sprintf("color=%q", CycleColor), "penwidth=2")
	}
	return attrs
}

func edgeAttrs(e graph.Edge, opts Options) []string {
	var attrs []string
	switch entity.EdgeKind(e.Kind) {
	case entity.EdgeInherit:
		attrs = append(attrs, "arrowhead=empty")
	case entity.EdgeCompose:
		attrs = append(attrs, "arrowhead=diamond")
	case entity.EdgeContains:
		attrs = append(attrs, "style=dotted", "arrowhead=none")
	case entity.EdgeCall:
		attrs = append(attrs, "style=dashed")
	}
	if opts.EdgeLabels {
		attrs = append(attrs, fmt.Sprintf("label=%q", e.Kind), "fontsize=10")
	}
	if e.IsInCycle {
		attrs = append(attrs, fmt.Sprintf("color=%q", CycleColor), "penwidth=2")
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
// Returns the SVG bytes ready for display or further conversion with
// [render.ToPDF] or [render.ToPNG].
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

// normalizeViewBox replaces Graphviz's point-based svg header with a plain
// pixel-sized one anchored at the origin.
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

	header := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(header))
}

// RenderPDF renders a DOT graph as PDF via SVG conversion.
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPDF(ctx context.Context, dot string) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(ctx, svg)
}

// RenderPNG renders a DOT graph as PNG via SVG conversion.
// A scale of 2.0 produces a 2x resolution image suitable for high-DPI displays.
func RenderPNG(ctx context.Context, dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(ctx, svg, scale)
}
