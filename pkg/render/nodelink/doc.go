// Package nodelink renders view elements as clustered node-link diagrams.
//
// [ToDOT] writes Graphviz DOT in which each container is a nested
// "cluster_" subgraph, so the package/module/class grouping of the view
// survives into the drawing. Cycle members are stroked in [CycleColor].
//
//	dot := nodelink.ToDOT(elements, nodelink.Options{Title: "shop"})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// SVG rendering runs Graphviz in-process through
// [github.com/goccy/go-graphviz]. PDF and PNG conversion requires librsvg
// (rsvg-convert).
package nodelink
